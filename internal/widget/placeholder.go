package widget

// PlaceholderSVG is the built-in last-resort vector document, shown when a
// source has never rendered and no fallback content is configured.
const PlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 380" preserveAspectRatio="xMidYMid meet">
<rect x="0.5" y="0.5" width="799" height="379" fill="none" stroke="#999999" stroke-dasharray="6 4"/>
<g stroke="#999999" stroke-width="2" fill="none">
<path d="M290 190 a40 40 0 0 1 40 -40 a48 48 0 0 1 92 10 a34 34 0 0 1 -6 68 h-92 a40 40 0 0 1 -34 -38"/>
<line x1="330" y1="250" x2="322" y2="270"/>
<line x1="370" y1="250" x2="362" y2="270"/>
<line x1="410" y1="250" x2="402" y2="270"/>
</g>
<text x="400" y="310" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#999999">No forecast available</text>
</svg>
`
