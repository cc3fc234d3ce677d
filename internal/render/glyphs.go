package render

import (
	"fmt"
	"math"
	"strings"

	"meteogram-service/internal/chart"
)

// Glyph constructs the procedural weather icon for a category, centered on
// (cx, cy). Every shape is parameterized by size alone so icons scale
// uniformly with glyph density.
func Glyph(category chart.Category, cx, cy, size float64, color string) string {
	switch category {
	case chart.CategoryClear:
		return sun(cx, cy, size*0.42, color)
	case chart.CategoryPartly:
		return sun(cx-size*0.18, cy-size*0.16, size*0.3, color) +
			cloud(cx+size*0.08, cy+size*0.12, size*0.8, color)
	case chart.CategoryRain:
		return cloud(cx, cy-size*0.12, size, color) +
			raindrop(cx-size*0.18, cy+size*0.3, size*0.24, color) +
			raindrop(cx+size*0.18, cy+size*0.36, size*0.24, color)
	case chart.CategorySnow:
		return cloud(cx, cy-size*0.12, size, color) +
			snowflake(cx-size*0.18, cy+size*0.34, size*0.16, color) +
			snowflake(cx+size*0.18, cy+size*0.38, size*0.16, color)
	case chart.CategorySleet:
		return cloud(cx, cy-size*0.12, size, color) +
			raindrop(cx-size*0.18, cy+size*0.32, size*0.22, color) +
			snowflake(cx+size*0.18, cy+size*0.36, size*0.15, color)
	case chart.CategoryFog:
		return fogBands(cx, cy, size, color)
	default:
		return cloud(cx, cy, size, color)
	}
}

// sun draws a disc with eight radiating rays.
func sun(cx, cy, r float64, color string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
		num(cx), num(cy), num(r*0.55), color)
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		x1 := cx + math.Cos(angle)*r*0.7
		y1 := cy + math.Sin(angle)*r*0.7
		x2 := cx + math.Cos(angle)*r
		y2 := cy + math.Sin(angle)*r
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"/>`,
			num(x1), num(y1), num(x2), num(y2), color, num(r*0.18))
	}
	return b.String()
}

// cloud draws three overlapping lobes on a flat base.
func cloud(cx, cy, size float64, color string) string {
	r := size * 0.22
	var b strings.Builder
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
		num(cx-r*0.9), num(cy), num(r*0.8), color)
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
		num(cx), num(cy-r*0.5), num(r), color)
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
		num(cx+r*0.9), num(cy), num(r*0.8), color)
	fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		num(cx-r*0.9), num(cy), num(r*1.8), num(r*0.8), color)
	return b.String()
}

// raindrop draws a teardrop: a pointed top flowing into a round bottom.
func raindrop(cx, cy, size float64, color string) string {
	return fmt.Sprintf(`<path d="M%s %s C%s %s %s %s %s %s C%s %s %s %s %s %s Z" fill="%s"/>`,
		num(cx), num(cy-size),
		num(cx+size*0.8), num(cy+size*0.1), num(cx+size*0.55), num(cy+size), num(cx), num(cy+size),
		num(cx-size*0.55), num(cy+size), num(cx-size*0.8), num(cy+size*0.1), num(cx), num(cy-size),
		color)
}

// snowflake draws four crossing spokes.
func snowflake(cx, cy, r float64, color string) string {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		angle := float64(i) * math.Pi / 4
		x := math.Cos(angle) * r
		y := math.Sin(angle) * r
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"/>`,
			num(cx-x), num(cy-y), num(cx+x), num(cy+y), color, num(r*0.3))
	}
	return b.String()
}

// fogBands draws stacked horizontal bands.
func fogBands(cx, cy, size float64, color string) string {
	var b strings.Builder
	half := size * 0.45
	for i := 0; i < 4; i++ {
		y := cy - size*0.3 + float64(i)*size*0.2
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"/>`,
			num(cx-half), num(y), num(cx+half), num(y), color, num(size*0.09))
	}
	return b.String()
}

// arrow draws a wind direction arrow centered on (cx, cy), pointing the way
// the wind blows. Direction is meteorological (degrees the wind comes from).
func arrow(cx, cy, size, directionFrom float64, color string) string {
	half := size / 2
	head := size * 0.32
	return fmt.Sprintf(
		`<g transform="translate(%s %s) rotate(%s)"><line x1="0" y1="%s" x2="0" y2="%s" stroke="%s" stroke-width="1.2"/><path d="M%s %s L0 %s L%s %s" stroke="%s" stroke-width="1.2" fill="none"/></g>`,
		num(cx), num(cy), num(directionFrom),
		num(-half), num(half), color,
		num(-head*0.6), num(half-head), num(half), num(head*0.6), num(half-head), color)
}
