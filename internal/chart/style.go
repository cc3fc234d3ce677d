package chart

// Style is the visual configuration shared by the layout engine and the
// renderer. Colors are any SVG color value.
type Style struct {
	Width  float64
	Height float64

	FontSize float64

	TempColor      string
	WindColor      string
	GustColor      string
	PrecipColor    string
	PrecipMaxColor string
	GridColor      string
	TextColor      string
	DayShadeColor  string
	GlyphColor     string
	Background     string

	// GlyphTarget is the rough number of icon/arrow columns to keep
	// visible regardless of series length.
	GlyphTarget int
}

// DefaultStyle returns the built-in theme.
func DefaultStyle() Style {
	return Style{
		Width:          800,
		Height:         380,
		FontSize:       11,
		TempColor:      "#c60000",
		WindColor:      "#444466",
		GustColor:      "#8888aa",
		PrecipColor:    "#006edb",
		PrecipMaxColor: "#67a7e5",
		GridColor:      "#cccccc",
		TextColor:      "#333333",
		DayShadeColor:  "#00000014",
		GlyphColor:     "#555555",
		Background:     "transparent",
	}
}

func (s Style) glyphTarget() int {
	if s.GlyphTarget > 0 {
		return s.GlyphTarget
	}
	return 18
}
