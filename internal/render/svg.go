// Package render assembles chart geometry into a self-contained SVG
// document. All numeric output goes through num() at fixed precision so the
// same geometry always serializes to the same bytes.
package render

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"meteogram-service/internal/chart"
	"meteogram-service/internal/forecast"
)

const glyphRowY = 24 // vertical center of the weather icon row

// num formats a coordinate with fixed 2-decimal precision.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Chart renders the full meteogram from computed geometry.
func Chart(g chart.Geometry) string {
	s := g.Style
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" preserveAspectRatio="xMidYMid meet" font-family="sans-serif" font-size="%s">`,
		num(s.Width), num(s.Height), num(s.FontSize))
	b.WriteByte('\n')

	writeDayShading(&b, g)
	writeGrid(&b, g)
	writePrecipBars(&b, g)
	writeTempPath(&b, g)
	writeWindPaths(&b, g)
	writeDayBoundaries(&b, g)
	writeLabels(&b, g)
	writeGlyphRow(&b, g)
	writeWindArrows(&b, g)

	b.WriteString("</svg>\n")
	return b.String()
}

// writeDayShading bands every other day segment for orientation.
func writeDayShading(b *strings.Builder, g chart.Geometry) {
	for i, day := range g.Days {
		if i%2 == 0 {
			continue
		}
		fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(day.Left), num(g.PlotTop), num(day.Right-day.Left), num(g.PlotBottom-g.PlotTop), g.Style.DayShadeColor)
		b.WriteByte('\n')
	}
}

func writeGrid(b *strings.Builder, g chart.Geometry) {
	for _, tick := range tempTicks(g) {
		y := g.TempY(tick)
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="0.5"/>`,
			num(g.PlotLeft), num(y), num(g.PlotRight), num(y), g.Style.GridColor)
		b.WriteByte('\n')
	}
	// The wind band gets a top rule and a midline.
	for _, y := range []float64{g.WindBand.Top, g.WindBand.Top + g.WindBand.Height/2} {
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="0.5"/>`,
			num(g.PlotLeft), num(y), num(g.PlotRight), num(y), g.Style.GridColor)
		b.WriteByte('\n')
	}
}

// tempTicks picks an even temperature label step so at most ~8 gridlines
// cross the main band.
func tempTicks(g chart.Geometry) []float64 {
	tickStep := 2.0
	for _, step := range []float64{2, 5, 10, 20} {
		if (g.TempMax-g.TempMin)/step <= 8 {
			tickStep = step
			break
		}
	}
	var ticks []float64
	for v := g.TempMin; v <= g.TempMax; v += tickStep {
		ticks = append(ticks, v)
	}
	return ticks
}

func writePrecipBars(b *strings.Builder, g chart.Geometry) {
	bottom := g.MainBand.Top + g.MainBand.Height
	for i, p := range g.Points {
		if p.PrecipitationMax <= 0 {
			continue
		}
		left := g.SegmentLeft[i]
		width := g.SegmentRight[i] - left
		inset := width * 0.12

		// The hatched upper-estimate bar sits behind the solid one.
		if p.PrecipitationMax > p.Precipitation {
			y := g.PrecipY(p.PrecipitationMax)
			fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="url(#precip-max-hatch)"/>`,
				num(left+inset), num(y), num(width-2*inset), num(bottom-y))
			b.WriteByte('\n')
		}
		if p.Precipitation > 0 {
			y := g.PrecipY(p.Precipitation)
			fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
				num(left+inset), num(y), num(width-2*inset), num(bottom-y), g.Style.PrecipColor)
			b.WriteByte('\n')
		}
		// A value past the axis is clipped to the band top and labelled.
		if p.Precipitation > g.PrecipMax {
			fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" fill="%s">%s</text>`,
				num(left+width/2), num(g.MainBand.Top-3), g.Style.PrecipColor, trimFloat(p.Precipitation))
			b.WriteByte('\n')
		}
	}
	writeHatchDef(b, g)
}

func writeHatchDef(b *strings.Builder, g chart.Geometry) {
	fmt.Fprintf(b, `<defs><pattern id="precip-max-hatch" width="4" height="4" patternUnits="userSpaceOnUse" patternTransform="rotate(45)"><line x1="0" y1="0" x2="0" y2="4" stroke="%s" stroke-width="1.5"/></pattern></defs>`,
		g.Style.PrecipMaxColor)
	b.WriteByte('\n')
}

func writeTempPath(b *strings.Builder, g chart.Geometry) {
	path := linePath(g, func(p forecast.Point) (float64, bool) {
		if p.Temperature == nil {
			return 0, false
		}
		return g.TempY(*p.Temperature), true
	})
	if path == "" {
		return
	}
	fmt.Fprintf(b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, path, g.Style.TempColor)
	b.WriteByte('\n')
}

func writeWindPaths(b *strings.Builder, g chart.Geometry) {
	speed := linePath(g, func(p forecast.Point) (float64, bool) {
		if p.WindSpeed == nil {
			return 0, false
		}
		return g.WindY(*p.WindSpeed), true
	})
	if speed != "" {
		fmt.Fprintf(b, `<path d="%s" fill="none" stroke="%s" stroke-width="1.5"/>`, speed, g.Style.WindColor)
		b.WriteByte('\n')
	}
	gust := linePath(g, func(p forecast.Point) (float64, bool) {
		if p.WindGust == nil {
			return 0, false
		}
		return g.WindY(*p.WindGust), true
	})
	if gust != "" {
		fmt.Fprintf(b, `<path d="%s" fill="none" stroke="%s" stroke-width="1" stroke-dasharray="4 3"/>`, gust, g.Style.GustColor)
		b.WriteByte('\n')
	}
}

// linePath emits "M x y L x y ..." segments, restarting with M after gaps
// where a value is absent.
func linePath(g chart.Geometry, y func(forecast.Point) (float64, bool)) string {
	var b strings.Builder
	pen := false
	for i, p := range g.Points {
		yv, ok := y(p)
		if !ok {
			pen = false
			continue
		}
		if pen {
			fmt.Fprintf(&b, " L%s %s", num(g.X[i]), num(yv))
		} else {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "M%s %s", num(g.X[i]), num(yv))
			pen = true
		}
	}
	return b.String()
}

func writeDayBoundaries(b *strings.Builder, g chart.Geometry) {
	for i, day := range g.Days {
		if i > 0 {
			fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`,
				num(day.Left), num(g.PlotTop), num(day.Left), num(g.PlotBottom), g.Style.GridColor)
			b.WriteByte('\n')
		}
		center := (day.Left + day.Right) / 2
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" fill="%s" font-weight="bold">%s</text>`,
			num(center), num(g.PlotBottom+18), g.Style.TextColor, html.EscapeString(day.Label))
		b.WriteByte('\n')
	}
}

func writeLabels(b *strings.Builder, g chart.Geometry) {
	// Temperature scale on the left.
	for _, tick := range tempTicks(g) {
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" fill="%s">%s°</text>`,
			num(g.PlotLeft-6), num(g.TempY(tick)+4), g.Style.TempColor, trimFloat(tick))
		b.WriteByte('\n')
	}
	// Precipitation scale on the right.
	for v := g.PrecipStep; v <= g.PrecipMax+1e-9; v += g.PrecipStep {
		fmt.Fprintf(b, `<text x="%s" y="%s" fill="%s">%s</text>`,
			num(g.PlotRight+6), num(g.PrecipY(v)+4), g.Style.PrecipColor, trimFloat(v))
		b.WriteByte('\n')
	}
	// Wind scale: just the band maximum.
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" fill="%s">%s</text>`,
		num(g.PlotLeft-6), num(g.WindBand.Top+g.Style.FontSize), g.Style.WindColor, trimFloat(g.WindMax))
	b.WriteByte('\n')

	// Unit legend.
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" fill="%s">°C</text>`,
		num(g.PlotLeft-6), num(g.PlotTop-6), g.Style.TempColor)
	fmt.Fprintf(b, `<text x="%s" y="%s" fill="%s">mm</text>`,
		num(g.PlotRight+6), num(g.PlotTop-6), g.Style.PrecipColor)
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" fill="%s">m/s</text>`,
		num(g.PlotLeft-6), num(g.WindBand.Top-4), g.Style.WindColor)
	b.WriteByte('\n')

	// Hour labels under the sampled columns.
	for _, i := range g.Samples {
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" fill="%s">%s</text>`,
			num(g.X[i]), num(g.PlotBottom+9), g.Style.TextColor, g.Points[i].Time.Format("15"))
		b.WriteByte('\n')
	}
}

func writeGlyphRow(b *strings.Builder, g chart.Geometry) {
	size := glyphSize(g)
	for _, i := range g.Samples {
		category := chart.Classify(g.Points[i].SymbolCode)
		b.WriteString(Glyph(category, g.X[i], glyphRowY, size, g.Style.GlyphColor))
		b.WriteByte('\n')
	}
}

func writeWindArrows(b *strings.Builder, g chart.Geometry) {
	size := glyphSize(g) * 0.55
	y := g.WindBand.Top + g.WindBand.Height - size*0.7
	for _, i := range g.Samples {
		p := g.Points[i]
		if p.WindDirection == nil {
			continue
		}
		b.WriteString(arrow(g.X[i], y, size, *p.WindDirection, g.Style.WindColor))
		b.WriteByte('\n')
	}
}

// glyphSize keeps icons clear of their neighbors at any sampling density.
func glyphSize(g chart.Geometry) float64 {
	spacing := (g.PlotRight - g.PlotLeft) / float64(len(g.Samples))
	return math.Min(30, spacing*0.85)
}

// trimFloat drops insignificant fractional digits from axis labels.
func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
