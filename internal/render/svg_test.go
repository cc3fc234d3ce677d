package render

import (
	"strings"
	"testing"
	"time"

	"meteogram-service/internal/chart"
	"meteogram-service/internal/forecast"
)

func fp(v float64) *float64 { return &v }

func testGeometry(t *testing.T) chart.Geometry {
	t.Helper()
	start := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	points := make([]forecast.Point, 12)
	for i := range points {
		points[i] = forecast.Point{
			Time:          start.Add(time.Duration(i) * time.Hour),
			Temperature:   fp(float64(i) - 4),
			WindSpeed:     fp(3.5),
			WindGust:      fp(6.0),
			WindDirection: fp(float64(i * 30)),
			SymbolCode:    "lightrain",
		}
		points[i].Precipitation = 0.3
		points[i].PrecipitationMax = 0.9
	}
	g, err := chart.Compute(points, chart.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestChartShape(t *testing.T) {
	svg := Chart(testGeometry(t))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 380.00"`) {
		t.Errorf("unexpected root element: %.120s", svg)
	}
	if strings.Contains(svg, `width="800`) {
		t.Error("root must scale via viewBox, not fixed width")
	}
	for _, want := range []string{"<path d=\"M", "stroke-dasharray", "url(#precip-max-hatch)", "°C", "m/s", "mm", "Fri 10 Jan"} {
		if !strings.Contains(svg, want) {
			t.Errorf("rendered chart missing %q", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(svg), "</svg>") {
		t.Error("document not closed")
	}
}

func TestChartIsDeterministic(t *testing.T) {
	g := testGeometry(t)
	if Chart(g) != Chart(g) {
		t.Error("same geometry must serialize identically")
	}
}

func TestOverMaxLabel(t *testing.T) {
	start := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	points := make([]forecast.Point, 4)
	for i := range points {
		points[i] = forecast.Point{Time: start.Add(time.Duration(i) * time.Hour)}
	}
	points[1].Precipitation = 2.0
	points[1].PrecipitationMax = 2.0
	g, err := chart.Compute(points, chart.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	// Shrink the domain below the observed value to force clipping.
	g.PrecipMax = 1.0
	svg := Chart(g)
	if !strings.Contains(svg, ">2</text>") {
		t.Error("clipped bar should carry a numeric over-max label")
	}
}

func TestGlyphsPresentForEachSample(t *testing.T) {
	g := testGeometry(t)
	svg := Chart(g)
	// lightrain renders a cloud (3 circles + rect) and two raindrop paths
	// per sampled column.
	drops := strings.Count(svg, " C") // raindrop curve commands
	if drops < len(g.Samples) {
		t.Errorf("expected raindrop glyphs for %d samples, found %d curves", len(g.Samples), drops)
	}
	arrows := strings.Count(svg, "rotate(")
	if arrows < len(g.Samples) {
		t.Errorf("expected %d wind arrows, found %d", len(g.Samples), arrows)
	}
}
