package chart

import (
	"errors"
	"math"

	"meteogram-service/internal/forecast"
)

// ErrTooFewPoints is returned for series a line chart cannot interpolate.
var ErrTooFewPoints = errors.New("chart needs at least 2 points")

// precipSteps is the ordered set of "nice" precipitation axis steps.
var precipSteps = []float64{0.2, 0.5, 1, 2, 3, 5, 10}

// layout constants, in pixels of the untransformed viewBox.
const (
	marginLeft   = 44
	marginRight  = 44
	marginTop    = 46 // room for the weather glyph row
	marginBottom = 26 // room for hour labels
	windBandH    = 54 // wind strip at the bottom of the plot
	bandGap      = 8
)

// Band is a vertical slice of the plot one axis maps into.
type Band struct {
	Top    float64
	Height float64
}

// DaySegment is a contiguous run of points sharing a calendar date.
type DaySegment struct {
	Start int // first point index
	End   int // last point index, inclusive
	Label string
	Left  float64
	Right float64
}

// Geometry is everything the renderer needs, recomputed from scratch on
// every render and never mutated in place.
type Geometry struct {
	Style  Style
	Points []forecast.Point

	TempMin, TempMax float64
	WindMax          float64
	PrecipStep       float64
	PrecipMax        float64

	PlotLeft, PlotRight float64
	PlotTop, PlotBottom float64
	MainBand            Band // temperature line and precipitation bars
	WindBand            Band // wind/gust curves and direction arrows

	X            []float64 // per-point horizontal center
	SegmentLeft  []float64 // per-point segment bounds, meeting at midpoints
	SegmentRight []float64
	Days         []DaySegment
	Samples      []int // indices carrying glyphs, arrows and hour labels
}

// Compute derives the chart geometry from a validated point sequence and a
// style. Pure: same inputs, same geometry.
func Compute(points []forecast.Point, style Style) (Geometry, error) {
	if len(points) < 2 {
		return Geometry{}, ErrTooFewPoints
	}

	g := Geometry{
		Style:      style,
		Points:     points,
		PlotLeft:   marginLeft,
		PlotRight:  style.Width - marginRight,
		PlotTop:    marginTop,
		PlotBottom: style.Height - marginBottom,
	}
	g.WindBand = Band{Top: g.PlotBottom - windBandH, Height: windBandH}
	g.MainBand = Band{Top: g.PlotTop, Height: g.WindBand.Top - bandGap - g.PlotTop}

	g.computeDomains()
	g.computeX()
	g.computeDays()
	g.computeSamples()
	return g, nil
}

func (g *Geometry) computeDomains() {
	tempSeen := false
	tempMin, tempMax := 0.0, 0.0
	windMax := 0.0
	precipMax := 0.0
	for _, p := range g.Points {
		if p.Temperature != nil {
			if !tempSeen || *p.Temperature < tempMin {
				tempMin = *p.Temperature
			}
			if !tempSeen || *p.Temperature > tempMax {
				tempMax = *p.Temperature
			}
			tempSeen = true
		}
		if p.WindSpeed != nil {
			windMax = math.Max(windMax, *p.WindSpeed)
		}
		if p.WindGust != nil {
			windMax = math.Max(windMax, *p.WindGust)
		}
		precipMax = math.Max(precipMax, math.Max(p.Precipitation, p.PrecipitationMax))
	}

	g.TempMin = math.Floor((tempMin-2)/2) * 2
	g.TempMax = math.Ceil((tempMax+2)/2) * 2
	if g.TempMin == g.TempMax {
		g.TempMin -= 2
		g.TempMax += 2
	}

	g.WindMax = math.Max(4, math.Ceil(windMax+1))

	g.PrecipStep, g.PrecipMax = precipDomain(precipMax)
}

// precipDomain picks the smallest nice step that covers the observed
// maximum in a handful of increments, then rounds the maximum up to a
// multiple of that step.
func precipDomain(observed float64) (step, max float64) {
	if observed <= 0 {
		return precipSteps[0], precipSteps[0] * 3
	}
	step = precipSteps[len(precipSteps)-1]
	for _, s := range precipSteps {
		if observed <= s*4 {
			step = s
			break
		}
	}
	max = math.Ceil(observed/step-1e-9) * step
	return step, max
}

func (g *Geometry) computeX() {
	n := len(g.Points)
	width := g.PlotRight - g.PlotLeft
	g.X = make([]float64, n)
	for i := range g.Points {
		g.X[i] = g.PlotLeft + width*float64(i)/float64(n-1)
	}

	// Each point owns a segment reaching halfway to its neighbors, so day
	// boundaries fall between points rather than through them.
	g.SegmentLeft = make([]float64, n)
	g.SegmentRight = make([]float64, n)
	for i := range g.Points {
		if i == 0 {
			g.SegmentLeft[i] = g.PlotLeft
		} else {
			g.SegmentLeft[i] = (g.X[i-1] + g.X[i]) / 2
		}
		if i == n-1 {
			g.SegmentRight[i] = g.PlotRight
		} else {
			g.SegmentRight[i] = (g.X[i] + g.X[i+1]) / 2
		}
	}
}

func (g *Geometry) computeDays() {
	var current *DaySegment
	for i, p := range g.Points {
		y, m, d := p.Time.Date()
		if current != nil {
			cy, cm, cd := g.Points[current.Start].Time.Date()
			if y == cy && m == cm && d == cd {
				current.End = i
				continue
			}
			g.Days = append(g.Days, *current)
		}
		current = &DaySegment{Start: i, End: i, Label: p.Time.Format("Mon 2 Jan")}
	}
	if current != nil {
		g.Days = append(g.Days, *current)
	}
	for i := range g.Days {
		g.Days[i].Left = g.SegmentLeft[g.Days[i].Start]
		g.Days[i].Right = g.SegmentRight[g.Days[i].End]
	}
}

func (g *Geometry) computeSamples() {
	n := len(g.Points)
	stride := int(math.Round(float64(n) / float64(g.Style.glyphTarget())))
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < n; i += stride {
		g.Samples = append(g.Samples, i)
	}
	// The final point is always shown.
	if g.Samples[len(g.Samples)-1] != n-1 {
		if n-1-g.Samples[len(g.Samples)-1] < stride/2 {
			g.Samples[len(g.Samples)-1] = n - 1
		} else {
			g.Samples = append(g.Samples, n-1)
		}
	}
}

// TempY maps a temperature onto the main band. The domain has a strictly
// positive range by construction.
func (g *Geometry) TempY(v float64) float64 {
	return bandY(g.MainBand, (v-g.TempMin)/(g.TempMax-g.TempMin))
}

// WindY maps a wind speed onto the wind band, clamped to [0, WindMax].
func (g *Geometry) WindY(v float64) float64 {
	return bandY(g.WindBand, clamp01(v/g.WindMax))
}

// PrecipY maps a precipitation amount onto the main band, clamped to
// [0, PrecipMax]; callers label clipped values separately.
func (g *Geometry) PrecipY(v float64) float64 {
	return bandY(g.MainBand, clamp01(v/g.PrecipMax))
}

func bandY(b Band, frac float64) float64 {
	return b.Top + b.Height*(1-frac)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
