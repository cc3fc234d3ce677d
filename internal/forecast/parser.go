package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"meteogram-service/internal/common"
)

// MaxSamples bounds the series to keep chart width and rendering cost fixed.
const MaxSamples = 48

// minPoints is the smallest series a line chart can interpolate.
const minPoints = 2

// ErrMalformed marks a structurally unusable forecast document. It is
// terminal for the cycle: the response arrived fine, so retrying cannot help.
var ErrMalformed = errors.New("malformed forecast document")

// Parse converts a locationforecast JSON payload into an ordered, validated
// point sequence.
func Parse(payload []byte) ([]Point, error) {
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	series := doc.Properties.Timeseries
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty timeseries", ErrMalformed)
	}
	if len(series) > MaxSamples {
		series = series[:MaxSamples]
	}

	points := make([]Point, 0, len(series))
	for _, s := range series {
		ts, err := time.Parse(time.RFC3339, s.Time)
		if err != nil {
			// Unparsable timestamp drops the sample, not the document.
			continue
		}

		details := s.Data.Instant.Details
		p := Point{
			Time:          ts,
			Temperature:   finite(details.AirTemperature),
			WindSpeed:     finiteNonNegative(details.WindSpeed),
			WindGust:      finiteNonNegative(details.WindSpeedOfGust),
			WindDirection: normalizeDirection(details.WindFromDirection),
		}

		p.Precipitation, p.PrecipitationMax = precipitation(
			s.Data.Next1Hours, s.Data.Next6Hours, s.Data.Next12Hours)
		p.SymbolCode = common.FirstNonEmpty(
			symbol(s.Data.Next1Hours), symbol(s.Data.Next6Hours), symbol(s.Data.Next12Hours))

		points = append(points, p)
	}

	if len(points) < minPoints {
		return nil, fmt.Errorf("%w: %d usable points, need at least %d", ErrMalformed, len(points), minPoints)
	}
	return points, nil
}

// precipitation resolves the fallback chain: the 1-hour amount, else the
// 6-hour amount scaled to per-hour, else the 12-hour amount scaled, else 0.
// The max estimate follows the same chain and is floored at the base amount.
func precipitation(h1, h6, h12 *period) (amount, amountMax float64) {
	switch {
	case h1 != nil && h1.Details.PrecipitationAmount != nil:
		amount = *h1.Details.PrecipitationAmount
		amountMax = periodMax(h1, 1)
	case h6 != nil && h6.Details.PrecipitationAmount != nil:
		amount = *h6.Details.PrecipitationAmount / 6
		amountMax = periodMax(h6, 6)
	case h12 != nil && h12.Details.PrecipitationAmount != nil:
		amount = *h12.Details.PrecipitationAmount / 12
		amountMax = periodMax(h12, 12)
	}
	amount = math.Max(0, amount)
	amountMax = math.Max(amount, amountMax)
	return amount, amountMax
}

func periodMax(p *period, hours float64) float64 {
	if p.Details.PrecipitationAmountMax == nil {
		return 0
	}
	return *p.Details.PrecipitationAmountMax / hours
}

func symbol(p *period) string {
	if p == nil {
		return ""
	}
	return p.Summary.SymbolCode
}

// finite discards non-finite values as absent.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}

func finiteNonNegative(v *float64) *float64 {
	f := finite(v)
	if f == nil || *f < 0 {
		return nil
	}
	return f
}

// normalizeDirection wraps a wind direction into [0, 360).
func normalizeDirection(v *float64) *float64 {
	f := finite(v)
	if f == nil {
		return nil
	}
	d := math.Mod(*f, 360)
	if d < 0 {
		d += 360
	}
	return &d
}
