package forecast

import "time"

// Point is one sampled instant of the forecast series. Optional fields are
// nil when the source omitted them or supplied a non-finite value. A point
// sequence is ordered by time ascending (source order, never re-sorted) and
// immutable once parsed.
type Point struct {
	Time          time.Time
	Temperature   *float64 // °C
	WindSpeed     *float64 // m/s
	WindGust      *float64 // m/s
	WindDirection *float64 // degrees, normalized into [0, 360)

	// Precipitation is derived from the shortest available forward summary
	// (1h amount, else 6h/6, else 12h/12, else 0), never negative.
	Precipitation float64 // mm
	// PrecipitationMax is the analogous upper estimate, floored at
	// Precipitation.
	PrecipitationMax float64 // mm

	SymbolCode string
}

// document mirrors the consumed subset of the locationforecast response.
// Timestamps decode as strings so a single bad value drops one sample
// instead of failing the whole document.
type document struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Timeseries []sample `json:"timeseries"`
	} `json:"properties"`
}

type sample struct {
	Time string `json:"time"`
	Data struct {
		Instant struct {
			Details struct {
				AirTemperature    *float64 `json:"air_temperature"`
				WindSpeed         *float64 `json:"wind_speed"`
				WindSpeedOfGust   *float64 `json:"wind_speed_of_gust"`
				WindFromDirection *float64 `json:"wind_from_direction"`
			} `json:"details"`
		} `json:"instant"`
		Next1Hours  *period `json:"next_1_hours"`
		Next6Hours  *period `json:"next_6_hours"`
		Next12Hours *period `json:"next_12_hours"`
	} `json:"data"`
}

type period struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount    *float64 `json:"precipitation_amount"`
		PrecipitationAmountMax *float64 `json:"precipitation_amount_max"`
	} `json:"details"`
}
