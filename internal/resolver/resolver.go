package resolver

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// TargetKind classifies what a resolved URL is expected to return.
type TargetKind string

const (
	// KindRawVector means the URL serves a ready-made SVG document.
	KindRawVector TargetKind = "raw-vector"
	// KindStructuredForecast means the URL serves a locationforecast JSON document.
	KindStructuredForecast TargetKind = "structured-forecast"
)

// FetchTarget is a resolved request descriptor: an absolute URL plus the
// kind of payload it yields. Immutable once built.
type FetchTarget struct {
	RequestURL string
	Kind       TargetKind
}

const (
	forecastAPIHost      = "api.met.no"
	locationForecastPath = "/weatherapi/locationforecast/2.0/compact"
	classicMeteogramPath = "/weatherapi/meteogram"
	portalHost           = "yr.no"
)

// Portal content URLs embed coordinates in the path, e.g.
// https://www.yr.no/en/content/61.123,10.456/meteogram.svg
var portalMeteogramRe = regexp.MustCompile(`/content/(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)/[^/]*meteogram`)

// NormalizeURL trims the raw source string and coerces it into an absolute
// URL if possible, trying an https:// and then an http:// prefix. Non-empty
// input that cannot be parsed is returned trimmed and unmodified; the second
// return is false only for empty input.
func NormalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, candidate := range []string{raw, "https://" + raw, "http://" + raw} {
		u, err := url.Parse(candidate)
		if err == nil && u.Scheme != "" && u.Host != "" {
			return u.String(), true
		}
	}
	return raw, true
}

// ResolveFetchTarget classifies a normalized URL into a concrete fetch
// target. Portal meteogram URLs and legacy classic-meteogram URLs are
// rewritten to the canonical locationforecast endpoint; anything that cannot
// be classified is treated verbatim as a raw vector resource. Never fails.
func ResolveFetchTarget(normalized string) FetchTarget {
	raw := FetchTarget{RequestURL: normalized, Kind: KindRawVector}
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == portalHost || strings.HasSuffix(host, "."+portalHost):
		if m := portalMeteogramRe.FindStringSubmatch(u.Path); m != nil {
			if t, ok := buildForecastTarget(m[1], m[2], u.Query().Get("altitude")); ok {
				return t
			}
		}
	case host == forecastAPIHost:
		if strings.HasPrefix(u.Path, locationForecastPath) {
			return FetchTarget{RequestURL: normalized, Kind: KindStructuredForecast}
		}
		if strings.HasPrefix(u.Path, classicMeteogramPath) {
			q := u.Query()
			if t, ok := buildForecastTarget(q.Get("lat"), q.Get("lon"), q.Get("altitude")); ok {
				return t
			}
		}
	}
	return raw
}

// buildForecastTarget assembles the canonical locationforecast request from
// textual coordinates. Any cache-busting or unrelated query parameters of the
// original URL are dropped since the query is rebuilt from scratch.
func buildForecastTarget(lat, lon, altitude string) (FetchTarget, bool) {
	latF, errLat := strconv.ParseFloat(lat, 64)
	lonF, errLon := strconv.ParseFloat(lon, 64)
	if errLat != nil || errLon != nil {
		return FetchTarget{}, false
	}
	latS, okLat := TruncateCoordinate(latF)
	lonS, okLon := TruncateCoordinate(lonF)
	if !okLat || !okLon {
		return FetchTarget{}, false
	}

	q := url.Values{}
	q.Set("lat", latS)
	q.Set("lon", lonS)
	if altitude != "" {
		if _, err := strconv.Atoi(altitude); err == nil {
			q.Set("altitude", altitude)
		}
	}
	u := url.URL{
		Scheme:   "https",
		Host:     forecastAPIHost,
		Path:     locationForecastPath,
		RawQuery: q.Encode(),
	}
	return FetchTarget{RequestURL: u.String(), Kind: KindStructuredForecast}, true
}

// TruncateCoordinate formats a coordinate with at most 4 fractional digits,
// as required by the forecast API's terms of service. The absolute value is
// rounded to 4 decimals, the sign reapplied, and trailing fractional zeros
// stripped (a lone integer-style ".0" is kept). Non-finite input is rejected.
func TruncateCoordinate(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	rounded := math.Round(math.Abs(v)*10000) / 10000
	if math.Signbit(v) {
		rounded = -rounded
	}
	s := strconv.FormatFloat(rounded, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s, true
}
