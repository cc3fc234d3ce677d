package chart

import (
	"strings"

	"meteogram-service/internal/common"
)

// Category is the coarse rendering class for a weather symbol code.
type Category string

const (
	CategoryClear  Category = "clear"
	CategoryPartly Category = "partly"
	CategoryCloudy Category = "cloudy"
	CategoryRain   Category = "rain"
	CategorySnow   Category = "snow"
	CategorySleet  Category = "sleet"
	CategoryFog    Category = "fog"
)

// symbolRules are tested in priority order; the first match wins. Sleet
// outranks snow and rain since its codes contain both words' roots.
var symbolRules = []struct {
	matches  func(string) bool
	category Category
}{
	{func(s string) bool { return strings.Contains(s, "sleet") }, CategorySleet},
	{func(s string) bool { return common.HasAny(s, "snow", "hail") }, CategorySnow},
	{func(s string) bool { return common.HasAny(s, "rain", "drizzle") }, CategoryRain},
	{func(s string) bool { return common.HasAny(s, "fog", "mist") }, CategoryFog},
	{func(s string) bool { return common.HasAny(s, "partlycloudy", "fair") }, CategoryPartly},
	{func(s string) bool { return strings.Contains(s, "cloud") }, CategoryCloudy},
	{func(s string) bool { return common.HasAny(s, "clearsky", "clear", "sun") }, CategoryClear},
}

// Classify maps an opaque symbol code onto a rendering category. Day/night
// variant suffixes and thunder qualifiers are ignored.
func Classify(code string) Category {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return CategoryCloudy
	}
	for _, suffix := range []string{"_day", "_night", "_polartwilight"} {
		code = strings.TrimSuffix(code, suffix)
	}
	code = strings.ReplaceAll(code, "andthunder", "")
	code = strings.ReplaceAll(code, "thunder", "")

	for _, rule := range symbolRules {
		if rule.matches(code) {
			return rule.category
		}
	}
	return CategoryPartly
}
