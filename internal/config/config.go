package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"meteogram-service/internal/chart"
)

var validate = validator.New()

type AppConfig struct {
	// Sources are the configured meteogram source URLs, one widget
	// instance per entry.
	Sources []string `validate:"required,min=1"`

	// UserAgent identifies this service to upstream weather APIs.
	// met.no rejects anonymous clients, so it must be set.
	UserAgent string `validate:"required"`

	// RefreshInterval controls how often every source is refreshed.
	RefreshInterval time.Duration
	RefreshEnabled  bool

	// HTTPTimeout bounds the outbound client as a whole; the fetch
	// controller applies its own per-attempt timeout on top.
	HTTPTimeout time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of renders per source (0 = unlimited)
	StoreMaxAge     time.Duration // max age of renders (0 = unlimited)

	// Style is the chart theme, default values overridden per field
	// from THEME_* variables.
	Style chart.Style

	// FallbackSVG is served when a source has never rendered and the
	// current cycle failed. Empty means the built-in placeholder.
	FallbackSVG string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Sources = splitList(os.Getenv("METEOGRAM_SOURCES"))
	cfg.UserAgent = os.Getenv("METEOGRAM_USER_AGENT")

	// Scheduler interval: default 30 minutes, matching upstream
	// forecast update cadence.
	intervalStr := getenvDefault("REFRESH_INTERVAL", "30m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval
	cfg.RefreshEnabled = getenvBool("REFRESH_ENABLED", true)

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "90s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48) // roughly 24h at 30-minute intervals

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.Style = loadStyle()

	if path := os.Getenv("FALLBACK_SVG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading FALLBACK_SVG_PATH: %w", err)
		}
		cfg.FallbackSVG = string(data)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadStyle starts from the built-in theme and overrides individual
// fields from THEME_* variables when present.
func loadStyle() chart.Style {
	style := chart.DefaultStyle()

	style.Width = getenvFloat("THEME_WIDTH", style.Width)
	style.Height = getenvFloat("THEME_HEIGHT", style.Height)
	style.FontSize = getenvFloat("THEME_FONT_SIZE", style.FontSize)
	style.GlyphTarget = getenvInt("THEME_GLYPH_TARGET", style.GlyphTarget)

	overrideColor := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overrideColor("THEME_TEMP_COLOR", &style.TempColor)
	overrideColor("THEME_WIND_COLOR", &style.WindColor)
	overrideColor("THEME_GUST_COLOR", &style.GustColor)
	overrideColor("THEME_PRECIP_COLOR", &style.PrecipColor)
	overrideColor("THEME_PRECIP_MAX_COLOR", &style.PrecipMaxColor)
	overrideColor("THEME_GRID_COLOR", &style.GridColor)
	overrideColor("THEME_TEXT_COLOR", &style.TextColor)
	overrideColor("THEME_DAY_SHADE_COLOR", &style.DayShadeColor)
	overrideColor("THEME_GLYPH_COLOR", &style.GlyphColor)
	overrideColor("THEME_BACKGROUND", &style.Background)

	return style
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
