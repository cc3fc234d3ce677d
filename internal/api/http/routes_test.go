package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"meteogram-service/internal/chart"
	"meteogram-service/internal/fetch"
	"meteogram-service/internal/store"
	"meteogram-service/internal/widget"
)

func testApp(sources ...string) (*fiber.App, *widget.Service) {
	app := fiber.New()

	fetcher := fetch.New(fetch.Config{UserAgent: "meteogram-service-test/1.0"})
	memStore := store.NewMemoryStore(10, time.Hour)
	svc := widget.NewService(fetcher, memStore, chart.DefaultStyle(), "")
	for _, src := range sources {
		svc.Register(src)
	}
	RegisterRoutes(app, svc)
	return app, svc
}

func TestMeteogramRequiresSource(t *testing.T) {
	app, _ := testApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meteogram", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestMeteogramUnknownSource(t *testing.T) {
	app, _ := testApp("https://www.yr.no/en/content/61.1,10.9/meteogram.svg")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meteogram?src=https://elsewhere.example/chart", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestMeteogramServesPlaceholderBeforeFirstRefresh(t *testing.T) {
	src := "https://www.yr.no/en/content/61.1,10.9/meteogram.svg"
	app, _ := testApp(src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meteogram?src="+src, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if got := resp.Header.Get("X-Meteogram-Status"); got != string(widget.StatusLoading) {
		t.Errorf("expected status header %q, got %q", widget.StatusLoading, got)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Errorf("expected an inline vector document, got %q", string(body))
	}
}

func TestStatusEndpoint(t *testing.T) {
	src := "https://www.yr.no/en/content/61.1,10.9/meteogram.svg"
	app, _ := testApp(src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meteogram/status?src="+src, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var snap widget.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Source != src {
		t.Errorf("expected source %q, got %q", src, snap.Source)
	}
	if snap.Status != widget.StatusLoading {
		t.Errorf("expected loading status, got %q", snap.Status)
	}
}

func TestHistoryEmptyReturnsNotFound(t *testing.T) {
	src := "https://www.yr.no/en/content/61.1,10.9/meteogram.svg"
	app, _ := testApp(src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meteogram/history?src="+src, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	app, _ := testApp(
		"https://www.yr.no/en/content/61.1,10.9/meteogram.svg",
		"https://api.met.no/weatherapi/locationforecast/2.0/compact?lat=59.9&lon=10.7",
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(body.Sources))
	}
}
