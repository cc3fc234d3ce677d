package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"meteogram-service/internal/resolver"
)

func testController(userAgent string) *Controller {
	return New(Config{
		Client:      &http.Client{Timeout: 5 * time.Second},
		UserAgent:   userAgent,
		BackoffUnit: time.Millisecond,
	})
}

func rawTarget(url string) resolver.FetchTarget {
	return resolver.FetchTarget{RequestURL: url, Kind: resolver.KindRawVector}
}

func forecastTarget(url string) resolver.FetchTarget {
	return resolver.FetchTarget{RequestURL: url, Kind: resolver.KindStructuredForecast}
}

func TestSucceedsOnFifthAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 5 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<svg/>"))
	}))
	defer srv.Close()

	res, err := testController("test-agent").Do(context.Background(), rawTarget(srv.URL), Validators{})
	if err != nil {
		t.Fatalf("expected success on 5th attempt, got %v", err)
	}
	if res.State != StateSuccess || res.Attempts != 5 {
		t.Errorf("state=%v attempts=%d, want success after 5", res.State, res.Attempts)
	}
	if string(res.Payload) != "<svg/>" {
		t.Errorf("payload = %q", res.Payload)
	}
}

func TestFailsAfterFiveAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res, err := testController("test-agent").Do(context.Background(), rawTarget(srv.URL), Validators{})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if res.State != StateFailed || res.Attempts != 5 {
		t.Errorf("state=%v attempts=%d, want failed after 5", res.State, res.Attempts)
	}
	if n := atomic.LoadInt32(&calls); n != 5 {
		t.Errorf("server saw %d requests, want 5", n)
	}
}

func TestFailingHostDoesNotBlockHealthyHost(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	var healthyCalls int32
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&healthyCalls, 1)
		w.Write([]byte("<svg/>"))
	}))
	defer healthy.Close()

	ctrl := testController("test-agent")

	// Two exhausted cycles against the failing host open its breaker.
	for i := 0; i < 2; i++ {
		if _, err := ctrl.Do(context.Background(), rawTarget(failing.URL), Validators{}); !errors.Is(err, ErrExhausted) {
			t.Fatalf("expected ErrExhausted from failing host, got %v", err)
		}
	}

	res, err := ctrl.Do(context.Background(), rawTarget(healthy.URL), Validators{})
	if err != nil {
		t.Fatalf("healthy host must stay reachable, got %v", err)
	}
	if res.State != StateSuccess {
		t.Errorf("state=%v, want success", res.State)
	}
	if n := atomic.LoadInt32(&healthyCalls); n != 1 {
		t.Errorf("healthy server saw %d requests, want 1", n)
	}
}

func TestNotModifiedShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != `"v1"` {
			t.Errorf("missing conditional header, got %q", r.Header.Get("If-None-Match"))
		}
		if r.URL.Query().Has("nocache") {
			t.Error("cache buster must not be sent alongside validators")
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	vals := Validators{ETag: `"v1"`, RequestURL: srv.URL}
	res, err := testController("test-agent").Do(context.Background(), rawTarget(srv.URL), vals)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateNotModified {
		t.Errorf("state = %v, want not_modified", res.State)
	}
	if res.Validators != vals {
		t.Errorf("validators must be retained on 304, got %+v", res.Validators)
	}
}

func TestCapturesValidatorsOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
		w.Header().Set("Last-Modified", "Wed, 01 Jan 2025 00:00:00 GMT")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	res, err := testController("test-agent").Do(context.Background(), forecastTarget(srv.URL), Validators{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Validators.ETag != `"v2"` || res.Validators.LastModified == "" {
		t.Errorf("validators not captured: %+v", res.Validators)
	}
	if res.Validators.RequestURL != srv.URL {
		t.Errorf("validators bound to wrong URL: %q", res.Validators.RequestURL)
	}
}

func TestValidatorsForOtherURLAreDiscarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			t.Error("stale validators from a different URL must not be sent")
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	stale := Validators{ETag: `"old"`, RequestURL: "https://other.example/endpoint"}
	if _, err := testController("test-agent").Do(context.Background(), forecastTarget(srv.URL), stale); err != nil {
		t.Fatal(err)
	}
}

func TestCacheBusterOnlyForRawVector(t *testing.T) {
	var sawBuster bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawBuster = r.URL.Query().Has("nocache")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testController("test-agent")
	if _, err := c.Do(context.Background(), rawTarget(srv.URL), Validators{}); err != nil {
		t.Fatal(err)
	}
	if !sawBuster {
		t.Error("raw-vector fetch without validators should append a cache buster")
	}

	if _, err := c.Do(context.Background(), forecastTarget(srv.URL), Validators{}); err != nil {
		t.Fatal(err)
	}
	if sawBuster {
		t.Error("structured-forecast fetch must never append a cache buster")
	}
}

func TestMissingIdentificationIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("fetch must not be attempted without identification")
	}))
	defer srv.Close()

	_, err := testController("  ").Do(context.Background(), rawTarget(srv.URL), Validators{})
	if !errors.Is(err, ErrMissingIdentification) {
		t.Fatalf("expected ErrMissingIdentification, got %v", err)
	}
}

func TestCancellationIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(Config{
		Client:      &http.Client{Timeout: 5 * time.Second},
		UserAgent:   "test-agent",
		BackoffUnit: time.Second,
	})
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := c.Do(ctx, rawTarget(srv.URL), Validators{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n > 2 {
		t.Errorf("cancelled cycle kept retrying: %d calls", n)
	}
}
