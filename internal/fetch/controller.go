package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"meteogram-service/internal/resolver"
)

// State is the position of a fetch cycle in its life.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateRetrying
	StateSuccess
	StateNotModified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateRetrying:
		return "retrying"
	case StateSuccess:
		return "success"
	case StateNotModified:
		return "not_modified"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrMissingIdentification means the required client-identification
	// header has no value; the fetch is not attempted.
	ErrMissingIdentification = errors.New("client identification header is blank")
	// ErrExhausted means all attempts failed.
	ErrExhausted = errors.New("fetch attempts exhausted")

	errServerError      = errors.New("server error")
	errRateLimited      = errors.New("rate limited")
	errUnexpectedStatus = errors.New("unexpected status code")
	errCircuitOpen      = errors.New("circuit breaker open")
)

// Validators holds the conditional-request state captured from a previous
// successful response. RequestURL records which resolved URL the validators
// belong to; a different URL invalidates them.
type Validators struct {
	ETag         string
	LastModified string
	RequestURL   string
}

func (v Validators) empty() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Result is the outcome of one fetch cycle.
type Result struct {
	State      State
	Payload    []byte
	Attempts   int
	Validators Validators
}

// Config bundles the HTTP client and retry behaviour of a Controller.
type Config struct {
	Client         *http.Client
	UserAgent      string
	MaxAttempts    int           // default 5
	AttemptTimeout time.Duration // default 15s, per individual attempt
	BackoffUnit    time.Duration // default 1s; delay before attempt n+1 is n*BackoffUnit
	MaxPayload     int64         // default 8 MiB
}

// Controller executes one logical retrieval against a resolved target:
// conditional-cache headers, per-attempt timeout, linear-backoff retries,
// and a per-host circuit breaker shared across cycles.
type Controller struct {
	cfg Config

	mu       sync.Mutex
	circuits map[string]*gobreaker.CircuitBreaker
}

func New(cfg Config) *Controller {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = 8 << 20
	}
	return &Controller{cfg: cfg, circuits: make(map[string]*gobreaker.CircuitBreaker)}
}

// breakerFor returns the circuit breaker for the target's host, creating it
// on first use. Breakers are scoped per host so one failing endpoint cannot
// block fetches for every other source.
func (c *Controller) breakerFor(requestURL string) *gobreaker.CircuitBreaker {
	host := requestURL
	if u, err := url.Parse(requestURL); err == nil && u.Host != "" {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.circuits[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
		c.circuits[host] = cb
	}
	return cb
}

// Do runs a full fetch cycle against the target. Validators from a prior
// cycle are honoured only if they were captured for the same resolved URL.
// Cancellation of ctx (a superseding cycle or shutdown) aborts immediately
// and is reported as the context error, never as exhaustion.
func (c *Controller) Do(ctx context.Context, target resolver.FetchTarget, vals Validators) (Result, error) {
	if strings.TrimSpace(c.cfg.UserAgent) == "" {
		return Result{State: StateFailed}, ErrMissingIdentification
	}
	if vals.RequestURL != target.RequestURL {
		vals = Validators{RequestURL: target.RequestURL}
	}

	res := Result{Validators: vals}
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		res.State = StateFetching

		payload, captured, status, err := c.attempt(ctx, target, vals)
		if err == nil {
			if status == http.StatusNotModified {
				res.State = StateNotModified
				return res, nil
			}
			res.State = StateSuccess
			res.Payload = payload
			res.Validators = captured
			return res, nil
		}
		if ctx.Err() != nil {
			// Superseded or shut down; not a retryable failure.
			res.State = StateFailed
			return res, ctx.Err()
		}
		lastErr = err
		if attempt == c.cfg.MaxAttempts {
			break
		}

		res.State = StateRetrying
		timer := time.NewTimer(time.Duration(attempt) * c.cfg.BackoffUnit)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.State = StateFailed
			return res, ctx.Err()
		case <-timer.C:
		}
	}
	res.State = StateFailed
	return res, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.cfg.MaxAttempts, lastErr)
}

// attempt performs a single conditional GET with the 15-second timeout and
// the circuit breaker wrapped around the transport call.
func (c *Controller) attempt(ctx context.Context, target resolver.FetchTarget, vals Validators) ([]byte, Validators, int, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := c.buildRequest(actx, target, vals)
	if err != nil {
		return nil, vals, 0, err
	}

	result, err := c.breakerFor(target.RequestURL).Execute(func() (interface{}, error) {
		resp, execErr := c.cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		// Not-modified is a successful revalidation, not an error.
		if resp.StatusCode == http.StatusNotModified {
			return resp, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, vals, 0, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, vals, 0, err
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		io.Copy(io.Discard, resp.Body)
		return nil, vals, resp.StatusCode, nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxPayload))
	if err != nil {
		return nil, vals, 0, err
	}

	captured := Validators{
		RequestURL:   target.RequestURL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	return payload, captured, resp.StatusCode, nil
}

func (c *Controller) buildRequest(ctx context.Context, target resolver.FetchTarget, vals Validators) (*http.Request, error) {
	requestURL := target.RequestURL

	// Without validators we cannot revalidate, so force freshness. Raw
	// vector resources get a cache-busting parameter; structured-forecast
	// requests are queried by coordinate and never carry one.
	if vals.empty() && target.Kind == resolver.KindRawVector {
		if u, err := url.Parse(requestURL); err == nil {
			q := u.Query()
			q.Set("nocache", strconv.FormatInt(time.Now().UnixMilli(), 10))
			u.RawQuery = q.Encode()
			requestURL = u.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if target.Kind == resolver.KindStructuredForecast {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "image/svg+xml, text/html;q=0.9, */*;q=0.8")
	}
	if vals.ETag != "" {
		req.Header.Set("If-None-Match", vals.ETag)
	}
	if vals.LastModified != "" {
		req.Header.Set("If-Modified-Since", vals.LastModified)
	}
	if vals.empty() {
		req.Header.Set("Cache-Control", "no-cache")
	}
	return req, nil
}
