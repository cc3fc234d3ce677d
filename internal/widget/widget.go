// Package widget owns the per-source lifecycle: one Instance per configured
// source string, each with its own cache validators, last good render and
// status. Validators are never shared across instances.
package widget

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"meteogram-service/internal/chart"
	"meteogram-service/internal/fetch"
	"meteogram-service/internal/forecast"
	"meteogram-service/internal/render"
	"meteogram-service/internal/resolver"
	"meteogram-service/internal/sanitize"
)

// Status is what the host observes, besides the vector string itself.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

var (
	// ErrInvalidSource means the source string is unusable.
	ErrInvalidSource = errors.New("source string is empty or unusable")
	// ErrUnknownSource means no instance is registered for the source.
	ErrUnknownSource = errors.New("no widget instance for source")
)

// Render is one sanitized vector document produced for a source.
type Render struct {
	Source    string              `json:"source"`
	Kind      resolver.TargetKind `json:"kind"`
	SVG       string              `json:"-"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Store is the contract the render store must satisfy.
type Store interface {
	SaveRender(source string, r Render)
	GetLatest(source string) (Render, error)
	GetHistory(source string) ([]Render, error)
}

// Snapshot is the externally visible state of an instance.
type Snapshot struct {
	Source     string    `json:"source"`
	Status     Status    `json:"status"`
	Message    string    `json:"message,omitempty"`
	FetchState string    `json:"fetchState"`
	Attempts   int       `json:"attempts"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Instance is the state record for one source. All mutation happens under
// the mutex; at most one fetch cycle is current, and reconfiguration or a
// newer refresh positively cancels a superseded in-flight cycle.
type Instance struct {
	mu sync.Mutex

	source   string
	style    chart.Style
	fallback string
	fetcher  *fetch.Controller
	store    Store

	target     resolver.FetchTarget
	validators fetch.Validators
	lastGood   string
	status     Status
	message    string
	fetchState fetch.State
	attempts   int
	updatedAt  time.Time

	cancel     context.CancelFunc
	generation int
}

// NewInstance builds an idle instance for a source. The store may be nil
// when no render history is wanted.
func NewInstance(source string, style chart.Style, fallback string, fetcher *fetch.Controller, store Store) *Instance {
	return &Instance{
		source:   source,
		style:    style,
		fallback: fallback,
		fetcher:  fetcher,
		store:    store,
		status:   StatusLoading,
	}
}

// Current returns the displayable vector document and status. The document
// degrades from the last good render through the configured fallback to the
// built-in placeholder; it is never empty.
func (in *Instance) Current() (svg string, status Status, message string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch {
	case in.lastGood != "":
		svg = in.lastGood
	case in.fallback != "":
		svg = in.fallback
	default:
		svg = PlaceholderSVG
	}
	return svg, in.status, in.message
}

// Snapshot reports the instance state for the status endpoint.
func (in *Instance) Snapshot() Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	return Snapshot{
		Source:     in.source,
		Status:     in.status,
		Message:    in.message,
		FetchState: in.fetchState.String(),
		Attempts:   in.attempts,
		UpdatedAt:  in.updatedAt,
	}
}

// Refresh runs one full fetch cycle. A cycle still in flight is cancelled
// first; if this cycle is itself superseded before it completes, its results
// are discarded without touching validators, output or status.
func (in *Instance) Refresh(ctx context.Context) error {
	in.mu.Lock()
	if in.cancel != nil {
		in.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	in.cancel = cancel
	in.generation++
	gen := in.generation
	in.status = StatusLoading
	in.message = ""

	normalized, ok := resolver.NormalizeURL(in.source)
	if !ok {
		in.mu.Unlock()
		in.conclude(gen, "", fetch.Result{State: fetch.StateFailed}, ErrInvalidSource)
		return ErrInvalidSource
	}
	target := resolver.ResolveFetchTarget(normalized)
	// A different resolved endpoint invalidates prior validators.
	if target.RequestURL != in.target.RequestURL {
		in.validators = fetch.Validators{RequestURL: target.RequestURL}
	}
	in.target = target
	vals := in.validators
	in.mu.Unlock()

	res, err := in.fetcher.Do(cctx, target, vals)
	if err != nil {
		in.conclude(gen, "", res, err)
		return err
	}
	if res.State == fetch.StateNotModified {
		in.conclude(gen, "", res, nil)
		return nil
	}

	svg, err := in.produce(target.Kind, res.Payload)
	in.conclude(gen, svg, res, err)
	return err
}

// produce turns a fetched payload into a sanitized vector document.
func (in *Instance) produce(kind resolver.TargetKind, payload []byte) (string, error) {
	markup := string(payload)
	if kind == resolver.KindStructuredForecast {
		points, err := forecast.Parse(payload)
		if err != nil {
			return "", err
		}
		geometry, err := chart.Compute(points, in.style)
		if err != nil {
			return "", err
		}
		markup = render.Chart(geometry)
	}
	return sanitize.Clean(markup, sanitize.Options{Background: in.style.Background})
}

// conclude applies a finished cycle's outcome, unless a newer cycle has
// superseded it in the meantime.
func (in *Instance) conclude(gen int, svg string, res fetch.Result, err error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if gen != in.generation {
		log.Printf("INFO: discarding superseded fetch cycle for %s", in.source)
		return
	}
	// Release the cycle context so it is not left registered on a
	// long-lived parent.
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
	in.fetchState = res.State
	in.attempts = res.Attempts
	in.updatedAt = time.Now().UTC()

	switch {
	case err == nil && res.State == fetch.StateNotModified:
		// Prior output stays on display; revalidation is a no-op success.
		in.status = StatusReady
	case err == nil:
		in.lastGood = svg
		in.validators = res.Validators
		in.status = StatusReady
		if in.store != nil {
			in.store.SaveRender(in.source, Render{
				Source:    in.source,
				Kind:      in.target.Kind,
				SVG:       svg,
				CreatedAt: in.updatedAt,
			})
		}
	case errors.Is(err, context.Canceled):
		// Superseded by shutdown or a newer cycle; leave state alone.
	default:
		log.Printf("ERROR: fetch cycle failed for %s: %v", in.source, err)
		// Degrade silently when anything displayable exists; surface the
		// message only when the placeholder is all that is left.
		if in.lastGood != "" || in.fallback != "" {
			in.status = StatusReady
		} else {
			in.status = StatusError
			in.message = err.Error()
		}
	}
}

// Shutdown cancels any in-flight cycle.
func (in *Instance) Shutdown() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
}
