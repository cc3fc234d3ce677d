package widget

import (
	"context"
	"log"
	"sort"
	"sync"

	"meteogram-service/internal/chart"
	"meteogram-service/internal/fetch"
)

// Service holds the registered widget instances and fans refreshes out to
// them.
type Service struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	style    chart.Style
	fallback string
	fetcher  *fetch.Controller
	store    Store
}

// NewService creates a Service; instances are registered per source with
// Register.
func NewService(fetcher *fetch.Controller, store Store, style chart.Style, fallback string) *Service {
	return &Service{
		instances: make(map[string]*Instance),
		style:     style,
		fallback:  fallback,
		fetcher:   fetcher,
		store:     store,
	}
}

// Register creates (or returns) the instance for a source.
func (s *Service) Register(source string) *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[source]; ok {
		return inst
	}
	inst := NewInstance(source, s.style, s.fallback, s.fetcher, s.store)
	s.instances[source] = inst
	return inst
}

// Instance looks up the registered instance for a source.
func (s *Service) Instance(source string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[source]
	if !ok {
		return nil, ErrUnknownSource
	}
	return inst, nil
}

// Sources lists the registered source strings, sorted.
func (s *Service) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := make([]string, 0, len(s.instances))
	for src := range s.instances {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// History returns the retained renders for a source.
func (s *Service) History(source string) ([]Render, error) {
	if _, err := s.Instance(source); err != nil {
		return nil, err
	}
	return s.store.GetHistory(source)
}

// RefreshAll runs a fetch cycle for every instance concurrently and waits
// for the stragglers.
func (s *Service) RefreshAll(ctx context.Context) {
	s.mu.RLock()
	instances := make([]*Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		instances = append(instances, inst)
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, inst := range instances {
		inst := inst
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inst.Refresh(ctx); err != nil {
				log.Printf("refresh failed for %s: %v", inst.source, err)
			}
		}()
	}
	wg.Wait()
}

// Shutdown cancels every in-flight cycle.
func (s *Service) Shutdown() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inst := range s.instances {
		inst.Shutdown()
	}
}
