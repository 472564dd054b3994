// Package providers feeds values to dynamic room variables. Sources
// are polled on a fixed tick and their results cached in a registry
// that rooms consult when they serialize.
package providers

import (
	"context"
	"sync"
	"time"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
)

const DefaultTickLength = time.Second * 2

// Source produces the current value for one dynamic variable key.
type Source interface {
	Key() string
	Value(context.Context) (sfs.Value, error)
}

// Registry holds the latest value per key. It implements
// zones.VariableResolver.
type Registry struct {
	mu     sync.RWMutex
	values map[string]sfs.Value
}

func NewRegistry() *Registry {
	return &Registry{
		values: map[string]sfs.Value{},
	}
}

func (r *Registry) Resolve(key string) (sfs.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

func (r *Registry) set(key string, v sfs.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = v
}

// Refresher polls the sources on a tick and updates the registry.
type Refresher struct {
	tickLength time.Duration
	registry   *Registry
	sources    []Source
}

func NewRefresher(registry *Registry, sources []Source, opts ...RefresherOpt) *Refresher {
	r := &Refresher{
		tickLength: DefaultTickLength,
		registry:   registry,
		sources:    sources,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Refresher) Start(ctx context.Context) error {
	// Prime the registry so early logins don't see null variables.
	r.Tick(ctx)

	ticker := time.NewTicker(r.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick refreshes every source. A failing source keeps its previous
// value.
func (r *Refresher) Tick(ctx context.Context) {
	for _, s := range r.sources {
		v, err := s.Value(ctx)
		if err != nil {
			log.GetLogger(ctx).Warnf("refreshing variable provider %s: %s", s.Key(), err)
			continue
		}
		r.registry.set(s.Key(), v)
	}
}
