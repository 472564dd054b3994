package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/providers"
)

type ProvidersConfig struct {
	TickInterval string             `json:"tick_interval"`
	KV           []KVProviderConfig `json:"kv"`
}

// KVProviderConfig publishes one key/value store entry as a dynamic
// room variable.
type KVProviderConfig struct {
	Key       string `json:"key"`
	Scope     string `json:"scope"`
	Container string `json:"container"`
	ValueKey  string `json:"value_key"`
}

func (c *ProvidersConfig) validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		_, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		}
	}

	for i, p := range c.KV {
		if p.Key == "" || p.Scope == "" || p.Container == "" || p.ValueKey == "" {
			el.Add(fmt.Errorf("kv provider %d: key, scope, container, and value_key are required", i))
		}
	}

	return el.Err()
}

func (c *ProvidersConfig) BuildRefresher(registry *providers.Registry, sources []providers.Source) (*providers.Refresher, error) {
	var opts []providers.RefresherOpt
	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		opts = append(opts, providers.WithTickLength(d))
	}

	return providers.NewRefresher(registry, sources, opts...), nil
}
