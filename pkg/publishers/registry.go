package publishers

import (
	"context"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps publisher types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every sink shipped with the loader.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP: newHTTPPublisher,
		TypeSQS:  newSQSPublisher,
		TypeSNS:  newSNSPublisher,
	}
}

// Build constructs the publisher for cfg. Sinks with a kinds list are
// wrapped so the fanout only hands them matching events.
func (b Builders) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	build := b[typ]
	if build == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}

	pub, err := build(ctx, cfg, ensureLogger(log))
	if err != nil {
		return nil, err
	}
	if len(cfg.Kinds) > 0 {
		return routed{Publisher: pub, cfg: cfg}, nil
	}
	return pub, nil
}

// BuildAll constructs publishers for cfgs in order, failing on the first error.
func (b Builders) BuildAll(ctx context.Context, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

type routed struct {
	Publisher
	cfg PublisherConfig
}

func (r routed) Accepts(kind string) bool { return r.cfg.Accepts(kind) }
