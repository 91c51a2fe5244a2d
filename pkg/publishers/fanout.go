package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const maxConcurrentPublishes = 4

// kindFilter is implemented by publishers that only take some event kinds.
type kindFilter interface {
	Accepts(kind string) bool
}

// Fanout delivers each load event to every interested publisher.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp}
}

// Publish sends evt to the publishers accepting its kind, a few at a time.
// It returns how many deliveries succeeded; every failure is joined into
// the error. Publishers not started before ctx is done are reported, not called.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		delivered atomic.Int32
		g         errgroup.Group
	)
	errs := make([]error, len(f.publishers))
	g.SetLimit(maxConcurrentPublishes)

	for i, p := range f.publishers {
		if kf, ok := p.(kindFilter); ok && !kf.Accepts(evt.Kind) {
			continue
		}
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = p.Publish(ctx, evt)
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(delivered.Load()), errors.Join(errs...)
}

// Size returns the number of publishers, regardless of their kind filters.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
