package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestBuildAllWithDefaultBuilders(t *testing.T) {
	pubs, err := DefaultBuilders().BuildAll(context.Background(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "maps", Type: TypeHTTP, Kinds: []string{KindMap}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(pubs))
	}
	if _, ok := pubs[0].(kindFilter); ok {
		t.Fatalf("sink without kinds should not be filtered")
	}
	if kf, ok := pubs[1].(kindFilter); !ok || kf.Accepts(KindJSON) || !kf.Accepts(KindMap) {
		t.Fatalf("sink with kinds should be filtered, got %T", pubs[1])
	}
}

func TestBuildRejectsUnknownType(t *testing.T) {
	if _, err := DefaultBuilders().Build(context.Background(), PublisherConfig{ID: "x", Type: "kafka"}, nil); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestFanoutRoutesByKind(t *testing.T) {
	all := &stubPublisher{id: "all", typ: "http"}
	maps := &stubPublisher{id: "maps", typ: "http"}
	fanout := NewFanout([]Publisher{
		all,
		routed{Publisher: maps, cfg: PublisherConfig{Kinds: []string{KindMap}}},
	})

	count, err := fanout.Publish(context.Background(), Event{Kind: KindBinary})
	if err != nil || count != 1 {
		t.Fatalf("expected 1 delivery, got count=%d err=%v", count, err)
	}
	if _, err := fanout.Publish(context.Background(), Event{Kind: KindMap}); err != nil {
		t.Fatalf("publish map: %v", err)
	}
	if all.calls != 2 || maps.calls != 1 {
		t.Fatalf("unexpected calls all=%d maps=%d", all.calls, maps.calls)
	}
}

func TestFanoutSkipsPublishersAfterCancel(t *testing.T) {
	pub := &stubPublisher{id: "ok", typ: "http"}
	fanout := NewFanout([]Publisher{pub, nil})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := fanout.Publish(ctx, Event{})
	if count != 0 || err == nil {
		t.Fatalf("expected cancelled publish, got count=%d err=%v", count, err)
	}
	if pub.calls != 0 {
		t.Fatalf("publisher should not be called after cancel")
	}
	if fanout.Size() != 1 {
		t.Fatalf("nil publishers should be dropped, size=%d", fanout.Size())
	}
}
