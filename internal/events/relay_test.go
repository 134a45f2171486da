package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bakery-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOutbox struct {
	mu        sync.Mutex
	pending   []domain.OrderEvent
	published []domain.OrderEvent
}

func (s *stubOutbox) publishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *stubOutbox) Drain(ctx context.Context, limit int, publish func(context.Context, []domain.OrderEvent) (int, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if len(batch) == 0 {
		return 0, nil
	}
	n, _ := publish(ctx, batch)
	s.published = append(s.published, batch[:n]...)
	s.pending = s.pending[n:]
	return n, nil
}

type stubPublisher struct {
	failOn string
	sent   []string
}

func (p *stubPublisher) Publish(_ context.Context, ev domain.OrderEvent) error {
	if ev.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, ev.EventID)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func events(ids ...string) []domain.OrderEvent {
	out := make([]domain.OrderEvent, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.OrderEvent{EventID: id, Type: domain.EventOrderCreated})
	}
	return out
}

func TestRelay_DrainOnceStopsAtFirstFailure(t *testing.T) {
	repo := &stubOutbox{pending: events("e1", "e2", "e3")}
	pub := &stubPublisher{failOn: "e2"}
	relay := NewRelay(repo, pub, time.Second, nil, nil)

	n, err := relay.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"e1"}, pub.sent)
	require.Len(t, repo.pending, 2)

	pub.failOn = ""
	n, err = relay.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2", "e3"}, pub.sent)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	repo := &stubOutbox{pending: events("e1")}
	pub := &stubPublisher{}
	relay := NewRelay(repo, pub, 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.publishedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(Settings{Driver: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)
	require.NoError(t, p.Publish(context.Background(), domain.OrderEvent{EventID: "x"}))

	_, err = NewPublisher(Settings{Driver: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}
