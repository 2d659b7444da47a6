package analytics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	m      sync.Mutex
	events []Event
	err    error
	panic  bool
}

func (s *recordingSink) Emit(_ context.Context, e Event) error {
	if s.panic {
		panic("sink exploded")
	}
	s.m.Lock()
	defer s.m.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) names() []string {
	s.m.Lock()
	defer s.m.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name
	}
	return out
}

func TestAsync_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	a := NewAsync(sink, 8, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = a.Run(ctx)
		close(done)
	}()

	require.NoError(t, a.Emit(ctx, Event{Name: EventAddToCart}))
	require.NoError(t, a.Emit(ctx, Event{Name: EventPurchase}))

	require.Eventually(t, func() bool {
		return len(sink.names()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{EventAddToCart, EventPurchase}, sink.names())

	cancel()
	<-done
}

func TestAsync_DropsWhenFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sink := &recordingSink{}
	a := NewAsync(sink, 1, zerolog.Nop(), m)

	assert.NoError(t, a.Emit(context.Background(), Event{Name: "first"}))
	assert.NoError(t, a.Emit(context.Background(), Event{Name: "second"}))

	a.Close()
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []string{"first"}, sink.names())
	expected := `
# HELP storefront_analytics_events_dropped_total Analytics events dropped because the queue was full or the sink failed.
# TYPE storefront_analytics_events_dropped_total counter
storefront_analytics_events_dropped_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "storefront_analytics_events_dropped_total"))
}

func TestAsync_SinkFailuresAreSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	a := NewAsync(sink, 4, zerolog.Nop(), nil)

	assert.NoError(t, a.Emit(context.Background(), Event{Name: EventPurchase}))
	a.Close()
	assert.NoError(t, a.Run(context.Background()))
	assert.Len(t, sink.names(), 1)
}

func TestAsync_RecoversSinkPanic(t *testing.T) {
	sink := &recordingSink{panic: true}
	a := NewAsync(sink, 4, zerolog.Nop(), nil)

	assert.NoError(t, a.Emit(context.Background(), Event{Name: EventPurchase}))
	a.Close()
	assert.NotPanics(t, func() {
		_ = a.Run(context.Background())
	})
}

func TestAsync_EmitAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	a := NewAsync(sink, 4, zerolog.Nop(), nil)
	a.Close()

	assert.NoError(t, a.Emit(context.Background(), Event{Name: EventPurchase}))
	assert.NoError(t, a.Run(context.Background()))
	assert.Empty(t, sink.names())
}
