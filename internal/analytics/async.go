package analytics

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/rs/zerolog"
)

// Async turns any sink into fire-and-forget: Emit only enqueues and never
// fails, a single worker drains the queue, full queues drop events.
type Async struct {
	sink    Emitter
	queue   chan Event
	log     zerolog.Logger
	metrics *metrics.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

func NewAsync(sink Emitter, buffer int, log zerolog.Logger, m *metrics.Metrics) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	return &Async{
		sink:    sink,
		queue:   make(chan Event, buffer),
		log:     log,
		metrics: m,
		done:    make(chan struct{}),
	}
}

func (a *Async) Emit(_ context.Context, e Event) error {
	select {
	case <-a.done:
		a.metrics.AnalyticsDropped()
		return nil
	default:
	}

	select {
	case a.queue <- e:
	default:
		a.metrics.AnalyticsDropped()
		a.log.Debug().Str("event", e.Name).Msg("analytics queue full, event dropped")
	}
	return nil
}

// Run drains the queue until ctx is cancelled or Close is called, then
// flushes what is already queued.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		case <-ctx.Done():
			a.flush(context.WithoutCancel(ctx))
			return nil
		case <-a.done:
			a.flush(ctx)
			return nil
		}
	}
}

func (a *Async) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

func (a *Async) flush(ctx context.Context) {
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, e Event) {
	defer func() {
		if r := recover(); r != nil {
			a.metrics.AnalyticsDropped()
			a.log.Error().Str("event", e.Name).Str("panic", fmt.Sprint(r)).Msg("analytics sink panicked")
		}
	}()
	if err := a.sink.Emit(ctx, e); err != nil {
		a.metrics.AnalyticsDropped()
		a.log.Warn().Err(err).Str("event", e.Name).Msg("analytics sink failed")
	}
}
