// Package realtime turns change signals into live result-set snapshots.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"teamup/events"
)

// Hub hands out subscriptions backed by a change-event broker.
type Hub struct {
	broker events.Broker
	log    *zap.Logger
	active atomic.Int64
	onOpen func(delta int)
}

type Option func(*Hub)

// WithGauge reports every subscription opened (+1) and cancelled (-1).
func WithGauge(fn func(delta int)) Option {
	return func(h *Hub) { h.onOpen = fn }
}

func NewHub(broker events.Broker, log *zap.Logger, opts ...Option) *Hub {
	h := &Hub{broker: broker, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Active is the number of subscriptions that have not been cancelled.
func (h *Hub) Active() int64 {
	return h.active.Load()
}

func (h *Hub) track(delta int) {
	h.active.Add(int64(delta))
	if h.onOpen != nil {
		h.onOpen(delta)
	}
}

// Subscription is a cancellable stream of snapshots.
type Subscription struct {
	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
	detach    func()
	done      chan struct{}
	hub       *Hub
}

// Cancel stops the subscription. Once Cancel returns no further delivery
// happens; a delivery in progress is waited for. Cancel must not be called
// from inside the deliver callback.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	s.cancel()
	s.detach()
	s.hub.track(-1)
}

// Done is closed when the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Watch delivers query's result immediately and again after every change
// to any of collections. Deliveries are serialised; a failed query is
// logged and skipped.
func Watch[T any](h *Hub, query func(ctx context.Context) (T, error), deliver func(T), collections ...events.Collection) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	changes, detach := h.broker.Subscribe(collections...)

	s := &Subscription{
		cancel: cancel,
		detach: detach,
		done:   make(chan struct{}),
		hub:    h,
	}
	h.track(1)

	go func() {
		defer close(s.done)

		push := func() {
			v, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					h.log.Warn("subscription query failed", zap.Error(err))
				}
				return
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.cancelled {
				return
			}
			deliver(v)
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				drain(changes)
				push()
			}
		}
	}()

	return s
}

// drain coalesces queued signals into the re-query about to run.
func drain(ch <-chan events.Collection) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
