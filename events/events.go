// Package events carries "collection changed" signals from writers to live
// subscriptions. Events name a collection only; subscribers re-query.
package events

import (
	"context"
	"sync"
)

type Collection string

const (
	Profiles      Collection = "profiles"
	Teams         Collection = "teams"
	Members       Collection = "team_members"
	Invitations   Collection = "invitations"
	Notifications Collection = "notifications"
	Posts         Collection = "posts"
	WorkspaceLogs Collection = "workspace_logs"
)

// Membership is the set of collections a membership transition touches.
var Membership = []Collection{Profiles, Teams, Members, Invitations}

type Broker interface {
	Publish(ctx context.Context, collections ...Collection) error
	// Subscribe returns a channel of change signals for the given
	// collections and a function that detaches it.
	Subscribe(collections ...Collection) (<-chan Collection, func())
	Close() error
}

const subscriberBuffer = 16

type subscriber struct {
	ch          chan Collection
	collections map[Collection]struct{}
}

// Local fans events out in process. Sends never block: when a
// subscriber's buffer is full it already has a pending signal, and the
// re-query it triggers observes the newer change too.
type Local struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[*subscriber]struct{})}
}

func (l *Local) Publish(_ context.Context, collections ...Collection) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for s := range l.subs {
		for _, c := range collections {
			if _, ok := s.collections[c]; !ok {
				continue
			}
			select {
			case s.ch <- c:
			default:
			}
		}
	}
	return nil
}

func (l *Local) Subscribe(collections ...Collection) (<-chan Collection, func()) {
	s := &subscriber{
		ch:          make(chan Collection, subscriberBuffer),
		collections: make(map[Collection]struct{}, len(collections)),
	}
	for _, c := range collections {
		s.collections[c] = struct{}{}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	l.subs[s] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if _, ok := l.subs[s]; ok {
				delete(l.subs, s)
				close(s.ch)
			}
		})
	}
}

// Close detaches every subscriber and closes their channels.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for s := range l.subs {
		close(s.ch)
		delete(l.subs, s)
	}
	return nil
}
