// services/services.go - Service wiring shared by every domain service
package services

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/events"
	"teamup/metrics"
	"teamup/realtime"
	"teamup/store"
)

// Deps are the collaborators every service needs. A nil Store puts the
// services in degraded mode: reads return empty values and writes are
// no-ops.
type Deps struct {
	Store   store.Store
	Broker  events.Broker
	Hub     *realtime.Hub
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Services bundles the domain services built over one Deps.
type Services struct {
	Profiles      *ProfileService
	Teams         *TeamService
	Membership    *MembershipService
	Notifications *NotificationService
	Feed          *FeedService
	Workspace     *WorkspaceService
	Auth          *AuthService
}

func New(deps Deps, auth AuthConfig) *Services {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Broker == nil {
		deps.Broker = events.NewLocal()
	}
	if deps.Hub == nil {
		deps.Hub = realtime.NewHub(deps.Broker, deps.Log)
	}

	b := base{
		store:   deps.Store,
		broker:  deps.Broker,
		hub:     deps.Hub,
		log:     deps.Log,
		metrics: deps.Metrics,
	}
	return &Services{
		Profiles:      &ProfileService{base: b.named("profiles")},
		Teams:         &TeamService{base: b.named("teams")},
		Membership:    &MembershipService{base: b.named("membership")},
		Notifications: &NotificationService{base: b.named("notifications")},
		Feed:          &FeedService{base: b.named("feed")},
		Workspace:     &WorkspaceService{base: b.named("workspace")},
		Auth:          NewAuthService(b.named("auth"), auth),
	}
}

type base struct {
	store   store.Store
	broker  events.Broker
	hub     *realtime.Hub
	log     *zap.Logger
	metrics *metrics.Metrics
}

func (b base) named(name string) base {
	b.log = b.log.Named(name)
	return b
}

func (b *base) degraded() bool {
	return b.store == nil
}

// publish signals committed changes; delivery problems are logged only.
func (b *base) publish(ctx context.Context, collections ...events.Collection) {
	if err := b.broker.Publish(ctx, collections...); err != nil {
		b.log.Warn("change event not published", zap.Error(err))
	}
}

// publishMembership signals a committed membership transition along with
// the extra collections it wrote.
func (b *base) publishMembership(ctx context.Context, extra ...events.Collection) {
	b.publish(ctx, slices.Concat(events.Membership, extra)...)
}

// atomic runs fn in one store transaction.
func (b *base) atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return b.store.Atomic(ctx, fn)
}

// fail logs err at the level its code calls for and returns it. Store
// failures are errors; refused preconditions are debug noise and counted.
func (b *base) fail(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))
	if apperr.CodeOf(err) == apperr.CodeInternal {
		b.log.Error(op+" failed", fields...)
		return err
	}
	b.metrics.Rejected(err)
	b.log.Debug(op+" rejected", fields...)
	return err
}

// empty returns a non-nil empty slice for JSON responses.
func empty[T any]() []T {
	return []T{}
}
