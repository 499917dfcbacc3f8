// Package metrics exposes Prometheus counters for the membership protocol.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"teamup/apperr"
	"teamup/models"
)

type Metrics struct {
	invitationsSent     *prometheus.CounterVec
	invitationsResolved *prometheus.CounterVec
	membershipChanges   *prometheus.CounterVec
	protocolRejections  *prometheus.CounterVec
	subscriptions       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invitationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamup_invitations_sent_total",
			Help: "Invitations and join requests created.",
		}, []string{"type"}),
		invitationsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamup_invitations_resolved_total",
			Help: "Invitations moved out of pending.",
		}, []string{"status"}),
		membershipChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamup_membership_changes_total",
			Help: "Committed roster mutations.",
		}, []string{"op"}),
		protocolRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamup_protocol_rejections_total",
			Help: "Membership operations refused by a precondition.",
		}, []string{"code"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamup_realtime_subscriptions",
			Help: "Open live subscriptions.",
		}),
	}
	reg.MustRegister(
		m.invitationsSent,
		m.invitationsResolved,
		m.membershipChanges,
		m.protocolRejections,
		m.subscriptions,
	)
	return m
}

func (m *Metrics) InvitationSent(t models.InvitationType) {
	if m == nil {
		return
	}
	m.invitationsSent.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) InvitationResolved(s models.InvitationStatus) {
	if m == nil {
		return
	}
	m.invitationsResolved.WithLabelValues(string(s)).Inc()
}

// MembershipChanged records op: create, join, remove, leave or terminate.
func (m *Metrics) MembershipChanged(op string) {
	if m == nil {
		return
	}
	m.membershipChanges.WithLabelValues(op).Inc()
}

// Rejected counts err by its apperr code; internal failures are not
// protocol rejections and are skipped.
func (m *Metrics) Rejected(err error) {
	if m == nil || err == nil {
		return
	}
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		return
	}
	m.protocolRejections.WithLabelValues(string(code)).Inc()
}

func (m *Metrics) SubscriptionDelta(delta int) {
	if m == nil {
		return
	}
	m.subscriptions.Add(float64(delta))
}
