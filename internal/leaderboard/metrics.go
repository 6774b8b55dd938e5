package leaderboard

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the leaderboard's Prometheus collectors.
type Metrics struct {
	RefreshTotal      *prometheus.CounterVec
	NotificationsSeen prometheus.Counter
	AssignmentsTotal  prometheus.Counter
}

// NewMetrics creates and registers the leaderboard collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_leaderboard_refresh_total",
			Help: "Standings refresh cycles, labelled by result.",
		}, []string{"result"}),
		NotificationsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_leaderboard_notifications_total",
			Help: "Change notifications received, including coalesced ones.",
		}),
		AssignmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_points_assignments_total",
			Help: "Ledger entries appended through the point-assignment command.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.RefreshTotal, m.NotificationsSeen, m.AssignmentsTotal)
	}

	return m
}
