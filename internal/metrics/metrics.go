// Package metrics содержит prometheus-метрики компаньона.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trip_companion"

// Metrics объединяет счётчики ленты уведомлений и входов.
type Metrics struct {
	notificationsCreated *prometheus.CounterVec
	logins               *prometheus.CounterVec
	reg                  prometheus.Registerer
}

// New создаёт и регистрирует счётчики в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Number of notifications added to the feed by source.",
		}, []string{"source"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Number of login attempts by outcome.",
		}, []string{"outcome"}),
		reg: reg,
	}
	reg.MustRegister(m.notificationsCreated, m.logins)
	return m
}

// NotificationCreated увеличивает счётчик созданных уведомлений.
func (m *Metrics) NotificationCreated(source string) {
	m.notificationsCreated.WithLabelValues(source).Inc()
}

// LoginObserved увеличивает счётчик попыток входа.
func (m *Metrics) LoginObserved(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// ObserveUnread регистрирует gauge, который при сборе спрашивает unread.
func (m *Metrics) ObserveUnread(unread func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_unread",
		Help:      "Current number of unread notifications.",
	}, func() float64 { return float64(unread()) }))
}
