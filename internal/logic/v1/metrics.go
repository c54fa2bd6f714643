package v1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_session_activations_total",
		Help: "Activation calls by outcome (created, reused).",
	}, []string{"outcome"})

	sessionsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_sessions_expired_total",
		Help: "Sessions flipped inactive, by the path that noticed (read, activate, sweep, abandoned).",
	}, []string{"via"})

	marksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Mark attempts by result.",
	}, []string{"result"})
)
