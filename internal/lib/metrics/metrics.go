// Package metrics объявляет метрики Prometheus сервиса рассылки.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Subscriptions число запросов на подписку по результату.
	Subscriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsletter",
		Name:      "subscriptions_total",
		Help:      "Subscribe requests by outcome.",
	}, []string{"outcome"})

	// Confirmations число запросов на подтверждение по результату.
	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsletter",
		Name:      "confirmations_total",
		Help:      "Confirmation requests by outcome.",
	}, []string{"outcome"})

	// Deliveries письма выпусков: sent, failed, skipped.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsletter",
		Name:      "issue_deliveries_total",
		Help:      "Newsletter issue deliveries per recipient by result.",
	}, []string{"result"})

	// CredentialChecks проверки учётных данных операторов.
	CredentialChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsletter",
		Name:      "credential_checks_total",
		Help:      "Operator credential checks by outcome.",
	}, []string{"outcome"})

	// VerifyDuration длительность проверки хеша пароля.
	VerifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "newsletter",
		Name:      "password_verify_seconds",
		Help:      "Time spent verifying password hashes.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})
)
