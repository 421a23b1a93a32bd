// Package metrics содержит счётчики Prometheus, общие для всех сервисов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsTotal отправленные уведомления по каналу и результату.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evofit",
		Name:      "notifications_total",
		Help:      "Notifications dispatched to the messaging provider.",
	}, []string{"channel", "result"})

	// AccessDecisionsTotal решения экрана доступа по итоговому состоянию.
	AccessDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evofit",
		Name:      "access_decisions_total",
		Help:      "Access gate decisions by resulting state.",
	}, []string{"state"})

	// SubscriptionsExpiredTotal подписки, переведённые сверкой в expired.
	SubscriptionsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evofit",
		Name:      "subscriptions_expired_total",
		Help:      "Subscriptions flipped to expired by the sweep.",
	})

	// HTTPRequestsTotal HTTP-запросы по маршруту и коду ответа.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evofit",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	// HTTPRequestDuration длительность обработки HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evofit",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
