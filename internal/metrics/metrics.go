// Package metrics holds the Prometheus collectors shared across packages.
// They register with the default registry, which /metrics exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts finished requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskmanager_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// DBQueryDuration records statement latency by operation and table.
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskmanager_database_query_duration_seconds",
		Help:    "Database statement latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EntitiesCreatedTotal counts successful creates by entity ("user", "task").
	EntitiesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_entities_created_total",
		Help: "Total number of users and tasks created",
	}, []string{"entity"})

	// EntitiesDeletedTotal counts successful deletes by entity. Tasks removed
	// together with their owner are not counted separately.
	EntitiesDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskmanager_entities_deleted_total",
		Help: "Total number of users and tasks deleted",
	}, []string{"entity"})
)
