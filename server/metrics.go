package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railtopo_requests_total",
		Help: "Total number of topology API requests",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railtopo_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	OperationFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railtopo_operation_fail_total",
		Help: "Total failed topology operations",
	}, []string{"operation"})
	TopologyEdges = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railtopo_topology_edges",
		Help:    "Number of edges in received topologies",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(OperationFailTotal)
	prometheus.MustRegister(TopologyEdges)
}

// MetricsHandler exposes registered metrics
func MetricsHandler() http.Handler { return promhttp.Handler() }
