package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Dataset preparations by result (ok, error)
	DatasetLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_dataset_loads_total",
		Help: "Dataset load and prepare attempts by result",
	}, []string{"result"})

	DatasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "insights_dataset_rows",
		Help: "Rows in the currently prepared dataset",
	})

	// Latency of a full filter + ten view computation
	DashboardDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "insights_dashboard_compute_seconds",
		Help:    "Latency of dashboard view computation",
		Buckets: prometheus.DefBuckets,
	})

	ViewCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_view_cache_requests_total",
		Help: "View cache lookups by layer (memory, redis) and outcome (hit, miss)",
	}, []string{"layer", "outcome"})

	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	EventClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "insights_event_clients",
		Help: "Connected dataset event subscribers",
	})
)

func Init() {
	prometheus.MustRegister(
		DatasetLoads,
		DatasetRows,
		DashboardDuration,
		ViewCacheRequests,
		LoginAttempts,
		EventClients,
	)
}
