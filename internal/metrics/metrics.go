package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Throughput metrics - deployment volume per factory and template kind
var (
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_deployments_total",
			Help: "Total number of successful deployments by factory and kind",
		},
		[]string{"factory", "kind"},
	)

	DeployFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_deploy_failures_total",
			Help: "Total number of failed deployment attempts by factory and reason",
		},
		[]string{"factory", "reason"},
	)

	AdminOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_admin_ops_total",
			Help: "Total number of admin operations by factory and operation",
		},
		[]string{"factory", "op"},
	)
)

// Performance metrics
var (
	DeployDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_deploy_duration_seconds",
			Help:    "Time taken to run one deployment pipeline end to end",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"factory"},
	)
)

// State metrics - current factory state
var (
	DeploymentCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_deployment_count",
			Help: "Current deployment counter per factory",
		},
		[]string{"factory"},
	)

	PausedState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_paused",
			Help: "Whether the factory is paused (1) or active (0)",
		},
		[]string{"factory"},
	)

	RateWindowUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_rate_window_usage",
			Help: "Deployments consumed in the current rate-limit window",
		},
		[]string{"factory"},
	)
)
