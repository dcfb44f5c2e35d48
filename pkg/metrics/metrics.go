package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataharvester"

var (
	CollectionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "schema", Name: "collections_created_total", Help: "Number of collections created by stage (base for top-level collections)."},
		[]string{"stage"},
	)
	IndexesEnsured = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "schema", Name: "indexes_ensured_total", Help: "Number of index definitions applied by stage."},
		[]string{"stage"},
	)
	SchemaErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "schema", Name: "errors_total", Help: "Schema operation failures by kind."},
		[]string{"kind"},
	)
	ProjectsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "projects_registered_total", Help: "Number of project namespaces registered through the admin API."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

// RegisterCollectors registers every collector of this package on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		CollectionsCreated,
		IndexesEnsured,
		SchemaErrors,
		ProjectsRegistered,
		RateLimitAllowed,
		RateLimitRejected,
	)
}
