package analyzer

import "github.com/prometheus/client_golang/prometheus"

var (
	faultsMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_analyzer_internal_errors_total",
		Help: "Total number of recovered analyzer faults.",
	})
	skippedMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_analyzer_skipped_records_total",
		Help: "Total number of invalid intake records skipped during analysis.",
	})
)

func init() {
	prometheus.MustRegister(faultsMetric)
	prometheus.MustRegister(skippedMetric)
}
