package reminder

import "github.com/prometheus/client_golang/prometheus"

var (
	remindersFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_reminders_fired_total",
		Help: "Total number of reminders published on the bus.",
	})
	remindersSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_reminders_suppressed_total",
		Help: "Total number of reminders suppressed by the sleep window.",
	})
)

func init() {
	prometheus.MustRegister(remindersFired)
	prometheus.MustRegister(remindersSuppressed)
}
