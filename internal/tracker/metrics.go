package tracker

import "github.com/prometheus/client_golang/prometheus"

var (
	intakesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_intakes_logged_total",
		Help: "Total number of intake events logged.",
	})
	intakeVolume = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydraping_intake_milliliters_total",
		Help: "Total volume of water logged, in milliliters.",
	})
)

func init() {
	prometheus.MustRegister(intakesLogged)
	prometheus.MustRegister(intakeVolume)
}
