package services

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the coordination core. HTTP-level metrics live in the
// middleware package; these track protocol progress regardless of transport.
var (
	commandsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_commands_enqueued_total",
			Help: "Commands enqueued for kiosks, by kind.",
		},
		[]string{"kind"},
	)

	commandsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_commands_claimed_total",
			Help: "Commands claimed (delivered at most once) by polling kiosks.",
		},
	)

	callsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_calls_initiated_total",
			Help: "Call sessions created, by caller type.",
		},
		[]string{"caller_type"},
	)

	callsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_calls_accepted_total",
			Help: "Call sessions accepted by staff.",
		},
	)

	callsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiosk_calls_ended_total",
			Help: "Call sessions moved to the terminal ended status.",
		},
	)

	cancellationReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_payment_cancellation_reports_total",
			Help: "Payment cancellation result reports, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		commandsEnqueued,
		commandsClaimed,
		callsInitiated,
		callsAccepted,
		callsEnded,
		cancellationReports,
	)
}
