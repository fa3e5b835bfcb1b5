package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesCreated counts successfully persisted submissions.
	MessagesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "futuresend",
		Name:      "messages_created_total",
		Help:      "Total number of messages accepted for future delivery",
	})

	// DispatchRuns counts dispatch batch invocations by outcome.
	DispatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "futuresend",
		Name:      "dispatch_runs_total",
		Help:      "Total number of dispatch batch runs",
	}, []string{"outcome"})

	// MessagesDispatched counts messages marked sent by the dispatch job.
	MessagesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "futuresend",
		Name:      "messages_dispatched_total",
		Help:      "Total number of messages marked as sent",
	})

	// SendFailures counts individual delivery attempts that reported an error.
	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "futuresend",
		Name:      "send_failures_total",
		Help:      "Total number of failed delivery attempts",
	})
)
