package mpt

import "github.com/prometheus/client_golang/prometheus"

var (
	storeReads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpt",
		Subsystem: "store",
		Name:      "reads_total",
		Help:      "Number of raw node reads served by the backends.",
	})

	storeWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpt",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Number of raw node writes broadcast to the backends.",
	})

	storeBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpt",
		Subsystem: "store",
		Name:      "batches_total",
		Help:      "Number of committed write batches.",
	})
)

func init() {
	prometheus.MustRegister(storeReads, storeWrites, storeBatches)
}
