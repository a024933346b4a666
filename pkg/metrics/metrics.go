// Package metrics exposes the prometheus collectors shared by modelstore components.
//
// Components take a *M with their options and default to an unregistered set of
// collectors, so recording metrics never needs a nil check.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelstore"

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// M describes metrics for all modelstore components
type M struct {
	StorageOps     *prometheus.CounterVec
	StorageLatency *prometheus.HistogramVec

	ObjectsSaved    prometheus.Counter
	ObjectsLoaded   prometheus.Counter
	CacheHits       prometheus.Counter
	IntegrityErrors prometheus.Counter

	CommitsCreated prometheus.Counter
	AncestryChecks *prometheus.CounterVec

	BranchUpdates *prometheus.CounterVec
	Notifications *prometheus.CounterVec

	ImportNodes       prometheus.Counter
	ImportResolved    prometheus.Counter
	ImportCheckpoints *prometheus.CounterVec
}

// New builds the collectors and registers them. A nil registerer leaves them unregistered.
func New(reg prometheus.Registerer) *M {
	m := &M{
		StorageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "storage", Name: "operations_total",
			Help: "Operations on the physical store.",
		}, []string{"store", "op", "result"}),
		StorageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "storage", Name: "operation_seconds",
			Help:    "Latency of operations on the physical store.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"store", "op"}),
		ObjectsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "objects", Name: "saved_total",
			Help: "Objects saved in the object store.",
		}),
		ObjectsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "objects", Name: "loaded_total",
			Help: "Objects loaded from the object store.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "objects", Name: "cache_hits_total",
			Help: "Object loads served from the read cache.",
		}),
		IntegrityErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "objects", Name: "integrity_errors_total",
			Help: "Objects rejected because their key does not match their content.",
		}),
		CommitsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "commits", Name: "created_total",
			Help: "Commits created.",
		}),
		AncestryChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "commits", Name: "ancestry_checks_total",
			Help: "Ancestry checks, by memo outcome.",
		}, []string{"memo"}),
		BranchUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "branches", Name: "updates_total",
			Help: "Branch head updates, by outcome.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "branches", Name: "notifications_total",
			Help: "Subscriptions fired, by event.",
		}, []string{"event"}),
		ImportNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "nodes_built_total",
			Help: "Nodes built by the importer.",
		}),
		ImportResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "references_resolved_total",
			Help: "Forward references resolved by the importer.",
		}),
		ImportCheckpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "checkpoints_total",
			Help: "Intermediate persists run by the importer.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

// Discard returns a set of collectors which are not registered anywhere
func Discard() *M {
	return New(nil)
}

func (m *M) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StorageOps, m.StorageLatency,
		m.ObjectsSaved, m.ObjectsLoaded, m.CacheHits, m.IntegrityErrors,
		m.CommitsCreated, m.AncestryChecks,
		m.BranchUpdates, m.Notifications,
		m.ImportNodes, m.ImportResolved, m.ImportCheckpoints,
	}
}

// StorageOp records the outcome and latency of a storage operation.
//
// Intended for use in a defer statement:
//
//	defer m.StorageOp("badger", "get", time.Now())(&err)
func (m *M) StorageOp(store, op string, t0 time.Time) func(*error) {
	return func(err *error) {
		result := ResultOK
		if err != nil && *err != nil {
			result = ResultError
		}
		m.StorageOps.WithLabelValues(store, op, result).Inc()
		m.StorageLatency.WithLabelValues(store, op).Observe(time.Since(t0).Seconds())
	}
}

// Result maps an error to a result label
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
