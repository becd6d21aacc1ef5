// Package metrics exposes reconciliation, ledger and dispatcher collectors.
package metrics

import (
	"time"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	promoted       prometheus.Counter
	evicted        prometheus.Counter
	passFailures   *prometheus.CounterVec
	ledgerFailures *prometheus.CounterVec
	jobsFinished   *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobsPanicked   *prometheus.CounterVec
	jobsRejected   *prometheus.CounterVec
	chainHeight    prometheus.Gauge
	mempoolSize    prometheus.Gauge
	workersRunning prometheus.Gauge
	tasksWaiting   prometheus.Gauge
}

// New registers every collector on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		promoted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_promoted_total",
			Help:      "Cached transactions marked spendable",
		}),
		evicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_evicted_total",
			Help:      "Cached transactions deleted as orphaned",
		}),
		passFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Aborted reconciliation passes by reason",
		}, []string{"reason"}),
		ledgerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_failures_total",
			Help:      "Failed ledger queries by operation",
		}, []string{"op"}),
		jobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Background jobs that ran to completion",
		}, []string{"job"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job run time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		jobsPanicked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_panicked_total",
			Help:      "Background jobs dropped after a panic",
		}, []string{"job"}),
		jobsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_rejected_total",
			Help:      "Account jobs rejected because one was already in flight",
		}, []string{"job"}),
		chainHeight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Last observed usable chain height",
		}),
		mempoolSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Transactions in the last accepted mempool read",
		}),
		workersRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatcher_running_workers",
			Help:      "Dispatcher workers currently running a job",
		}),
		tasksWaiting: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatcher_waiting_tasks",
			Help:      "Jobs queued in the dispatcher",
		}),
	}
}

func (m *Metrics) Promoted(models.Transaction) { m.promoted.Inc() }
func (m *Metrics) Evicted(models.Transaction)  { m.evicted.Inc() }

func (m *Metrics) PassFailed(reason string) { m.passFailures.WithLabelValues(reason).Inc() }

func (m *Metrics) LedgerFailure(op string) { m.ledgerFailures.WithLabelValues(op).Inc() }
func (m *Metrics) ChainHeight(h uint64)    { m.chainHeight.Set(float64(h)) }
func (m *Metrics) MempoolSize(n int)       { m.mempoolSize.Set(float64(n)) }

func (m *Metrics) JobFinished(name string, took time.Duration) {
	m.jobsFinished.WithLabelValues(name).Inc()
	m.jobDuration.WithLabelValues(name).Observe(took.Seconds())
}
func (m *Metrics) JobPanicked(name string) { m.jobsPanicked.WithLabelValues(name).Inc() }
func (m *Metrics) JobRejected(name string) { m.jobsRejected.WithLabelValues(name).Inc() }

// DispatcherLoad records a sample of the dispatcher pool.
func (m *Metrics) DispatcherLoad(running int64, waiting uint64) {
	m.workersRunning.Set(float64(running))
	m.tasksWaiting.Set(float64(waiting))
}
