package monitoring

import (
	"net/http"
	"time"

	"github.com/meadowhq/mdwd/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ledgerPromMetrics struct {
	daemonUpUnixSeconds prometheus.Gauge
	trackedTx           prometheus.GaugeVec
	submittedTxCount    *prometheus.CounterVec
	evictedTxCount      prometheus.Counter
	lookupErrorCount    prometheus.Counter
	refreshRoundTime    prometheus.Histogram
}

func newLedgerPromMetrics() *ledgerPromMetrics {
	return &ledgerPromMetrics{
		daemonUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdwd_up_timestamp_unix_seconds",
				Help: "Unix timestamp of daemon start",
			},
		),
		trackedTx: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mdwd_ledger_tracked_tx",
				Help: "Number of transactions currently retained in the ledger, by status",
			},
			[]string{"status"},
		),
		submittedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdwd_ledger_submitted_tx_count",
				Help: "The total number of transactions submitted through the daemon",
			},
			[]string{"kind"},
		),
		evictedTxCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mdwd_ledger_evicted_tx_count",
				Help: "The total number of transactions dropped from the ledger by capacity eviction",
			},
		),
		lookupErrorCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mdwd_ledger_lookup_error_count",
				Help: "The total number of failed status lookups during refresh rounds",
			},
		),
		refreshRoundTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "mdwd_ledger_refresh_round_time",
				Help: "Duration in seconds of one full status refresh round",
			},
		),
	}
}

var ledgerMetrics *ledgerPromMetrics

// InitMetrics initializes daemon metrics but does not expose them yet
func InitMetrics() {
	ledgerMetrics = newLedgerPromMetrics()
	ledgerMetrics.daemonUpUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("METRICS", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

// StartMetricsServer exposes /metrics on its own listener.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	RegisterMetrics(mux)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logx.Error("METRICS", "metrics server stopped: ", err)
		}
	}()
}

func SetTrackedTx(count int64, status string) {
	if ledgerMetrics == nil {
		return
	}
	ledgerMetrics.trackedTx.With(prometheus.Labels{
		"status": status,
	}).Set(float64(count))
}

func IncreaseSubmittedTxCount(kind string) {
	if ledgerMetrics == nil {
		return
	}
	ledgerMetrics.submittedTxCount.With(prometheus.Labels{
		"kind": kind,
	}).Inc()
}

func IncreaseEvictedTxCount() {
	if ledgerMetrics == nil {
		return
	}
	ledgerMetrics.evictedTxCount.Inc()
}

func IncreaseLookupErrorCount() {
	if ledgerMetrics == nil {
		return
	}
	ledgerMetrics.lookupErrorCount.Inc()
}

func RecordRefreshRoundTime(duration time.Duration) {
	if ledgerMetrics == nil {
		return
	}
	ledgerMetrics.refreshRoundTime.Observe(duration.Seconds())
}
