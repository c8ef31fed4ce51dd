package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RacesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_races_scanned_total",
		Help: "Races fetched and considered by the polling loop",
	})

	RunnersEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_runners_evaluated_total",
		Help: "Runner price pairs run through the pricing engine",
	})

	SignalsDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_signals_total",
		Help: "Favorable pricing decisions emitted by the detector",
	})

	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_bets_placed_total",
		Help: "Successfully placed bets",
	})

	BetsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_bets_failed_total",
		Help: "Bet submissions rejected by the exchange",
	})

	StopLossSkips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_stop_loss_skips_total",
		Help: "Signals skipped because the per-race stop loss was reached",
	})

	TotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_total_exposure",
		Help: "Accumulated successful stake across all races this run",
	})

	ExchangeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_exchange_errors_total",
		Help: "Failed exchange API calls",
	})

	ExchangeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_exchange_latency_seconds",
		Help:    "Time per exchange API call",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		RacesScanned,
		RunnersEvaluated,
		SignalsDetected,
		BetsPlaced,
		BetsFailed,
		StopLossSkips,
		TotalExposure,
		ExchangeErrors,
		ExchangeLatency,
	)
}
