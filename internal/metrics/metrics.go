package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects the figures of one scoring run in its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	Transactions   prometheus.Counter
	InvalidAmounts prometheus.Counter
	Wallets        prometheus.Gauge
	FitScore       *prometheus.GaugeVec
	StageDuration  *prometheus.GaugeVec
	LastSuccess    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		Transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credit_score_transactions_total",
			Help: "Transactions normalized in the run.",
		}),
		InvalidAmounts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credit_score_invalid_amounts_total",
			Help: "Transactions whose USD value fell back to zero.",
		}),
		Wallets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "credit_score_wallets",
			Help: "Wallets scored in the run.",
		}),
		FitScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "credit_score_model_r2",
			Help: "Coefficient of determination of the model per partition.",
		}, []string{"partition"}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "credit_score_stage_duration_seconds",
			Help: "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "credit_score_last_success_timestamp_seconds",
			Help: "Unix time the last run completed.",
		}),
	}

	r.Registry.MustRegister(
		r.Transactions,
		r.InvalidAmounts,
		r.Wallets,
		r.FitScore,
		r.StageDuration,
		r.LastSuccess,
	)
	return r
}

// Stage returns a func that records the time since Stage was called.
func (r *Recorder) Stage(name string) func() {
	start := time.Now()
	return func() {
		r.StageDuration.WithLabelValues(name).Set(time.Since(start).Seconds())
	}
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}
