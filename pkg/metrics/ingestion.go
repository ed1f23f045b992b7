package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestionMetrics tracks pesticide archive uploads.
type IngestionMetrics struct {
	runs     *prometheus.CounterVec
	rows     prometheus.Counter
	archived *prometheus.CounterVec
}

func NewIngestionMetrics(reg prometheus.Registerer) *IngestionMetrics {
	if reg == nil {
		return &IngestionMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agridiary_ingestion_runs_total",
		Help: "Pesticide uploads by the state they finished in.",
	}, []string{"state", "outcome"})
	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agridiary_ingestion_rows_inserted_total",
		Help: "Pesticide registrations inserted from uploads.",
	})
	archived := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agridiary_ingestion_archives_total",
		Help: "Raw upload archives sent to blob storage.",
	}, []string{"outcome"})
	reg.MustRegister(runs, rows, archived)
	return &IngestionMetrics{runs: runs, rows: rows, archived: archived}
}

// Finished records the terminal state of one upload.
func (m *IngestionMetrics) Finished(state string, failed bool) {
	if m == nil || m.runs == nil {
		return
	}
	outcome := "done"
	if failed {
		outcome = "failed"
	}
	m.runs.WithLabelValues(normalizeLabel(state), outcome).Inc()
}

func (m *IngestionMetrics) AddRows(n int) {
	if m == nil || m.rows == nil || n <= 0 {
		return
	}
	m.rows.Add(float64(n))
}

func (m *IngestionMetrics) Archived(err error) {
	if m == nil || m.archived == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.archived.WithLabelValues(outcome).Inc()
}
