package dataset

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/sas7bdat/format"
)

// metrics holds the optional reader counters. A nil *metrics records nothing.
type metrics struct {
	pages   prometheus.Counter
	rows    prometheus.Counter
	batches *prometheus.CounterVec
	units   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	pages, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sas7bdat_pages_read_total",
		Help: "Pages read from dataset files.",
	}))
	if err != nil {
		return nil, err
	}
	rows, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sas7bdat_rows_decoded_total",
		Help: "Rows decoded into batches.",
	}))
	if err != nil {
		return nil, err
	}
	batches, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sas7bdat_batches_total",
		Help: "Batches produced, by read mode.",
	}, []string{"mode"}))
	if err != nil {
		return nil, err
	}
	units, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sas7bdat_units_decompressed_total",
		Help: "Compressed row units expanded, by scheme.",
	}, []string{"scheme"}))
	if err != nil {
		return nil, err
	}

	return &metrics{pages: pages, rows: rows, batches: batches, units: units}, nil
}

// register registers c, reusing an identical collector registered by another reader.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

func (m *metrics) pageRead() {
	if m != nil {
		m.pages.Inc()
	}
}

func (m *metrics) batchDone(mode format.Mode, rows int) {
	if m != nil {
		m.rows.Add(float64(rows))
		m.batches.WithLabelValues(mode.String()).Inc()
	}
}

func (m *metrics) unitExpanded(scheme format.RowCompression) {
	if m != nil {
		m.units.WithLabelValues(scheme.String()).Inc()
	}
}
