package dataset

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arloliu/sas7bdat/encoding"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/options"
)

// Default reader configuration.
const (
	DefaultBatchSize  = 8192
	DefaultMaxWorkers = 8
)

// config holds the reader configuration assembled from options.
type config struct {
	logger              *zap.Logger
	batchSize           int
	workers             int
	mode                format.Mode
	preserveOrder       bool
	missingStringAsNull bool
	informativeNulls    bool
	pipelineDepth       int
	registerer          prometheus.Registerer
	encodingOverride    *encoding.TextCodec
}

func defaultConfig() *config {
	return &config{
		logger:              zap.NewNop(),
		batchSize:           DefaultBatchSize,
		workers:             min(runtime.GOMAXPROCS(0), DefaultMaxWorkers),
		mode:                format.ModeSequential,
		preserveOrder:       true,
		missingStringAsNull: true,
	}
}

// depth returns the bounded handoff capacity between pipeline stages.
func (c *config) depth() int {
	if c.pipelineDepth > 0 {
		return c.pipelineDepth
	}

	return 2 * c.workers
}

// Option configures a Reader.
type Option = options.Option[*config]

// WithLogger sets the logger. The reader is silent by default.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithBatchSize sets the default number of rows per batch.
func WithBatchSize(n int) Option {
	return options.New(func(c *config) error {
		if err := options.Positive("batch size", n); err != nil {
			return err
		}
		c.batchSize = n

		return nil
	})
}

// WithWorkers sets the number of worker goroutines used by the parallel and pipeline
// modes.
func WithWorkers(n int) Option {
	return options.New(func(c *config) error {
		if err := options.Positive("workers", n); err != nil {
			return err
		}
		c.workers = n

		return nil
	})
}

// WithMode sets the default concurrency mode.
func WithMode(mode format.Mode) Option {
	return options.New(func(c *config) error {
		if err := validateMode(mode); err != nil {
			return err
		}
		c.mode = mode

		return nil
	})
}

// WithPreserveOrder controls whether the parallel and pipeline modes deliver batches in
// row order. When disabled, batches are delivered as they complete; no row is lost or
// duplicated.
func WithPreserveOrder(preserve bool) Option {
	return options.NoError(func(c *config) {
		c.preserveOrder = preserve
	})
}

// WithMissingStringAsNull maps empty character values to null. Enabled by default.
func WithMissingStringAsNull(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.missingStringAsNull = enabled
	})
}

// WithInformativeNulls adds a Utf8 companion column "<name>_null" after every numeric
// column, holding the missing value tag (".", "._", ".A" to ".Z") of missing rows.
func WithInformativeNulls(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.informativeNulls = enabled
	})
}

// WithPipelineDepth sets the capacity of the bounded handoff between the reading
// goroutine and the workers. Defaults to twice the worker count.
func WithPipelineDepth(n int) Option {
	return options.New(func(c *config) error {
		if err := options.Positive("pipeline depth", n); err != nil {
			return err
		}
		c.pipelineDepth = n

		return nil
	})
}

// WithMetrics registers reader metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return options.NoError(func(c *config) {
		c.registerer = reg
	})
}

// WithEncoding overrides the text encoding declared by the file's encoding byte.
func WithEncoding(encodingByte byte) Option {
	return options.New(func(c *config) error {
		codec, ok := encoding.LookupTextCodec(encodingByte)
		if !ok {
			return errs.Errorf(errs.ErrInvalidOption, "unknown encoding byte %d", encodingByte)
		}
		c.encodingOverride = &codec

		return nil
	})
}

func validateMode(mode format.Mode) error {
	switch mode {
	case format.ModeSequential, format.ModeParallel, format.ModePipeline:
		return nil
	default:
		return errs.Errorf(errs.ErrInvalidOption, "unknown mode %d", mode)
	}
}
