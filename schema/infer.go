package schema

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/collision"
)

// ColumnSchema is the inference result for one column.
type ColumnSchema struct {
	Name   string          `json:"name"`
	Source format.DataType `json:"source"`
	Target format.DataType `json:"target"`
	// Stats is populated for Float64 source columns only.
	Stats *NumericStats `json:"stats,omitempty"`
}

// InferredSchema holds the target type of every column.
//
// Exhaustive is false when the scan stopped before the end of the data; a later cast may
// then meet values outside the inferred range and fail with ErrSchemaCast.
type InferredSchema struct {
	Columns     []ColumnSchema `json:"columns"`
	Exhaustive  bool           `json:"exhaustive"`
	RowsScanned int64          `json:"rows_scanned"`

	once  sync.Once
	index *collision.Index
}

// Target returns the target type of the named column. Columns must not be modified
// after the first call.
func (s *InferredSchema) Target(name string) (format.DataType, bool) {
	s.once.Do(func() {
		names := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			names[i] = c.Name
		}
		s.index = collision.NewIndex(names)
	})

	i, ok := s.index.Lookup(name)
	if !ok {
		return 0, false
	}

	return s.Columns[i].Target, true
}

// Narrowed returns the columns whose target differs from their source type.
func (s *InferredSchema) Narrowed() []ColumnSchema {
	var out []ColumnSchema
	for _, c := range s.Columns {
		if c.Target != c.Source {
			out = append(out, c)
		}
	}

	return out
}

// Options configures an Inferrer.
type Options struct {
	// InferBoolean narrows columns holding only 0 and 1 to Boolean.
	InferBoolean bool
	// Logger receives a debug line per narrowed column. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Inferrer accumulates statistics over the batches of a scan.
//
// An Inferrer is not safe for concurrent use; merge per-worker results with Merge.
type Inferrer struct {
	fields []batch.Field
	stats  []NumericStats
	rows   int64
	opts   Options
}

// NewInferrer creates an Inferrer for batches with the given fields.
func NewInferrer(fields []batch.Field, opts Options) *Inferrer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	stats := make([]NumericStats, len(fields))
	for i := range stats {
		stats[i] = NewNumericStats()
	}

	return &Inferrer{fields: fields, stats: stats, opts: opts}
}

// Observe adds the rows of b. Columns are matched by position; b must carry the fields
// the Inferrer was created with.
func (in *Inferrer) Observe(b *batch.Batch) {
	for i := range in.fields {
		if i >= b.NumCols() {
			break
		}
		in.stats[i].ObserveColumn(b.Column(i))
	}
	in.rows += int64(b.NumRows())
}

// Merge folds the statistics of another Inferrer over the same fields.
func (in *Inferrer) Merge(o *Inferrer) {
	for i := range in.stats {
		in.stats[i].Merge(o.stats[i])
	}
	in.rows += o.rows
}

// RowsScanned returns the number of rows observed so far.
func (in *Inferrer) RowsScanned() int64 {
	return in.rows
}

// Finish decides the target types. exhaustive records whether every row of the dataset
// was observed.
func (in *Inferrer) Finish(exhaustive bool) *InferredSchema {
	out := &InferredSchema{
		Columns:     make([]ColumnSchema, len(in.fields)),
		Exhaustive:  exhaustive,
		RowsScanned: in.rows,
	}

	for i, f := range in.fields {
		cs := ColumnSchema{Name: f.Name, Source: f.Type, Target: f.Type}
		if f.Type == format.TypeFloat64 {
			st := in.stats[i]
			cs.Stats = &st
			cs.Target = Decide(st, in.opts.InferBoolean)
		}
		if cs.Target != cs.Source {
			in.opts.Logger.Debug("narrowed column",
				zap.String("column", f.Name),
				zap.Stringer("from", cs.Source),
				zap.Stringer("to", cs.Target))
		}
		out.Columns[i] = cs
	}

	return out
}
