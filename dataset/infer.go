package dataset

import (
	"context"
	"errors"
	"io"

	"go.uber.org/multierr"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/schema"
)

// InferOptions configures InferSchema.
type InferOptions struct {
	// SampleRows limits the scan to the first rows of the dataset; 0 scans every row.
	SampleRows int64
	// InferBoolean narrows columns holding only 0 and 1 to Boolean.
	InferBoolean bool
	// Columns restricts inference to a projection; nil infers every column.
	Columns []string
}

// InferSchema scans the dataset and picks the narrowest type able to hold each numeric
// column. The scan uses the reader's configured mode.
//
// Returns:
//   - *schema.InferredSchema: target types; Exhaustive reports whether every row was seen
//   - error: ErrInvalidOption, ErrUnknownColumn, or any error raised while reading
func (r *Reader) InferSchema(ctx context.Context, opts InferOptions) (*schema.InferredSchema, error) {
	if opts.SampleRows < 0 {
		return nil, errs.Errorf(errs.ErrInvalidOption, "negative sample size %d", opts.SampleRows)
	}

	it, err := r.Batches(ctx, ReadRequest{Limit: opts.SampleRows, Columns: opts.Columns})
	if err != nil {
		return nil, err
	}

	in := schema.NewInferrer(it.Fields(), schema.Options{
		InferBoolean: opts.InferBoolean,
		Logger:       r.logger.Named("schema"),
	})
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, multierr.Append(err, it.Close())
		}
		in.Observe(b)
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	exhaustive := opts.SampleRows == 0 || opts.SampleRows >= r.meta.RowCount

	return in.Finish(exhaustive), nil
}

// CastIterator yields batches cast to an inferred schema.
type CastIterator struct {
	*Iterator
	schema *schema.InferredSchema
}

// Schema returns the schema batches are cast to.
func (it *CastIterator) Schema() *schema.InferredSchema {
	return it.schema
}

// Fields returns the output columns with their cast types.
func (it *CastIterator) Fields() []batch.Field {
	fields := it.Iterator.Fields()
	out := make([]batch.Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if t, ok := it.schema.Target(f.Name); ok && f.Type == format.TypeFloat64 {
			out[i].Type = t
		}
	}

	return out
}

// ReadWithSchema starts a read whose batches are cast to s. Casting happens on the
// goroutine that decoded each batch, so it runs in parallel with the parallel and
// pipeline modes.
//
// A value that does not fit its target type fails the read with ErrSchemaCast naming
// the column and row.
func (r *Reader) ReadWithSchema(ctx context.Context, req ReadRequest, s *schema.InferredSchema) (*CastIterator, error) {
	if s == nil {
		return nil, errs.Errorf(errs.ErrInvalidOption, "nil schema")
	}

	it, err := r.batches(ctx, req, func(b *batch.Batch) (*batch.Batch, error) {
		return schema.Cast(b, s)
	})
	if err != nil {
		return nil, err
	}

	return &CastIterator{Iterator: it, schema: s}, nil
}
