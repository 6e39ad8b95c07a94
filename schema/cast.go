package schema

import (
	"math"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// Cast converts every column of b to its target type in s.
//
// Columns that s does not name, or whose target equals their type, pass through
// unchanged. Each batch is cast independently, so batches may be cast concurrently.
//
// Returns:
//   - *batch.Batch: the cast batch
//   - error: ErrSchemaCast when a value does not fit its target type; values are never
//     clamped
func Cast(b *batch.Batch, s *InferredSchema) (*batch.Batch, error) {
	cols := make([]*batch.Column, b.NumCols())
	for i, c := range b.Columns() {
		target, ok := s.Target(c.Name())
		if !ok || target == c.Type() {
			cols[i] = c
			continue
		}

		cast, err := castColumn(c, target, b.RowOffset())
		if err != nil {
			return nil, err
		}
		cols[i] = cast
	}

	return batch.New(cols, b.RowOffset())
}

func castColumn(c *batch.Column, target format.DataType, rowOffset int64) (*batch.Column, error) {
	if c.Type() != format.TypeFloat64 {
		return nil, errs.ForColumn("cast column", c.Name(),
			errs.Errorf(errs.ErrSchemaCast, "cannot cast %s to %s", c.Type(), target))
	}

	lo, hi := bounds(target)
	out := batch.NewColumnBuilder(c.Name(), target, c.Len())

	for i, v := range c.Float64s() {
		if c.IsNull(i) {
			out.AppendNull()
			continue
		}
		if v != math.Trunc(v) || v < lo || v > hi {
			return nil, errs.ForColumn("cast column", c.Name(),
				errs.Errorf(errs.ErrSchemaCast, "row %d: value %v does not fit %s", rowOffset+int64(i), v, target))
		}

		switch {
		case target == format.TypeBoolean:
			out.AppendBool(v == 1)
		case target.IsUnsigned():
			out.AppendUint64(uint64(v))
		default:
			out.AppendInt64(int64(v))
		}
	}

	return out.Finish(), nil
}
