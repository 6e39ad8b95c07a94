package batch

import (
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/collision"
)

// Field describes one column of a batch.
type Field struct {
	Name string
	Type format.DataType
}

// Batch is an immutable set of equal-length columns covering a contiguous row range.
//
// Batch values are safe for concurrent reads. Selecting columns returns a new Batch that
// shares column buffers with the original.
type Batch struct {
	columns   []*Column
	index     *collision.Index
	rowOffset int64
	numRows   int
}

// New creates a batch from columns.
//
// Parameters:
//   - columns: output columns in order; every column must have the same length
//   - rowOffset: zero-based index of the first row in the dataset
//
// Returns:
//   - *Batch: the immutable batch
//   - error: ErrColumnLengthMismatch when column lengths differ
func New(columns []*Column, rowOffset int64) (*Batch, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		if c.Len() != n {
			return nil, errs.ForColumn("new batch", c.Name(),
				errs.Errorf(errs.ErrColumnLengthMismatch, "%d values, want %d", c.Len(), n))
		}
		names[i] = c.Name()
	}

	cols := make([]*Column, len(columns))
	copy(cols, columns)

	return &Batch{
		columns:   cols,
		index:     collision.NewIndex(names),
		rowOffset: rowOffset,
		numRows:   n,
	}, nil
}

// NumRows returns the number of rows.
func (b *Batch) NumRows() int { return b.numRows }

// NumCols returns the number of columns.
func (b *Batch) NumCols() int { return len(b.columns) }

// RowOffset returns the dataset index of the first row.
func (b *Batch) RowOffset() int64 { return b.rowOffset }

// Column returns column i.
func (b *Batch) Column(i int) *Column { return b.columns[i] }

// Columns returns all columns in order. The returned slice must not be modified.
func (b *Batch) Columns() []*Column { return b.columns }

// ColumnByName returns the column with the given name. Names match exactly first and
// then case-insensitively.
func (b *Batch) ColumnByName(name string) (*Column, bool) {
	i, ok := b.index.Lookup(name)
	if !ok {
		return nil, false
	}

	return b.columns[i], true
}

// Fields returns the name and type of every column.
func (b *Batch) Fields() []Field {
	fields := make([]Field, len(b.columns))
	for i, c := range b.columns {
		fields[i] = Field{Name: c.Name(), Type: c.Type()}
	}

	return fields
}

// Select returns a batch holding the named columns in the requested order.
//
// Returns:
//   - *Batch: the projected batch, sharing buffers with b
//   - error: ErrUnknownColumn or ErrDuplicateColumn
func (b *Batch) Select(names ...string) (*Batch, error) {
	idx, err := b.index.Resolve(names)
	if err != nil {
		return nil, err
	}

	cols := make([]*Column, len(idx))
	for i, j := range idx {
		cols[i] = b.columns[j]
	}

	return New(cols, b.rowOffset)
}

// Rename returns a batch whose column i is renamed to names[i].
func (b *Batch) Rename(names []string) (*Batch, error) {
	if len(names) != len(b.columns) {
		return nil, errs.Errorf(errs.ErrInvalidOption, "rename: %d names for %d columns", len(names), len(b.columns))
	}
	cols := make([]*Column, len(b.columns))
	for i, c := range b.columns {
		cols[i] = c.renamed(names[i])
	}

	return New(cols, b.rowOffset)
}

// Row returns row i as a slice of Go values with nil for nulls.
func (b *Batch) Row(i int) []any {
	row := make([]any, len(b.columns))
	for j, c := range b.columns {
		row[j] = c.Value(i)
	}

	return row
}
