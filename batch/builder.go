package batch

import (
	"github.com/arloliu/sas7bdat/format"
)

// ColumnBuilder accumulates the values of one column for a single batch.
//
// A builder is owned by one goroutine and is not reusable: Finish hands the buffers over
// to the returned Column and resets the builder to an empty state.
type ColumnBuilder struct {
	col      Column
	hasNulls bool
}

// NewColumnBuilder creates a builder for a column of the given type with room for
// capacity values.
func NewColumnBuilder(name string, dtype format.DataType, capacity int) *ColumnBuilder {
	b := &ColumnBuilder{col: Column{name: name, dtype: dtype}}
	switch storageOf(dtype) {
	case storageFloat:
		b.col.floats = make([]float64, 0, capacity)
	case storageInt:
		b.col.ints = make([]int64, 0, capacity)
	case storageUint:
		b.col.uints = make([]uint64, 0, capacity)
	case storageBool:
		b.col.bools = make([]bool, 0, capacity)
	default:
		b.col.strs = make([]string, 0, capacity)
	}
	b.col.valid = make([]bool, 0, capacity)

	return b
}

// Name returns the name of the column being built.
func (b *ColumnBuilder) Name() string { return b.col.name }

// Type returns the data type of the column being built.
func (b *ColumnBuilder) Type() format.DataType { return b.col.dtype }

// Len returns the number of values appended so far.
func (b *ColumnBuilder) Len() int { return b.col.length }

// AppendFloat64 appends a value to a Float64 column.
func (b *ColumnBuilder) AppendFloat64(v float64) {
	b.col.floats = append(b.col.floats, v)
	b.appended(true)
}

// AppendInt64 appends a value to a signed integer or temporal column.
func (b *ColumnBuilder) AppendInt64(v int64) {
	b.col.ints = append(b.col.ints, v)
	b.appended(true)
}

// AppendUint64 appends a value to an unsigned integer column.
func (b *ColumnBuilder) AppendUint64(v uint64) {
	b.col.uints = append(b.col.uints, v)
	b.appended(true)
}

// AppendBool appends a value to a Boolean column.
func (b *ColumnBuilder) AppendBool(v bool) {
	b.col.bools = append(b.col.bools, v)
	b.appended(true)
}

// AppendString appends a value to a Utf8 column.
func (b *ColumnBuilder) AppendString(v string) {
	b.col.strs = append(b.col.strs, v)
	b.appended(true)
}

// AppendNull appends a null slot.
func (b *ColumnBuilder) AppendNull() {
	switch storageOf(b.col.dtype) {
	case storageFloat:
		b.col.floats = append(b.col.floats, 0)
	case storageInt:
		b.col.ints = append(b.col.ints, 0)
	case storageUint:
		b.col.uints = append(b.col.uints, 0)
	case storageBool:
		b.col.bools = append(b.col.bools, false)
	default:
		b.col.strs = append(b.col.strs, "")
	}
	b.appended(false)
}

func (b *ColumnBuilder) appended(valid bool) {
	b.col.valid = append(b.col.valid, valid)
	b.col.length++
	if !valid {
		b.hasNulls = true
	}
}

// Finish returns the built column and resets the builder.
func (b *ColumnBuilder) Finish() *Column {
	col := b.col
	if !b.hasNulls {
		col.valid = nil
	}
	b.col = Column{name: col.name, dtype: col.dtype}
	b.hasNulls = false

	return &col
}
