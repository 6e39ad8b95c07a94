package batch

import (
	"github.com/arloliu/sas7bdat/format"
)

// Column is an immutable, typed column of a Batch.
//
// Values live in one of five backing slices selected by the column's DataType:
//   - Float64: floats
//   - Int8..Int64, Date (days), Datetime (microseconds), Time (nanoseconds): ints
//   - Uint8..Uint64: uints
//   - Boolean: bools
//   - Utf8: strs
//
// A null slot holds the zero value of its backing slice. Validity is nil when the column
// has no nulls.
type Column struct {
	name   string
	dtype  format.DataType
	length int
	floats []float64
	ints   []int64
	uints  []uint64
	bools  []bool
	strs   []string
	valid  []bool
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column data type.
func (c *Column) Type() format.DataType { return c.dtype }

// Len returns the number of values.
func (c *Column) Len() int { return c.length }

// NullCount returns the number of null values.
func (c *Column) NullCount() int {
	if c.valid == nil {
		return 0
	}
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}

	return n
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.valid != nil && !c.valid[i]
}

// Validity returns the validity bitmap as one bool per row, or nil when no row is null.
// The returned slice must not be modified.
func (c *Column) Validity() []bool { return c.valid }

// Float64s returns the backing values of a Float64 column.
func (c *Column) Float64s() []float64 { return c.floats }

// Int64s returns the backing values of signed integer and temporal columns.
func (c *Column) Int64s() []int64 { return c.ints }

// Uint64s returns the backing values of unsigned integer columns.
func (c *Column) Uint64s() []uint64 { return c.uints }

// Bools returns the backing values of a Boolean column.
func (c *Column) Bools() []bool { return c.bools }

// Strings returns the backing values of a Utf8 column.
func (c *Column) Strings() []string { return c.strs }

// Value returns row i as a Go value, or nil when the row is null.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}

	switch storageOf(c.dtype) {
	case storageFloat:
		return c.floats[i]
	case storageInt:
		return c.ints[i]
	case storageUint:
		return c.uints[i]
	case storageBool:
		return c.bools[i]
	default:
		return c.strs[i]
	}
}

// renamed returns a shallow copy of c with another name. Backing slices are shared.
func (c *Column) renamed(name string) *Column {
	cp := *c
	cp.name = name

	return &cp
}

type storage uint8

const (
	storageFloat storage = iota
	storageInt
	storageUint
	storageBool
	storageString
)

func storageOf(dtype format.DataType) storage {
	switch {
	case dtype == format.TypeFloat64:
		return storageFloat
	case dtype.IsSigned(), dtype.IsTemporal():
		return storageInt
	case dtype.IsUnsigned():
		return storageUint
	case dtype == format.TypeBoolean:
		return storageBool
	default:
		return storageString
	}
}
