package batch

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/sas7bdat/format"
)

// ArrowType returns the arrow data type used for a column type.
//
// Date maps to date32, Datetime to timestamp[us] and Time to time64[ns].
func ArrowType(dtype format.DataType) arrow.DataType {
	switch dtype {
	case format.TypeUtf8:
		return arrow.BinaryTypes.String
	case format.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case format.TypeDatetime:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	case format.TypeTime:
		return arrow.FixedWidthTypes.Time64ns
	case format.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case format.TypeInt8:
		return arrow.PrimitiveTypes.Int8
	case format.TypeInt16:
		return arrow.PrimitiveTypes.Int16
	case format.TypeInt32:
		return arrow.PrimitiveTypes.Int32
	case format.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case format.TypeUint8:
		return arrow.PrimitiveTypes.Uint8
	case format.TypeUint16:
		return arrow.PrimitiveTypes.Uint16
	case format.TypeUint32:
		return arrow.PrimitiveTypes.Uint32
	case format.TypeUint64:
		return arrow.PrimitiveTypes.Uint64
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

// ArrowSchema returns the arrow schema of the batch. Every field is nullable.
func (b *Batch) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(b.columns))
	for i, c := range b.columns {
		fields[i] = arrow.Field{Name: c.Name(), Type: ArrowType(c.Type()), Nullable: true}
	}

	return arrow.NewSchema(fields, nil)
}

// Record copies the batch into an arrow record allocated from mem. A nil mem uses the Go
// allocator. The caller owns the record and must Release it.
func (b *Batch) Record(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	rb := array.NewRecordBuilder(mem, b.ArrowSchema())
	defer rb.Release()

	for i, c := range b.columns {
		appendColumn(rb.Field(i), c)
	}

	return rb.NewRecord()
}

func appendColumn(builder array.Builder, c *Column) {
	valid := c.Validity()

	switch fb := builder.(type) {
	case *array.Float64Builder:
		fb.AppendValues(c.Float64s(), valid)
	case *array.StringBuilder:
		fb.AppendValues(c.Strings(), valid)
	case *array.BooleanBuilder:
		fb.AppendValues(c.Bools(), valid)
	case *array.Date32Builder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) arrow.Date32 { return arrow.Date32(v) }), valid)
	case *array.TimestampBuilder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) arrow.Timestamp { return arrow.Timestamp(v) }), valid)
	case *array.Time64Builder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) arrow.Time64 { return arrow.Time64(v) }), valid)
	case *array.Int8Builder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) int8 { return int8(v) }), valid)
	case *array.Int16Builder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) int16 { return int16(v) }), valid)
	case *array.Int32Builder:
		fb.AppendValues(convert(c.Int64s(), func(v int64) int32 { return int32(v) }), valid)
	case *array.Int64Builder:
		fb.AppendValues(c.Int64s(), valid)
	case *array.Uint8Builder:
		fb.AppendValues(convert(c.Uint64s(), func(v uint64) uint8 { return uint8(v) }), valid)
	case *array.Uint16Builder:
		fb.AppendValues(convert(c.Uint64s(), func(v uint64) uint16 { return uint16(v) }), valid)
	case *array.Uint32Builder:
		fb.AppendValues(convert(c.Uint64s(), func(v uint64) uint32 { return uint32(v) }), valid)
	case *array.Uint64Builder:
		fb.AppendValues(c.Uint64s(), valid)
	}
}

func convert[S, D any](src []S, fn func(S) D) []D {
	dst := make([]D, len(src))
	for i, v := range src {
		dst[i] = fn(v)
	}

	return dst
}
