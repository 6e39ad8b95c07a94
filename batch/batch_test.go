package batch

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

func floatColumn(name string, values ...any) *Column {
	b := NewColumnBuilder(name, format.TypeFloat64, len(values))
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.AppendFloat64(v.(float64))
	}

	return b.Finish()
}

func stringColumn(name string, values ...string) *Column {
	b := NewColumnBuilder(name, format.TypeUtf8, len(values))
	for _, v := range values {
		b.AppendString(v)
	}

	return b.Finish()
}

func TestColumnBuilder(t *testing.T) {
	col := floatColumn("HEIGHT", 1.5, nil, 3.0)

	require.Equal(t, "HEIGHT", col.Name())
	require.Equal(t, format.TypeFloat64, col.Type())
	require.Equal(t, 3, col.Len())
	require.Equal(t, 1, col.NullCount())
	require.True(t, col.IsNull(1))
	require.Equal(t, []float64{1.5, 0, 3}, col.Float64s())
	require.Equal(t, []bool{true, false, true}, col.Validity())
	require.Nil(t, col.Value(1))
	require.Equal(t, 3.0, col.Value(2))

	noNulls := stringColumn("NAME", "a", "b")
	require.Nil(t, noNulls.Validity())
	require.Equal(t, 0, noNulls.NullCount())
	require.False(t, noNulls.IsNull(0))
}

func TestColumnBuilder_FinishResets(t *testing.T) {
	b := NewColumnBuilder("N", format.TypeInt16, 2)
	b.AppendInt64(7)
	first := b.Finish()

	require.Equal(t, 0, b.Len())
	b.AppendNull()
	second := b.Finish()

	require.Equal(t, []int64{7}, first.Int64s())
	require.Equal(t, 1, second.Len())
	require.True(t, second.IsNull(0))
}

func TestColumnBuilder_Storage(t *testing.T) {
	tests := []struct {
		dtype  format.DataType
		append func(*ColumnBuilder)
		want   any
	}{
		{format.TypeDate, func(b *ColumnBuilder) { b.AppendInt64(-3653) }, int64(-3653)},
		{format.TypeDatetime, func(b *ColumnBuilder) { b.AppendInt64(1_000_000) }, int64(1_000_000)},
		{format.TypeUint8, func(b *ColumnBuilder) { b.AppendUint64(200) }, uint64(200)},
		{format.TypeBoolean, func(b *ColumnBuilder) { b.AppendBool(true) }, true},
		{format.TypeUtf8, func(b *ColumnBuilder) { b.AppendString("x") }, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.dtype.String(), func(t *testing.T) {
			b := NewColumnBuilder("C", tt.dtype, 1)
			tt.append(b)
			require.Equal(t, tt.want, b.Finish().Value(0))
		})
	}
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New([]*Column{floatColumn("A", 1.0), floatColumn("B", 1.0, 2.0)}, 0)
	require.ErrorIs(t, err, errs.ErrColumnLengthMismatch)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "B", e.Column)
}

func TestBatch_Accessors(t *testing.T) {
	b, err := New([]*Column{
		stringColumn("Name", "Alfred", "Alice"),
		floatColumn("Age", 14.0, nil),
	}, 10)
	require.NoError(t, err)

	require.Equal(t, 2, b.NumRows())
	require.Equal(t, 2, b.NumCols())
	require.Equal(t, int64(10), b.RowOffset())
	require.Equal(t, []Field{{"Name", format.TypeUtf8}, {"Age", format.TypeFloat64}}, b.Fields())
	require.Equal(t, []any{"Alice", nil}, b.Row(1))

	col, ok := b.ColumnByName("AGE")
	require.True(t, ok)
	require.Equal(t, "Age", col.Name())

	_, ok = b.ColumnByName("weight")
	require.False(t, ok)

	empty, err := New(nil, 0)
	require.NoError(t, err)
	require.Equal(t, 0, empty.NumRows())
}

func TestBatch_Select(t *testing.T) {
	b, err := New([]*Column{
		floatColumn("X", 1.0, 2.0),
		floatColumn("Y", 3.0, 4.0),
		stringColumn("S", "a", "b"),
	}, 0)
	require.NoError(t, err)

	sel, err := b.Select("s", "X")
	require.NoError(t, err)
	require.Equal(t, 2, sel.NumCols())
	require.Equal(t, "S", sel.Column(0).Name())
	require.Same(t, b.Column(0), sel.Column(1))

	_, err = b.Select("Z")
	require.ErrorIs(t, err, errs.ErrUnknownColumn)

	_, err = b.Select("X", "x")
	require.ErrorIs(t, err, errs.ErrDuplicateColumn)
}

func TestBatch_Rename(t *testing.T) {
	b, err := New([]*Column{floatColumn("X", 1.0)}, 0)
	require.NoError(t, err)

	renamed, err := b.Rename([]string{"Y"})
	require.NoError(t, err)
	require.Equal(t, "Y", renamed.Column(0).Name())
	require.Equal(t, "X", b.Column(0).Name())

	_, err = b.Rename(nil)
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestBatch_Record(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	date := NewColumnBuilder("D", format.TypeDate, 2)
	date.AppendInt64(0)
	date.AppendNull()
	small := NewColumnBuilder("U", format.TypeUint8, 2)
	small.AppendUint64(200)
	small.AppendUint64(0)
	flag := NewColumnBuilder("B", format.TypeBoolean, 2)
	flag.AppendBool(true)
	flag.AppendBool(false)

	b, err := New([]*Column{
		floatColumn("F", 1.5, nil),
		stringColumn("S", "x", ""),
		date.Finish(),
		small.Finish(),
		flag.Finish(),
	}, 0)
	require.NoError(t, err)

	rec := b.Record(mem)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	require.Equal(t, int64(5), rec.NumCols())

	f := rec.Column(0).(*array.Float64)
	assert.Equal(t, 1.5, f.Value(0))
	assert.True(t, f.IsNull(1))
	assert.Equal(t, "x", rec.Column(1).(*array.String).Value(0))
	assert.True(t, rec.Column(2).IsNull(1))
	assert.Equal(t, arrow.Date32(0), rec.Column(2).(*array.Date32).Value(0))
	assert.Equal(t, uint8(200), rec.Column(3).(*array.Uint8).Value(0))
	assert.True(t, rec.Column(4).(*array.Boolean).Value(0))
}

func TestArrowType(t *testing.T) {
	require.Equal(t, arrow.TIMESTAMP, ArrowType(format.TypeDatetime).ID())
	require.Equal(t, arrow.TIME64, ArrowType(format.TypeTime).ID())
	require.Equal(t, arrow.INT16, ArrowType(format.TypeInt16).ID())
	require.Equal(t, arrow.FLOAT64, ArrowType(format.TypeFloat64).ID())
}
