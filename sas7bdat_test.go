package sas7bdat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/dataset"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/fixture"
)

func classFile(t *testing.T, compression format.RowCompression) []byte {
	t.Helper()

	f, err := fixture.Build(fixture.Dataset{
		Name:        "CLASS",
		Compression: compression,
		Columns: []fixture.Column{
			{Name: "Name", Type: format.ColumnCharacter, Length: 8},
			{Name: "Sex", Type: format.ColumnCharacter, Length: 1},
			{Name: "Age", Type: format.ColumnNumeric},
			{Name: "Height", Type: format.ColumnNumeric},
		},
		Rows: [][]any{
			{"Alfred", "M", 14, 69.0},
			{"Alice", "F", 13, 56.5},
			{"Barbara", "F", 13, 65.3},
			{"Carol", "F", 14, 62.8},
			{"Henry", "M", 14, nil},
		},
	})
	require.NoError(t, err)

	return f.Data
}

// TestReadFile verifies a whole file is read in row order
func TestReadFile(t *testing.T) {
	for _, c := range []format.RowCompression{format.RowCompressionNone, format.RowCompressionRLE, format.RowCompressionRDC} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "class.sas7bdat")
			require.NoError(t, os.WriteFile(path, classFile(t, c), 0o600))

			batches, meta, err := ReadFile(t.Context(), path, dataset.WithBatchSize(2))
			require.NoError(t, err)
			require.Equal(t, "CLASS", meta.Name)
			require.Equal(t, c, meta.Compression)
			require.Len(t, batches, 3)

			require.Equal(t, []any{"Alfred", "M", 14.0, 69.0}, batches[0].Row(0))
			require.Equal(t, []any{"Henry", "M", 14.0, nil}, batches[2].Row(0))
		})
	}
}

// TestReadFile_Missing verifies open errors are returned
func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(t.Context(), filepath.Join(t.TempDir(), "none.sas7bdat"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestReadAll verifies projection and windows through the wrapper
func TestReadAll(t *testing.T) {
	data := classFile(t, format.RowCompressionNone)
	r, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	defer r.Close()

	batches, err := ReadAll(t.Context(), r, dataset.ReadRequest{Offset: 1, Limit: 3, Columns: []string{"Age", "Name"}})
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	require.Equal(t, int64(1), b.RowOffset())
	require.Equal(t, 3, b.NumRows())
	require.Equal(t, []any{13.0, "Alice"}, b.Row(0))
	require.Equal(t, []any{14.0, "Carol"}, b.Row(2))

	_, err = ReadAll(t.Context(), r, dataset.ReadRequest{Columns: []string{"Weight"}})
	require.ErrorIs(t, err, errs.ErrUnknownColumn)
}

// TestReadAllWithSchema verifies inferred narrowing is applied
func TestReadAllWithSchema(t *testing.T) {
	data := classFile(t, format.RowCompressionRDC)
	r, err := Open(bytes.NewReader(data), int64(len(data)), dataset.WithMode(format.ModePipeline))
	require.NoError(t, err)
	defer r.Close()

	s, err := r.InferSchema(t.Context(), dataset.InferOptions{})
	require.NoError(t, err)

	batches, err := ReadAllWithSchema(t.Context(), r, dataset.ReadRequest{}, s)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	age, ok := batches[0].ColumnByName("Age")
	require.True(t, ok)
	require.Equal(t, format.TypeUint8, age.Type())
	require.Equal(t, []uint64{14, 13, 13, 14, 14}, age.Uint64s())

	height, _ := batches[0].ColumnByName("Height")
	require.Equal(t, format.TypeFloat64, height.Type())
}

// TestReadArrow verifies batches convert to Arrow records without leaking memory
func TestReadArrow(t *testing.T) {
	data := classFile(t, format.RowCompressionRLE)
	r, err := OpenFile(writeTemp(t, data))
	require.NoError(t, err)
	defer r.Close()

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	records, err := ReadArrow(t.Context(), r, dataset.ReadRequest{BatchSize: 3}, mem)
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec := records[0]
	require.Equal(t, int64(3), rec.NumRows())
	require.Equal(t, "Name", rec.ColumnName(0))
	require.Equal(t, arrow.STRING, rec.Column(0).DataType().ID())
	require.Equal(t, arrow.FLOAT64, rec.Column(3).DataType().ID())
	require.Equal(t, 1, records[1].Column(3).NullN())

	for _, rec := range records {
		rec.Release()
	}
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.sas7bdat")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}
