package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/fixture"
)

type layout struct {
	name  string
	order format.ByteOrder
	width format.BitWidth
}

var layouts = []layout{
	{"LE32", format.LittleEndian, format.Width32},
	{"BE32", format.BigEndian, format.Width32},
	{"LE64", format.LittleEndian, format.Width64},
	{"BE64", format.BigEndian, format.Width64},
}

var compressions = []format.RowCompression{
	format.RowCompressionNone,
	format.RowCompressionRLE,
	format.RowCompressionRDC,
}

// peopleDataset has n rows of a padded name, an integral age with gaps and a
// fractional weight.
func peopleDataset(n int) fixture.Dataset {
	rows := make([][]any, n)
	for i := range n {
		var age any = i%90 + 10
		if i%7 == 3 {
			age = nil
		}
		rows[i] = []any{fmt.Sprintf("person%03d", i), age, float64(i) * 1.5}
	}

	return fixture.Dataset{
		Name: "PEOPLE",
		Columns: []fixture.Column{
			{Name: "Name", Type: format.ColumnCharacter, Length: 24, Label: "Full name"},
			{Name: "Age", Type: format.ColumnNumeric, Format: "BEST", Label: "Age in years"},
			{Name: "Weight", Type: format.ColumnNumeric},
		},
		Rows: rows,
	}
}

// expectedRows renders fixture rows the way batches report them.
func expectedRows(d fixture.Dataset) [][]any {
	out := make([][]any, len(d.Rows))
	for i, row := range d.Rows {
		vals := make([]any, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case string:
				if s := strings.TrimRight(v, " "); s != "" {
					vals[j] = s
				}
			case int:
				vals[j] = float64(v)
			case float64:
				vals[j] = v
			}
		}
		out[i] = vals
	}

	return out
}

func buildFixture(t *testing.T, d fixture.Dataset) *fixture.File {
	t.Helper()

	f, err := fixture.Build(d)
	require.NoError(t, err)

	return f
}

func openFixture(t *testing.T, d fixture.Dataset, opts ...Option) *Reader {
	t.Helper()

	return openBytes(t, buildFixture(t, d).Data, opts...)
}

func openBytes(t *testing.T, data []byte, opts ...Option) *Reader {
	t.Helper()

	r, err := Open(bytes.NewReader(data), int64(len(data)), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	return r
}

// drain reads every batch of it and closes it.
func drain(t *testing.T, it *Iterator) []*batch.Batch {
	t.Helper()

	var batches []*batch.Batch
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		batches = append(batches, b)
	}
	require.NoError(t, it.Close())

	return batches
}

func rowsOf(batches []*batch.Batch) [][]any {
	var rows [][]any
	for _, b := range batches {
		for i := range b.NumRows() {
			rows = append(rows, b.Row(i))
		}
	}

	return rows
}

func readRows(t *testing.T, r *Reader, req ReadRequest) [][]any {
	t.Helper()

	it, err := r.Batches(t.Context(), req)
	require.NoError(t, err)

	return rowsOf(drain(t, it))
}
