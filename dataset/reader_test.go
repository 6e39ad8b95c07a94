package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/compress"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

func TestOpen_Metadata(t *testing.T) {
	for _, l := range layouts {
		for _, c := range []format.RowCompression{format.RowCompressionNone, format.RowCompressionRLE} {
			t.Run(l.name+"/"+c.String(), func(t *testing.T) {
				d := peopleDataset(12)
				d.ByteOrder, d.Width, d.Compression = l.order, l.width, c
				d.CreatorProc = "DATASTEP"
				d.Created = 1_900_000_000
				f := buildFixture(t, d)

				r := openBytes(t, f.Data)
				meta := r.Metadata()

				require.Equal(t, "PEOPLE", meta.Name)
				require.Equal(t, "DATA", meta.FileType)
				require.Equal(t, "UTF-8", meta.Encoding)
				require.Equal(t, uint8(20), meta.EncodingByte)
				require.Equal(t, c, meta.Compression)
				require.Equal(t, l.order, meta.ByteOrder)
				require.Equal(t, l.width, meta.Width)
				require.Equal(t, int64(12), meta.RowCount)
				require.Equal(t, f.RowLength, meta.RowLength)
				require.Equal(t, 40, meta.RowLength)
				require.Equal(t, 4096, meta.PageSize)
				require.Equal(t, int(f.Header.PageCount), meta.PageCount)
				require.Equal(t, "DATASTEP", meta.CreatorProc)
				require.Equal(t, "9.0401M7", meta.SASRelease)
				require.Equal(t, time.Date(2020, 3, 16, 17, 46, 40, 0, time.UTC), meta.Created)

				want := []Column{
					{Name: "Name", Index: 0, Type: format.ColumnCharacter, Kind: format.KindString, Offset: 0, Length: 24, Label: "Full name"},
					{Name: "Age", Index: 1, Type: format.ColumnNumeric, Kind: format.KindNumber, Offset: 24, Length: 8, Format: "BEST", Label: "Age in years"},
					{Name: "Weight", Index: 2, Type: format.ColumnNumeric, Kind: format.KindNumber, Offset: 32, Length: 8},
				}
				require.Equal(t, want, meta.Columns)

				h := r.Header()
				require.Equal(t, l.order, h.ByteOrder)
				require.Equal(t, f.Header.PageCount, h.PageCount)
			})
		}
	}
}

func TestOpen_ColumnTextSurvivesDataPages(t *testing.T) {
	for _, l := range layouts {
		t.Run(l.name, func(t *testing.T) {
			d := peopleDataset(300)
			d.ByteOrder, d.Width = l.order, l.width
			d.Columns[1].Format = "DATE"
			f := buildFixture(t, d)
			require.Equal(t, 1, f.MetaPages)
			require.Greater(t, int(f.Header.PageCount), f.MetaPages)

			r := openBytes(t, f.Data)
			meta := r.Metadata()
			require.Equal(t, []string{"Name", "Age", "Weight"}, meta.ColumnNames())
			require.Equal(t, "Full name", meta.Columns[0].Label)
			require.Equal(t, "DATE", meta.Columns[1].Format)
			require.Equal(t, format.KindDate, meta.Columns[1].Kind)

			it, err := r.Batches(t.Context(), ReadRequest{Columns: []string{"Weight"}})
			require.NoError(t, err)
			batches := drain(t, it)
			require.NotEmpty(t, batches)
			require.Equal(t, "Weight", batches[0].Fields()[0].Name)
		})
	}
}

func TestMetadata_JSON(t *testing.T) {
	r := openFixture(t, peopleDataset(2))

	data, err := r.Metadata().JSON()
	require.NoError(t, err)

	var doc struct {
		Name        string `json:"name"`
		Compression string `json:"compression"`
		RowCount    int64  `json:"row_count"`
		Columns     []struct {
			Name   string `json:"name"`
			Kind   string `json:"kind"`
			Output string `json:"output_type"`
			Label  string `json:"label"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "PEOPLE", doc.Name)
	require.Equal(t, "None", doc.Compression)
	require.Equal(t, int64(2), doc.RowCount)
	require.Len(t, doc.Columns, 3)
	require.Equal(t, "Name", doc.Columns[0].Name)
	require.Equal(t, "String", doc.Columns[0].Kind)
	require.Equal(t, "Full name", doc.Columns[0].Label)
	require.Equal(t, "Float64", doc.Columns[1].Output)
}

func TestOpen_Errors(t *testing.T) {
	t.Run("Not a dataset", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x42}, 2048)
		_, err := Open(bytes.NewReader(data), int64(len(data)))
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("Unsupported compression literal", func(t *testing.T) {
		d := peopleDataset(3)
		d.CompressionLiteral = "SASYZCXX"
		f := buildFixture(t, d)

		_, err := Open(bytes.NewReader(f.Data), int64(len(f.Data)))
		require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
	})

	t.Run("Invalid option", func(t *testing.T) {
		f := buildFixture(t, peopleDataset(3))

		_, err := Open(bytes.NewReader(f.Data), int64(len(f.Data)), WithBatchSize(0))
		require.ErrorIs(t, err, errs.ErrInvalidOption)

		_, err = Open(bytes.NewReader(f.Data), int64(len(f.Data)), WithMode(format.Mode(0)))
		require.ErrorIs(t, err, errs.ErrInvalidOption)

		_, err = Open(bytes.NewReader(f.Data), int64(len(f.Data)), WithEncoding(250))
		require.ErrorIs(t, err, errs.ErrInvalidOption)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(t.TempDir(), "absent.sas7bdat"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRead_TruncatedFile(t *testing.T) {
	d := peopleDataset(300)
	f := buildFixture(t, d)
	data := f.Data[:len(f.Data)-100]
	last := int(f.Header.PageCount) - 1

	r := openBytes(t, data)
	it, err := r.Batches(t.Context(), ReadRequest{BatchSize: 50})
	require.NoError(t, err)
	defer it.Close()

	for {
		_, err = it.Next()
		if err != nil {
			break
		}
	}
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, last, e.Page)
}

func TestOpen_Container(t *testing.T) {
	d := peopleDataset(120)
	d.Compression = format.RowCompressionRDC
	f := buildFixture(t, d)
	want := expectedRows(d)

	containers := []format.ContainerType{
		format.ContainerZstd,
		format.ContainerS2,
		format.ContainerLZ4,
		format.ContainerGzip,
	}
	for _, ct := range containers {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := compress.CreateCodec(ct)
			require.NoError(t, err)
			packed, err := codec.Compress(f.Data)
			require.NoError(t, err)
			require.Less(t, len(packed), len(f.Data))

			r := openBytes(t, packed)
			require.Equal(t, int64(120), r.Metadata().RowCount)
			require.Equal(t, want, readRows(t, r, ReadRequest{}))
		})
	}
}

func TestOpenFile(t *testing.T) {
	d := peopleDataset(25)
	f := buildFixture(t, d)
	path := filepath.Join(t.TempDir(), "people.sas7bdat")
	require.NoError(t, os.WriteFile(path, f.Data, 0o600))

	r, err := OpenFile(path, WithMode(format.ModeParallel), WithBatchSize(6))
	require.NoError(t, err)
	require.Equal(t, expectedRows(d), readRows(t, r, ReadRequest{}))
	require.NoError(t, r.Close())
}

func TestOpen_EncodingOverride(t *testing.T) {
	d := peopleDataset(1)
	d.Rows[0][0] = "caf\xe9"
	d.EncodingByte = 29 // Latin-1

	r := openFixture(t, d)
	require.Equal(t, "ISO-8859-1", r.Metadata().Encoding)
	require.Equal(t, "café", readRows(t, r, ReadRequest{})[0][0])

	r = openFixture(t, d, WithEncoding(20))
	require.Equal(t, "UTF-8", r.Metadata().Encoding)
	require.Equal(t, "caf\uFFFD", readRows(t, r, ReadRequest{})[0][0])
}

func TestReader_NextBatch(t *testing.T) {
	d := peopleDataset(10)
	r := openFixture(t, d)
	req := ReadRequest{BatchSize: 4, Columns: []string{"Name"}}

	var sizes []int
	for {
		b, err := r.NextBatch(t.Context(), req)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, b.NumRows())
	}
	require.Equal(t, []int{4, 4, 2}, sizes)

	// after EOF the same request starts over
	b, err := r.NextBatch(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.RowOffset())

	// a different request starts a new read
	b, err = r.NextBatch(t.Context(), ReadRequest{Offset: 7})
	require.NoError(t, err)
	require.Equal(t, int64(7), b.RowOffset())
	require.Equal(t, 3, b.NumRows())

	_, err = r.NextBatch(t.Context(), ReadRequest{Columns: []string{"Missing"}})
	require.ErrorIs(t, err, errs.ErrUnknownColumn)

	require.NoError(t, r.Close())
	_, err = r.NextBatch(t.Context(), req)
	require.ErrorIs(t, err, errs.ErrReaderClosed)
}

func TestReader_NextBatchCanceledContext(t *testing.T) {
	r := openFixture(t, peopleDataset(10))
	req := ReadRequest{BatchSize: 4}

	b, err := r.NextBatch(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.RowOffset())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = r.NextBatch(ctx, req)
	require.ErrorIs(t, err, context.Canceled)

	// the abandoned read is not resumed
	b, err = r.NextBatch(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.RowOffset())
}

func TestReader_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := peopleDataset(30)
	d.Compression = format.RowCompressionRLE
	f := buildFixture(t, d)

	r := openBytes(t, f.Data, WithMetrics(reg))
	readRows(t, r, ReadRequest{BatchSize: 10})

	// a second reader shares the registered collectors
	r2 := openBytes(t, f.Data, WithMetrics(reg), WithMode(format.ModePipeline))
	readRows(t, r2, ReadRequest{BatchSize: 10})

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "/" + lp.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}

	require.Equal(t, 60.0, values["sas7bdat_rows_decoded_total"])
	require.Equal(t, 3.0, values["sas7bdat_batches_total/sequential"])
	require.Equal(t, 3.0, values["sas7bdat_batches_total/pipeline"])
	require.Greater(t, values["sas7bdat_pages_read_total"], 0.0)

	compressed := 0
	for _, u := range f.Units {
		if u.Length < f.RowLength {
			compressed++
		}
	}
	require.Equal(t, float64(2*compressed), values["sas7bdat_units_decompressed_total/RLE"])
}
