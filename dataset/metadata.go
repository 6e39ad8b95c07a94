package dataset

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/arloliu/sas7bdat/format"
)

// Column describes one column of the dataset.
type Column struct {
	Name string
	// Index is the zero-based ordinal in the file.
	Index int
	Type  format.ColumnType
	// Kind refines numeric columns into numbers, dates, datetimes and times.
	Kind   format.ColumnKind
	Offset int // byte offset inside a row
	Length int // byte width inside a row
	Format string
	Label  string
}

// DataType returns the output type of the column before schema inference.
func (c Column) DataType() format.DataType {
	return c.Kind.DataType()
}

// Metadata is the immutable dataset description built at open time. It is shared
// read-only by every iterator and worker of a Reader.
type Metadata struct {
	Name         string
	FileType     string
	Encoding     string
	EncodingByte uint8
	Compression  format.RowCompression
	ByteOrder    format.ByteOrder
	Width        format.BitWidth

	RowLength int
	RowCount  int64
	// MixPageRowCount is the maximum number of rows on a mix page.
	MixPageRowCount int64
	PageSize        int
	PageCount       int

	Creator     string
	CreatorProc string
	Created     time.Time
	Modified    time.Time
	SASRelease  string
	ServerType  string
	OSName      string

	Columns []Column
}

// ColumnNames returns the column names in file order.
func (m *Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}

	return names
}

type columnJSON struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	Output string `json:"output_type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Format string `json:"format,omitempty"`
	Label  string `json:"label,omitempty"`
}

type metadataJSON struct {
	Name        string       `json:"name"`
	FileType    string       `json:"file_type"`
	Encoding    string       `json:"encoding"`
	Compression string       `json:"compression"`
	ByteOrder   string       `json:"byte_order"`
	Width       string       `json:"width"`
	RowLength   int          `json:"row_length"`
	RowCount    int64        `json:"row_count"`
	PageSize    int          `json:"page_size"`
	PageCount   int          `json:"page_count"`
	Creator     string       `json:"creator,omitempty"`
	CreatorProc string       `json:"creator_proc,omitempty"`
	Created     time.Time    `json:"created"`
	Modified    time.Time    `json:"modified"`
	SASRelease  string       `json:"sas_release,omitempty"`
	ServerType  string       `json:"server_type,omitempty"`
	OSName      string       `json:"os_name,omitempty"`
	Columns     []columnJSON `json:"columns"`
}

// JSON encodes the metadata as a JSON document.
func (m *Metadata) JSON() ([]byte, error) {
	doc := metadataJSON{
		Name:        m.Name,
		FileType:    m.FileType,
		Encoding:    m.Encoding,
		Compression: m.Compression.String(),
		ByteOrder:   m.ByteOrder.String(),
		Width:       m.Width.String(),
		RowLength:   m.RowLength,
		RowCount:    m.RowCount,
		PageSize:    m.PageSize,
		PageCount:   m.PageCount,
		Creator:     m.Creator,
		CreatorProc: m.CreatorProc,
		Created:     m.Created,
		Modified:    m.Modified,
		SASRelease:  m.SASRelease,
		ServerType:  m.ServerType,
		OSName:      m.OSName,
		Columns:     make([]columnJSON, len(m.Columns)),
	}
	for i, c := range m.Columns {
		doc.Columns[i] = columnJSON{
			Name:   c.Name,
			Index:  c.Index,
			Type:   c.Type.String(),
			Kind:   c.Kind.String(),
			Output: c.DataType().String(),
			Offset: c.Offset,
			Length: c.Length,
			Format: c.Format,
			Label:  c.Label,
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}
