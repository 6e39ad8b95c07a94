// Package fixture synthesizes datasets in memory for tests.
//
// Build lays out a header, metadata pages and row storage for any byte order, word
// width and row compression:
//
//	f, err := fixture.Build(fixture.Dataset{
//	    ByteOrder: format.LittleEndian,
//	    Width:     format.Width64,
//	    Columns:   []fixture.Column{{Name: "X", Type: format.ColumnNumeric}},
//	    Rows:      [][]any{{1.0}, {nil}},
//	})
package fixture

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/section"
)

// Missing is a missing numeric cell: '.', '_' or 'A' to 'Z'.
type Missing byte

// Column describes one column of a synthetic dataset.
type Column struct {
	Name   string
	Type   format.ColumnType
	Length int // cell width; numeric columns default to 8
	Format string
	Label  string
}

// Dataset describes a synthetic dataset. Row cells are float64, int, Missing or nil
// (a plain missing value) for numeric columns and string for character columns.
type Dataset struct {
	ByteOrder    format.ByteOrder
	Width        format.BitWidth
	Compression  format.RowCompression
	PageSize     int  // defaults to 4096
	EncodingByte byte // defaults to 20 (UTF-8)
	Name         string
	Created      float64
	Columns      []Column
	Rows         [][]any

	// MixRows stores the first rows on the last metadata page (uncompressed only).
	MixRows bool
	// TextLast moves the column text subheaders to a metadata page after the
	// subheaders that reference them.
	TextLast bool
	// SplitText stores labels in a second column text subheader.
	SplitText bool
	// CreatorProc is stored in the first text blob (uncompressed and RLE only).
	CreatorProc string
	// CompressionLiteral overrides the literal stored in the first text blob.
	CompressionLiteral string
}

// Unit locates a compressed row unit in the built file.
type Unit struct {
	Page   int
	Offset int // offset inside the page
	Length int
}

// File is a built dataset.
type File struct {
	Data      []byte
	Header    section.FileHeader
	RowLength int
	// MetaPages is the number of leading metadata pages.
	MetaPages int
	// MixRows is the number of rows stored on the mix page.
	MixRows int
	Units   []Unit
}

const (
	defaultPageSize = 4096
	headerLength    = 1024
	blobTextStart   = 48
)

type subheader struct {
	data []byte
	// compression and type bytes of the pointer
	comp, typ byte
}

type page struct {
	typ     format.PageType
	subs    []subheader
	offsets []int
	low     int // lowest content offset
	rows    [][]byte
}

// Build encodes d.
func Build(d Dataset) (*File, error) {
	if d.PageSize == 0 {
		d.PageSize = defaultPageSize
	}
	if d.EncodingByte == 0 {
		d.EncodingByte = 20
	}
	if d.Compression == 0 {
		d.Compression = format.RowCompressionNone
	}
	if d.Width == 0 {
		d.Width = format.Width64
	}
	if d.ByteOrder == 0 {
		d.ByteOrder = format.LittleEndian
	}
	if d.MixRows && d.Compression != format.RowCompressionNone {
		return nil, errors.New("fixture: mix rows require an uncompressed dataset")
	}

	w := endian.NewWordReader(d.ByteOrder, d.Width)
	b := &builder{d: d, w: w, intSize: w.IntSize()}

	if err := b.layoutColumns(); err != nil {
		return nil, err
	}
	rows, err := b.encodeRows()
	if err != nil {
		return nil, err
	}

	return b.build(rows)
}

type builder struct {
	d       Dataset
	w       endian.WordReader
	intSize int
	offsets []int
	lengths []int
	rowLen  int
	blobs   [][]byte
}

func (b *builder) layoutColumns() error {
	for _, c := range b.d.Columns {
		n := c.Length
		if n == 0 {
			if c.Type == format.ColumnCharacter {
				return fmt.Errorf("fixture: character column %q needs a length", c.Name)
			}
			n = 8
		}
		if c.Type == format.ColumnNumeric && (n < 3 || n > 8) {
			return fmt.Errorf("fixture: numeric column %q length %d", c.Name, n)
		}
		b.offsets = append(b.offsets, b.rowLen)
		b.lengths = append(b.lengths, n)
		b.rowLen += n
	}

	return nil
}

func (b *builder) encodeRows() ([][]byte, error) {
	engine := b.w.Engine()
	rows := make([][]byte, 0, len(b.d.Rows))

	for r, values := range b.d.Rows {
		if len(values) != len(b.d.Columns) {
			return nil, fmt.Errorf("fixture: row %d has %d cells, want %d", r, len(values), len(b.d.Columns))
		}
		row := make([]byte, b.rowLen)
		for i, c := range b.d.Columns {
			cell := row[b.offsets[i] : b.offsets[i]+b.lengths[i]]
			if c.Type == format.ColumnCharacter {
				s, _ := values[i].(string)
				if len(s) > len(cell) {
					return nil, fmt.Errorf("fixture: row %d column %q: %q exceeds %d bytes", r, c.Name, s, len(cell))
				}
				copy(cell, s)
				for j := len(s); j < len(cell); j++ {
					cell[j] = ' '
				}

				continue
			}

			bits, err := numericBits(values[i])
			if err != nil {
				return nil, fmt.Errorf("fixture: row %d column %q: %w", r, c.Name, err)
			}
			var full [8]byte
			engine.PutUint64(full[:], bits)
			if b.d.ByteOrder == format.BigEndian {
				copy(cell, full[:len(cell)])
			} else {
				copy(cell, full[8-len(cell):])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func numericBits(v any) (uint64, error) {
	switch v := v.(type) {
	case nil:
		return missingBits('.'), nil
	case Missing:
		return missingBits(v), nil
	case float64:
		return math.Float64bits(v), nil
	case int:
		return math.Float64bits(float64(v)), nil
	default:
		return 0, fmt.Errorf("unsupported numeric cell %T", v)
	}
}

func missingBits(m Missing) uint64 {
	var tag byte
	switch {
	case m == '_':
		tag = 0
	case m >= 'A' && m <= 'Z':
		tag = byte(m) - 'A' + 2
	default:
		tag = 1
	}

	return 0xFFFF_0000_0000_0000 | uint64(^tag)<<40
}

// textRef is a (blob index, offset, length) reference into the column text blobs.
type textRef struct {
	idx, off, length int
}

func (b *builder) addText(idx int, s string) textRef {
	if s == "" {
		return textRef{}
	}
	blob := b.blobs[idx]
	ref := textRef{idx: idx, off: len(blob), length: len(s)}
	blob = append(blob, s...)
	for len(blob)%4 != 0 {
		blob = append(blob, ' ')
	}
	b.blobs[idx] = blob

	return ref
}

func (b *builder) compressionLiteral() string {
	if b.d.CompressionLiteral != "" {
		return b.d.CompressionLiteral
	}

	switch b.d.Compression {
	case format.RowCompressionRLE:
		return section.CompressionLiteralRLE
	case format.RowCompressionRDC:
		return section.CompressionLiteralRDC
	default:
		return ""
	}
}

// prepareBlobs creates the text blobs and returns the name, format and label references.
func (b *builder) prepareBlobs() (names, formats, labels []textRef, lcp int) {
	first := make([]byte, blobTextStart)
	copy(first[section.CompressionLiteralOffset:], b.compressionLiteral())

	proc := b.d.CreatorProc
	if proc != "" && b.d.Compression != format.RowCompressionRDC {
		at := section.CompressionLiteralOffset + 16
		if b.d.Compression == format.RowCompressionRLE {
			at = section.CompressionLiteralOffset + 24
		}
		for len(first) < at+len(proc) {
			first = append(first, 0)
		}
		copy(first[at:], proc)
		lcp = len(proc)
	}
	for len(first)%4 != 0 {
		first = append(first, 0)
	}
	b.blobs = [][]byte{first}
	if b.d.SplitText {
		b.blobs = append(b.blobs, make([]byte, 8))
	}

	labelBlob := 0
	if b.d.SplitText {
		labelBlob = 1
	}
	for _, c := range b.d.Columns {
		names = append(names, b.addText(0, c.Name))
		formats = append(formats, b.addText(0, c.Format))
		labels = append(labels, b.addText(labelBlob, c.Label))
	}

	return names, formats, labels, lcp
}

func (b *builder) sig(s section.Signature, size int) []byte {
	data := make([]byte, size)
	section.PutSignature(b.w, data, s)

	return data
}

func (b *builder) putU16(data []byte, off int, v int) {
	b.w.Engine().PutUint16(data[off:], uint16(v))
}

// rowSize builds the row size subheader; the mix row count is patched in later.
func (b *builder) rowSize(lcp int) []byte {
	size, lcpOff := 808, section.RowSizeLCP64
	if b.d.Width == format.Width32 {
		size, lcpOff = 480, section.RowSizeLCP32
	}
	data := b.sig(section.SignatureRowSize, size)
	b.w.PutInt(data, section.RowSizeRowLengthWord*b.intSize, uint64(b.rowLen))
	b.w.PutInt(data, section.RowSizeRowCountWord*b.intSize, uint64(len(b.d.Rows)))
	b.w.PutInt(data, section.RowSizeColCountP1Word*b.intSize, uint64(len(b.d.Columns)))
	b.w.PutInt(data, section.RowSizeColCountP2Word*b.intSize, 0)
	b.putU16(data, lcpOff, lcp)

	return data
}

func (b *builder) metadataSubheaders(lcp int, names, formats, labels []textRef) (rowSize []byte, refs, texts []subheader) {
	word := b.intSize
	n := len(b.d.Columns)

	rowSize = b.rowSize(lcp)
	refs = append(refs, subheader{data: rowSize})

	colSize := b.sig(section.SignatureColumnSize, 3*word)
	b.w.PutInt(colSize, word, uint64(n))
	refs = append(refs, subheader{data: colSize})
	refs = append(refs, subheader{data: b.sig(section.SignatureSubheaderCounts, 64)})

	for _, blob := range b.blobs {
		data := b.sig(section.SignatureColumnText, word+len(blob))
		copy(data[word:], blob)
		b.putU16(data, word, len(blob))
		texts = append(texts, subheader{data: data})
	}

	nameSub := b.sig(section.SignatureColumnName, word+8+8*n+12)
	for i, ref := range names {
		off := word + 8 + 8*i
		b.putU16(nameSub, off, ref.idx)
		b.putU16(nameSub, off+2, ref.off)
		b.putU16(nameSub, off+4, ref.length)
	}
	refs = append(refs, subheader{data: nameSub})

	attrSub := b.sig(section.SignatureColumnAttributes, word+8+(word+8)*n+12)
	for i, c := range b.d.Columns {
		off := word + 8 + (word+8)*i
		b.w.PutInt(attrSub, off, uint64(b.offsets[i]))
		b.w.Engine().PutUint32(attrSub[off+word:], uint32(b.lengths[i]))
		attrSub[off+word+6] = byte(c.Type)
	}
	refs = append(refs, subheader{data: attrSub})

	for i := range b.d.Columns {
		fl := b.sig(section.SignatureFormatAndLabel, 3*word+40)
		base := 3 * word
		b.putU16(fl, base+22, formats[i].idx)
		b.putU16(fl, base+24, formats[i].off)
		b.putU16(fl, base+26, formats[i].length)
		b.putU16(fl, base+28, labels[i].idx)
		b.putU16(fl, base+30, labels[i].off)
		b.putU16(fl, base+32, labels[i].length)
		refs = append(refs, subheader{data: fl})
	}

	refs = append(refs, subheader{data: b.sig(section.SignatureColumnList, word+32)})

	return rowSize, refs, texts
}

func (b *builder) pointerBase() int {
	return section.PointerTableOffset(b.w)
}

// fits reports whether one more subheader of size n fits on p, keeping room for a
// trailing truncated pointer.
func (b *builder) fits(p *page, n int) bool {
	tableEnd := b.pointerBase() + (len(p.subs)+2)*section.PointerSize(b.w)

	return p.low-n >= tableEnd
}

func (b *builder) newPage(typ format.PageType) *page {
	return &page{typ: typ, low: b.d.PageSize}
}

func (b *builder) place(pages []*page, typ format.PageType, s subheader) ([]*page, error) {
	p := pages[len(pages)-1]
	if !b.fits(p, len(s.data)) {
		p = b.newPage(typ)
		pages = append(pages, p)
		if !b.fits(p, len(s.data)) {
			return nil, fmt.Errorf("fixture: subheader of %d bytes does not fit a %d byte page", len(s.data), b.d.PageSize)
		}
	}
	p.low -= len(s.data)
	p.low -= p.low % 8
	p.subs = append(p.subs, s)
	p.offsets = append(p.offsets, p.low)

	return pages, nil
}

func (b *builder) build(rows [][]byte) (*File, error) {
	names, formats, labels, lcp := b.prepareBlobs()
	rowSize, refs, texts := b.metadataSubheaders(lcp, names, formats, labels)

	pages := []*page{b.newPage(format.PageMeta)}
	var err error
	for _, s := range refs {
		if pages, err = b.place(pages, format.PageMeta, s); err != nil {
			return nil, err
		}
	}
	if b.d.TextLast {
		pages = append(pages, b.newPage(format.PageMeta))
	}
	for _, s := range texts {
		if pages, err = b.place(pages, format.PageMeta, s); err != nil {
			return nil, err
		}
	}

	metaPages := len(pages)
	file := &File{RowLength: b.rowLen, MetaPages: metaPages}
	remaining := rows
	mixRows := len(rows)

	switch {
	case b.d.Compression != format.RowCompressionNone:
		for _, row := range rows {
			unit := subheader{data: row, typ: section.PointerTypeRowData}
			if c := b.compressRow(row); len(c) < len(row) {
				unit = subheader{data: c, comp: section.PointerCompressed, typ: section.PointerTypeRowData}
			}
			if pages, err = b.place(pages, format.PageMeta, unit); err != nil {
				return nil, err
			}
		}
		remaining = nil
	case b.d.MixRows:
		last := pages[len(pages)-1]
		last.typ = format.PageMix1
		start := section.MixRowsOffset(b.w, len(last.subs)+1)
		fit := (last.low - start) / max(b.rowLen, 1)
		mixRows = min(fit, len(rows))
		last.rows = rows[:mixRows]
		remaining = rows[mixRows:]
		file.MixRows = mixRows
	}
	b.w.PutInt(rowSize, section.RowSizeMixRowCountWord*b.intSize, uint64(mixRows))

	perPage := (b.d.PageSize - section.DataRowsOffset(b.w)) / max(b.rowLen, 1)
	if len(remaining) > 0 && perPage == 0 {
		return nil, fmt.Errorf("fixture: row of %d bytes does not fit a %d byte page", b.rowLen, b.d.PageSize)
	}
	for len(remaining) > 0 {
		n := min(perPage, len(remaining))
		p := b.newPage(format.PageData)
		p.rows = remaining[:n]
		remaining = remaining[n:]
		pages = append(pages, p)
	}

	header := section.FileHeader{
		ByteOrder:    b.d.ByteOrder,
		Width:        b.d.Width,
		Platform:     section.PlatformUnix,
		EncodingByte: b.d.EncodingByte,
		DatasetName:  b.d.Name,
		FileType:     "DATA",
		Created:      b.d.Created,
		Modified:     b.d.Created,
		HeaderLength: headerLength,
		PageSize:     uint32(b.d.PageSize),
		PageCount:    uint32(len(pages)),
		SASRelease:   "9.0401M7",
		ServerType:   "X64_10PRO",
		OSName:       "fixture",
	}
	if b.d.Width == format.Width64 {
		header.Align1 = section.AlignPadding
	}

	data := header.Bytes()
	for i, p := range pages {
		buf, units := b.writePage(p, i, i == len(pages)-1)
		data = append(data, buf...)
		file.Units = append(file.Units, units...)
	}
	file.Data = data
	file.Header = header

	return file, nil
}

func (b *builder) compressRow(row []byte) []byte {
	if b.d.Compression == format.RowCompressionRDC {
		return CompressRDC(row)
	}

	return CompressRLE(row)
}

func (b *builder) writePage(p *page, index int, last bool) ([]byte, []Unit) {
	buf := make([]byte, b.d.PageSize)
	var units []Unit

	count := len(p.subs)
	for i, s := range p.subs {
		copy(buf[p.offsets[i]:], s.data)
		section.PutPointer(b.w, buf, i, section.Pointer{
			Offset:      p.offsets[i],
			Length:      len(s.data),
			Compression: s.comp,
			Type:        s.typ,
		})
		if s.typ == section.PointerTypeRowData {
			units = append(units, Unit{Page: index, Offset: p.offsets[i], Length: len(s.data)})
		}
	}
	if p.typ != format.PageData && (last || p.typ == format.PageMix1) {
		section.PutPointer(b.w, buf, count, section.Pointer{Compression: section.PointerTruncated})
		count++
	}

	blocks := count
	switch p.typ {
	case format.PageData:
		start := section.DataRowsOffset(b.w)
		for i, row := range p.rows {
			copy(buf[start+i*b.rowLen:], row)
		}
		blocks = len(p.rows)
	case format.PageMix1:
		start := section.MixRowsOffset(b.w, count)
		for i, row := range p.rows {
			copy(buf[start+i*b.rowLen:], row)
		}
		blocks = count + len(p.rows)
	}

	section.PageHeader{Type: p.typ, BlockCount: uint16(blocks), SubheaderCount: uint16(count)}.Put(b.w, buf)

	return buf, units
}
