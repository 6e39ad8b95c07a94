package dataset

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/arloliu/sas7bdat/encoding"
	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/section"
)

// textRef points at a string inside a column text blob.
type textRef struct {
	idx, off, length int
}

type columnAttr struct {
	offset uint64
	width  uint32
	typ    byte
}

type formatLabel struct {
	format, label textRef
}

// metadataParser collects raw subheader content across pages. Text references are only
// resolved in build, after every blob has been seen, because blobs may follow the
// subheaders that reference them.
type metadataParser struct {
	w      endian.WordReader
	logger *zap.Logger

	haveRowSize   bool
	rowLength     uint64
	rowCount      uint64
	colCountP1    uint64
	colCountP2    uint64
	mixRowCount   uint64
	lcs, lcp      int
	colCount      int
	haveColSize   bool
	compression   format.RowCompression
	creator       string
	creatorProc   string
	blobs         [][]byte
	names         []textRef
	attrs         []columnAttr
	formatsLabels []formatLabel
	sawRowUnits   bool
}

func newMetadataParser(w endian.WordReader, logger *zap.Logger) *metadataParser {
	return &metadataParser{w: w, logger: logger, compression: format.RowCompressionNone}
}

// complete reports whether every piece of metadata needed by build has been seen.
func (p *metadataParser) complete() bool {
	if !p.haveRowSize || len(p.blobs) == 0 {
		return false
	}
	n, ok := p.columnCount()
	if !ok {
		return false
	}

	return len(p.names) >= n && len(p.attrs) >= n && len(p.formatsLabels) >= n
}

// consumePage feeds the subheaders of one page to the parser.
func (p *metadataParser) consumePage(page []byte, pageIndex int, ph section.PageHeader) error {
	pointers, err := section.ParsePointers(p.w, page, pageIndex, int(ph.SubheaderCount))
	if err != nil {
		return err
	}

	width := p.w.Width()
	sigLen := section.SignatureSize(width)
	for _, ptr := range pointers {
		if ptr.Skippable() {
			continue
		}
		data := page[ptr.Offset : ptr.Offset+ptr.Length]
		sig := section.ClassifySignature(width, data)
		if sig == section.SignatureUnknown || len(data) < sigLen {
			if p.isRowUnit(ptr, data) {
				p.sawRowUnits = true
			}
			continue
		}
		if err := p.subheader(sig, data); err != nil {
			return errs.AtOffset("parse "+sig.String()+" subheader", pageIndex, int64(ptr.Offset), err)
		}
	}

	return nil
}

func (p *metadataParser) isRowUnit(ptr section.Pointer, data []byte) bool {
	return p.haveRowSize && ptr.IsRowData() && uint64(ptr.Length) <= p.rowLength &&
		!section.IsMetadataSignature(p.w.Width(), data)
}

func (p *metadataParser) subheader(sig section.Signature, data []byte) error {
	switch sig {
	case section.SignatureRowSize:
		return p.rowSize(data)
	case section.SignatureColumnSize:
		n, err := p.w.Int(data, p.w.IntSize())
		if err != nil {
			return err
		}
		p.colCount = int(n)
		p.haveColSize = true
	case section.SignatureColumnText:
		return p.columnText(data)
	case section.SignatureColumnName:
		return p.columnName(data)
	case section.SignatureColumnAttributes:
		return p.columnAttributes(data)
	case section.SignatureFormatAndLabel:
		return p.formatAndLabel(data)
	}

	return nil
}

func (p *metadataParser) rowSize(data []byte) error {
	word := p.w.IntSize()
	fields := []struct {
		dst  *uint64
		word int
	}{
		{&p.rowLength, section.RowSizeRowLengthWord},
		{&p.rowCount, section.RowSizeRowCountWord},
		{&p.colCountP1, section.RowSizeColCountP1Word},
		{&p.colCountP2, section.RowSizeColCountP2Word},
		{&p.mixRowCount, section.RowSizeMixRowCountWord},
	}
	for _, f := range fields {
		v, err := p.w.Int(data, f.word*word)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	lcsOff, lcpOff := section.RowSizeLCS32, section.RowSizeLCP32
	if p.w.Width() == format.Width64 {
		lcsOff, lcpOff = section.RowSizeLCS64, section.RowSizeLCP64
	}
	// creator lengths are optional; short row size subheaders simply lack them
	if v, err := p.w.Uint16(data, lcsOff); err == nil {
		p.lcs = int(v)
	}
	if v, err := p.w.Uint16(data, lcpOff); err == nil {
		p.lcp = int(v)
	}
	p.haveRowSize = true

	return nil
}

func (p *metadataParser) columnText(data []byte) error {
	// the page buffer is reused for the next page, so the blob must outlive it
	blob := bytes.Clone(data[section.SignatureSize(p.w.Width()):])
	first := len(p.blobs) == 0
	p.blobs = append(p.blobs, blob)
	if !first {
		return nil
	}

	literal := blobField(blob, section.CompressionLiteralOffset, 8)
	trimmed := bytes.TrimRight(literal, " \x00")
	switch {
	case len(trimmed) == 0:
		p.compression = format.RowCompressionNone
		p.creatorProc = textField(blob, section.CompressionLiteralOffset+16, p.lcp)
	case string(literal) == section.CompressionLiteralRLE:
		p.compression = format.RowCompressionRLE
		p.creatorProc = textField(blob, section.CompressionLiteralOffset+24, p.lcp)
	case string(literal) == section.CompressionLiteralRDC:
		p.compression = format.RowCompressionRDC
	case bytes.HasPrefix(literal, []byte(section.CompressionPrefix)):
		return errs.Errorf(errs.ErrUnsupportedCompression, "compression literal %q", trimmed)
	default:
		p.compression = format.RowCompressionNone
		if p.lcs > 0 {
			p.creator = textField(blob, section.CompressionLiteralOffset, p.lcs)
		}
	}

	return nil
}

func (p *metadataParser) columnName(data []byte) error {
	word := p.w.IntSize()
	last := len(data) - 12 - word
	for off := word + 8; off <= last; off += 8 {
		ref, err := p.textRef(data, off)
		if err != nil {
			return err
		}
		p.names = append(p.names, ref)
	}

	return nil
}

func (p *metadataParser) columnAttributes(data []byte) error {
	word := p.w.IntSize()
	last := len(data) - 12 - word
	for off := word + 8; off <= last; off += word + 8 {
		offset, err := p.w.Int(data, off)
		if err != nil {
			return err
		}
		width, err := p.w.Uint32(data, off+word)
		if err != nil {
			return err
		}
		typ, err := p.w.Uint8(data, off+word+6)
		if err != nil {
			return err
		}
		p.attrs = append(p.attrs, columnAttr{offset: offset, width: width, typ: typ})
	}

	return nil
}

func (p *metadataParser) formatAndLabel(data []byte) error {
	base := 3 * p.w.IntSize()
	fmtRef, err := p.textRef(data, base+22)
	if err != nil {
		return err
	}
	labelRef, err := p.textRef(data, base+28)
	if err != nil {
		return err
	}
	p.formatsLabels = append(p.formatsLabels, formatLabel{format: fmtRef, label: labelRef})

	return nil
}

func (p *metadataParser) textRef(data []byte, off int) (textRef, error) {
	var v [3]uint16
	for i := range v {
		x, err := p.w.Uint16(data, off+2*i)
		if err != nil {
			return textRef{}, err
		}
		v[i] = x
	}

	return textRef{idx: int(v[0]), off: int(v[1]), length: int(v[2])}, nil
}

// columnCount resolves the number of columns: the column size subheader wins, then the
// row size column counts, then the largest number of collected entries.
func (p *metadataParser) columnCount() (int, bool) {
	if p.haveColSize {
		return p.colCount, true
	}
	if p.haveRowSize {
		return int(p.colCountP1 + p.colCountP2), true
	}
	n := max(len(p.names), len(p.attrs), len(p.formatsLabels))

	return n, n > 0
}

// resolveText looks up a text reference. An out-of-range blob index falls back to the
// last blob; offset and length are clamped to the blob.
func (p *metadataParser) resolveText(ref textRef, dec *encoding.TextDecoder) string {
	if len(p.blobs) == 0 || ref.length == 0 {
		return ""
	}
	idx := ref.idx
	if idx >= len(p.blobs) {
		idx = len(p.blobs) - 1
	}
	blob := p.blobs[idx]
	off := min(ref.off, len(blob))
	n := min(ref.length, len(blob)-off)

	return dec.Decode(trimText(blob[off : off+n]))
}

// build resolves the collected subheaders into Metadata. Header-level fields are filled
// by the caller.
func (p *metadataParser) build(codec encoding.TextCodec) (*Metadata, error) {
	if !p.haveRowSize {
		return nil, errs.Errorf(errs.ErrMissingMetadata, "row size subheader not found")
	}
	n, ok := p.columnCount()
	if !ok {
		return nil, errs.Errorf(errs.ErrMissingMetadata, "column count unknown")
	}
	if len(p.attrs) < n {
		return nil, errs.Errorf(errs.ErrMissingMetadata, "%d column attributes for %d columns", len(p.attrs), n)
	}
	if len(p.names) != n || len(p.formatsLabels) > n {
		p.logger.Warn("column entry counts differ from column count",
			zap.Int("columns", n),
			zap.Int("names", len(p.names)),
			zap.Int("attributes", len(p.attrs)),
			zap.Int("formats", len(p.formatsLabels)))
	}

	if p.rowLength == 0 && p.rowCount > 0 {
		return nil, errs.Errorf(errs.ErrRowLengthMismatch, "zero row length for %d rows", p.rowCount)
	}

	dec := codec.NewDecoder()
	meta := &Metadata{
		Compression:     p.compression,
		RowLength:       int(p.rowLength),
		RowCount:        int64(p.rowCount),
		MixPageRowCount: int64(p.mixRowCount),
		Creator:         p.creator,
		CreatorProc:     p.creatorProc,
		Encoding:        codec.Name(),
		Columns:         make([]Column, n),
	}
	if meta.MixPageRowCount == 0 {
		meta.MixPageRowCount = meta.RowCount
	}

	used := 0
	for i := range meta.Columns {
		col := &meta.Columns[i]
		col.Index = i
		if i < len(p.names) {
			col.Name = p.resolveText(p.names[i], dec)
		}
		attr := p.attrs[i]
		col.Offset = int(attr.offset)
		col.Length = int(attr.width)
		col.Type = format.ColumnCharacter
		if attr.typ == byte(format.ColumnNumeric) {
			col.Type = format.ColumnNumeric
		}
		if i < len(p.formatsLabels) {
			col.Format = p.resolveText(p.formatsLabels[i].format, dec)
			col.Label = p.resolveText(p.formatsLabels[i].label, dec)
		}
		col.Kind = encoding.KindOf(col.Type, col.Format)

		if err := validateColumn(col, meta.RowLength); err != nil {
			return nil, err
		}
		used += col.Length
	}
	if used > meta.RowLength {
		return nil, errs.Errorf(errs.ErrRowLengthMismatch, "columns occupy %d bytes of a %d byte row", used, meta.RowLength)
	}

	return meta, nil
}

func validateColumn(col *Column, rowLength int) error {
	if col.Offset < 0 || col.Length < 0 || col.Offset+col.Length > rowLength {
		return errs.ForColumn("build metadata", col.Name,
			errs.Errorf(errs.ErrRowLengthMismatch, "extent [%d,+%d) outside %d byte row", col.Offset, col.Length, rowLength))
	}
	if col.Type == format.ColumnNumeric && (col.Length == 0 || col.Length > 8) {
		return errs.ForColumn("build metadata", col.Name,
			errs.Errorf(errs.ErrUnsupportedFormat, "numeric width %d", col.Length))
	}

	return nil
}

// blobField returns blob[off:off+n], clamped to the blob.
func blobField(blob []byte, off, n int) []byte {
	if off >= len(blob) || n <= 0 {
		return nil
	}

	return blob[off:min(off+n, len(blob))]
}

func textField(blob []byte, off, n int) string {
	return string(trimText(blobField(blob, off, n)))
}

// trimText strips ASCII whitespace from both ends and any trailing control bytes.
func trimText(b []byte) []byte {
	b = bytes.TrimLeft(b, " \t\n\v\f\r")
	b = bytes.TrimRight(b, " \t\n\v\f\r")
	for len(b) > 0 && b[len(b)-1] < 0x20 {
		b = b[:len(b)-1]
	}

	return b
}
