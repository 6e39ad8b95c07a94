package section

import (
	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// PageHeader is the fixed header found at the page bit offset of every page.
type PageHeader struct {
	Type           format.PageType
	BlockCount     uint16
	SubheaderCount uint16
}

// ParsePageHeader decodes the page header of page index pageIndex.
//
// Returns:
//   - PageHeader: decoded header
//   - error: ErrInvalidPageType for unknown page types, ErrOffsetOutOfRange on short pages
func ParsePageHeader(w endian.WordReader, page []byte, pageIndex int) (PageHeader, error) {
	bitOffset := pageBitOffset(w)

	pageType, err := w.Uint16(page, bitOffset)
	if err != nil {
		return PageHeader{}, errs.AtOffset("parse page header", pageIndex, int64(bitOffset), err)
	}
	blockCount, err := w.Uint16(page, bitOffset+2)
	if err != nil {
		return PageHeader{}, errs.AtOffset("parse page header", pageIndex, int64(bitOffset+2), err)
	}
	subheaderCount, err := w.Uint16(page, bitOffset+4)
	if err != nil {
		return PageHeader{}, errs.AtOffset("parse page header", pageIndex, int64(bitOffset+4), err)
	}

	h := PageHeader{
		Type:           format.PageType(pageType),
		BlockCount:     blockCount,
		SubheaderCount: subheaderCount,
	}
	if !h.Type.IsValid() {
		return h, errs.AtOffset("parse page header", pageIndex, int64(bitOffset),
			errs.Errorf(errs.ErrInvalidPageType, "type %d", pageType))
	}

	return h, nil
}

// Put writes the page header into page.
func (h PageHeader) Put(w endian.WordReader, page []byte) {
	bitOffset := pageBitOffset(w)
	engine := w.Engine()
	engine.PutUint16(page[bitOffset:], uint16(h.Type))
	engine.PutUint16(page[bitOffset+2:], h.BlockCount)
	engine.PutUint16(page[bitOffset+4:], h.SubheaderCount)
}

// Pointer locates one subheader inside its page.
type Pointer struct {
	Offset      int
	Length      int
	Compression uint8
	Type        uint8
}

// PointerSize returns the byte size of one pointer record.
func PointerSize(w endian.WordReader) int {
	return 3 * w.IntSize()
}

// PointerTableOffset returns the page offset of the first pointer record.
func PointerTableOffset(w endian.WordReader) int {
	return pageBitOffset(w) + PageHeaderSize
}

// Skippable reports whether the pointer refers to no usable content.
func (p Pointer) Skippable() bool {
	return p.Length == 0 || p.Compression == PointerTruncated
}

// IsRowData reports whether the pointer has the flags of a row data unit.
func (p Pointer) IsRowData() bool {
	return (p.Compression == PointerCompressed || p.Compression == 0) && p.Type == PointerTypeRowData
}

// ParsePointers decodes the subheader pointer table of a page.
//
// Every pointer is validated against the page extent; a pointer that reaches outside the
// page fails with ErrInvalidPageType carrying the pointer's byte offset.
func ParsePointers(w endian.WordReader, page []byte, pageIndex int, count int) ([]Pointer, error) {
	intSize := w.IntSize()
	size := PointerSize(w)
	base := PointerTableOffset(w)
	pointers := make([]Pointer, 0, count)

	for i := 0; i < count; i++ {
		off := base + i*size
		if off+size > len(page) {
			return nil, errs.AtOffset("parse subheader pointer", pageIndex, int64(off),
				errs.Errorf(errs.ErrInvalidPageType, "pointer table overruns page (%d pointers)", count))
		}

		offset, _ := w.Int(page, off)
		length, _ := w.Int(page, off+intSize)
		p := Pointer{
			Offset:      int(offset),
			Length:      int(length),
			Compression: page[off+2*intSize],
			Type:        page[off+2*intSize+1],
		}
		if p.Length != 0 && (offset > uint64(len(page)) || length > uint64(len(page)) || p.Offset+p.Length > len(page)) {
			return nil, errs.AtOffset("parse subheader pointer", pageIndex, int64(off),
				errs.Errorf(errs.ErrInvalidPageType, "subheader [%d,+%d) outside page of %d bytes", offset, length, len(page)))
		}
		pointers = append(pointers, p)
	}

	return pointers, nil
}

// PutPointer writes pointer index i into page.
func PutPointer(w endian.WordReader, page []byte, i int, p Pointer) {
	intSize := w.IntSize()
	off := PointerTableOffset(w) + i*PointerSize(w)
	w.PutInt(page, off, uint64(p.Offset))
	w.PutInt(page, off+intSize, uint64(p.Length))
	page[off+2*intSize] = p.Compression
	page[off+2*intSize+1] = p.Type
}

// MixRowsOffset returns the page offset of the first row on a mix page with count
// pointers. Rows start 8-byte aligned.
func MixRowsOffset(w endian.WordReader, count int) int {
	off := PointerTableOffset(w) + count*PointerSize(w)
	if off%8 == 4 {
		off += 4
	}

	return off
}

// DataRowsOffset returns the page offset of the first row on a data page.
func DataRowsOffset(w endian.WordReader) int {
	return PointerTableOffset(w)
}

func pageBitOffset(w endian.WordReader) int {
	if w.Width() == format.Width64 {
		return PageBitOffset64
	}

	return PageBitOffset32
}
