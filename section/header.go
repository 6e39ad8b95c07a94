package section

import (
	"bytes"
	"math"
	"time"

	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// Platform identifies the host family that wrote the file.
type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformUnix
	PlatformWindows
)

func (p Platform) String() string {
	switch p {
	case PlatformUnix:
		return "unix"
	case PlatformWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// plausible page geometry bounds used to pick a byte order when the marker is unusable.
const (
	maxPlausibleHeaderLength = 1 << 20
	maxPlausiblePageSize     = 1 << 26
)

// FileHeader is the immutable file-level header.
type FileHeader struct {
	ByteOrder    format.ByteOrder
	Width        format.BitWidth
	Align1       int // 0 or 4, shifts fields from offset 164
	Platform     Platform
	EncodingByte uint8
	DatasetName  string
	FileType     string
	// Created and Modified are seconds since 1960-01-01.
	Created      float64
	Modified     float64
	HeaderLength uint32
	PageSize     uint32
	PageCount    uint32
	SASRelease   string
	ServerType   string
	OSVersion    string
	OSMaker      string
	OSName       string
}

// Align2 returns the padding implied by the width (4 on 64-bit files).
func (h *FileHeader) Align2() int {
	if h.Width == format.Width64 {
		return AlignPadding
	}

	return 0
}

// TotalAlign returns align1 + align2.
func (h *FileHeader) TotalAlign() int {
	return h.Align1 + h.Align2()
}

// Words returns the field reader for this header's byte order and width.
func (h *FileHeader) Words() endian.WordReader {
	return endian.NewWordReader(h.ByteOrder, h.Width)
}

// PageBitOffset returns the offset of the page header within a page.
func (h *FileHeader) PageBitOffset() int {
	if h.Width == format.Width64 {
		return PageBitOffset64
	}

	return PageBitOffset32
}

// PageOffset returns the file offset of page index i.
func (h *FileHeader) PageOffset(i int) int64 {
	return int64(h.HeaderLength) + int64(i)*int64(h.PageSize)
}

// CreatedTime returns the creation timestamp in UTC.
func (h *FileHeader) CreatedTime() time.Time {
	return SASTime(h.Created)
}

// ModifiedTime returns the modification timestamp in UTC.
func (h *FileHeader) ModifiedTime() time.Time {
	return SASTime(h.Modified)
}

// SASTime converts seconds since 1960-01-01 to a UTC time. Non-finite values map to
// the zero time.
func SASTime(seconds float64) time.Time {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}
	}
	unixSeconds := seconds - EpochOffsetDays*SecondsPerDay
	sec, frac := math.Modf(unixSeconds)

	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: at least HeaderSize bytes from the start of the file; fields beyond
//     len(data) are left empty
//
// Returns:
//   - error: ErrInvalidMagicNumber, ErrInvalidHeaderSize or ErrUnsupportedFormat
func (h *FileHeader) Parse(data []byte) error {
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], Magic[:]) {
		return errs.New("parse header", errs.ErrInvalidMagicNumber)
	}
	if len(data) < HeaderSize {
		return errs.AtOffset("parse header", -1, int64(len(data)), errs.ErrInvalidHeaderSize)
	}

	h.Width = format.Width32
	if data[OffsetWidthMarker] == AlignMarker {
		h.Width = format.Width64
	}
	h.Align1 = 0
	if data[OffsetAlignMarker] == AlignMarker {
		h.Align1 = AlignPadding
	}

	order, err := resolveByteOrder(data, h.Align1)
	if err != nil {
		return err
	}
	h.ByteOrder = order

	switch data[OffsetPlatform] {
	case '1':
		h.Platform = PlatformUnix
	case '2':
		h.Platform = PlatformWindows
	default:
		h.Platform = PlatformUnknown
	}

	w := h.Words()
	a1 := h.Align1
	ta := h.TotalAlign()

	h.EncodingByte = data[OffsetEncoding]
	h.DatasetName = fieldString(data, OffsetDatasetName, LenDatasetName)
	h.FileType = fieldString(data, OffsetFileType, LenFileType)
	h.Created, _ = w.Float64(data, OffsetCreated+a1)
	h.Modified, _ = w.Float64(data, OffsetModified+a1)

	if h.HeaderLength, err = w.Uint32(data, OffsetHeaderLength+a1); err != nil {
		return errs.AtOffset("parse header", -1, int64(OffsetHeaderLength+a1), errs.ErrInvalidHeaderSize)
	}
	if h.PageSize, err = w.Uint32(data, OffsetPageSize+a1); err != nil {
		return errs.AtOffset("parse header", -1, int64(OffsetPageSize+a1), errs.ErrInvalidHeaderSize)
	}
	if h.PageCount, err = w.Uint32(data, OffsetPageCount+a1); err != nil {
		return errs.AtOffset("parse header", -1, int64(OffsetPageCount+a1), errs.ErrInvalidHeaderSize)
	}

	if h.HeaderLength < HeaderSize || h.HeaderLength > maxPlausibleHeaderLength {
		return errs.AtOffset("parse header", -1, int64(OffsetHeaderLength+a1),
			errs.Errorf(errs.ErrUnsupportedFormat, "header length %d", h.HeaderLength))
	}
	if h.PageSize == 0 || h.PageSize > maxPlausiblePageSize {
		return errs.AtOffset("parse header", -1, int64(OffsetPageSize+a1),
			errs.Errorf(errs.ErrUnsupportedFormat, "page size %d", h.PageSize))
	}

	h.SASRelease = fieldString(data, OffsetSASRelease+ta, LenSASRelease)
	h.ServerType = fieldString(data, OffsetServerType+ta, LenHostField)
	h.OSVersion = fieldString(data, OffsetOSVersion+ta, LenHostField)
	h.OSMaker = fieldString(data, OffsetOSMaker+ta, LenHostField)
	h.OSName = fieldString(data, OffsetOSName+ta, LenHostField)
	if h.OSName == "" {
		h.OSName = h.OSMaker
	}

	return nil
}

// Size returns the number of bytes Bytes produces: the declared header length, but never
// less than the extent of the last fixed field.
func (h *FileHeader) Size() int {
	n := int(h.HeaderLength)
	if minimum := OffsetOSName + h.TotalAlign() + LenHostField; n < minimum {
		n = minimum
	}

	return n
}

// Bytes serializes the header.
func (h *FileHeader) Bytes() []byte {
	b := make([]byte, h.Size())
	copy(b, Magic[:])

	b[OffsetWidthMarker] = 0x22
	if h.Width == format.Width64 {
		b[OffsetWidthMarker] = AlignMarker
	}
	b[OffsetAlignMarker] = 0x22
	if h.Align1 == AlignPadding {
		b[OffsetAlignMarker] = AlignMarker
	}
	b[OffsetEndianMarker] = EndianLittle
	if h.ByteOrder == format.BigEndian {
		b[OffsetEndianMarker] = EndianBig
	}
	switch h.Platform {
	case PlatformUnix:
		b[OffsetPlatform] = '1'
	case PlatformWindows:
		b[OffsetPlatform] = '2'
	}
	b[OffsetEncoding] = h.EncodingByte
	copy(b[OffsetFileLabel:], "SAS FILE")
	putField(b, OffsetDatasetName, LenDatasetName, h.DatasetName)
	putField(b, OffsetFileType, LenFileType, h.FileType)

	engine := h.Words().Engine()
	a1 := h.Align1
	ta := h.TotalAlign()
	engine.PutUint64(b[OffsetCreated+a1:], math.Float64bits(h.Created))
	engine.PutUint64(b[OffsetModified+a1:], math.Float64bits(h.Modified))
	engine.PutUint32(b[OffsetHeaderLength+a1:], h.HeaderLength)
	engine.PutUint32(b[OffsetPageSize+a1:], h.PageSize)
	engine.PutUint32(b[OffsetPageCount+a1:], h.PageCount)

	putField(b, OffsetSASRelease+ta, LenSASRelease, h.SASRelease)
	putField(b, OffsetServerType+ta, LenHostField, h.ServerType)
	putField(b, OffsetOSVersion+ta, LenHostField, h.OSVersion)
	putField(b, OffsetOSMaker+ta, LenHostField, h.OSMaker)
	putField(b, OffsetOSName+ta, LenHostField, h.OSName)

	return b
}

// ParseFileHeader parses a FileHeader from a byte slice.
func ParseFileHeader(data []byte) (FileHeader, error) {
	h := FileHeader{}
	if err := h.Parse(data); err != nil {
		return FileHeader{}, err
	}

	return h, nil
}

// resolveByteOrder maps the endianness marker to a byte order. When the marker holds
// neither known value, the order under which the page geometry decodes to plausible
// values wins; if both or neither qualify the format is unsupported.
func resolveByteOrder(data []byte, align1 int) (format.ByteOrder, error) {
	switch data[OffsetEndianMarker] {
	case EndianLittle:
		return format.LittleEndian, nil
	case EndianBig:
		return format.BigEndian, nil
	}

	candidates := make([]format.ByteOrder, 0, 2)
	for _, order := range []format.ByteOrder{format.LittleEndian, format.BigEndian} {
		engine := endian.EngineFor(order)
		headerLen := engine.Uint32(data[OffsetHeaderLength+align1:])
		pageSize := engine.Uint32(data[OffsetPageSize+align1:])
		if headerLen >= HeaderSize && headerLen <= maxPlausibleHeaderLength &&
			pageSize > 0 && pageSize <= maxPlausiblePageSize {
			candidates = append(candidates, order)
		}
	}
	if len(candidates) != 1 {
		return 0, errs.AtOffset("parse header", -1, OffsetEndianMarker,
			errs.Errorf(errs.ErrUnsupportedFormat, "ambiguous byte order marker 0x%02x", data[OffsetEndianMarker]))
	}

	return candidates[0], nil
}

// fieldString returns a fixed-width ASCII field with trailing NULs and spaces removed.
func fieldString(data []byte, off, n int) string {
	if off >= len(data) {
		return ""
	}
	end := min(off+n, len(data))

	return string(bytes.TrimRight(data[off:end], "\x00 "))
}

func putField(b []byte, off, n int, s string) {
	if len(s) > n {
		s = s[:n]
	}
	copy(b[off:off+n], s)
}
