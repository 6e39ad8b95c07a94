package section

// Magic is the 32-byte sequence every dataset starts with.
var Magic = [32]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xc2, 0xea, 0x81, 0x60,
	0xb3, 0x14, 0x11, 0xcf, 0xbd, 0x92, 0x08, 0x00, 0x09, 0xc7, 0x31, 0x8c, 0x18, 0x1f, 0x10, 0x11,
}

// Fixed header offsets. Fields after offset 164 shift by align1, fields after 216 by
// align1+align2.
const (
	HeaderSize      = 288  // minimum header size in bytes
	HeaderProbeSize = 1024 // bytes read up front to parse every header field

	OffsetWidthMarker  = 32 // '3' marks a 64-bit file (align2 = 4)
	OffsetAlignMarker  = 35 // '3' marks align1 = 4
	OffsetEndianMarker = 37 // 0x01 little-endian, 0x00 big-endian
	OffsetPlatform     = 39 // '1' unix, '2' windows
	OffsetEncoding     = 70
	OffsetFileLabel    = 84 // "SAS FILE"
	OffsetDatasetName  = 92
	OffsetFileType     = 156
	OffsetCreated      = 164 // + align1
	OffsetModified     = 172 // + align1
	OffsetHeaderLength = 196 // + align1
	OffsetPageSize     = 200 // + align1
	OffsetPageCount    = 204 // + align1
	OffsetSASRelease   = 216 // + align1 + align2
	OffsetServerType   = 224 // + align1 + align2
	OffsetOSVersion    = 240 // + align1 + align2
	OffsetOSMaker      = 256 // + align1 + align2
	OffsetOSName       = 272 // + align1 + align2

	LenDatasetName = 64
	LenFileType    = 8
	LenSASRelease  = 8
	LenHostField   = 16
	AlignPadding   = 4
)

// Marker byte values.
const (
	AlignMarker  byte = '3'
	EndianLittle byte = 0x01
	EndianBig    byte = 0x00
)

// Page layout.
const (
	PageBitOffset64    = 32 // page header offset on 64-bit files
	PageBitOffset32    = 16 // page header offset on 32-bit files
	PageHeaderSize     = 8  // page_type, block_count, subheader_count, padding
	PointerCompressed  = 4  // compression flag of a compressed row subheader
	PointerTruncated   = 1  // compression flag of a truncated (ignored) subheader
	PointerTypeRowData = 1  // subheader type of a row data unit
)

// Time constants. The dataset epoch is 1960-01-01.
const (
	EpochOffsetDays = 3653
	SecondsPerDay   = 86400
)

// Compression literals stored in the first column text blob.
const (
	CompressionLiteralRLE = "SASYZCRL"
	CompressionLiteralRDC = "SASYZCR2"
	CompressionPrefix     = "SASYZC"
	// CompressionLiteralOffset is the blob-relative offset of the 8-byte literal.
	CompressionLiteralOffset = 12
)

// RowSize subheader field offsets in words (multiply by int size) and bytes.
const (
	RowSizeRowLengthWord   = 5
	RowSizeRowCountWord    = 6
	RowSizeColCountP1Word  = 9
	RowSizeColCountP2Word  = 10
	RowSizeMixRowCountWord = 15
	RowSizeLCS64           = 682
	RowSizeLCP64           = 706
	RowSizeLCS32           = 354
	RowSizeLCP32           = 378
)
