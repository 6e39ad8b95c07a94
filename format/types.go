package format

type (
	ByteOrder      uint8
	BitWidth       uint8
	RowCompression uint8
	PageType       uint16
	ColumnType     uint8
	ColumnKind     uint8
	DataType       uint8
	Mode           uint8
	ContainerType  uint8
)

const (
	LittleEndian ByteOrder = 0x1 // LittleEndian is the byte order marker value 0x01.
	BigEndian    ByteOrder = 0x2 // BigEndian is the byte order marker value 0x00.

	Width32 BitWidth = 32 // Width32 files use 4-byte offsets and lengths.
	Width64 BitWidth = 64 // Width64 files use 8-byte offsets and lengths.

	RowCompressionNone RowCompression = 0x1 // RowCompressionNone stores rows verbatim.
	RowCompressionRLE  RowCompression = 0x2 // RowCompressionRLE is the SASYZCRL run-length scheme.
	RowCompressionRDC  RowCompression = 0x3 // RowCompressionRDC is the SASYZCR2 back-reference scheme.

	PageMeta PageType = 0     // PageMeta holds subheaders only.
	PageData PageType = 256   // PageData holds contiguous fixed-length rows.
	PageMix1 PageType = 512   // PageMix1 holds subheaders followed by rows.
	PageMix2 PageType = 640   // PageMix2 is the alternate mix page marker.
	PageAmd  PageType = 1024  // PageAmd holds amended metadata subheaders.
	PageMetc PageType = 16384 // PageMetc continues metadata and never carries rows.

	ColumnNumeric   ColumnType = 0x1 // ColumnNumeric stores (possibly truncated) IEEE-754 doubles.
	ColumnCharacter ColumnType = 0x2 // ColumnCharacter stores fixed-width padded text.

	KindNumber   ColumnKind = 0x1
	KindString   ColumnKind = 0x2
	KindDate     ColumnKind = 0x3
	KindDatetime ColumnKind = 0x4
	KindTime     ColumnKind = 0x5

	ModeSequential Mode = 0x1 // ModeSequential reads with a single cursor in file order.
	ModeParallel   Mode = 0x2 // ModeParallel splits the row window across independent cursors.
	ModePipeline   Mode = 0x3 // ModePipeline separates fetch/decompress from row parsing.

	ContainerNone ContainerType = 0x1 // ContainerNone is a plain file.
	ContainerZstd ContainerType = 0x2 // ContainerZstd is a zstd frame.
	ContainerS2   ContainerType = 0x3 // ContainerS2 is an S2 stream.
	ContainerLZ4  ContainerType = 0x4 // ContainerLZ4 is an LZ4 frame.
	ContainerGzip ContainerType = 0x5 // ContainerGzip is a gzip member.
)

// Output column types. Numeric columns start as Float64 (or a temporal type) and may be
// narrowed by schema inference.
const (
	TypeFloat64 DataType = iota + 1
	TypeUtf8
	TypeDate
	TypeDatetime
	TypeTime
	TypeBoolean
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
)

func (b ByteOrder) String() string {
	switch b {
	case LittleEndian:
		return "LittleEndian"
	case BigEndian:
		return "BigEndian"
	default:
		return "Unknown"
	}
}

func (w BitWidth) String() string {
	switch w {
	case Width32:
		return "32-bit"
	case Width64:
		return "64-bit"
	default:
		return "Unknown"
	}
}

// IntSize returns the byte size of offset and length words for the width.
func (w BitWidth) IntSize() int {
	if w == Width64 {
		return 8
	}

	return 4
}

func (c RowCompression) String() string {
	switch c {
	case RowCompressionNone:
		return "None"
	case RowCompressionRLE:
		return "RLE"
	case RowCompressionRDC:
		return "RDC"
	default:
		return "Unknown"
	}
}

func (p PageType) String() string {
	switch p {
	case PageMeta:
		return "Meta"
	case PageData:
		return "Data"
	case PageMix1, PageMix2:
		return "Mix"
	case PageAmd:
		return "Amd"
	case PageMetc:
		return "Metc"
	default:
		return "Unknown"
	}
}

// IsValid reports whether p is one of the known page types.
func (p PageType) IsValid() bool {
	switch p {
	case PageMeta, PageData, PageMix1, PageMix2, PageAmd, PageMetc:
		return true
	default:
		return false
	}
}

// HasSubheaders reports whether pages of type p carry a subheader pointer table that
// must be walked.
func (p PageType) HasSubheaders() bool {
	switch p {
	case PageMeta, PageMix1, PageMix2, PageAmd:
		return true
	default:
		return false
	}
}

// IsMix reports whether p is a mix page.
func (p PageType) IsMix() bool {
	return p == PageMix1 || p == PageMix2
}

func (c ColumnType) String() string {
	switch c {
	case ColumnNumeric:
		return "Numeric"
	case ColumnCharacter:
		return "Character"
	default:
		return "Unknown"
	}
}

func (k ColumnKind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDatetime:
		return "Datetime"
	case KindTime:
		return "Time"
	default:
		return "Unknown"
	}
}

// DataType returns the natural output type for a column of kind k.
func (k ColumnKind) DataType() DataType {
	switch k {
	case KindString:
		return TypeUtf8
	case KindDate:
		return TypeDate
	case KindDatetime:
		return TypeDatetime
	case KindTime:
		return TypeTime
	default:
		return TypeFloat64
	}
}

func (d DataType) String() string {
	switch d {
	case TypeFloat64:
		return "Float64"
	case TypeUtf8:
		return "Utf8"
	case TypeDate:
		return "Date"
	case TypeDatetime:
		return "Datetime"
	case TypeTime:
		return "Time"
	case TypeBoolean:
		return "Boolean"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeUint8:
		return "Uint8"
	case TypeUint16:
		return "Uint16"
	case TypeUint32:
		return "Uint32"
	case TypeUint64:
		return "Uint64"
	default:
		return "Unknown"
	}
}

// IsSigned reports whether d is a signed integer type.
func (d DataType) IsSigned() bool {
	return d >= TypeInt8 && d <= TypeInt64
}

// IsUnsigned reports whether d is an unsigned integer type.
func (d DataType) IsUnsigned() bool {
	return d >= TypeUint8 && d <= TypeUint64
}

// IsTemporal reports whether d is stored as an integer count of a time unit.
func (d DataType) IsTemporal() bool {
	return d == TypeDate || d == TypeDatetime || d == TypeTime
}

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	case ModePipeline:
		return "pipeline"
	default:
		return "unknown"
	}
}

func (c ContainerType) String() string {
	switch c {
	case ContainerNone:
		return "None"
	case ContainerZstd:
		return "Zstd"
	case ContainerS2:
		return "S2"
	case ContainerLZ4:
		return "LZ4"
	case ContainerGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}
