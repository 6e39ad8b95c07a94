package section

import (
	"bytes"

	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/format"
)

// Signature identifies the kind of a subheader.
type Signature uint8

const (
	SignatureUnknown Signature = iota
	SignatureRowSize
	SignatureColumnSize
	SignatureSubheaderCounts
	SignatureColumnText
	SignatureColumnName
	SignatureColumnAttributes
	SignatureFormatAndLabel
	SignatureColumnList
)

func (s Signature) String() string {
	switch s {
	case SignatureRowSize:
		return "RowSize"
	case SignatureColumnSize:
		return "ColumnSize"
	case SignatureSubheaderCounts:
		return "SubheaderCounts"
	case SignatureColumnText:
		return "ColumnText"
	case SignatureColumnName:
		return "ColumnName"
	case SignatureColumnAttributes:
		return "ColumnAttributes"
	case SignatureFormatAndLabel:
		return "FormatAndLabel"
	case SignatureColumnList:
		return "ColumnList"
	default:
		return "Unknown"
	}
}

// Signature values as stored, before byte-order encoding. 32-bit files store the low four
// bytes; 64-bit files store the full word.
const (
	sigRowSize          uint64 = 0xF7F7F7F7
	sigColumnSize       uint64 = 0xF6F6F6F6
	sigSubheaderCounts  uint64 = 0xFFFFFC00
	sigColumnText       uint64 = 0xFFFFFFFFFFFFFFFD
	sigColumnName       uint64 = 0xFFFFFFFFFFFFFFFF
	sigColumnAttributes uint64 = 0xFFFFFFFFFFFFFFFC
	sigFormatAndLabel   uint64 = 0xFFFFFFFFFFFFFBFE
	sigColumnList       uint64 = 0xFFFFFFFFFFFFFFFE
)

type signaturePattern struct {
	sig     Signature
	pattern []byte
}

var (
	patterns32 = []signaturePattern{
		{SignatureRowSize, []byte{0xF7, 0xF7, 0xF7, 0xF7}},
		{SignatureColumnSize, []byte{0xF6, 0xF6, 0xF6, 0xF6}},
		{SignatureSubheaderCounts, []byte{0x00, 0xFC, 0xFF, 0xFF}},
		{SignatureSubheaderCounts, []byte{0xFF, 0xFF, 0xFC, 0x00}},
		{SignatureColumnText, []byte{0xFD, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnText, []byte{0xFF, 0xFF, 0xFF, 0xFD}},
		{SignatureColumnName, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnAttributes, []byte{0xFC, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnAttributes, []byte{0xFF, 0xFF, 0xFF, 0xFC}},
		{SignatureFormatAndLabel, []byte{0xFE, 0xFB, 0xFF, 0xFF}},
		{SignatureFormatAndLabel, []byte{0xFF, 0xFF, 0xFB, 0xFE}},
		{SignatureColumnList, []byte{0xFE, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnList, []byte{0xFF, 0xFF, 0xFF, 0xFE}},
	}
	patterns64 = []signaturePattern{
		{SignatureRowSize, []byte{0x00, 0x00, 0x00, 0x00, 0xF7, 0xF7, 0xF7, 0xF7}},
		{SignatureRowSize, []byte{0xF7, 0xF7, 0xF7, 0xF7, 0x00, 0x00, 0x00, 0x00}},
		{SignatureRowSize, []byte{0xF7, 0xF7, 0xF7, 0xF7, 0xFF, 0xFF, 0xFB, 0xFE}},
		{SignatureColumnSize, []byte{0x00, 0x00, 0x00, 0x00, 0xF6, 0xF6, 0xF6, 0xF6}},
		{SignatureColumnSize, []byte{0xF6, 0xF6, 0xF6, 0xF6, 0x00, 0x00, 0x00, 0x00}},
		{SignatureColumnSize, []byte{0xF6, 0xF6, 0xF6, 0xF6, 0xFF, 0xFF, 0xFB, 0xFE}},
		{SignatureSubheaderCounts, []byte{0x00, 0xFC, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureSubheaderCounts, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC, 0x00}},
		{SignatureColumnText, []byte{0xFD, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnText, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFD}},
		{SignatureColumnName, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnAttributes, []byte{0xFC, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnAttributes, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC}},
		{SignatureFormatAndLabel, []byte{0xFE, 0xFB, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureFormatAndLabel, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFB, 0xFE}},
		{SignatureColumnList, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{SignatureColumnList, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE}},
	}
)

// SignatureSize returns the byte width of a signature for the file width.
func SignatureSize(width format.BitWidth) int {
	return width.IntSize()
}

// ClassifySignature identifies the subheader kind from its leading bytes. Both byte
// orders are accepted regardless of the file's declared order.
func ClassifySignature(width format.BitWidth, sig []byte) Signature {
	table := patterns32
	if width == format.Width64 {
		table = patterns64
	}
	if len(sig) < width.IntSize() {
		return SignatureUnknown
	}
	sig = sig[:width.IntSize()]

	for _, p := range table {
		if bytes.Equal(sig, p.pattern) {
			return p.sig
		}
	}

	return SignatureUnknown
}

// IsMetadataSignature reports whether the leading bytes of a subheader carry any known
// metadata signature. Row data units never do.
func IsMetadataSignature(width format.BitWidth, sig []byte) bool {
	if ClassifySignature(width, sig) != SignatureUnknown {
		return true
	}
	if len(sig) < 4 {
		return false
	}
	// 32-bit signatures can appear in the low half of 64-bit words.
	return ClassifySignature(format.Width32, sig[:4]) != SignatureUnknown
}

// PutSignature writes the signature for s in the word reader's byte order and width.
func PutSignature(w endian.WordReader, b []byte, s Signature) {
	var v uint64
	switch s {
	case SignatureRowSize:
		v = sigRowSize
	case SignatureColumnSize:
		v = sigColumnSize
	case SignatureSubheaderCounts:
		v = sigSubheaderCounts | 0xFFFFFFFF00000000
	case SignatureColumnText:
		v = sigColumnText
	case SignatureColumnName:
		v = sigColumnName
	case SignatureColumnAttributes:
		v = sigColumnAttributes
	case SignatureFormatAndLabel:
		v = sigFormatAndLabel
	case SignatureColumnList:
		v = sigColumnList
	default:
		return
	}
	w.PutInt(b, 0, v)
}
