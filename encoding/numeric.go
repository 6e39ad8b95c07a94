package encoding

import (
	"iter"
	"math"

	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/format"
)

// Missing classifies a numeric cell. MissingNone marks a present value; the others are
// the dataset's missing values: "." and the informative ".A" to ".Z" and "._".
type Missing uint8

const (
	MissingNone       Missing = 0
	MissingRegular    Missing = '.'
	MissingUnderscore Missing = '_'
)

// IsMissing reports whether m is any kind of missing value.
func (m Missing) IsMissing() bool {
	return m != MissingNone
}

// IsTagged reports whether m carries an informative tag (".A" to ".Z", "._").
func (m Missing) IsTagged() bool {
	return m == MissingUnderscore || (m >= 'A' && m <= 'Z')
}

// String renders the missing value the way it is displayed: ".", ".A", "._".
// A present value renders as the empty string.
func (m Missing) String() string {
	switch {
	case m == MissingNone:
		return ""
	case m == MissingRegular:
		return "."
	default:
		return "." + string(rune(m))
	}
}

// Number is one decoded numeric cell.
type Number struct {
	Value   float64
	Missing Missing
}

const (
	nanExponentBits = 0x7FF0_0000_0000_0000
	signMask        = 0x7FFF_FFFF_FFFF_FFFF
	fractionMask    = 0x000F_FFFF_FFFF_FFFF
)

// NumericDecoder decodes a numeric column stored as a possibly truncated IEEE 754 double.
//
// Columns narrower than 8 bytes keep the most significant bytes of the double, so the
// decoder pads the missing low-order bytes with zeros before conversion.
type NumericDecoder struct {
	engine endian.EndianEngine
	big    bool
	offset int
	length int
}

var _ ColumnarDecoder[Number] = NumericDecoder{}

// NewNumericDecoder creates a decoder for the cell at [offset, offset+length) of each record.
//
// Parameters:
//   - order: byte order of the dataset
//   - offset: cell offset within the record
//   - length: cell width in bytes, between 1 and 8
//
// Returns:
//   - NumericDecoder: stateless decoder, safe for concurrent use
func NewNumericDecoder(order format.ByteOrder, offset, length int) NumericDecoder {
	if length > 8 {
		length = 8
	}

	return NumericDecoder{
		engine: endian.EngineFor(order),
		big:    order == format.BigEndian,
		offset: offset,
		length: length,
	}
}

// Decode decodes a single cell.
func (d NumericDecoder) Decode(cell []byte) Number {
	if len(cell) == 0 {
		return Number{Missing: MissingRegular}
	}
	if len(cell) > 8 {
		cell = cell[:8]
	}

	var bits uint64
	if len(cell) == 8 {
		bits = d.engine.Uint64(cell)
	} else {
		var buf [8]byte
		if d.big {
			copy(buf[:], cell)
		} else {
			copy(buf[8-len(cell):], cell)
		}
		bits = d.engine.Uint64(buf[:])
	}

	return Number{Value: math.Float64frombits(bits), Missing: MissingFromBits(bits)}
}

// All implements ColumnarDecoder.
func (d NumericDecoder) All(rows []byte, stride int, count int) iter.Seq[Number] {
	return func(yield func(Number) bool) {
		for i := range count {
			start := i*stride + d.offset
			if start+d.length > len(rows) {
				return
			}
			if !yield(d.Decode(rows[start : start+d.length])) {
				return
			}
		}
	}
}

// At implements ColumnarDecoder.
func (d NumericDecoder) At(rows []byte, stride int, index int) (Number, bool) {
	start := index*stride + d.offset
	if index < 0 || start+d.length > len(rows) {
		return Number{}, false
	}

	return d.Decode(rows[start : start+d.length]), true
}

// MissingFromBits classifies the bit pattern of a double. Any NaN or infinity is missing;
// NaNs carry their informative tag in the one's complement of the third most significant
// byte.
func MissingFromBits(bits uint64) Missing {
	if bits&signMask < nanExponentBits {
		return MissingNone
	}
	if bits&fractionMask == 0 {
		return MissingRegular
	}

	tag := ^byte(bits >> 40)
	switch {
	case tag == 0:
		return MissingUnderscore
	case tag >= 2 && tag < 28:
		return Missing('A' + tag - 2)
	case tag >= 'A' && tag <= 'Z':
		return Missing(tag)
	default:
		return MissingRegular
	}
}

// MissingBits returns the double bit pattern the dataset uses for m.
func MissingBits(m Missing) uint64 {
	var tag byte
	switch {
	case m == MissingUnderscore:
		tag = 0
	case m >= 'A' && m <= 'Z':
		tag = byte(m) - 'A' + 2
	default:
		tag = 1
	}

	return 0xFFFF_0000_0000_0000 | uint64(^tag)<<40
}
