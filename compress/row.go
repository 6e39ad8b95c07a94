package compress

import (
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// RowExpander expands compressed row units of a single dataset. It is a value type
// selecting one scheme; each Expand call starts from fresh scheme state, so one
// RowExpander can be shared by concurrent workers.
type RowExpander struct {
	kind format.RowCompression
}

// NewRowExpander returns the expander for a dataset's row compression.
//
// Returns:
//   - RowExpander: expander for kind
//   - error: ErrUnsupportedCompression for an unknown kind
func NewRowExpander(kind format.RowCompression) (RowExpander, error) {
	switch kind {
	case format.RowCompressionNone, format.RowCompressionRLE, format.RowCompressionRDC:
		return RowExpander{kind: kind}, nil
	default:
		return RowExpander{}, errs.Errorf(errs.ErrUnsupportedCompression, "row compression %d", kind)
	}
}

// Kind returns the compression scheme of the expander.
func (x RowExpander) Kind() format.RowCompression {
	return x.kind
}

// Expand decompresses one unit into dst. dst must be exactly the row length; the unit
// must expand to precisely len(dst) bytes or ErrDecompression is returned.
func (x RowExpander) Expand(dst, src []byte) error {
	return Expand(x.kind, dst, src)
}

// Expand decompresses one unit of the given scheme into dst.
//
// RowCompressionNone copies src and requires len(src) == len(dst).
func Expand(kind format.RowCompression, dst, src []byte) error {
	switch kind {
	case format.RowCompressionNone:
		if len(src) != len(dst) {
			return errs.Errorf(errs.ErrDecompression, "raw unit of %d bytes, want %d", len(src), len(dst))
		}
		copy(dst, src)

		return nil
	case format.RowCompressionRLE:
		return expandRLE(dst, src)
	case format.RowCompressionRDC:
		return expandRDC(dst, src)
	default:
		return errs.Errorf(errs.ErrUnsupportedCompression, "row compression %d", kind)
	}
}
