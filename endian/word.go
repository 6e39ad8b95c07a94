package endian

import (
	"math"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// WordReader decodes fixed-width fields for one (byte order, bit width) combination.
//
// It is the single read primitive used by the header detector, the metadata parser
// and the page reader. Every method bounds-checks its access and reports
// errs.ErrOffsetOutOfRange instead of panicking on truncated input.
type WordReader struct {
	engine  EndianEngine
	order   format.ByteOrder
	width   format.BitWidth
	intSize int
}

// NewWordReader creates a WordReader for the given byte order and width.
func NewWordReader(order format.ByteOrder, width format.BitWidth) WordReader {
	return WordReader{
		engine:  EngineFor(order),
		order:   order,
		width:   width,
		intSize: width.IntSize(),
	}
}

// Engine returns the underlying byte order engine.
func (w WordReader) Engine() EndianEngine { return w.engine }

// Order returns the byte order.
func (w WordReader) Order() format.ByteOrder { return w.order }

// Width returns the bit width.
func (w WordReader) Width() format.BitWidth { return w.width }

// IntSize returns the size in bytes of width-dependent words (4 or 8).
func (w WordReader) IntSize() int { return w.intSize }

func check(b []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(b)-n {
		return errs.Errorf(errs.ErrOffsetOutOfRange, "read %d bytes at %d of %d", n, off, len(b))
	}

	return nil
}

// Bytes returns the n-byte view starting at off.
func (w WordReader) Bytes(b []byte, off, n int) ([]byte, error) {
	if err := check(b, off, n); err != nil {
		return nil, err
	}

	return b[off : off+n], nil
}

// Uint8 reads one byte at off.
func (w WordReader) Uint8(b []byte, off int) (uint8, error) {
	if err := check(b, off, 1); err != nil {
		return 0, err
	}

	return b[off], nil
}

// Uint16 reads a 2-byte unsigned integer at off.
func (w WordReader) Uint16(b []byte, off int) (uint16, error) {
	if err := check(b, off, 2); err != nil {
		return 0, err
	}

	return w.engine.Uint16(b[off:]), nil
}

// Uint32 reads a 4-byte unsigned integer at off.
func (w WordReader) Uint32(b []byte, off int) (uint32, error) {
	if err := check(b, off, 4); err != nil {
		return 0, err
	}

	return w.engine.Uint32(b[off:]), nil
}

// Uint64 reads an 8-byte unsigned integer at off.
func (w WordReader) Uint64(b []byte, off int) (uint64, error) {
	if err := check(b, off, 8); err != nil {
		return 0, err
	}

	return w.engine.Uint64(b[off:]), nil
}

// Int reads a width-dependent unsigned word (4 bytes on 32-bit files, 8 on 64-bit).
func (w WordReader) Int(b []byte, off int) (uint64, error) {
	if w.intSize == 8 {
		return w.Uint64(b, off)
	}

	v, err := w.Uint32(b, off)

	return uint64(v), err
}

// Float64 reads an 8-byte IEEE-754 double at off.
func (w WordReader) Float64(b []byte, off int) (float64, error) {
	v, err := w.Uint64(b, off)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(v), nil
}

// PutInt writes a width-dependent word at off. The caller guarantees capacity.
func (w WordReader) PutInt(b []byte, off int, v uint64) {
	if w.intSize == 8 {
		w.engine.PutUint64(b[off:], v)
		return
	}
	w.engine.PutUint32(b[off:], uint32(v))
}
