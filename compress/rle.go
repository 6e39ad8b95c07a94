package compress

import (
	"github.com/arloliu/sas7bdat/errs"
)

// RLE command nibbles (high four bits of the control byte).
const (
	rleCopy64         = 0x0
	rleCopy64Plus4096 = 0x1
	rleCopy96         = 0x2
	rleInsertByte18   = 0x4
	rleInsertAt17     = 0x5
	rleInsertBlank17  = 0x6
	rleInsertZero17   = 0x7
	rleCopy1          = 0x8
	rleCopy17         = 0x9
	rleCopy33         = 0xA
	rleCopy49         = 0xB
	rleInsertByte3    = 0xC
	rleInsertAt2      = 0xD
	rleInsertBlank2   = 0xE
	rleInsertZero2    = 0xF
)

const (
	rleFillAt    byte = '@'
	rleFillBlank byte = ' '
	rleFillZero  byte = 0x00
)

// rleExpander expands one SASYZCRL unit. The zero value is ready to use and holds no
// state between units.
type rleExpander struct {
	src []byte
	dst []byte
	in  int
	out int
}

// expandRLE expands src into dst, which must be filled exactly.
func expandRLE(dst, src []byte) error {
	e := rleExpander{src: src, dst: dst}

	return e.run()
}

func (e *rleExpander) run() error {
	for e.in < len(e.src) {
		cmdPos := e.in
		control := e.src[e.in]
		e.in++
		cmd := control >> 4
		nib := int(control & 0x0F)

		var err error
		switch cmd {
		case rleCopy64:
			var next int
			if next, err = e.byteAt(cmdPos); err == nil {
				err = e.copy(cmdPos, (nib<<8)+next+64)
			}
		case rleCopy64Plus4096:
			var next int
			if next, err = e.byteAt(cmdPos); err == nil {
				err = e.copy(cmdPos, (nib<<8)+next+64+4096)
			}
		case rleCopy96:
			err = e.copy(cmdPos, nib+96)
		case rleInsertByte18:
			var next, fill int
			if next, err = e.byteAt(cmdPos); err == nil {
				if fill, err = e.byteAt(cmdPos); err == nil {
					err = e.fill(cmdPos, byte(fill), (nib<<4)+next+18)
				}
			}
		case rleInsertAt17, rleInsertBlank17, rleInsertZero17:
			var next int
			if next, err = e.byteAt(cmdPos); err == nil {
				err = e.fill(cmdPos, rleFillByte(cmd), (nib<<8)+next+17)
			}
		case rleCopy1:
			err = e.copy(cmdPos, nib+1)
		case rleCopy17:
			err = e.copy(cmdPos, nib+17)
		case rleCopy33:
			err = e.copy(cmdPos, nib+33)
		case rleCopy49:
			err = e.copy(cmdPos, nib+49)
		case rleInsertByte3:
			var fill int
			if fill, err = e.byteAt(cmdPos); err == nil {
				err = e.fill(cmdPos, byte(fill), nib+3)
			}
		case rleInsertAt2, rleInsertBlank2, rleInsertZero2:
			err = e.fill(cmdPos, rleFillByte(cmd), nib+2)
		default:
			err = errs.Errorf(errs.ErrDecompression, "rle: unknown command 0x%X at input byte %d", cmd, cmdPos)
		}
		if err != nil {
			return err
		}
	}

	if e.out != len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rle: expanded %d bytes, want %d", e.out, len(e.dst))
	}

	return nil
}

func rleFillByte(cmd byte) byte {
	switch cmd {
	case rleInsertAt17, rleInsertAt2:
		return rleFillAt
	case rleInsertBlank17, rleInsertBlank2:
		return rleFillBlank
	default:
		return rleFillZero
	}
}

func (e *rleExpander) byteAt(cmdPos int) (int, error) {
	if e.in >= len(e.src) {
		return 0, errs.Errorf(errs.ErrDecompression, "rle: truncated command at input byte %d", cmdPos)
	}
	b := e.src[e.in]
	e.in++

	return int(b), nil
}

func (e *rleExpander) copy(cmdPos int, n int) error {
	if e.in+n > len(e.src) {
		return errs.Errorf(errs.ErrDecompression, "rle: copy of %d bytes at input byte %d exceeds input", n, cmdPos)
	}
	if e.out+n > len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rle: copy of %d bytes at input byte %d overruns row of %d bytes", n, cmdPos, len(e.dst))
	}
	copy(e.dst[e.out:], e.src[e.in:e.in+n])
	e.in += n
	e.out += n

	return nil
}

func (e *rleExpander) fill(cmdPos int, b byte, n int) error {
	if e.out+n > len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rle: insert of %d bytes at input byte %d overruns row of %d bytes", n, cmdPos, len(e.dst))
	}
	seg := e.dst[e.out : e.out+n]
	for i := range seg {
		seg[i] = b
	}
	e.out += n

	return nil
}
