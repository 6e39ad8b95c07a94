package compress

import (
	"github.com/arloliu/sas7bdat/errs"
)

// RDC command nibbles. Values 3..15 are short back-references whose copy length is the
// command itself.
const (
	rdcShortRLE     = 0x0
	rdcLongRLE      = 0x1
	rdcLongPattern  = 0x2
	rdcMinShortCopy = 0x3
	rdcMinOffset    = 3
)

// rdcExpander expands one SASYZCR2 unit. A unit starts with an empty control word.
type rdcExpander struct {
	src      []byte
	dst      []byte
	in       int
	out      int
	ctrlBits uint16
	ctrlMask uint16
}

// expandRDC expands src into dst, which must be filled exactly.
func expandRDC(dst, src []byte) error {
	e := rdcExpander{src: src, dst: dst}

	return e.run()
}

func (e *rdcExpander) run() error {
	for e.in < len(e.src) {
		if e.ctrlMask == 0 {
			if e.in+2 > len(e.src) {
				return errs.Errorf(errs.ErrDecompression, "rdc: truncated control word at input byte %d", e.in)
			}
			e.ctrlBits = uint16(e.src[e.in])<<8 | uint16(e.src[e.in+1])
			e.ctrlMask = 0x8000
			e.in += 2

			continue
		}

		literal := e.ctrlBits&e.ctrlMask == 0
		e.ctrlMask >>= 1

		if literal {
			if e.out >= len(e.dst) {
				return errs.Errorf(errs.ErrDecompression, "rdc: literal at input byte %d overruns row of %d bytes", e.in, len(e.dst))
			}
			e.dst[e.out] = e.src[e.in]
			e.in++
			e.out++

			continue
		}

		if err := e.command(); err != nil {
			return err
		}
	}

	if e.out != len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rdc: expanded %d bytes, want %d", e.out, len(e.dst))
	}

	return nil
}

func (e *rdcExpander) command() error {
	cmdPos := e.in
	cmd := int(e.src[e.in] >> 4)
	cnt := int(e.src[e.in] & 0x0F)
	e.in++

	switch {
	case cmd == rdcShortRLE:
		fill, err := e.next(cmdPos)
		if err != nil {
			return err
		}

		return e.fill(cmdPos, byte(fill), cnt+3)
	case cmd == rdcLongRLE:
		hi, err := e.next(cmdPos)
		if err != nil {
			return err
		}
		fill, err := e.next(cmdPos)
		if err != nil {
			return err
		}

		return e.fill(cmdPos, byte(fill), cnt+(hi<<4)+19)
	case cmd == rdcLongPattern:
		hi, err := e.next(cmdPos)
		if err != nil {
			return err
		}
		n, err := e.next(cmdPos)
		if err != nil {
			return err
		}

		return e.backref(cmdPos, cnt+rdcMinOffset+(hi<<4), n+16)
	default:
		hi, err := e.next(cmdPos)
		if err != nil {
			return err
		}

		return e.backref(cmdPos, cnt+rdcMinOffset+(hi<<4), cmd)
	}
}

func (e *rdcExpander) next(cmdPos int) (int, error) {
	if e.in >= len(e.src) {
		return 0, errs.Errorf(errs.ErrDecompression, "rdc: truncated command at input byte %d", cmdPos)
	}
	b := e.src[e.in]
	e.in++

	return int(b), nil
}

func (e *rdcExpander) fill(cmdPos int, b byte, n int) error {
	if e.out+n > len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rdc: run of %d bytes at input byte %d overruns row of %d bytes", n, cmdPos, len(e.dst))
	}
	seg := e.dst[e.out : e.out+n]
	for i := range seg {
		seg[i] = b
	}
	e.out += n

	return nil
}

// backref copies n bytes starting offset bytes behind the output cursor. Overlapping
// copies repeat the window.
func (e *rdcExpander) backref(cmdPos int, offset int, n int) error {
	if offset > e.out {
		return errs.Errorf(errs.ErrDecompression, "rdc: back-reference offset %d at input byte %d precedes output start", offset, cmdPos)
	}
	if e.out+n > len(e.dst) {
		return errs.Errorf(errs.ErrDecompression, "rdc: copy of %d bytes at input byte %d overruns row of %d bytes", n, cmdPos, len(e.dst))
	}
	from := e.out - offset
	for i := 0; i < n; i++ {
		e.dst[e.out+i] = e.dst[from+i]
	}
	e.out += n

	return nil
}
