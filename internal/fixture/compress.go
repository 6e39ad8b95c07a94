package fixture

// CompressRLE encodes src with the SASYZCRL command set. It favours simple, valid
// output over ratio.
func CompressRLE(src []byte) []byte {
	out := make([]byte, 0, len(src))
	litStart := 0

	for i := 0; i < len(src); {
		b := src[i]
		run := runLength(src, i, len(src))
		if (isRLEFill(b) && run >= 2) || run >= 3 {
			out = rleLiteral(out, src[litStart:i])
			out = rleRun(out, b, run)
			i += run
			litStart = i

			continue
		}
		i++
	}

	return rleLiteral(out, src[litStart:])
}

func isRLEFill(b byte) bool {
	return b == 0x00 || b == ' ' || b == '@'
}

func rleFillCommands(b byte) (short, long byte) {
	switch b {
	case '@':
		return 0xD, 0x5
	case ' ':
		return 0xE, 0x6
	default:
		return 0xF, 0x7
	}
}

func rleRun(out []byte, b byte, n int) []byte {
	for n > 0 {
		var c int
		switch {
		case isRLEFill(b) && n >= 17:
			c = min(n, 17+4095)
			_, long := rleFillCommands(b)
			x := c - 17
			out = append(out, long<<4|byte(x>>8), byte(x))
		case isRLEFill(b) && n >= 2:
			c = n
			short, _ := rleFillCommands(b)
			out = append(out, short<<4|byte(c-2))
		case n >= 18:
			c = min(n, 18+495)
			x := c - 18
			nib := min(x>>4, 15)
			out = append(out, 0x40|byte(nib), byte(x-nib<<4), b)
		case n >= 3:
			c = n
			out = append(out, 0xC0|byte(c-3), b)
		default:
			c = n
			out = rleLiteral(out, []byte{b, b}[:n])
		}
		n -= c
	}

	return out
}

func rleLiteral(out []byte, lit []byte) []byte {
	for len(lit) > 0 {
		var c int
		switch n := len(lit); {
		case n <= 16:
			c = n
			out = append(out, 0x80|byte(c-1))
		case n <= 32:
			c = n
			out = append(out, 0x90|byte(c-17))
		case n <= 48:
			c = n
			out = append(out, 0xA0|byte(c-33))
		case n <= 64:
			c = n
			out = append(out, 0xB0|byte(c-49))
		default:
			c = min(n, 64+4095)
			x := c - 64
			out = append(out, byte(x>>8), byte(x))
		}
		out = append(out, lit[:c]...)
		lit = lit[c:]
	}

	return out
}

// CompressRDC encodes src with the SASYZCR2 command set: 16-item groups led by a
// big-endian control word, with runs and back-references found through chains of
// earlier positions sharing a 3-byte prefix.
func CompressRDC(src []byte) []byte {
	w := rdcWriter{out: make([]byte, 0, len(src)+len(src)/8+2)}
	chains := make(map[uint32][]int)
	seen := 0

	for i := 0; i < len(src); {
		if run := runLength(src, i, min(len(src), i+4114)); run >= 3 {
			if run <= 18 {
				w.command(byte(run-3), src[i])
			} else {
				x := run - 19
				w.command(0x10|byte(x&0xF), byte(x>>4), src[i])
			}
			i += run

			continue
		}

		bestLen, bestOff := 0, 0
		for ; seen < i && seen+3 <= len(src); seen++ {
			k := prefixKey(src, seen)
			chains[k] = append(chains[k], seen)
		}
		if i+3 <= len(src) {
			chain := chains[prefixKey(src, i)]
			// newest first, so ties keep the nearest offset
			for j := len(chain) - 1; j >= 0 && bestLen < 271; j-- {
				off := i - chain[j]
				if off < 3 {
					continue
				}
				if off > 4098 {
					break
				}
				l := 0
				for l < 271 && i+l < len(src) && src[i+l] == src[i-off+l] {
					l++
				}
				if l > bestLen {
					bestLen, bestOff = l, off
				}
			}
		}

		if bestLen >= 3 {
			x := bestOff - 3
			if bestLen <= 15 {
				w.command(byte(bestLen)<<4|byte(x&0xF), byte(x>>4))
			} else {
				w.command(0x20|byte(x&0xF), byte(x>>4), byte(bestLen-16))
			}
			i += bestLen

			continue
		}

		w.literal(src[i])
		i++
	}

	return w.out
}

type rdcWriter struct {
	out     []byte
	ctrlPos int
	ctrl    uint16
	items   int
}

func (w *rdcWriter) begin() {
	if w.items == 0 {
		w.ctrlPos = len(w.out)
		w.ctrl = 0
		w.out = append(w.out, 0, 0)
	}
}

func (w *rdcWriter) end() {
	w.out[w.ctrlPos] = byte(w.ctrl >> 8)
	w.out[w.ctrlPos+1] = byte(w.ctrl)
	w.items = (w.items + 1) % 16
}

func (w *rdcWriter) literal(b byte) {
	w.begin()
	w.out = append(w.out, b)
	w.end()
}

func (w *rdcWriter) command(b ...byte) {
	w.begin()
	w.ctrl |= 0x8000 >> w.items
	w.out = append(w.out, b...)
	w.end()
}

func prefixKey(src []byte, i int) uint32 {
	return uint32(src[i])<<16 | uint32(src[i+1])<<8 | uint32(src[i+2])
}

func runLength(src []byte, i int, limit int) int {
	n := 1
	for i+n < limit && src[i+n] == src[i] {
		n++
	}

	return n
}
