package encoding

import (
	"iter"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultEncodingByte is the encoding assumed for unknown encoding bytes (Windows-1252).
const DefaultEncodingByte byte = 62

// TextCodec describes the character encoding selected by a dataset's encoding byte.
type TextCodec struct {
	name string
	enc  xenc.Encoding
	// asciiSafe is set when bytes below 0x80 always decode to themselves.
	asciiSafe bool
	utf8      bool
}

type codecEntry struct {
	name string
	enc  xenc.Encoding
}

var codecTable = map[byte]codecEntry{
	20:  {"UTF-8", nil},
	28:  {"US-ASCII", charmap.Windows1252},
	29:  {"ISO-8859-1", charmap.ISO8859_1},
	30:  {"ISO-8859-2", charmap.ISO8859_2},
	31:  {"ISO-8859-3", charmap.ISO8859_3},
	32:  {"ISO-8859-4", charmap.ISO8859_4},
	33:  {"ISO-8859-5", charmap.ISO8859_5},
	34:  {"ISO-8859-6", charmap.ISO8859_6},
	35:  {"ISO-8859-7", charmap.ISO8859_7},
	36:  {"ISO-8859-8", charmap.ISO8859_8},
	37:  {"ISO-8859-9", charmap.ISO8859_9},
	39:  {"ISO-8859-11", charmap.Windows874},
	40:  {"ISO-8859-15", charmap.ISO8859_15},
	41:  {"CP437", charmap.CodePage437},
	42:  {"CP850", charmap.CodePage850},
	43:  {"CP852", charmap.CodePage852},
	45:  {"CP858", charmap.CodePage858},
	46:  {"CP862", charmap.CodePage862},
	48:  {"CP865", charmap.CodePage865},
	49:  {"CP866", charmap.CodePage866},
	51:  {"CP874", charmap.Windows874},
	58:  {"CP860", charmap.CodePage860},
	59:  {"CP863", charmap.CodePage863},
	60:  {"WINDOWS-1250", charmap.Windows1250},
	61:  {"WINDOWS-1251", charmap.Windows1251},
	62:  {"WINDOWS-1252", charmap.Windows1252},
	63:  {"WINDOWS-1253", charmap.Windows1253},
	64:  {"WINDOWS-1254", charmap.Windows1254},
	65:  {"WINDOWS-1255", charmap.Windows1255},
	66:  {"WINDOWS-1256", charmap.Windows1256},
	67:  {"WINDOWS-1257", charmap.Windows1257},
	68:  {"WINDOWS-1258", charmap.Windows1258},
	69:  {"MACROMAN", charmap.Macintosh},
	70:  {"MACARABIC", charmap.Macintosh},
	71:  {"MACHEBREW", charmap.Macintosh},
	72:  {"MACGREEK", charmap.Macintosh},
	73:  {"MACTHAI", charmap.Macintosh},
	75:  {"MACTURKISH", charmap.Macintosh},
	76:  {"MACUKRAINE", charmap.Macintosh},
	118: {"CP950", traditionalchinese.Big5},
	119: {"EUC-TW", traditionalchinese.Big5},
	123: {"BIG5-HKSCS", traditionalchinese.Big5},
	125: {"GB18030", simplifiedchinese.GB18030},
	126: {"CP936", simplifiedchinese.GBK},
	128: {"CP1381", simplifiedchinese.GB18030},
	134: {"EUC-JP", japanese.EUCJP},
	136: {"CP949", korean.EUCKR},
	137: {"CP942", japanese.ShiftJIS},
	138: {"CP932", japanese.ShiftJIS},
	140: {"EUC-KR", korean.EUCKR},
	141: {"CP949", korean.EUCKR},
	142: {"CP949", korean.EUCKR},
	163: {"MACICELAND", charmap.Macintosh},
	167: {"ISO-2022-JP", japanese.ISO2022JP},
	168: {"ISO-2022-KR", korean.EUCKR},
	169: {"ISO-2022-CN", simplifiedchinese.GB18030},
	172: {"ISO-2022-CN-EXT", simplifiedchinese.GB18030},
	205: {"GB18030", simplifiedchinese.GB18030},
	227: {"ISO-8859-14", charmap.ISO8859_14},
	242: {"ISO-8859-13", charmap.ISO8859_13},
	245: {"MACCROATIAN", charmap.Macintosh},
	246: {"MACCYRILLIC", charmap.MacintoshCyrillic},
	247: {"MACROMANIA", charmap.Macintosh},
	248: {"SHIFT_JISX0213", japanese.ShiftJIS},
}

// LookupTextCodec returns the codec for an encoding byte. Unknown bytes return the
// Windows-1252 codec and false.
func LookupTextCodec(encodingByte byte) (TextCodec, bool) {
	entry, ok := codecTable[encodingByte]
	if !ok {
		entry = codecTable[DefaultEncodingByte]
	}

	return TextCodec{
		name:      entry.name,
		enc:       entry.enc,
		asciiSafe: entry.enc != japanese.ISO2022JP,
		utf8:      entry.enc == nil,
	}, ok
}

// Name returns the canonical encoding name, e.g. "UTF-8" or "WINDOWS-1252".
func (c TextCodec) Name() string {
	return c.name
}

// NewDecoder returns a decoder owning its own conversion state. A TextDecoder must not be
// shared between goroutines.
func (c TextCodec) NewDecoder() *TextDecoder {
	d := &TextDecoder{codec: c}
	if c.enc != nil {
		d.dec = c.enc.NewDecoder()
	}

	return d
}

// TextDecoder converts dataset text to UTF-8.
type TextDecoder struct {
	codec TextCodec
	dec   *xenc.Decoder
}

// Decode converts b to a UTF-8 string. Invalid sequences become U+FFFD.
func (d *TextDecoder) Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if d.codec.utf8 {
		if utf8.Valid(b) {
			return string(b)
		}

		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	if d.codec.asciiSafe && isASCII(b) {
		return string(b)
	}

	out, err := d.dec.Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}

	return string(out)
}

// DecodeCell trims the trailing blank and NUL padding of a character cell and decodes the
// rest. An all-padding cell decodes to the empty string.
func (d *TextDecoder) DecodeCell(b []byte) string {
	return d.Decode(TrimPadding(b))
}

// TrimPadding strips trailing blanks and NUL bytes.
func TrimPadding(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}

	return b[:end]
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}

	return true
}

// StringDecoder decodes a character column. It owns a TextDecoder and is therefore not
// safe for concurrent use.
type StringDecoder struct {
	text   *TextDecoder
	offset int
	length int
}

var _ ColumnarDecoder[string] = (*StringDecoder)(nil)

// NewStringDecoder creates a decoder for the cell at [offset, offset+length) of each record.
func NewStringDecoder(codec TextCodec, offset, length int) *StringDecoder {
	return &StringDecoder{text: codec.NewDecoder(), offset: offset, length: length}
}

// All implements ColumnarDecoder. Cells are returned with their padding trimmed.
func (d *StringDecoder) All(rows []byte, stride int, count int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range count {
			start := i*stride + d.offset
			if start+d.length > len(rows) {
				return
			}
			if !yield(d.text.DecodeCell(rows[start : start+d.length])) {
				return
			}
		}
	}
}

// At implements ColumnarDecoder.
func (d *StringDecoder) At(rows []byte, stride int, index int) (string, bool) {
	start := index*stride + d.offset
	if index < 0 || start+d.length > len(rows) {
		return "", false
	}

	return d.text.DecodeCell(rows[start : start+d.length]), true
}
