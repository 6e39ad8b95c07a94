package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupTextCodec(t *testing.T) {
	tests := []struct {
		name  string
		b     byte
		want  string
		known bool
	}{
		{"UTF-8", 20, "UTF-8", true},
		{"Latin-1", 29, "ISO-8859-1", true},
		{"Windows-1252", 62, "WINDOWS-1252", true},
		{"Shift-JIS", 138, "CP932", true},
		{"GB18030", 205, "GB18030", true},
		{"Unknown", 250, "WINDOWS-1252", false},
		{"Zero", 0, "WINDOWS-1252", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, known := LookupTextCodec(tt.b)
			require.Equal(t, tt.want, codec.Name())
			require.Equal(t, tt.known, known)
		})
	}
}

func TestTextDecoder_Decode(t *testing.T) {
	decode := func(b byte, in []byte) string {
		codec, _ := LookupTextCodec(b)
		return codec.NewDecoder().Decode(in)
	}

	require.Equal(t, "plain", decode(20, []byte("plain")))
	require.Equal(t, "héllo", decode(20, []byte("héllo")))
	require.Equal(t, "a�b", decode(20, []byte{'a', 0xFF, 'b'}))
	require.Equal(t, "é", decode(29, []byte{0xE9}))
	require.Equal(t, "€", decode(62, []byte{0x80}))
	require.Equal(t, "Ж", decode(61, []byte{0xC6}))
	require.Equal(t, "あ", decode(138, []byte{0x82, 0xA0}))
	require.Equal(t, "", decode(62, nil))
}

func TestTextDecoder_DecodeCell(t *testing.T) {
	codec, _ := LookupTextCodec(20)
	dec := codec.NewDecoder()

	require.Equal(t, "ab", dec.DecodeCell([]byte("ab  \x00\x00")))
	require.Equal(t, "  lead", dec.DecodeCell([]byte("  lead  ")))
	require.Equal(t, "", dec.DecodeCell([]byte("        ")))
	require.Equal(t, "", dec.DecodeCell([]byte{0, 0, 0}))
}

func TestStringDecoder_Columnar(t *testing.T) {
	codec, _ := LookupTextCodec(20)
	rows := []byte("1234abc 5" + "678      " + "9999xyzw")
	dec := NewStringDecoder(codec, 4, 4)

	var got []string
	for s := range dec.All(rows, 9, 3) {
		got = append(got, s)
	}
	require.Equal(t, []string{"abc", "", "xyzw"}, got)

	s, ok := dec.At(rows, 9, 2)
	require.True(t, ok)
	require.Equal(t, "xyzw", s)

	_, ok = dec.At(rows, 9, 3)
	require.False(t, ok)
}
