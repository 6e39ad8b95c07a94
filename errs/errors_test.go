package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"no location", New("open", ErrInvalidMagicNumber), "open: invalid magic number"},
		{"page", AtPage("read page", 3, io.ErrUnexpectedEOF), "read page page=3: unexpected EOF"},
		{"offset", AtOffset("parse pointer", 1, 48, ErrInvalidPageType), "parse pointer page=1 offset=48: invalid page type"},
		{"column", ForColumn("resolve projection", "AGE", ErrUnknownColumn), `resolve projection column="AGE": unknown column`},
		{"empty", &Error{Page: -1, Offset: -1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Matching(t *testing.T) {
	err := AtOffset("expand row", 7, 120, Errorf(ErrDecompression, "rle: unknown command 0x%X", 3))

	require.ErrorIs(t, err, ErrDecompression)
	require.NotErrorIs(t, err, ErrUnsupportedCompression)
	require.Contains(t, err.Error(), "unknown command 0x3")

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, 7, e.Page)
	require.Equal(t, int64(120), e.Offset)
}

func TestError_WithColumn(t *testing.T) {
	base := AtPage("decode", 2, ErrOffsetOutOfRange)
	annotated := base.WithColumn("HEIGHT")

	require.Empty(t, base.Column)
	require.Equal(t, "HEIGHT", annotated.Column)
	require.Equal(t, 2, annotated.Page)
	require.ErrorIs(t, annotated, ErrOffsetOutOfRange)
}
