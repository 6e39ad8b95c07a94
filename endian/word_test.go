package endian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

func TestWordReader_Int(t *testing.T) {
	tests := []struct {
		name  string
		order format.ByteOrder
		width format.BitWidth
		data  []byte
		want  uint64
	}{
		{"LE32", format.LittleEndian, format.Width32, []byte{0x04, 0x03, 0x02, 0x01}, 0x01020304},
		{"BE32", format.BigEndian, format.Width32, []byte{0x01, 0x02, 0x03, 0x04}, 0x01020304},
		{"LE64", format.LittleEndian, format.Width64, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, 0x0102030405060708},
		{"BE64", format.BigEndian, format.Width64, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, 0x0102030405060708},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWordReader(tt.order, tt.width)
			require.Equal(t, len(tt.data), w.IntSize())

			got, err := w.Int(tt.data, 0)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			buf := make([]byte, w.IntSize())
			w.PutInt(buf, 0, tt.want)
			require.Equal(t, tt.data, buf)
		})
	}
}

func TestWordReader_Bounds(t *testing.T) {
	w := NewWordReader(format.LittleEndian, format.Width64)
	data := make([]byte, 10)

	_, err := w.Uint64(data, 3)
	require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)

	_, err = w.Uint16(data, -1)
	require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)

	_, err = w.Bytes(data, 8, 4)
	require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)

	v, err := w.Uint16(data, 8)
	require.NoError(t, err)
	require.Equal(t, uint16(0), v)

	_, err = w.Uint8(data, 10)
	require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
}

func TestWordReader_Float64(t *testing.T) {
	for _, order := range []format.ByteOrder{format.LittleEndian, format.BigEndian} {
		w := NewWordReader(order, format.Width32)
		buf := make([]byte, 8)
		w.Engine().PutUint64(buf, math.Float64bits(-12.5))

		got, err := w.Float64(buf, 0)
		require.NoError(t, err)
		require.InDelta(t, -12.5, got, 0)
	}
}
