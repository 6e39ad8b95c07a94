package encoding

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/format"
)

func TestNumericDecoder_Decode(t *testing.T) {
	t.Run("Full width little-endian", func(t *testing.T) {
		cell := binary.LittleEndian.AppendUint64(nil, math.Float64bits(42.5))
		n := NewNumericDecoder(format.LittleEndian, 0, 8).Decode(cell)
		require.Equal(t, 42.5, n.Value)
		require.False(t, n.Missing.IsMissing())
	})

	t.Run("Truncated big-endian", func(t *testing.T) {
		full := binary.BigEndian.AppendUint64(nil, math.Float64bits(1.5))
		n := NewNumericDecoder(format.BigEndian, 0, 3).Decode(full[:3])
		require.Equal(t, 1.5, n.Value)
	})

	t.Run("Truncated little-endian", func(t *testing.T) {
		full := binary.LittleEndian.AppendUint64(nil, math.Float64bits(-1024.0))
		n := NewNumericDecoder(format.LittleEndian, 0, 4).Decode(full[4:])
		require.Equal(t, -1024.0, n.Value)
	})

	t.Run("Empty cell is missing", func(t *testing.T) {
		n := NewNumericDecoder(format.LittleEndian, 0, 8).Decode(nil)
		require.Equal(t, MissingRegular, n.Missing)
	})

	t.Run("Truncated missing value", func(t *testing.T) {
		full := binary.BigEndian.AppendUint64(nil, MissingBits('C'))
		n := NewNumericDecoder(format.BigEndian, 0, 3).Decode(full[:3])
		require.Equal(t, Missing('C'), n.Missing)
		require.True(t, math.IsNaN(n.Value))
	})
}

func TestMissing(t *testing.T) {
	for _, m := range []Missing{MissingRegular, MissingUnderscore, 'A', 'M', 'Z'} {
		t.Run(m.String(), func(t *testing.T) {
			bits := MissingBits(m)
			require.True(t, math.IsNaN(math.Float64frombits(bits)))
			require.Equal(t, m, MissingFromBits(bits))
			require.True(t, m.IsMissing())
		})
	}

	require.Equal(t, uint64(0xFFFFFE0000000000), MissingBits(MissingRegular))
	require.Equal(t, MissingRegular, MissingFromBits(math.Float64bits(math.NaN())))
	require.Equal(t, MissingRegular, MissingFromBits(math.Float64bits(math.Inf(-1))))
	require.Equal(t, MissingNone, MissingFromBits(math.Float64bits(1.0)))

	require.Equal(t, ".", MissingRegular.String())
	require.Equal(t, "._", MissingUnderscore.String())
	require.Equal(t, ".A", Missing('A').String())
	require.Equal(t, "", MissingNone.String())
	require.True(t, Missing('Q').IsTagged())
	require.False(t, MissingRegular.IsTagged())
}

func TestNumericDecoder_Columnar(t *testing.T) {
	const stride = 10
	values := []float64{0, 1.25, -3, 1e10}
	rows := make([]byte, stride*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(rows[i*stride+2:], math.Float64bits(v))
	}

	dec := NewNumericDecoder(format.BigEndian, 2, 8)

	var got []float64
	for n := range dec.All(rows, stride, len(values)) {
		got = append(got, n.Value)
	}
	require.Equal(t, values, got)

	n, ok := dec.At(rows, stride, 3)
	require.True(t, ok)
	require.Equal(t, 1e10, n.Value)

	_, ok = dec.At(rows, stride, 4)
	require.False(t, ok)

	// short input stops early
	got = got[:0]
	for n := range dec.All(rows[:25], stride, len(values)) {
		got = append(got, n.Value)
	}
	require.Equal(t, []float64{0, 1.25}, got)
}
