package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/format"
)

func TestEngineFor(t *testing.T) {
	require.Equal(t, binary.LittleEndian, EngineFor(format.LittleEndian))
	require.Equal(t, binary.BigEndian, EngineFor(format.BigEndian))
	require.Equal(t, binary.LittleEndian, EngineFor(format.ByteOrder(0)))
}

func TestEngineFor_PutAndRead(t *testing.T) {
	little := EngineFor(format.LittleEndian)
	big := EngineFor(format.BigEndian)

	require.Implements(t, (*EndianEngine)(nil), little)
	require.Implements(t, (*EndianEngine)(nil), big)

	var testValue uint16 = 0x0102
	lb := make([]byte, 2)
	bb := make([]byte, 2)
	little.PutUint16(lb, testValue)
	big.PutUint16(bb, testValue)

	require.Equal(t, []byte{0x02, 0x01}, lb, "little endian should put LSB first")
	require.Equal(t, []byte{0x01, 0x02}, bb, "big endian should put MSB first")
	require.Equal(t, testValue, little.Uint16(lb))
	require.Equal(t, testValue, big.Uint16(bb))
}
