package compress

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/section"
)

var containerTypes = []format.ContainerType{
	format.ContainerNone,
	format.ContainerZstd,
	format.ContainerS2,
	format.ContainerLZ4,
	format.ContainerGzip,
}

func sampleImage() []byte {
	rng := rand.New(rand.NewSource(7))
	data := make([]byte, 0, 64*1024)
	data = append(data, section.Magic[:]...)
	for len(data) < cap(data) {
		if rng.Intn(4) == 0 {
			data = append(data, bytes.Repeat([]byte{' '}, rng.Intn(64))...)
		} else {
			data = append(data, byte(rng.Intn(256)))
		}
	}

	return data
}

func TestCodec_RoundTrip(t *testing.T) {
	image := sampleImage()

	for _, ct := range containerTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := CreateCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(image)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, image, restored)

			require.Equal(t, ct, DetectContainer(compressed))
		})
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for _, ct := range containerTypes[1:] {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			out, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

func TestCodec_CorruptedInput(t *testing.T) {
	garbage := map[format.ContainerType][]byte{
		format.ContainerZstd: {0x28, 0xB5, 0x2F, 0xFD, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01},
		format.ContainerGzip: {0x1F, 0x8B, 0x08, 0x00, 0xFF},
		format.ContainerLZ4:  {0x04, 0x22, 0x4D, 0x18, 0xFF, 0xFF, 0xFF},
		format.ContainerS2:   append([]byte("\xff\x06\x00\x00S2sTwO"), 0x01, 0xFF, 0xFF, 0x00),
	}

	for ct, data := range garbage {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(data)
			require.Error(t, err)
		})
	}
}

func TestLZ4Compressor_TruncatedFrame(t *testing.T) {
	codec := NewLZ4Compressor()
	compressed, err := codec.Compress(sampleImage())
	require.NoError(t, err)

	// magic plus frame descriptor, no blocks
	_, err = codec.Decompress(compressed[:7])
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.ErrorContains(t, err, "lz4 decompression failed")
}

func TestCreateCodec_Invalid(t *testing.T) {
	_, err := CreateCodec(format.ContainerType(0))
	require.Error(t, err)

	_, err = GetCodec(format.ContainerType(99))
	require.Error(t, err)
}

func TestDetectContainer(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   format.ContainerType
	}{
		{"plain dataset", section.Magic[:ContainerPrefixSize], format.ContainerNone},
		{"zstd", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x04}, format.ContainerZstd},
		{"gzip", []byte{0x1F, 0x8B, 0x08}, format.ContainerGzip},
		{"lz4", []byte{0x04, 0x22, 0x4D, 0x18, 0x64}, format.ContainerLZ4},
		{"s2", []byte("\xff\x06\x00\x00S2sTwO"), format.ContainerS2},
		{"snappy", []byte("\xff\x06\x00\x00sNaPpY"), format.ContainerS2},
		{"short", []byte{0x1F}, format.ContainerNone},
		{"empty", nil, format.ContainerNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DetectContainer(tt.prefix))
		})
	}
}

func TestNoOpCompressor(t *testing.T) {
	codec := NewNoOpCompressor()
	data := []byte("unchanged")

	out, err := codec.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, out)

	out, err = codec.Decompress(data)
	require.NoError(t, err)
	require.Equal(t, data, out)
}
