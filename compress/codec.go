package compress

import (
	"bytes"
	"fmt"

	"github.com/arloliu/sas7bdat/format"
)

// Compressor compresses a whole dataset image into a self-describing container.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a dataset image from a container produced by the matching
// Compressor (or any conforming encoder of the same container format).
//
// Error conditions:
//   - Returns error if input data is corrupted or truncated
//   - Returns error if data was written in another container format
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec for a container type.
//
// Parameters:
//   - containerType: container format (None, Zstd, S2, LZ4 or Gzip)
//
// Returns:
//   - Codec: codec instance for the specified type
//   - error: invalid container type error
func CreateCodec(containerType format.ContainerType) (Codec, error) {
	switch containerType {
	case format.ContainerNone:
		return NewNoOpCompressor(), nil
	case format.ContainerZstd:
		return NewZstdCompressor(), nil
	case format.ContainerS2:
		return NewS2Compressor(), nil
	case format.ContainerLZ4:
		return NewLZ4Compressor(), nil
	case format.ContainerGzip:
		return NewGzipCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid container compression: %s", containerType)
	}
}

var builtinCodecs = map[format.ContainerType]Codec{
	format.ContainerNone: NewNoOpCompressor(),
	format.ContainerZstd: NewZstdCompressor(),
	format.ContainerS2:   NewS2Compressor(),
	format.ContainerLZ4:  NewLZ4Compressor(),
	format.ContainerGzip: NewGzipCompressor(),
}

// GetCodec retrieves a built-in Codec for the specified container type.
func GetCodec(containerType format.ContainerType) (Codec, error) {
	if codec, ok := builtinCodecs[containerType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported container type: %s", containerType)
}

var (
	magicZstd   = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicGzip   = []byte{0x1F, 0x8B}
	magicLZ4    = []byte{0x04, 0x22, 0x4D, 0x18}
	magicS2     = []byte("\xff\x06\x00\x00S2sTwO")
	magicSnappy = []byte("\xff\x06\x00\x00sNaPpY")
)

// ContainerPrefixSize is the number of leading bytes DetectContainer inspects.
const ContainerPrefixSize = 10

// DetectContainer identifies a compressed container from the first bytes of a source.
// Plain datasets start with twelve zero bytes and are reported as ContainerNone.
func DetectContainer(prefix []byte) format.ContainerType {
	switch {
	case bytes.HasPrefix(prefix, magicZstd):
		return format.ContainerZstd
	case bytes.HasPrefix(prefix, magicGzip):
		return format.ContainerGzip
	case bytes.HasPrefix(prefix, magicLZ4):
		return format.ContainerLZ4
	case bytes.HasPrefix(prefix, magicS2), bytes.HasPrefix(prefix, magicSnappy):
		return format.ContainerS2
	default:
		return format.ContainerNone
	}
}
