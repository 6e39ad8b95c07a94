// Package endian provides byte order utilities for decoding file structures.
//
// Every dataset declares its byte order once, in the file header. The header detector
// resolves that marker into an EndianEngine and a WordReader, and all later field reads
// route through them, so the byte-order branch is taken once per file rather than once
// per field.
//
// # Basic Usage
//
//	engine := endian.EngineFor(format.LittleEndian)
//	pageSize := engine.Uint32(header[200:204])
//
// Width-aware reads (offsets and lengths are 4 or 8 bytes depending on the file):
//
//	words := endian.NewWordReader(format.BigEndian, format.Width64)
//	rowLength, err := words.Int(page, off+5*words.IntSize())
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned engines and readers are immutable values.
package endian

import (
	"encoding/binary"

	"github.com/arloliu/sas7bdat/format"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// EngineFor returns the engine for a resolved byte order.
// Unknown values fall back to little-endian, the order of files written on x86 hosts.
func EngineFor(order format.ByteOrder) EndianEngine {
	if order == format.BigEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}
