// Package section defines the bit-exact binary layouts of a dataset file: the file
// header, page headers, subheader pointers and subheader signatures.
//
// Each layout type offers a Parse method that decodes it from a byte slice and a
// Bytes (or Put) method that encodes it back. Encoding exists so synthetic files can be
// produced for round-trip tests; the reader only ever parses.
//
// All multi-byte fields are decoded through endian.WordReader, resolved once from the
// header's byte-order and width markers.
package section
