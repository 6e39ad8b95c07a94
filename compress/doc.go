// Package compress implements the two kinds of compression a dataset reader meets.
//
// # Row compression
//
// Compressed datasets store each row as a separate unit. Two schemes exist, selected by
// the compression literal in the first ColumnText blob:
//
//   - SASYZCRL: a run-length scheme driven by a control byte per command
//   - SASYZCR2: a back-reference scheme with 16-bit control words
//
// Expand restores one unit into a caller-provided row buffer. Expansion is strict: the
// unit must produce exactly len(dst) bytes. Input ending early, output overruns, unknown
// commands and back-references before the start of the row all fail with
// errs.ErrDecompression. No state carries over from one unit to the next.
//
//	x, err := compress.NewRowExpander(format.RowCompressionRLE)
//	if err != nil {
//	    return err
//	}
//	row := make([]byte, rowLength)
//	if err := x.Expand(row, unit); err != nil {
//	    return err
//	}
//
// # Container compression
//
// Whole dataset images may also arrive wrapped in a general-purpose container (zstd, S2,
// LZ4 or gzip), as produced by archival pipelines. DetectContainer sniffs the leading
// bytes and GetCodec returns a shared codec that restores the plain image:
//
//	codec, err := compress.GetCodec(compress.DetectContainer(data[:compress.ContainerPrefixSize]))
//	if err != nil {
//	    return err
//	}
//	image, err := codec.Decompress(data)
//
// All codecs are safe for concurrent use.
package compress
