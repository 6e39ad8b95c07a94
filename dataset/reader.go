package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/compress"
	"github.com/arloliu/sas7bdat/encoding"
	"github.com/arloliu/sas7bdat/endian"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/options"
	"github.com/arloliu/sas7bdat/internal/pool"
	"github.com/arloliu/sas7bdat/section"
)

// Reader reads one dataset. Header and metadata are parsed once in Open and shared
// read-only afterwards; every iterator owns its own page cursor, so a Reader may serve
// several iterators concurrently.
type Reader struct {
	src      io.ReaderAt
	size     int64
	closer   io.Closer
	header   section.FileHeader
	words    endian.WordReader
	meta     *Metadata
	cfg      *config
	logger   *zap.Logger
	metrics  *metrics
	expander compress.RowExpander
	codec    encoding.TextCodec

	indexOnce sync.Once
	index     []pageSpan
	indexErr  error

	mu        sync.Mutex
	cached    *Iterator
	cachedKey string

	closed atomic.Bool
}

// Open reads the header and metadata of the dataset in src.
//
// Sources wrapped in a zstd, gzip, LZ4 or S2 container are detected from their leading
// bytes and decompressed into memory first.
//
// Parameters:
//   - src: dataset bytes
//   - size: total size of src in bytes
//   - opts: reader options
//
// Returns:
//   - *Reader: ready to serve batches
//   - error: ErrInvalidMagicNumber, ErrUnsupportedFormat, ErrUnsupportedCompression,
//     ErrMissingMetadata, ErrInvalidPageType or an I/O error
func Open(src io.ReaderAt, size int64, opts ...Option) (*Reader, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	r := &Reader{
		src:     src,
		size:    size,
		cfg:     cfg,
		logger:  cfg.logger.Named("sas7bdat"),
		metrics: m,
	}
	if err := r.unwrapContainer(); err != nil {
		return nil, err
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	if err := r.readMetadata(); err != nil {
		return nil, err
	}

	return r, nil
}

// OpenFile opens the dataset at path. Close releases the file handle.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, multierr.Append(err, f.Close())
	}

	r, err := Open(f, info.Size(), opts...)
	if err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	r.closer = f

	return r, nil
}

func (r *Reader) unwrapContainer() error {
	prefix := make([]byte, min(int64(compress.ContainerPrefixSize), r.size))
	if _, err := r.src.ReadAt(prefix, 0); err != nil && !errors.Is(err, io.EOF) {
		return errs.New("read prefix", err)
	}

	ct := compress.DetectContainer(prefix)
	if ct == format.ContainerNone {
		return nil
	}

	codec, err := compress.GetCodec(ct)
	if err != nil {
		return errs.New("unwrap container", err)
	}
	packed := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(packed)
	packed.Grow(int(r.size))
	if _, err := io.Copy(packed, io.NewSectionReader(r.src, 0, r.size)); err != nil {
		return errs.New("read container", err)
	}
	image, err := codec.Decompress(packed.Bytes())
	if err != nil {
		return errs.New("unwrap "+ct.String()+" container", err)
	}

	r.logger.Debug("unwrapped container",
		zap.Stringer("container", ct),
		zap.Int("packed", packed.Len()),
		zap.Int("image", len(image)))
	r.src = bytes.NewReader(image)
	r.size = int64(len(image))

	return nil
}

func (r *Reader) readHeader() error {
	probe := make([]byte, min(int64(section.HeaderProbeSize), r.size))
	n, err := r.src.ReadAt(probe, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return errs.New("read header", err)
	}

	header, err := section.ParseFileHeader(probe[:n])
	if err != nil {
		return err
	}
	r.header = header
	r.words = header.Words()

	r.logger.Debug("header resolved",
		zap.Stringer("byte_order", header.ByteOrder),
		zap.Stringer("width", header.Width),
		zap.Uint32("page_size", header.PageSize),
		zap.Uint32("page_count", header.PageCount),
		zap.Uint32("header_length", header.HeaderLength))

	return nil
}

// readPage reads page i into buf, which must hold exactly one page.
func (r *Reader) readPage(i int, buf []byte) error {
	n, err := r.src.ReadAt(buf, r.header.PageOffset(i))
	if n == len(buf) {
		r.metrics.pageRead()
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return errs.AtPage("read page", i, fmt.Errorf("read %d of %d bytes: %w", n, len(buf), err))
}

// readPageHead reads the first len(buf) bytes of page i.
func (r *Reader) readPageHead(i int, buf []byte) error {
	n, err := r.src.ReadAt(buf, r.header.PageOffset(i))
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return errs.AtPage("read page header", i, err)
}

// readMetadata scans leading pages until the metadata is complete and row storage has
// been reached, or the first data page.
func (r *Reader) readMetadata() error {
	p := newMetadataParser(r.words, r.logger.Named("metadata"))
	pageSize := int(r.header.PageSize)
	buf := pool.GetPageBuffer(pageSize)
	defer pool.PutPageBuffer(buf)

	for i := 0; i < int(r.header.PageCount); i++ {
		page := buf.Bytes()
		if err := r.readPage(i, page); err != nil {
			return err
		}
		ph, err := section.ParsePageHeader(r.words, page, i)
		if err != nil {
			return err
		}
		if ph.Type == format.PageData {
			break
		}
		if !ph.Type.HasSubheaders() {
			continue
		}
		if err := p.consumePage(page, i, ph); err != nil {
			return err
		}
		if p.complete() && (ph.Type.IsMix() || p.sawRowUnits) {
			break
		}
	}

	codec, known := encoding.LookupTextCodec(r.header.EncodingByte)
	if r.cfg.encodingOverride != nil {
		codec, known = *r.cfg.encodingOverride, true
	}
	if !known {
		r.logger.Warn("unknown encoding byte, decoding text as WINDOWS-1252",
			zap.Uint8("encoding_byte", r.header.EncodingByte))
	}

	meta, err := p.build(codec)
	if err != nil {
		return errs.New("read metadata", err)
	}
	expander, err := compress.NewRowExpander(meta.Compression)
	if err != nil {
		return errs.New("read metadata", err)
	}

	h := &r.header
	meta.Name = h.DatasetName
	meta.FileType = h.FileType
	meta.EncodingByte = h.EncodingByte
	meta.ByteOrder = h.ByteOrder
	meta.Width = h.Width
	meta.PageSize = pageSize
	meta.PageCount = int(h.PageCount)
	meta.Created = h.CreatedTime()
	meta.Modified = h.ModifiedTime()
	meta.SASRelease = h.SASRelease
	meta.ServerType = h.ServerType
	meta.OSName = h.OSName

	r.meta = meta
	r.codec = codec
	r.expander = expander

	r.logger.Debug("metadata resolved",
		zap.String("name", meta.Name),
		zap.Int("columns", len(meta.Columns)),
		zap.Int64("rows", meta.RowCount),
		zap.Int("row_length", meta.RowLength),
		zap.Stringer("compression", meta.Compression),
		zap.String("encoding", meta.Encoding))

	return nil
}

// Header returns the file header.
func (r *Reader) Header() section.FileHeader {
	return r.header
}

// Metadata returns the dataset metadata. The returned value must not be modified.
func (r *Reader) Metadata() *Metadata {
	return r.meta
}

// NextBatch returns the next batch of the read described by req.
//
// Consecutive calls with an equal request continue the same read; a different request
// starts a new one. io.EOF marks the end of the data, after which the next call starts
// over.
//
// The read runs under the ctx of the call that started it. A later call whose ctx is
// already done returns ctx.Err() and abandons the read; other ctx changes have no effect
// on the running read.
func (r *Reader) NextBatch(ctx context.Context, req ReadRequest) (*batch.Batch, error) {
	if r.closed.Load() {
		return nil, errs.ErrReaderClosed
	}

	key := req.key()
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		if r.cached != nil {
			err = multierr.Append(err, r.cached.Close())
			r.cached = nil
		}

		return nil, err
	}

	if r.cached == nil || r.cachedKey != key {
		if r.cached != nil {
			if err := r.cached.Close(); err != nil {
				r.logger.Debug("closing previous iterator", zap.Error(err))
			}
		}
		it, err := r.Batches(ctx, req)
		if err != nil {
			r.cached = nil
			return nil, err
		}
		r.cached, r.cachedKey = it, key
	}

	b, err := r.cached.Next()
	if err != nil {
		closeErr := r.cached.Close()
		r.cached = nil
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, multierr.Append(err, closeErr)
	}

	return b, nil
}

// Close releases the cached iterator and the file handle opened by OpenFile.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	var err error
	r.mu.Lock()
	if r.cached != nil {
		err = multierr.Append(err, r.cached.Close())
		r.cached = nil
	}
	r.mu.Unlock()

	if r.closer != nil {
		err = multierr.Append(err, r.closer.Close())
	}

	return err
}
