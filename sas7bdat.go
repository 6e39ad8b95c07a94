// Package sas7bdat reads SAS7BDAT datasets into columnar batches.
//
// The format stores a fixed-length record per row in fixed-size pages, optionally
// compressed per row with run-length (SASYZCRL) or back-reference (SASYZCR2) encoding.
// This package decodes the header and column metadata, expands compressed rows and
// yields typed columns in batches.
//
// # Core Features
//
//   - Both byte orders and both 32-bit and 64-bit layouts
//   - Uncompressed, RLE and RDC row storage
//   - Sequential, parallel and pipelined reads that yield identical rows
//   - Column projection and row windows
//   - Date, datetime and time columns recognized from display formats
//   - Schema inference narrowing numeric columns to integer or boolean types
//   - Sources wrapped in zstd, gzip, LZ4 or S2 containers
//   - Conversion to Apache Arrow records
//
// # Basic Usage
//
// Reading a whole file:
//
//	batches, meta, err := sas7bdat.ReadFile(ctx, "class.sas7bdat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(meta.Name, meta.RowCount)
//	for _, b := range batches {
//	    for i := range b.NumRows() {
//	        fmt.Println(b.Row(i))
//	    }
//	}
//
// Streaming with a pipelined reader:
//
//	r, err := sas7bdat.OpenFile("class.sas7bdat",
//	    dataset.WithMode(format.ModePipeline),
//	    dataset.WithWorkers(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	it, _ := r.Batches(ctx, dataset.ReadRequest{Columns: []string{"Name", "Height"}})
//	defer it.Close()
//	for {
//	    b, err := it.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the dataset package. For
// fine-grained control over reads, use the dataset package directly.
package sas7bdat

import (
	"context"
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/multierr"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/dataset"
	"github.com/arloliu/sas7bdat/schema"
)

// Open reads the header and metadata of the dataset in src.
//
// Parameters:
//   - src: dataset bytes, plain or wrapped in a zstd, gzip, LZ4 or S2 container
//   - size: total size of src in bytes
//   - opts: reader options (see dataset.Option)
//
// Returns:
//   - *dataset.Reader: ready to serve batches
//   - error: an error if src is not a readable dataset
func Open(src io.ReaderAt, size int64, opts ...dataset.Option) (*dataset.Reader, error) {
	return dataset.Open(src, size, opts...)
}

// OpenFile opens the dataset at path. The returned reader must be closed.
func OpenFile(path string, opts ...dataset.Option) (*dataset.Reader, error) {
	return dataset.OpenFile(path, opts...)
}

// ReadAll reads every batch selected by req.
//
// Example:
//
//	batches, err := sas7bdat.ReadAll(ctx, r, dataset.ReadRequest{Offset: 100, Limit: 50})
func ReadAll(ctx context.Context, r *dataset.Reader, req dataset.ReadRequest) ([]*batch.Batch, error) {
	it, err := r.Batches(ctx, req)
	if err != nil {
		return nil, err
	}

	return collect(it.Next, it.Close)
}

// ReadAllWithSchema reads every batch selected by req, cast to s.
func ReadAllWithSchema(ctx context.Context, r *dataset.Reader, req dataset.ReadRequest, s *schema.InferredSchema) ([]*batch.Batch, error) {
	it, err := r.ReadWithSchema(ctx, req, s)
	if err != nil {
		return nil, err
	}

	return collect(it.Next, it.Close)
}

// ReadFile opens the dataset at path, reads every row and closes it.
//
// Returns:
//   - []*batch.Batch: all rows in order
//   - *dataset.Metadata: the dataset description
//   - error: any error raised while opening, reading or closing
func ReadFile(ctx context.Context, path string, opts ...dataset.Option) ([]*batch.Batch, *dataset.Metadata, error) {
	r, err := dataset.OpenFile(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	batches, err := ReadAll(ctx, r, dataset.ReadRequest{})
	if err = multierr.Append(err, r.Close()); err != nil {
		return nil, nil, err
	}

	return batches, r.Metadata(), nil
}

// ReadArrow reads every batch selected by req as Arrow records allocated from mem.
// The caller must release the records.
func ReadArrow(ctx context.Context, r *dataset.Reader, req dataset.ReadRequest, mem memory.Allocator) ([]arrow.Record, error) {
	batches, err := ReadAll(ctx, r, req)
	if err != nil {
		return nil, err
	}

	records := make([]arrow.Record, len(batches))
	for i, b := range batches {
		records[i] = b.Record(mem)
	}

	return records, nil
}

func collect(next func() (*batch.Batch, error), closeFn func() error) ([]*batch.Batch, error) {
	var batches []*batch.Batch
	for {
		b, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, multierr.Append(err, closeFn())
		}
		batches = append(batches, b)
	}

	return batches, closeFn()
}
