// Package dataset reads SAS7BDAT datasets into columnar batches.
//
// Open parses the file header and walks the leading metadata pages once; the resulting
// Metadata is immutable and shared by every read. Rows are then served through an
// Iterator in one of three modes:
//
//   - Sequential: a single cursor reads, expands and decodes on the caller's goroutine.
//   - Parallel: the row window is split into batch-sized ranges, each read by its own
//     cursor over the shared io.ReaderAt. Compressed files fall back to Sequential.
//   - Pipeline: one goroutine fetches pages and expands rows into chunks; a pool of
//     workers decodes chunks into batches behind a bounded handoff.
//
// All modes yield the same rows. With WithPreserveOrder(true), the default, they also
// yield them in the same order.
//
// Reading every batch of a file:
//
//	r, err := dataset.OpenFile("class.sas7bdat", dataset.WithMode(format.ModePipeline))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	it, err := r.Batches(ctx, dataset.ReadRequest{Columns: []string{"Name", "Age"}})
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//
//	for {
//	    b, err := it.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    process(b)
//	}
//
// InferSchema scans numeric columns for the narrowest integer, unsigned or boolean type
// that holds them, and ReadWithSchema casts batches to that schema as they are decoded.
package dataset
