package dataset

import (
	"fmt"
	"strings"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
)

// ReadRequest selects the rows and columns of a read. Zero values inherit the reader
// defaults.
type ReadRequest struct {
	// Offset is the index of the first row to read.
	Offset int64
	// Limit caps the number of rows; 0 reads to the end.
	Limit int64
	// Columns projects and orders the output columns; nil selects every column. An empty
	// non-nil projection is rejected.
	Columns []string
	// BatchSize overrides the reader's batch size.
	BatchSize int
	// Mode overrides the reader's concurrency mode.
	Mode format.Mode
}

func (q ReadRequest) key() string {
	return fmt.Sprintf("%d/%d/%d/%d/%s", q.Offset, q.Limit, q.BatchSize, q.Mode, strings.Join(q.Columns, "\x00"))
}

// window is a validated row range [start, end).
type window struct {
	start, end int64
}

func (w window) rows() int64 {
	return w.end - w.start
}

// resolve validates q against the dataset and fills in defaults.
func (q ReadRequest) resolve(cfg *config, rowCount int64) (ReadRequest, window, error) {
	if q.Offset < 0 {
		return q, window{}, errs.Errorf(errs.ErrInvalidOption, "negative offset %d", q.Offset)
	}
	if q.Limit < 0 {
		return q, window{}, errs.Errorf(errs.ErrInvalidOption, "negative limit %d", q.Limit)
	}
	if q.BatchSize < 0 {
		return q, window{}, errs.Errorf(errs.ErrInvalidOption, "negative batch size %d", q.BatchSize)
	}
	if q.Columns != nil && len(q.Columns) == 0 {
		return q, window{}, errs.Errorf(errs.ErrInvalidOption, "empty column projection")
	}
	if q.BatchSize == 0 {
		q.BatchSize = cfg.batchSize
	}
	if q.Mode == 0 {
		q.Mode = cfg.mode
	}
	if err := validateMode(q.Mode); err != nil {
		return q, window{}, err
	}

	w := window{start: min(q.Offset, rowCount), end: rowCount}
	if q.Limit > 0 {
		w.end = min(w.start+q.Limit, rowCount)
	}

	return q, w, nil
}
