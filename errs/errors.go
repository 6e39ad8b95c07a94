// Package errs defines the error taxonomy shared by every sas7bdat package.
//
// Sentinel errors identify the failure class and are matched with errors.Is.
// Failures that happen at a known location are wrapped in *Error, which adds the
// page index, column and byte offset for diagnosis:
//
//	var e *errs.Error
//	if errors.As(err, &e) {
//	    log.Printf("page=%d column=%q offset=%d", e.Page, e.Column, e.Offset)
//	}
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMagicNumber means the source does not start with the file magic.
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	// ErrUnsupportedFormat means the header is structurally unusable (byte order marker,
	// page geometry or header length out of range).
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidHeaderSize means fewer header bytes were available than the layout requires.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidPageType means a page carries an unknown type or an out-of-range subheader pointer.
	ErrInvalidPageType = errors.New("invalid page type")
	// ErrDecompression means a compressed row unit could not be expanded to its exact size.
	ErrDecompression = errors.New("decompression error")
	// ErrUnsupportedCompression means the dataset declares a compression literal that is not known.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrMissingMetadata means a required metadata subheader was never found.
	ErrMissingMetadata = errors.New("missing metadata")
	// ErrRowLengthMismatch means column extents do not fit in the declared row length.
	ErrRowLengthMismatch = errors.New("row length mismatch")
	// ErrOffsetOutOfRange means a read would cross the end of a buffer.
	ErrOffsetOutOfRange = errors.New("offset out of range")
	// ErrSchemaCast means a value does not fit the type chosen by schema inference.
	ErrSchemaCast = errors.New("schema cast error")
	// ErrUnknownColumn means a projection names a column that does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn means a projection names the same column twice.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrInvalidOption means a reader option or read request carries an invalid value.
	ErrInvalidOption = errors.New("invalid option")
	// ErrColumnLengthMismatch means batch columns do not share a single length.
	ErrColumnLengthMismatch = errors.New("column length mismatch")
	// ErrIteratorClosed means Next was called on a closed iterator.
	ErrIteratorClosed = errors.New("iterator closed")
	// ErrReaderClosed means the reader was used after Close.
	ErrReaderClosed = errors.New("reader closed")
)

// Error carries the location of a failure. Page and Offset are -1 when not applicable.
type Error struct {
	// Op names the operation that failed, e.g. "read page" or "expand row".
	Op string
	// Page is the zero-based page index.
	Page int
	// Column is the column name.
	Column string
	// Offset is the byte offset inside the page (or file, for header failures).
	Offset int64
	// Err is the underlying sentinel or I/O error.
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
	}
	if e.Page >= 0 {
		fmt.Fprintf(&sb, " page=%d", e.Page)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, " column=%q", e.Column)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " offset=%d", e.Offset)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return strings.TrimSpace(sb.String())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with no location.
func New(op string, err error) *Error {
	return &Error{Op: op, Page: -1, Offset: -1, Err: err}
}

// AtPage wraps err with a page index.
func AtPage(op string, page int, err error) *Error {
	return &Error{Op: op, Page: page, Offset: -1, Err: err}
}

// AtOffset wraps err with a page index and byte offset.
func AtOffset(op string, page int, offset int64, err error) *Error {
	return &Error{Op: op, Page: page, Offset: offset, Err: err}
}

// ForColumn wraps err with a column name.
func ForColumn(op string, column string, err error) *Error {
	return &Error{Op: op, Page: -1, Column: column, Offset: -1, Err: err}
}

// WithColumn returns a copy of e annotated with a column name.
func (e *Error) WithColumn(column string) *Error {
	c := *e
	c.Column = column

	return &c
}

// Errorf wraps a sentinel with a formatted message, preserving errors.Is matching.
func Errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
