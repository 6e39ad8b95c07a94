package encoding

import "iter"

// ColumnarDecoder decodes one fixed-width cell out of a run of row-major records.
//
// Every record is stride bytes long and the cell sits at the same position within each
// record, so a decoder walks a column without touching the bytes of other columns.
type ColumnarDecoder[T any] interface {
	// All returns an iterator that yields the cell of each of the first count records.
	//
	// The iterator yields fewer values if rows is shorter than count*stride.
	All(rows []byte, stride int, count int) iter.Seq[T]

	// At decodes the cell of the record at index.
	//
	// The second return value is false if the record is out of bounds.
	At(rows []byte, stride int, index int) (T, bool)
}
