// Package encoding decodes the cell values of dataset records.
//
// Records are fixed-length and row-major. Every decoder in this package implements
// ColumnarDecoder and reads one column out of a run of records, so columns that are not
// projected are never touched:
//
//	dec := encoding.NewNumericDecoder(format.LittleEndian, 8, 8)
//	for n := range dec.All(rows, rowLength, count) {
//	    if n.Missing.IsMissing() {
//	        // n.Missing.String() is ".", ".A" ... ".Z" or "._"
//	    }
//	}
//
// # Numeric cells
//
// Numeric columns hold IEEE 754 doubles in the dataset's byte order. Columns narrower than
// 8 bytes keep only the most significant bytes. Missing values are NaN payloads that carry
// an optional informative tag; NumericDecoder reports them through Number.Missing.
//
// # Character cells
//
// Character columns are blank or NUL padded. TextCodec maps the dataset's encoding byte to
// a golang.org/x/text decoder; unknown bytes fall back to Windows-1252.
//
// # Temporal values
//
// Dates count days and datetimes count seconds from 1960-01-01. KindOf classifies a numeric
// column by its display format; DateDays, DatetimeMicros and TimeNanos convert values to
// Unix-based units.
package encoding
