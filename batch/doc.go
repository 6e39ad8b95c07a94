// Package batch holds the tabular output of a dataset read.
//
// A Batch is an immutable set of equal-length typed columns covering a contiguous row
// range of the dataset. Columns are produced by a ColumnBuilder owned by a single
// batch-production step and are never reused across batches:
//
//	b := batch.NewColumnBuilder("AGE", format.TypeFloat64, 3)
//	b.AppendFloat64(14)
//	b.AppendNull()
//	b.AppendFloat64(13)
//	out, err := batch.New([]*batch.Column{b.Finish()}, 0)
//
// Numeric columns start as Float64, Date, Datetime or Time; schema inference may later
// narrow them to Boolean or an integer type. Record converts a batch to an arrow.Record
// for downstream interchange.
package batch
