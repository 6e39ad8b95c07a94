package dataset

import (
	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/encoding"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/collision"
)

// nullSuffix names the companion column holding informative missing tags.
const nullSuffix = "_null"

// decodePlan is the immutable, projection-resolved recipe for turning row records into a
// batch. Workers share one plan and build their own rowDecoder from it.
type decodePlan struct {
	columns             []Column
	numeric             []encoding.NumericDecoder
	codec               encoding.TextCodec
	rowLen              int
	missingStringAsNull bool
	informativeNulls    bool
}

// newDecodePlan resolves names against the dataset columns. A nil projection selects
// every column in file order.
func (r *Reader) newDecodePlan(names []string) (*decodePlan, error) {
	columns := r.meta.Columns
	if names != nil {
		ordinals, err := collision.NewIndex(r.meta.ColumnNames()).Resolve(names)
		if err != nil {
			return nil, err
		}
		columns = make([]Column, len(ordinals))
		for i, ord := range ordinals {
			columns[i] = r.meta.Columns[ord]
		}
	}

	p := &decodePlan{
		columns:             columns,
		numeric:             make([]encoding.NumericDecoder, len(columns)),
		codec:               r.codec,
		rowLen:              r.meta.RowLength,
		missingStringAsNull: r.cfg.missingStringAsNull,
		informativeNulls:    r.cfg.informativeNulls,
	}
	for i, c := range columns {
		if c.Type == format.ColumnNumeric {
			p.numeric[i] = encoding.NewNumericDecoder(r.meta.ByteOrder, c.Offset, c.Length)
		}
	}
	if p.informativeNulls {
		if err := p.checkCompanions(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// checkCompanions rejects a plan whose informative-null columns would shadow a selected
// column.
func (p *decodePlan) checkCompanions() error {
	names := make([]string, len(p.columns))
	for i, c := range p.columns {
		names[i] = c.Name
	}
	ix := collision.NewIndex(names)
	for _, c := range p.columns {
		if c.Type != format.ColumnNumeric {
			continue
		}
		if _, clash := ix.Lookup(c.Name + nullSuffix); clash {
			return errs.ForColumn("plan informative nulls", c.Name+nullSuffix, errs.ErrDuplicateColumn)
		}
	}

	return nil
}

// fields returns the output schema of the plan.
func (p *decodePlan) fields() []batch.Field {
	fields := make([]batch.Field, 0, len(p.columns))
	for _, c := range p.columns {
		fields = append(fields, batch.Field{Name: c.Name, Type: c.DataType()})
		if p.informativeNulls && c.Type == format.ColumnNumeric {
			fields = append(fields, batch.Field{Name: c.Name + nullSuffix, Type: format.TypeUtf8})
		}
	}

	return fields
}

// rowDecoder decodes records for one goroutine. String decoders carry conversion
// state, so each worker owns its own.
type rowDecoder struct {
	plan    *decodePlan
	strings []*encoding.StringDecoder
}

func (p *decodePlan) newDecoder() *rowDecoder {
	d := &rowDecoder{plan: p, strings: make([]*encoding.StringDecoder, len(p.columns))}
	for i, c := range p.columns {
		if c.Type == format.ColumnCharacter {
			d.strings[i] = encoding.NewStringDecoder(p.codec, c.Offset, c.Length)
		}
	}

	return d
}

// decode builds a batch from count records laid out back to back in rows. firstRow is
// the dataset index of the first record.
func (d *rowDecoder) decode(rows []byte, count int, firstRow int64) (*batch.Batch, error) {
	p := d.plan
	stride := p.rowLen
	columns := make([]*batch.Column, 0, len(p.columns))

	for i, c := range p.columns {
		if c.Type == format.ColumnCharacter {
			columns = append(columns, d.decodeStrings(i, c, rows, stride, count))
			continue
		}

		b := batch.NewColumnBuilder(c.Name, c.DataType(), count)
		var tags *batch.ColumnBuilder
		if p.informativeNulls {
			tags = batch.NewColumnBuilder(c.Name+nullSuffix, format.TypeUtf8, count)
		}
		for n := range p.numeric[i].All(rows, stride, count) {
			if n.Missing.IsMissing() {
				b.AppendNull()
				if tags != nil {
					tags.AppendString(n.Missing.String())
				}

				continue
			}
			if tags != nil {
				tags.AppendNull()
			}

			switch c.Kind {
			case format.KindDate:
				b.AppendInt64(int64(encoding.DateDays(n.Value)))
			case format.KindDatetime:
				b.AppendInt64(encoding.DatetimeMicros(n.Value))
			case format.KindTime:
				b.AppendInt64(encoding.TimeNanos(n.Value))
			default:
				b.AppendFloat64(n.Value)
			}
		}
		columns = append(columns, b.Finish())
		if tags != nil {
			columns = append(columns, tags.Finish())
		}
	}

	return batch.New(columns, firstRow)
}

func (d *rowDecoder) decodeStrings(i int, c Column, rows []byte, stride, count int) *batch.Column {
	b := batch.NewColumnBuilder(c.Name, format.TypeUtf8, count)
	for s := range d.strings[i].All(rows, stride, count) {
		if s == "" && d.plan.missingStringAsNull {
			b.AppendNull()
			continue
		}
		b.AppendString(s)
	}

	return b.Finish()
}
