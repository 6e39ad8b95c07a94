package dataset

import (
	"sort"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/pool"
	"github.com/arloliu/sas7bdat/section"
)

// pageRows locates the rows stored on one page: either a contiguous run of records or
// a list of row units (compressed files).
type pageRows struct {
	start int
	count int
	units []section.Pointer
}

func (p pageRows) len() int {
	if p.units != nil {
		return len(p.units)
	}

	return p.count
}

// contiguousRows returns the record run of an uncompressed data or mix page, capped at
// the rows still expected.
func (r *Reader) contiguousRows(ph section.PageHeader, remaining int64) (pageRows, bool) {
	rowLen := r.meta.RowLength
	if rowLen == 0 || remaining <= 0 {
		return pageRows{}, false
	}

	var start int
	var declared int64
	switch {
	case ph.Type == format.PageData:
		start = section.DataRowsOffset(r.words)
		declared = int64(ph.BlockCount)
	case ph.Type.IsMix():
		start = section.MixRowsOffset(r.words, int(ph.SubheaderCount))
		declared = r.meta.MixPageRowCount
	default:
		return pageRows{}, false
	}

	fit := int64((int(r.header.PageSize) - start) / rowLen)
	count := min(declared, fit, remaining)
	if count <= 0 {
		return pageRows{}, false
	}

	return pageRows{start: start, count: int(count)}, true
}

// rowUnits returns the row units among the subheaders of a metadata or mix page.
func (r *Reader) rowUnits(page []byte, pageIndex int, ph section.PageHeader) ([]section.Pointer, error) {
	pointers, err := section.ParsePointers(r.words, page, pageIndex, int(ph.SubheaderCount))
	if err != nil {
		return nil, err
	}

	var units []section.Pointer
	for _, p := range pointers {
		if p.Skippable() || !p.IsRowData() || p.Length > r.meta.RowLength {
			continue
		}
		if section.IsMetadataSignature(r.words.Width(), page[p.Offset:p.Offset+p.Length]) {
			continue
		}
		units = append(units, p)
	}

	return units, nil
}

// locateRows classifies a loaded page and returns its rows.
func (r *Reader) locateRows(page []byte, pageIndex int, remaining int64) (pageRows, bool, error) {
	ph, err := section.ParsePageHeader(r.words, page, pageIndex)
	if err != nil {
		return pageRows{}, false, err
	}

	if r.meta.Compression != format.RowCompressionNone && ph.Type.HasSubheaders() {
		units, err := r.rowUnits(page, pageIndex, ph)
		if err != nil {
			return pageRows{}, false, err
		}
		if len(units) > 0 {
			if int64(len(units)) > remaining {
				units = units[:remaining]
			}

			return pageRows{units: units}, len(units) > 0, nil
		}
	}

	rows, ok := r.contiguousRows(ph, remaining)

	return rows, ok, nil
}

// cursor walks the rows of a dataset in file order. A cursor is owned by one goroutine
// and holds its own page buffer.
type cursor struct {
	r      *Reader
	rowLen int
	buf    *pool.ByteBuffer
	// nextPage is the next page to load; page is the loaded one.
	nextPage int
	page     int
	rows     pageRows
	idx      int
	// unclaimed counts the rows not yet assigned to a loaded page.
	unclaimed int64
}

func (r *Reader) newCursor() *cursor {
	return &cursor{
		r:         r,
		rowLen:    r.meta.RowLength,
		buf:       pool.GetPageBuffer(int(r.header.PageSize)),
		page:      -1,
		unclaimed: r.meta.RowCount,
	}
}

func (c *cursor) close() {
	if c.buf != nil {
		pool.PutPageBuffer(c.buf)
		c.buf = nil
	}
}

// load reads pages until one holding rows is found. It returns false at the end of the
// file or once every row has been claimed.
func (c *cursor) load() (bool, error) {
	pageCount := int(c.r.header.PageCount)
	for c.unclaimed > 0 && c.nextPage < pageCount {
		i := c.nextPage
		c.nextPage++

		page := c.buf.Bytes()
		if err := c.r.readPage(i, page); err != nil {
			return false, err
		}
		rows, ok, err := c.r.locateRows(page, i, c.unclaimed)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		c.page = i
		c.rows = rows
		c.idx = 0
		c.unclaimed -= int64(rows.len())

		return true, nil
	}

	return false, nil
}

// read copies up to n rows into dst, which must hold n rows. It returns the number of
// rows copied; fewer than n means the data ended.
func (c *cursor) read(dst []byte, n int) (int, error) {
	got := 0
	for got < n {
		if c.idx >= c.rows.len() {
			ok, err := c.load()
			if err != nil {
				return got, err
			}
			if !ok {
				return got, nil
			}
		}

		page := c.buf.Bytes()
		if c.rows.units == nil {
			k := min(n-got, c.rows.count-c.idx)
			from := c.rows.start + c.idx*c.rowLen
			copy(dst[got*c.rowLen:(got+k)*c.rowLen], page[from:from+k*c.rowLen])
			c.idx += k
			got += k

			continue
		}

		unit := c.rows.units[c.idx]
		row := dst[got*c.rowLen : (got+1)*c.rowLen]
		if err := c.expand(row, page[unit.Offset:unit.Offset+unit.Length], unit); err != nil {
			return got, err
		}
		c.idx++
		got++
	}

	return got, nil
}

func (c *cursor) expand(row, src []byte, unit section.Pointer) error {
	if len(src) == len(row) {
		copy(row, src)
		return nil
	}

	if err := c.r.expander.Expand(row, src); err != nil {
		return errs.AtOffset("expand row", c.page, int64(unit.Offset), err)
	}
	c.r.metrics.unitExpanded(c.r.expander.Kind())

	return nil
}

// skip advances past n rows without decoding them. Row units are counted, not expanded.
func (c *cursor) skip(n int64) error {
	for n > 0 {
		if c.idx >= c.rows.len() {
			ok, err := c.load()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		k := min(n, int64(c.rows.len()-c.idx))
		c.idx += int(k)
		n -= k
	}

	return nil
}

// seek positions the cursor at row. Uncompressed files jump straight to the page that
// holds the row using the page index; compressed files skip from the start.
func (c *cursor) seek(row int64) error {
	if row <= 0 {
		return nil
	}
	if c.r.meta.Compression != format.RowCompressionNone {
		return c.skip(row)
	}

	index, err := c.r.pageIndex()
	if err != nil {
		return err
	}
	i := sort.Search(len(index), func(i int) bool {
		return index[i].first+int64(index[i].count) > row
	})
	if i == len(index) {
		c.unclaimed = 0
		return nil
	}

	span := index[i]
	c.nextPage = span.page
	c.unclaimed = c.r.meta.RowCount - span.first
	c.rows = pageRows{}
	c.idx = 0

	return c.skip(row - span.first)
}

// pageSpan records where the rows of one uncompressed page sit in the dataset.
type pageSpan struct {
	page  int
	first int64
	count int
}

// pageIndex returns the row spans of an uncompressed file, reading only page headers.
// It is built once and shared by every cursor.
func (r *Reader) pageIndex() ([]pageSpan, error) {
	r.indexOnce.Do(func() {
		r.index, r.indexErr = r.buildPageIndex()
	})

	return r.index, r.indexErr
}

func (r *Reader) buildPageIndex() ([]pageSpan, error) {
	headerLen := r.header.PageBitOffset() + section.PageHeaderSize
	head := make([]byte, headerLen)

	var spans []pageSpan
	var first int64
	for i := 0; i < int(r.header.PageCount) && first < r.meta.RowCount; i++ {
		if err := r.readPageHead(i, head); err != nil {
			return nil, err
		}
		ph, err := section.ParsePageHeader(r.words, head, i)
		if err != nil {
			return nil, err
		}
		rows, ok := r.contiguousRows(ph, r.meta.RowCount-first)
		if !ok {
			continue
		}
		spans = append(spans, pageSpan{page: i, first: first, count: rows.count})
		first += int64(rows.count)
	}

	return spans, nil
}
