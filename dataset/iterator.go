package dataset

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/format"
	"github.com/arloliu/sas7bdat/internal/pool"
)

// Iterator yields the batches of one read in row order.
//
// Next must be called from one goroutine. Close may be called from any goroutine and
// unblocks a pending Next; it cancels in-flight work and waits for every worker to exit.
type Iterator struct {
	next   func() (*batch.Batch, error)
	stop   func()
	cancel context.CancelFunc
	fields []batch.Field

	mu       sync.Mutex
	err      error
	closed   atomic.Bool
	stopOnce sync.Once
}

// Fields returns the output columns of the read.
func (it *Iterator) Fields() []batch.Field {
	return it.fields
}

// Next returns the next batch. It returns io.EOF after the last batch; any other error is
// returned again by every later call.
func (it *Iterator) Next() (*batch.Batch, error) {
	if it.closed.Load() {
		return nil, errs.ErrIteratorClosed
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if it.err != nil {
		return nil, it.err
	}
	b, err := it.next()
	if err != nil {
		if it.closed.Load() {
			return nil, errs.ErrIteratorClosed
		}
		it.err = err

		return nil, err
	}

	return b, nil
}

// Close cancels the read and releases its resources. It is safe to call more than once.
func (it *Iterator) Close() error {
	it.closed.Store(true)
	it.cancel()

	it.stopOnce.Do(func() {
		it.mu.Lock()
		defer it.mu.Unlock()
		if it.stop != nil {
			it.stop()
		}
	})

	return nil
}

// transformFunc post-processes a decoded batch on the goroutine that decoded it.
type transformFunc func(*batch.Batch) (*batch.Batch, error)

// readJob is one resolved read shared by the goroutines serving it.
type readJob struct {
	ctx       context.Context
	req       ReadRequest
	win       window
	plan      *decodePlan
	transform transformFunc
}

// finish applies the transform and records the batch.
func (r *Reader) finish(job *readJob, b *batch.Batch, err error) (*batch.Batch, error) {
	if err != nil {
		return nil, err
	}
	if job.transform != nil {
		if b, err = job.transform(b); err != nil {
			return nil, err
		}
	}
	r.metrics.batchDone(job.req.Mode, b.NumRows())

	return b, nil
}

type result struct {
	seq int
	b   *batch.Batch
	err error
}

// Batches starts a read of the rows and columns selected by req.
//
// Returns:
//   - *Iterator: yields batches of at most req.BatchSize rows
//   - error: ErrInvalidOption for an invalid request, ErrUnknownColumn for an unknown
//     projected column, ErrReaderClosed after Close
func (r *Reader) Batches(ctx context.Context, req ReadRequest) (*Iterator, error) {
	return r.batches(ctx, req, nil)
}

func (r *Reader) batches(ctx context.Context, req ReadRequest, transform transformFunc) (*Iterator, error) {
	if r.closed.Load() {
		return nil, errs.ErrReaderClosed
	}

	req, win, err := req.resolve(r.cfg, r.meta.RowCount)
	if err != nil {
		return nil, err
	}
	plan, err := r.newDecodePlan(req.Columns)
	if err != nil {
		return nil, err
	}

	if req.Mode == format.ModeParallel && r.meta.Compression != format.RowCompressionNone {
		r.logger.Warn("parallel reads need uncompressed rows, reading sequentially",
			zap.Stringer("compression", r.meta.Compression))
		req.Mode = format.ModeSequential
	}

	ctx, cancel := context.WithCancel(ctx)
	job := &readJob{ctx: ctx, req: req, win: win, plan: plan, transform: transform}

	r.logger.Debug("iterator start",
		zap.Stringer("mode", req.Mode),
		zap.Int("workers", r.cfg.workers),
		zap.Int64("start", win.start),
		zap.Int64("end", win.end),
		zap.Int("batch_size", req.BatchSize))

	var it *Iterator
	switch req.Mode {
	case format.ModeParallel:
		it = r.parallel(job)
	case format.ModePipeline:
		it, err = r.pipeline(job)
	default:
		it, err = r.sequential(job)
	}
	if err != nil {
		cancel()
		return nil, err
	}
	it.cancel = cancel
	it.fields = plan.fields()

	return it, nil
}

// sequential reads and decodes on the caller's goroutine with a single cursor.
func (r *Reader) sequential(job *readJob) (*Iterator, error) {
	c := r.newCursor()
	if err := c.seek(job.win.start); err != nil {
		c.close()
		return nil, err
	}

	dec := job.plan.newDecoder()
	buf := pool.GetChunkBuffer()
	rowLen := r.meta.RowLength
	pos := job.win.start

	next := func() (*batch.Batch, error) {
		if err := job.ctx.Err(); err != nil {
			return nil, err
		}
		if pos >= job.win.end {
			return nil, io.EOF
		}

		n := int(min(int64(job.req.BatchSize), job.win.end-pos))
		buf.Resize(n * rowLen)
		got, err := c.read(buf.Bytes(), n)
		if err != nil {
			return nil, err
		}
		if got == 0 {
			pos = job.win.end
			return nil, io.EOF
		}

		b, err := dec.decode(buf.Bytes()[:got*rowLen], got, pos)
		pos += int64(got)
		if got < n {
			pos = job.win.end
		}

		return r.finish(job, b, err)
	}
	stop := func() {
		c.close()
		pool.PutChunkBuffer(buf)
	}

	return &Iterator{next: next, stop: stop}, nil
}

// parallel splits the window into batch-sized ranges, each read by an independent
// cursor. Ranges are scheduled in order; with preserveOrder the results are delivered
// in the same order.
func (r *Reader) parallel(job *readJob) *Iterator {
	size := int64(job.req.BatchSize)
	tasks := (job.win.rows() + size - 1) / size
	depth := r.cfg.depth()
	ordered := r.cfg.preserveOrder

	g, gctx := errgroup.WithContext(job.ctx)
	g.SetLimit(r.cfg.workers)

	pending := make(chan chan result, depth)
	unordered := make(chan result, depth)
	done := make(chan struct{})

	go func() {
		defer close(done)
	schedule:
		for t := int64(0); t < tasks; t++ {
			start := job.win.start + t*size
			n := int(min(size, job.win.end-start))
			seq := int(t)

			var out chan result
			if ordered {
				out = make(chan result, 1)
				select {
				case pending <- out:
				case <-gctx.Done():
					break schedule
				}
			} else if gctx.Err() != nil {
				break schedule
			}

			g.Go(func() error {
				b, err := r.readRange(job, start, n)
				res := result{seq: seq, b: b, err: err}
				if ordered {
					out <- res
				} else {
					select {
					case unordered <- res:
					case <-job.ctx.Done():
					}
				}

				return err
			})
		}

		if err := g.Wait(); err != nil {
			r.logger.Debug("parallel read stopped", zap.Error(err))
		}
		close(pending)
		close(unordered)
	}()

	receive := func() (result, bool, error) {
		if !ordered {
			select {
			case res, ok := <-unordered:
				return res, ok, nil
			case <-job.ctx.Done():
				return result{}, false, job.ctx.Err()
			}
		}

		var out chan result
		var ok bool
		select {
		case out, ok = <-pending:
			if !ok {
				return result{}, false, nil
			}
		case <-job.ctx.Done():
			return result{}, false, job.ctx.Err()
		}
		select {
		case res := <-out:
			return res, true, nil
		case <-job.ctx.Done():
			return result{}, false, job.ctx.Err()
		}
	}

	next := func() (*batch.Batch, error) {
		if err := job.ctx.Err(); err != nil {
			return nil, err
		}
		for {
			res, ok, err := receive()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, io.EOF
			}
			if res.err != nil {
				return nil, res.err
			}
			if res.b != nil {
				return res.b, nil
			}
		}
	}

	return &Iterator{next: next, stop: func() { <-done }}
}

// readRange reads and decodes n rows starting at row start with a private cursor. A range
// past the stored rows yields a nil batch.
func (r *Reader) readRange(job *readJob, start int64, n int) (*batch.Batch, error) {
	if err := job.ctx.Err(); err != nil {
		return nil, err
	}

	c := r.newCursor()
	defer c.close()
	if err := c.seek(start); err != nil {
		return nil, err
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)
	rowLen := r.meta.RowLength
	buf.Resize(n * rowLen)

	got, err := c.read(buf.Bytes(), n)
	if err != nil || got == 0 {
		return nil, err
	}
	b, err := job.plan.newDecoder().decode(buf.Bytes()[:got*rowLen], got, start)

	return r.finish(job, b, err)
}

type chunk struct {
	seq   int
	first int64
	count int
	buf   *pool.ByteBuffer
}

// pipeline runs one goroutine that fetches pages and expands rows into chunks, and a
// pool of workers that decode chunks into batches. At most depth chunks are in flight
// between the fetcher and the consumer.
func (r *Reader) pipeline(job *readJob) (*Iterator, error) {
	c := r.newCursor()
	if err := c.seek(job.win.start); err != nil {
		c.close()
		return nil, err
	}

	logger := r.logger.Named("pipeline")
	depth := r.cfg.depth()
	ordered := r.cfg.preserveOrder
	rowLen := r.meta.RowLength

	tokens := make(chan struct{}, depth)
	chunks := make(chan chunk, depth)
	results := make(chan result, depth)
	done := make(chan struct{})

	send := func(res result) bool {
		select {
		case results <- res:
			return true
		case <-job.ctx.Done():
			return false
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		defer close(chunks)
		defer c.close()

		pos := job.win.start
		for seq := 0; pos < job.win.end; seq++ {
			select {
			case tokens <- struct{}{}:
			case <-job.ctx.Done():
				return job.ctx.Err()
			}

			n := int(min(int64(job.req.BatchSize), job.win.end-pos))
			buf := pool.GetChunkBuffer()
			buf.Resize(n * rowLen)
			got, err := c.read(buf.Bytes(), n)
			if err != nil {
				pool.PutChunkBuffer(buf)
				send(result{seq: seq, err: err})

				return err
			}
			if got == 0 {
				pool.PutChunkBuffer(buf)
				<-tokens

				return nil
			}

			select {
			case chunks <- chunk{seq: seq, first: pos, count: got, buf: buf}:
			case <-job.ctx.Done():
				pool.PutChunkBuffer(buf)
				return job.ctx.Err()
			}
			pos += int64(got)
			if got < n {
				return nil
			}
		}

		return nil
	})

	for w := range r.cfg.workers {
		g.Go(func() error {
			defer logger.Debug("worker stopped", zap.Int("worker", w))

			dec := job.plan.newDecoder()
			for ch := range chunks {
				b, err := dec.decode(ch.buf.Bytes()[:ch.count*rowLen], ch.count, ch.first)
				pool.PutChunkBuffer(ch.buf)
				b, err = r.finish(job, b, err)
				if !send(result{seq: ch.seq, b: b, err: err}) {
					return job.ctx.Err()
				}
			}

			return nil
		})
	}

	go func() {
		defer close(done)
		if err := g.Wait(); err != nil {
			logger.Debug("pipeline stopped", zap.Error(err))
		}
		close(results)
	}()

	expected := 0
	held := make(map[int]result)
	deliver := func(res result) (*batch.Batch, error) {
		<-tokens
		if res.err != nil {
			return nil, res.err
		}

		return res.b, nil
	}

	next := func() (*batch.Batch, error) {
		if err := job.ctx.Err(); err != nil {
			return nil, err
		}
		for {
			if res, ok := held[expected]; ok {
				delete(held, expected)
				expected++

				return deliver(res)
			}

			select {
			case res, ok := <-results:
				if !ok {
					return nil, io.EOF
				}
				if !ordered {
					return deliver(res)
				}
				held[res.seq] = res
			case <-job.ctx.Done():
				return nil, job.ctx.Err()
			}
		}
	}

	return &Iterator{next: next, stop: func() { <-done }}, nil
}
