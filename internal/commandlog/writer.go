package commandlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Future resolves when a queued line has been written, or has failed.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func failedFuture(err error) *Future {
	f := newFuture()
	f.complete(err)
	return f
}

func (f *Future) complete(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the line is durable or ctx ends. A nil result means the
// line is in the file; any error means durability must not be assumed.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type entry struct {
	ctx    context.Context
	line   []byte
	future *Future
}

// logFile is the part of *os.File the writer needs.
type logFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Close() error
}

// countingWriter tracks how many bytes reached the file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// fileWriter owns one file and drains its queue in batches. committed is the
// file length up to the last complete batch; torn is set while the file may
// end in a partial line.
type fileWriter struct {
	path      string
	file      logFile
	out       *countingWriter
	buf       *bufio.Writer
	sync      bool
	committed int64
	torn      bool
	queue     chan *entry
	stopped   chan struct{}
	written   atomic.Int64
	logger    *slog.Logger
}

func openFileWriter(path string, cfg Config, logger *slog.Logger) (*fileWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open command log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat command log %s: %w", path, err)
	}

	w := newFileWriter(path, f, info.Size(), cfg, logger)
	if w.committed > 0 {
		// A previous process may have died in the middle of a line.
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, w.committed-1); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to read command log %s: %w", path, err)
		}
		w.torn = last[0] != '\n'
	}
	return w, nil
}

func newFileWriter(path string, file logFile, size int64, cfg Config, logger *slog.Logger) *fileWriter {
	out := &countingWriter{w: file, n: size}
	return &fileWriter{
		path:      path,
		file:      file,
		out:       out,
		buf:       bufio.NewWriterSize(out, 64*1024),
		sync:      cfg.Sync,
		committed: size,
		queue:     make(chan *entry, cfg.QueueCapacity),
		stopped:   make(chan struct{}),
		logger:    logger,
	}
}

// run writes whatever is queued as one batch, then flushes and optionally
// fsyncs before resolving the batch's futures.
func (w *fileWriter) run() {
	defer close(w.stopped)

	batch := make([]*entry, 0, 64)
	for e := range w.queue {
		batch = append(batch[:0], e)
	drain:
		for len(batch) < cap(batch) {
			select {
			case next, ok := <-w.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		w.writeBatch(batch)
	}
}

func (w *fileWriter) writeBatch(batch []*entry) {
	pending := batch[:0:0]
	for _, e := range batch {
		// A caller that gave up before its line was taken gets nothing written.
		if err := e.ctx.Err(); err != nil {
			e.future.complete(err)
			continue
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		return
	}

	var err error
	if w.torn {
		err = w.buf.WriteByte('\n')
	}
	for _, e := range pending {
		if err != nil {
			break
		}
		if _, err = w.buf.Write(e.line); err != nil {
			break
		}
		err = w.buf.WriteByte('\n')
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if err == nil && w.sync {
		err = w.file.Sync()
	}

	if err != nil {
		w.logger.Error("failed to write command log batch",
			slog.String("path", w.path),
			slog.Int("lines", len(pending)),
			slog.Any("error", err),
		)
		// Drop whatever is left in the buffer; the next batch starts clean.
		w.buf.Reset(w.out)
		w.discardPartial()
		err = fmt.Errorf("failed to write command log %s: %w", w.path, err)
	} else {
		w.committed = w.out.n
		w.torn = false
		w.written.Add(int64(len(pending)))
	}

	for _, e := range pending {
		e.future.complete(err)
	}
}

// discardPartial cuts the file back to the last complete batch. When that is
// not possible the next batch starts on a fresh line instead.
func (w *fileWriter) discardPartial() {
	if w.out.n == w.committed {
		return
	}
	if err := w.file.Truncate(w.committed); err != nil {
		w.torn = true
		w.logger.Error("failed to truncate command log after failed batch",
			slog.String("path", w.path),
			slog.Int64("size", w.committed),
			slog.Any("error", err),
		)
		return
	}
	w.out.n = w.committed
	w.torn = false
}

// close stops the writer after the queue drained and closes the file.
func (w *fileWriter) close(ctx context.Context) error {
	close(w.queue)
	select {
	case <-w.stopped:
	case <-ctx.Done():
		return fmt.Errorf("command log %s did not drain: %w", w.path, ctx.Err())
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close command log %s: %w", w.path, err)
	}
	return nil
}
