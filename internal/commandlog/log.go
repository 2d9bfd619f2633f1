// Package commandlog implements the append-only, line oriented command log
// that is the only persistence of the node.
//
// Every target file gets one writer goroutine fed by a bounded queue, so lines
// from concurrent callers never interleave within a file while distinct files
// are written independently. Append returns a Future that resolves once the
// line reached the file (and was fsynced when Sync is enabled).
package commandlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/ocpi/internal/commandlog/domain"
	apperrors "github.com/allisson/ocpi/internal/errors"
)

// BackpressurePolicy decides what Append does when a file queue is full.
type BackpressurePolicy string

const (
	// BackpressureBlock waits for queue space or for the caller's context to end.
	BackpressureBlock BackpressurePolicy = "block"
	// BackpressureReject fails the append immediately with ErrQueueFull.
	BackpressureReject BackpressurePolicy = "reject"
)

// DefaultQueueCapacity is the per-file queue size when none is configured.
const DefaultQueueCapacity = 10000

// maxLineSize bounds a single record during Load.
const maxLineSize = 16 * 1024 * 1024

var (
	// ErrQueueFull is returned under BackpressureReject when a file queue is full.
	ErrQueueFull = apperrors.Wrap(apperrors.ErrUnavailable, "command log queue is full")

	// ErrClosed is returned for appends after Close.
	ErrClosed = apperrors.Wrap(apperrors.ErrUnavailable, "command log is closed")
)

// Config holds command log settings.
type Config struct {
	// Dir is the directory holding all log files.
	Dir string
	// QueueCapacity bounds the number of pending lines per file.
	QueueCapacity int
	// Backpressure selects the full-queue behaviour.
	Backpressure BackpressurePolicy
	// Sync fsyncs the file after each written batch.
	Sync bool
}

// ParseBackpressurePolicy validates a policy name.
func ParseBackpressurePolicy(s string) (BackpressurePolicy, error) {
	switch BackpressurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case BackpressureBlock, "":
		return BackpressureBlock, nil
	case BackpressureReject:
		return BackpressureReject, nil
	default:
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown backpressure policy %q", s)
	}
}

// Log is the set of append-only files under one directory.
type Log struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	// closeMu is held for reading while a line is being queued and for
	// writing by Close, so no send can race with closing a queue.
	closeMu sync.RWMutex
	closed  bool

	writersMu sync.Mutex
	writers   map[string]*fileWriter
}

// New creates the log directory if needed. Files are opened lazily on first append.
func New(cfg Config, logger *slog.Logger) (*Log, error) {
	if cfg.Dir == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "command log directory is required")
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Backpressure == "" {
		cfg.Backpressure = BackpressureBlock
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create command log directory: %w", err)
	}

	return &Log{
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		writers: make(map[string]*fileWriter),
	}, nil
}

// Dir returns the directory holding the log files.
func (l *Log) Dir() string {
	return l.config.Dir
}

// Path returns the full path of a log file.
func (l *Log) Path(file string) string {
	return filepath.Join(l.config.Dir, file)
}

// Append queues one command line for file.
func (l *Log) Append(
	ctx context.Context,
	file, name string,
	payload domain.Payload,
	eventTrackingID, userID string,
) *Future {
	line, err := EncodeLine(domain.CommandWithMetadata{
		Command:         domain.Command{Name: name, Payload: payload},
		Timestamp:       l.now(),
		EventTrackingID: eventTrackingID,
		UserID:          userID,
	})
	if err != nil {
		return failedFuture(err)
	}
	return l.enqueue(ctx, file, line)
}

// AppendComment queues a comment line for file. Comments are skipped by Load.
func (l *Log) AppendComment(ctx context.Context, file, text, eventTrackingID, userID string) *Future {
	return l.enqueue(ctx, file, EncodeComment(text, l.now(), eventTrackingID, userID))
}

func (l *Log) enqueue(ctx context.Context, file string, line []byte) *Future {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()

	if l.closed {
		return failedFuture(ErrClosed)
	}

	w, err := l.writer(file)
	if err != nil {
		return failedFuture(err)
	}

	e := &entry{ctx: ctx, line: line, future: newFuture()}
	switch l.config.Backpressure {
	case BackpressureReject:
		select {
		case w.queue <- e:
		default:
			return failedFuture(ErrQueueFull)
		}
	default:
		select {
		case w.queue <- e:
		case <-ctx.Done():
			return failedFuture(ctx.Err())
		}
	}
	return e.future
}

func (l *Log) writer(file string) (*fileWriter, error) {
	if file == "" || file != filepath.Base(file) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid command log file name %q", file)
	}

	l.writersMu.Lock()
	defer l.writersMu.Unlock()

	if w, ok := l.writers[file]; ok {
		return w, nil
	}

	w, err := openFileWriter(l.Path(file), l.config, l.logger)
	if err != nil {
		return nil, err
	}
	l.writers[file] = w
	go w.run()
	return w, nil
}

// Stats returns write statistics per opened file.
func (l *Log) Stats() map[string]FileStats {
	l.writersMu.Lock()
	defer l.writersMu.Unlock()

	stats := make(map[string]FileStats, len(l.writers))
	for name, w := range l.writers {
		stats[name] = FileStats{
			LinesWritten: w.written.Load(),
			QueueDepth:   len(w.queue),
		}
	}
	return stats
}

// Close stops accepting appends, drains every queue and closes the files.
func (l *Log) Close(ctx context.Context) error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	l.closeMu.Unlock()

	l.writersMu.Lock()
	writers := make([]*fileWriter, 0, len(l.writers))
	for _, w := range l.writers {
		writers = append(writers, w)
	}
	l.writersMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range writers {
		g.Go(func() error {
			return w.close(ctx)
		})
	}
	return g.Wait()
}

// Load lazily yields every command of file in order. Comment and blank lines
// are skipped; a line that fails to parse is logged and dropped. A missing file
// yields nothing. Only I/O failures are yielded as errors, after which the
// sequence ends.
func (l *Log) Load(file string) iter.Seq2[domain.CommandWithMetadata, error] {
	return func(yield func(domain.CommandWithMetadata, error) bool) {
		_ = l.scan(file, func(lineNo int, line []byte, err error) {
			l.logger.Warn("skipping malformed command log line",
				slog.String("file", file),
				slog.Int("line", lineNo),
				slog.String("content", describe(line)),
				slog.Any("error", err),
			)
		}, yield)
	}
}

// Inspect scans file without replaying it and reports its line statistics.
func (l *Log) Inspect(file string) (InspectReport, error) {
	report := InspectReport{File: file}
	err := l.scan(file, func(lineNo int, line []byte, err error) {
		report.Malformed = append(report.Malformed, MalformedLine{Line: lineNo, Error: err.Error()})
	}, func(cmd domain.CommandWithMetadata, err error) bool {
		if err == nil {
			report.Commands++
			if report.CommandCounts == nil {
				report.CommandCounts = make(map[string]int)
			}
			report.CommandCounts[cmd.Name]++
		}
		return true
	})
	return report, err
}

// scan drives Load and Inspect. It returns the I/O error it also yielded.
func (l *Log) scan(
	file string,
	onMalformed func(lineNo int, line []byte, err error),
	yield func(domain.CommandWithMetadata, error) bool,
) error {
	f, err := os.Open(l.Path(file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed to open command log %s: %w", file, err)
		yield(domain.CommandWithMetadata{}, err)
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 || IsComment(line) {
			continue
		}

		cmd, err := DecodeLine(line)
		if err != nil {
			onMalformed(lineNo, line, err)
			continue
		}
		if !yield(cmd, nil) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		err = fmt.Errorf("failed to read command log %s at line %d: %w", file, lineNo+1, err)
		yield(domain.CommandWithMetadata{}, err)
		return err
	}
	return nil
}

// Files lists the log files currently present in the directory.
func (l *Log) Files() ([]string, error) {
	entries, err := os.ReadDir(l.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list command log directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// FileStats reports the state of one file writer.
type FileStats struct {
	LinesWritten int64
	QueueDepth   int
}

// MalformedLine identifies a line Load would skip.
type MalformedLine struct {
	Line  int
	Error string
}

// InspectReport summarizes a log file.
type InspectReport struct {
	File          string
	Commands      int
	CommandCounts map[string]int
	Malformed     []MalformedLine
}
