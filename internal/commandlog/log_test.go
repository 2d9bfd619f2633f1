package commandlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/ocpi/internal/commandlog/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testFile = "RemoteParties.db"

func newTestLog(t *testing.T, cfg Config) *Log {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	l, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = l.Close(context.Background())
	})
	return l
}

func collect(t *testing.T, l *Log, file string) []domain.CommandWithMetadata {
	t.Helper()
	var cmds []domain.CommandWithMetadata
	for cmd, err := range l.Load(file) {
		require.NoError(t, err)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func TestLog_AppendThenLoad(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{Sync: true})

	require.NoError(t, l.AppendComment(ctx, testFile, "started", "boot", "").Wait(ctx))
	require.NoError(t, l.Append(ctx, testFile, "addRemoteParty", domain.TextPayload("DE-GEF"), "t1", "admin").Wait(ctx))
	require.NoError(t, l.Append(ctx, testFile, "removeAllRemoteParties", domain.NoPayload(), "t2", "").Wait(ctx))
	require.NoError(t, l.AppendComment(ctx, testFile, "shutdown", "boot", "").Wait(ctx))

	cmds := collect(t, l, testFile)
	require.Len(t, cmds, 2)
	assert.Equal(t, "addRemoteParty", cmds[0].Name)
	assert.Equal(t, "t1", cmds[0].EventTrackingID)
	assert.Equal(t, "admin", cmds[0].UserID)
	assert.Equal(t, "removeAllRemoteParties", cmds[1].Name)
	assert.True(t, cmds[1].Payload.IsNone())
}

func TestLog_LoadMissingFileIsEmpty(t *testing.T) {
	l := newTestLog(t, Config{})
	assert.Empty(t, collect(t, l, "does-not-exist.db"))
}

func TestLog_LoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`# header`,
		`{"addRemoteParty":"DE-AAA","timestamp":"2025-01-01T00:00:00Z","eventTrackingId":"1"}`,
		`{"addRemoteParty": {"id":"DE-BBB"`,
		``,
		`// comment {"addRemoteParty":"DE-XXX"}`,
		`{"addRemoteParty":"DE-CCC","timestamp":"2025-01-01T00:00:01Z","eventTrackingId":"2"}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(dir+"/"+testFile, []byte(content), 0o600))

	l := newTestLog(t, Config{Dir: dir})
	cmds := collect(t, l, testFile)
	require.Len(t, cmds, 2)
	first, _ := cmds[0].Payload.Text()
	second, _ := cmds[1].Payload.Text()
	assert.Equal(t, "DE-AAA", first)
	assert.Equal(t, "DE-CCC", second)

	report, err := l.Inspect(testFile)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Commands)
	assert.Equal(t, 2, report.CommandCounts["addRemoteParty"])
	require.Len(t, report.Malformed, 1)
	assert.Equal(t, 3, report.Malformed[0].Line)
}

func TestLog_LoadStopsEarly(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{})
	for i := range 5 {
		require.NoError(t, l.Append(ctx, testFile, "n", domain.IntegerPayload(int64(i)), "", "").Wait(ctx))
	}

	seen := 0
	for range l.Load(testFile) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestLog_ConcurrentAppendsNeverInterleave(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{QueueCapacity: 8})

	const writers, perWriter = 16, 50
	long := strings.Repeat("x", 4096)

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				file := testFile
				if i%2 == 0 {
					file = "Assets.db"
				}
				payload := domain.TextPayload(fmt.Sprintf("%d-%d-%s", w, i, long))
				assert.NoError(t, l.Append(ctx, file, "note", payload, "", "").Wait(ctx))
			}
		}()
	}
	wg.Wait()

	total := len(collect(t, l, testFile)) + len(collect(t, l, "Assets.db"))
	assert.Equal(t, writers*perWriter, total)

	report, err := l.Inspect(testFile)
	require.NoError(t, err)
	assert.Empty(t, report.Malformed)

	stats := l.Stats()
	assert.Equal(t, int64(writers*perWriter/2), stats[testFile].LinesWritten)
	assert.Equal(t, int64(writers*perWriter/2), stats["Assets.db"].LinesWritten)
}

func TestLog_CancelledBeforeWriteIsNotWritten(t *testing.T) {
	l := newTestLog(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Append(ctx, testFile, "addRemoteParty", domain.TextPayload("DE-GEF"), "", "").Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, collect(t, l, testFile))
}

func TestLog_RejectPolicyFailsWhenFull(t *testing.T) {
	l := newTestLog(t, Config{QueueCapacity: 1, Backpressure: BackpressureReject})

	// A writer registered without its goroutine never drains the queue.
	w, err := openFileWriter(l.Path(testFile), l.config, l.logger)
	require.NoError(t, err)
	l.writersMu.Lock()
	l.writers[testFile] = w
	l.writersMu.Unlock()

	ctx := context.Background()
	first := l.Append(ctx, testFile, "a", domain.NoPayload(), "", "")
	second := l.Append(ctx, testFile, "b", domain.NoPayload(), "", "")
	assert.ErrorIs(t, second.Wait(ctx), ErrQueueFull)

	go w.run()
	assert.NoError(t, first.Wait(ctx))
}

func TestLog_BlockPolicyHonoursContext(t *testing.T) {
	l := newTestLog(t, Config{QueueCapacity: 1})

	w, err := openFileWriter(l.Path(testFile), l.config, l.logger)
	require.NoError(t, err)
	l.writersMu.Lock()
	l.writers[testFile] = w
	l.writersMu.Unlock()

	first := l.Append(context.Background(), testFile, "a", domain.NoPayload(), "", "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second := l.Append(ctx, testFile, "b", domain.NoPayload(), "", "")
	assert.ErrorIs(t, second.Wait(context.Background()), context.DeadlineExceeded)

	go w.run()
	assert.NoError(t, first.Wait(context.Background()))
}

func TestLog_AppendAfterClose(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{})
	require.NoError(t, l.Append(ctx, testFile, "a", domain.NoPayload(), "", "").Wait(ctx))
	require.NoError(t, l.Close(ctx))
	require.NoError(t, l.Close(ctx))

	err := l.Append(ctx, testFile, "b", domain.NoPayload(), "", "").Wait(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Len(t, collect(t, l, testFile), 1)
}

func TestLog_RejectsPathLikeFileNames(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{})
	assert.Error(t, l.Append(ctx, "../escape.db", "a", domain.NoPayload(), "", "").Wait(ctx))
	assert.Error(t, l.Append(ctx, "", "a", domain.NoPayload(), "", "").Wait(ctx))
}

func TestLog_Files(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, Config{})
	require.NoError(t, l.Append(ctx, "B.db", "a", domain.NoPayload(), "", "").Wait(ctx))
	require.NoError(t, l.Append(ctx, "A.db", "a", domain.NoPayload(), "", "").Wait(ctx))

	files, err := l.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.db", "B.db"}, files)
}

func TestParseBackpressurePolicy(t *testing.T) {
	p, err := ParseBackpressurePolicy("REJECT")
	require.NoError(t, err)
	assert.Equal(t, BackpressureReject, p)

	p, err = ParseBackpressurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, BackpressureBlock, p)

	_, err = ParseBackpressurePolicy("drop")
	assert.Error(t, err)
}

func TestEventTrackingID(t *testing.T) {
	ctx := context.Background()
	generated := EventTrackingID(ctx)
	assert.NotEmpty(t, generated)
	assert.NotEqual(t, generated, EventTrackingID(ctx))

	ctx = WithEventTrackingID(ctx, "corr-1")
	ctx = WithUserID(ctx, "admin")
	assert.Equal(t, "corr-1", EventTrackingID(ctx))
	assert.Equal(t, "admin", UserID(ctx))
}
