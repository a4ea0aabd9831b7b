package async

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-extractor/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	paths []string
	block chan struct{}
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path, format string) (pipeline.Outcome, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path+":"+format)
	if path == "bad.txt" {
		return pipeline.Outcome{}, errors.New("boom")
	}
	return pipeline.Outcome{}, nil
}

func (f *fakeProcessor) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.paths...)
	sort.Strings(out)
	return out
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	fp := &fakeProcessor{}
	q := NewProcessorQueue(fp, nil, WithWorkers(3), WithQueueSize(8), WithProcessTimeout(time.Second))

	ctx := context.Background()
	for _, p := range []string{"a.txt", "bad.txt", "c.txt"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p, Format: "prescription"}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, []string{"a.txt:prescription", "bad.txt:prescription", "c.txt:prescription"}, fp.seen())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "late.txt"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueue_BackpressureHonorsContext(t *testing.T) {
	fp := &fakeProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(fp, nil, WithWorkers(1), WithQueueSize(1))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "1.txt"})) // taken by the worker, which blocks
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, Job{Path: "2.txt"})) // fills the buffer

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(tctx, Job{Path: "3.txt"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(fp.block)
	q.Shutdown(ctx)
	assert.Len(t, fp.seen(), 2)
}
