package uploadqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
)

func newTestQueue(concurrency int) *Queue {
	q := New(concurrency)
	q.tick = 5 * time.Millisecond
	return q
}

func TestQueue_CompletesItems(t *testing.T) {
	q := newTestQueue(3)
	defer q.Stop()

	item := q.Add(7, "a.jpg", 2048, "image/jpeg", func(ctx context.Context) (Result, error) {
		return Result{PhotoUUID: "p1", URL: "https://cdn/a.jpg"}, nil
	})
	assert.Equal(t, StatusPending, item.Status)
	assert.Equal(t, 0, item.Progress)

	q.Wait()
	got, ok := q.Get(item.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "p1", got.PhotoUUID)
	assert.Equal(t, "2.0 kB", got.HumanSize())
}

func TestQueue_ProgressIsCappedWhileUploading(t *testing.T) {
	q := newTestQueue(1)
	defer q.Stop()

	release := make(chan struct{})
	item := q.Add(1, "slow.jpg", 1, "", func(ctx context.Context) (Result, error) {
		<-release
		return Result{}, nil
	})

	require.Eventually(t, func() bool {
		it, _ := q.Get(item.ID)
		return it.Progress == ProgressCeiling
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	it, _ := q.Get(item.ID)
	assert.Equal(t, ProgressCeiling, it.Progress)
	assert.Equal(t, StatusUploading, it.Status)

	close(release)
	q.Wait()
	it, _ = q.Get(item.ID)
	assert.Equal(t, 100, it.Progress)
}

func TestQueue_FailureDoesNotHaltOthers(t *testing.T) {
	q := newTestQueue(2)
	defer q.Stop()

	var failed []string
	q.OnError(func(it Item, err error) { failed = append(failed, it.FileName) })

	ok1 := q.Add(1, "ok1.jpg", 1, "", func(ctx context.Context) (Result, error) { return Result{}, nil })
	bad := q.Add(1, "bad.jpg", 1, "", func(ctx context.Context) (Result, error) {
		return Result{}, &objectstore.UploadError{Key: "k", Err: errors.New("503")}
	})
	ok2 := q.Add(1, "ok2.jpg", 1, "", func(ctx context.Context) (Result, error) { return Result{}, nil })
	q.Wait()

	for _, id := range []string{ok1.ID, ok2.ID} {
		it, _ := q.Get(id)
		assert.Equal(t, StatusCompleted, it.Status)
	}
	it, _ := q.Get(bad.ID)
	assert.Equal(t, StatusError, it.Status)
	assert.Equal(t, "Upload failed: 503", it.Error)
	assert.False(t, it.CORS)
	assert.Equal(t, []string{"bad.jpg"}, failed)
}

func TestQueue_PanicBecomesError(t *testing.T) {
	q := newTestQueue(1)
	defer q.Stop()
	item := q.Add(1, "x.jpg", 1, "", func(ctx context.Context) (Result, error) { panic("boom") })
	q.Wait()
	it, _ := q.Get(item.ID)
	assert.Equal(t, StatusError, it.Status)
}

func TestQueue_BoundedConcurrency(t *testing.T) {
	q := newTestQueue(3)
	defer q.Stop()

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		q.Add(1, "f.jpg", 1, "", func(ctx context.Context) (Result, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return Result{}, nil
		})
	}
	q.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, 10, q.Summarize(1).Completed)
}

func TestQueue_DirectUploadCORS(t *testing.T) {
	q := newTestQueue(1)
	defer q.Stop()

	item := q.AddDirect(3, "big.jpg", 10, "image/jpeg", "events/e/1-big.jpg")
	assert.Equal(t, StatusUploading, item.Status)
	assert.True(t, item.Direct)

	err := objectstore.ClassifyBrowserFailure("proofs", item.ObjectKey, "TypeError: Failed to fetch")
	require.True(t, q.Fail(item.ID, err))
	assert.False(t, q.Fail(item.ID, err), "final state is sticky")
	assert.False(t, q.Complete(item.ID, Result{}))

	it, _ := q.Get(item.ID)
	assert.Equal(t, StatusError, it.Status)
	assert.True(t, it.CORS)
	assert.Contains(t, it.Error, "CORS")

	assert.False(t, q.Complete("nope", Result{}))
}

func TestQueue_ListAndClearCompleted(t *testing.T) {
	q := newTestQueue(3)
	defer q.Stop()

	q.Add(1, "a.jpg", 100, "", func(ctx context.Context) (Result, error) { return Result{}, nil })
	q.Add(1, "b.jpg", 1, "", func(ctx context.Context) (Result, error) { return Result{}, errors.New("x") })
	q.Add(2, "c.jpg", 50, "", func(ctx context.Context) (Result, error) { return Result{}, nil })
	q.Wait()

	list := q.List(1)
	require.Len(t, list, 2)
	assert.Equal(t, "b.jpg", list[0].FileName, "newest first")
	assert.Len(t, q.List(0), 3)

	s := q.Summarize(1)
	assert.Equal(t, Summary{Total: 2, Completed: 1, Failed: 1, Bytes: 100}, s)
	assert.Equal(t, "100 B", s.HumanBytes())

	assert.Equal(t, 1, q.ClearCompleted(1))
	remaining := q.List(1)
	require.Len(t, remaining, 1)
	assert.Equal(t, StatusError, remaining[0].Status)
	assert.Len(t, q.List(2), 1)
}

func TestQueue_StopCancelsPending(t *testing.T) {
	q := newTestQueue(1)
	block := make(chan struct{})
	first := q.Add(1, "a.jpg", 1, "", func(ctx context.Context) (Result, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return Result{}, ctx.Err()
	})
	second := q.Add(1, "b.jpg", 1, "", func(ctx context.Context) (Result, error) { return Result{}, nil })
	q.Stop()

	a, _ := q.Get(first.ID)
	assert.True(t, a.Done())
	b, _ := q.Get(second.ID)
	assert.True(t, b.Done())
}
