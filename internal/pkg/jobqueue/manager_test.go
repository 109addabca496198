package jobqueue

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/app/models"
)

func resetManager(t *testing.T) {
	t.Helper()
	globalManager = nil
	managerOnce = sync.Once{}
	t.Cleanup(func() {
		globalManager = nil
		managerOnce = sync.Once{}
	})
}

func TestGetManager(t *testing.T) {
	resetManager(t)

	m1 := GetManager()
	m2 := GetManager()
	assert.Same(t, m1, m2)
	assert.Same(t, m1.queue, m1.GetQueue())
	assert.NotNil(t, m1.flushCounters)
	assert.False(t, m1.IsRunning())
	assert.Equal(t, models.GetAppSettings().GetJobQueueWorkerCount(), m1.queue.workers)
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := newManager(NewQueueWithClient(nil, 1), nil)
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManager_Configure(t *testing.T) {
	m := newManager(NewQueueWithClient(nil, 1), nil)
	called := false
	m.Configure(Dependencies{PhotoProcessed: func(uint) { called = true }})

	deps := m.GetQueue().dependencies()
	require.NotNil(t, deps.PhotoProcessed)
	deps.PhotoProcessed(1)
	assert.True(t, called)
}

func TestManager_FlushesWhileRunningAndOnStop(t *testing.T) {
	var flushes atomic.Int32
	m := newManager(NewQueueWithClient(nil, 1), func() error {
		flushes.Add(1)
		return errors.New("db away")
	})
	m.flushEvery = 10 * time.Millisecond

	m.Start()
	m.Start()
	assert.True(t, m.IsRunning())
	assert.Eventually(t, func() bool { return flushes.Load() >= 2 }, time.Second, 5*time.Millisecond)

	before := flushes.Load()
	m.Stop()
	assert.False(t, m.IsRunning())
	assert.Greater(t, flushes.Load(), before, "stop flushes once more")
}

func TestManager_StartsQueueWorkers(t *testing.T) {
	client := testRedis(t)
	m := newManager(NewQueueWithClient(client, 1), nil)

	m.Start()
	assert.True(t, m.GetQueue().Running())
	m.Stop()
	assert.False(t, m.GetQueue().Running())
}
