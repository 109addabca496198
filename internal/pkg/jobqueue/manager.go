package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/app/models"
	metrics "github.com/ManuelReschke/PixelProof/internal/pkg/metrics/counter"
)

// CounterFlushInterval is how often buffered view counters reach the database.
const CounterFlushInterval = 5 * time.Second

// Manager owns the process wide queue and the counter flush loop.
type Manager struct {
	queue         *Queue
	flushCounters func() error
	flushEvery    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the shared manager. The worker count comes from the
// app settings loaded at startup.
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = newManager(NewQueue(models.GetAppSettings().GetJobQueueWorkerCount()), metrics.FlushAll)
	})
	return globalManager
}

func newManager(q *Queue, flush func() error) *Manager {
	return &Manager{queue: q, flushCounters: flush, flushEvery: CounterFlushInterval}
}

func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Configure hands the processors their collaborators.
func (m *Manager) Configure(deps Dependencies) {
	m.queue.SetDependencies(deps)
}

// Start runs the queue and the counter flush loop. Calling it twice is a
// no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.queue.Start()
	go m.flushLoop(ctx, m.done)
	log.Info("[JobQueue Manager] Started")
}

// Stop ends the flush loop, flushes a last time and stops the queue.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	if err := m.flush(); err != nil {
		log.Errorf("[JobQueue Manager] Final counter flush failed: %v", err)
	}
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped")
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Manager) flushLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.flush(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush failed: %v", err)
			}
		}
	}
}

func (m *Manager) flush() error {
	if m.flushCounters == nil {
		return nil
	}
	return m.flushCounters()
}
