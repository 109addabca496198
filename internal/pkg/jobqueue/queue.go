package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelProof/internal/pkg/cache"
)

// Redis layout. Job bodies live under KeyJob+id, the id moves between the
// pending list, the processing list and the delayed set.
const (
	keyPrefix     = "pixelproof:jobs:"
	KeyJob        = keyPrefix + "job:"
	KeyPending    = keyPrefix + "pending"
	KeyProcessing = keyPrefix + "processing"
	KeyDelayed    = keyPrefix + "delayed"
	KeyStats      = keyPrefix + "stats"
)

const (
	DefaultWorkers    = 3
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour

	// StuckAfter is how long a job may stay in processing before the
	// sweeper treats its worker as dead.
	StuckAfter = 10 * time.Minute

	jobTimeout        = 5 * time.Minute
	pollTimeout       = 2 * time.Second
	schedulerInterval = time.Second
	sweepInterval     = time.Minute
	listScanBatch     = 200
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrNoRedis     = errors.New("job queue has no redis client")
)

// Handler runs one job. A returned error fails the attempt.
type Handler func(ctx context.Context, job *Job) error

// Queue is a Redis backed job queue with a fixed number of workers.
type Queue struct {
	client  *redis.Client
	workers int
	backoff func(attempt int) time.Duration

	mu       sync.RWMutex
	handlers map[JobType]Handler
	deps     Dependencies

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue on the shared cache client.
func NewQueue(workers int) *Queue {
	return NewQueueWithClient(cache.GetClient(), workers)
}

// NewQueueWithClient creates a queue with the photo processors registered.
func NewQueueWithClient(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	q := &Queue{
		client:   client,
		workers:  workers,
		backoff:  linearBackoff,
		handlers: make(map[JobType]Handler),
	}
	q.registerProcessors()
	return q
}

func linearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 5 * time.Second
}

// Handle registers h for jobs of type t, replacing an earlier handler.
func (q *Queue) Handle(t JobType, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[JobType]Handler)
	}
	q.handlers[t] = h
}

func (q *Queue) handler(t JobType) (Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[t]
	return h, ok
}

// SetDependencies installs the collaborators the processors use.
func (q *Queue) SetDependencies(deps Dependencies) {
	q.mu.Lock()
	q.deps = deps
	q.mu.Unlock()
}

func (q *Queue) dependencies() Dependencies {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.deps
}

// Start launches the workers, the retry scheduler and the stuck job sweeper.
func (q *Queue) Start() {
	q.runMu.Lock()
	defer q.runMu.Unlock()
	if q.cancel != nil {
		return
	}
	if q.client == nil {
		log.Warn("[JobQueue] No Redis client, background jobs are disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	q.wg.Add(2)
	go q.every(ctx, schedulerInterval, "scheduler", func(ctx context.Context, now time.Time) error {
		_, err := q.promoteDue(ctx, now)
		return err
	})
	go q.every(ctx, sweepInterval, "sweeper", func(ctx context.Context, now time.Time) error {
		n, err := q.sweepStuck(ctx, now)
		if n > 0 {
			log.Warnf("[JobQueue] Recovered %d stuck jobs", n)
		}
		return err
	})
	log.Infof("[JobQueue] Started %d workers", q.workers)
}

// Stop cancels the background loops and waits for running jobs.
func (q *Queue) Stop() {
	q.runMu.Lock()
	defer q.runMu.Unlock()
	if q.cancel == nil {
		return
	}
	q.cancel()
	q.wg.Wait()
	q.cancel = nil
	log.Info("[JobQueue] Stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (q *Queue) Running() bool {
	q.runMu.Lock()
	defer q.runMu.Unlock()
	return q.cancel != nil
}

func (q *Queue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		job, err := q.dequeueJob(ctx)
		switch {
		case err == nil:
			// A job that was taken is finished even when Stop is called.
			jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
			q.processJob(jobCtx, job)
			cancel()
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
		case errors.Is(err, ErrJobNotFound):
			log.Warnf("[JobQueue] Worker %d: %v", id, err)
		default:
			log.Errorf("[JobQueue] Worker %d: dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (q *Queue) every(ctx context.Context, interval time.Duration, name string, fn func(context.Context, time.Time) error) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := fn(ctx, now); err != nil && ctx.Err() == nil {
				log.Errorf("[JobQueue] %s: %v", name, err)
			}
		}
	}
}

// Enqueue stores a new pending job with payload encoded as JSON. Failed
// attempts are retried DefaultMaxRetries times.
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload any) (*Job, error) {
	return q.enqueue(ctx, jobType, payload, DefaultMaxRetries)
}

func (q *Queue) enqueue(ctx context.Context, jobType JobType, payload any, maxRetries int) (*Job, error) {
	if q.client == nil {
		return nil, ErrNoRedis
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", jobType, err)
	}
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    raw,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: maxRetries,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyJob+job.ID, data, JobTTL)
		p.LPush(ctx, KeyPending, job.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	log.Debugf("[JobQueue] Enqueued %s job %s", jobType, job.ID)
	return job, nil
}

// dequeueJob moves the oldest pending id to the processing list. It
// returns redis.Nil when nothing arrived within the poll timeout.
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	id, err := q.client.BLMove(ctx, KeyPending, KeyProcessing, "RIGHT", "LEFT", pollTimeout).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.GetJob(ctx, id)
	if err != nil {
		q.client.LRem(ctx, KeyProcessing, 1, id)
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	if err := q.saveJob(ctx, job); err != nil {
		log.Warnf("[JobQueue] Saving job %s failed: %v", job.ID, err)
	}

	var err error
	if h, ok := q.handler(job.Type); ok {
		err = h(ctx, job)
	} else {
		err = fmt.Errorf("no handler for job type %q", job.Type)
	}

	if err == nil {
		job.MarkAsCompleted()
		q.finish(ctx, job)
		return
	}

	job.MarkAsFailed(err.Error())
	if job.IsRetryable() {
		job.MarkAsRetrying()
		delay := q.backoff(job.RetryCount)
		log.Warnf("[JobQueue] Job %s (%s) failed, retry %d/%d in %s: %v", job.ID, job.Type, job.RetryCount, job.MaxRetries, delay, err)
		if serr := q.schedule(ctx, job, time.Now().Add(delay)); serr != nil {
			log.Errorf("[JobQueue] Scheduling retry of job %s failed: %v", job.ID, serr)
		}
		return
	}
	log.Errorf("[JobQueue] Job %s (%s) failed for good: %v", job.ID, job.Type, err)
	q.finish(ctx, job)
}

func (q *Queue) saveJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, KeyJob+job.ID, data, JobTTL).Err()
}

// finish stores a completed or failed job and counts it.
func (q *Queue) finish(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Encoding job %s failed: %v", job.ID, err)
		return
	}
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyJob+job.ID, data, JobTTL)
		p.LRem(ctx, KeyProcessing, 1, job.ID)
		p.HIncrBy(ctx, KeyStats, string(job.Status), 1)
		return nil
	})
	if err != nil {
		log.Errorf("[JobQueue] Finishing job %s failed: %v", job.ID, err)
	}
}

// schedule parks the job in the delayed set until at.
func (q *Queue) schedule(ctx context.Context, job *Job, at time.Time) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyJob+job.ID, data, JobTTL)
		p.LRem(ctx, KeyProcessing, 1, job.ID)
		p.ZAdd(ctx, KeyDelayed, redis.Z{Score: float64(at.UnixMilli()), Member: job.ID})
		return nil
	})
	return err
}

// promoteDue moves delayed jobs whose time has come back to pending.
func (q *Queue) promoteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, KeyDelayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, id := range ids {
		// Only the caller that removes the entry requeues it.
		n, err := q.client.ZRem(ctx, KeyDelayed, id).Result()
		if err != nil {
			return moved, err
		}
		if n == 0 {
			continue
		}
		if err := q.client.LPush(ctx, KeyPending, id).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// sweepStuck fails jobs that have been processing for longer than
// StuckAfter and drops ids whose job data expired.
func (q *Queue) sweepStuck(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.LRange(ctx, KeyProcessing, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			q.client.LRem(ctx, KeyProcessing, 1, id)
			continue
		}
		if err != nil {
			return recovered, err
		}
		if job.Status != JobStatusProcessing || job.ProcessedAt == nil || now.Sub(*job.ProcessedAt) < StuckAfter {
			continue
		}
		job.MarkAsFailed("processing timed out")
		if job.IsRetryable() {
			job.MarkAsRetrying()
			err = q.schedule(ctx, job, now)
		} else {
			q.finish(ctx, job)
		}
		if err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// RetryJob puts a failed job back into the pending list with its attempts
// reset.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != JobStatusFailed {
		return fmt.Errorf("job %s is %s, only failed jobs can be retried", jobID, job.Status)
	}
	job.Status = JobStatusPending
	job.RetryCount = 0
	job.ErrorMsg = ""
	job.UpdatedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyJob+job.ID, data, JobTTL)
		p.LPush(ctx, KeyPending, job.ID)
		return nil
	})
	return err
}

// GetJob loads one job by id.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	if q.client == nil {
		return nil, ErrNoRedis
	}
	data, err := q.client.Get(ctx, KeyJob+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// GetJobStats counts queued jobs per state. Completed and failed are
// totals since the stats key was created.
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	if q.client == nil {
		return nil, ErrNoRedis
	}
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, KeyPending)
	processing := pipe.LLen(ctx, KeyProcessing)
	delayed := pipe.ZCard(ctx, KeyDelayed)
	totals := pipe.HGetAll(ctx, KeyStats)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	stats := map[JobStatus]int64{
		JobStatusPending:    pending.Val(),
		JobStatusProcessing: processing.Val(),
		JobStatusRetrying:   delayed.Val(),
	}
	for _, status := range []JobStatus{JobStatusCompleted, JobStatusFailed} {
		n, _ := strconv.ParseInt(totals.Val()[string(status)], 10, 64)
		stats[status] = n
	}
	return stats, nil
}

// ListJobs returns up to limit stored jobs, newest first.
func (q *Queue) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if q.client == nil {
		return nil, ErrNoRedis
	}
	var keys []string
	iter := q.client.Scan(ctx, 0, KeyJob+"*", listScanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(keys))
	for start := 0; start < len(keys); start += listScanBatch {
		end := min(start+listScanBatch, len(keys))
		values, err := q.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			var job Job
			if err := json.Unmarshal([]byte(s), &job); err != nil {
				continue
			}
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, KeyPending).Result()
}

func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, KeyProcessing).Result()
}

func (q *Queue) GetDelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, KeyDelayed).Result()
}
