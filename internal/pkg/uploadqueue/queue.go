package uploadqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
)

// Status of a queued upload
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

const (
	DefaultConcurrency  = 3
	DefaultTickInterval = 300 * time.Millisecond
	ProgressStep        = 10
	ProgressCeiling     = 90
)

// Result is what a finished upload produced.
type Result struct {
	PhotoUUID string
	URL       string
}

// UploadFunc performs the real upload of one item.
type UploadFunc func(ctx context.Context) (Result, error)

// Item is a snapshot of one upload.
type Item struct {
	ID          string    `json:"id"`
	EventID     uint      `json:"event_id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Progress    int       `json:"progress"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CORS        bool      `json:"cors,omitempty"`
	Direct      bool      `json:"direct,omitempty"`
	ObjectKey   string    `json:"object_key,omitempty"`
	PhotoUUID   string    `json:"photo_uuid,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HumanSize is the file size for display, e.g. "4.2 MB"
func (i Item) HumanSize() string {
	return humanize.Bytes(uint64(i.Size))
}

// Done reports whether the item reached a final state
func (i Item) Done() bool {
	return i.Status == StatusCompleted || i.Status == StatusError
}

type entry struct {
	Item
	stop chan struct{}
}

// Queue runs uploads with bounded concurrency and tracks their progress.
// The progress value is cosmetic: it advances on a timer while the upload
// is in flight and jumps to 100 when it returns.
type Queue struct {
	mu      sync.Mutex
	items   []*entry // newest first
	byID    map[string]*entry
	sem     chan struct{}
	tick    time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	onError func(Item, error)
}

// New creates a queue running at most concurrency uploads at once.
func New(concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		byID:   make(map[string]*entry),
		sem:    make(chan struct{}, concurrency),
		tick:   DefaultTickInterval,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnError registers a hook called for every failed item
func (q *Queue) OnError(fn func(Item, error)) {
	q.mu.Lock()
	q.onError = fn
	q.mu.Unlock()
}

func (q *Queue) insert(item Item) *entry {
	now := time.Now()
	item.ID = uuid.New().String()
	item.CreatedAt = now
	item.UpdatedAt = now
	e := &entry{Item: item, stop: make(chan struct{})}

	q.mu.Lock()
	q.items = append([]*entry{e}, q.items...)
	q.byID[e.ID] = e
	q.mu.Unlock()
	return e
}

// Add queues a server side upload and returns its initial snapshot.
func (q *Queue) Add(eventID uint, fileName string, size int64, contentType string, run UploadFunc) Item {
	e := q.insert(Item{
		EventID:     eventID,
		FileName:    fileName,
		Size:        size,
		ContentType: contentType,
		Status:      StatusPending,
	})
	snapshot := e.Item

	q.wg.Add(1)
	go q.process(e, run)
	return snapshot
}

// AddDirect tracks an upload the browser sends straight to the bucket.
// It finishes through Complete or Fail.
func (q *Queue) AddDirect(eventID uint, fileName string, size int64, contentType, objectKey string) Item {
	e := q.insert(Item{
		EventID:     eventID,
		FileName:    fileName,
		Size:        size,
		ContentType: contentType,
		Status:      StatusUploading,
		Direct:      true,
		ObjectKey:   objectKey,
	})
	snapshot := e.Item
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.animate(e)
	}()
	return snapshot
}

func (q *Queue) process(e *entry, run UploadFunc) {
	defer q.wg.Done()

	select {
	case q.sem <- struct{}{}:
	case <-q.ctx.Done():
		q.finish(e, Result{}, q.ctx.Err())
		return
	}
	defer func() { <-q.sem }()

	q.update(e, func(it *Item) { it.Status = StatusUploading })

	animDone := make(chan struct{})
	go func() {
		defer close(animDone)
		q.animate(e)
	}()

	res, err := q.run(run)
	q.finish(e, res, err)
	<-animDone
}

func (q *Queue) run(run UploadFunc) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[UploadQueue] Upload panicked: %v", r)
			err = errors.New("upload crashed")
		}
	}()
	return run(q.ctx)
}

// animate advances the cosmetic progress until the item stops.
func (q *Queue) animate(e *entry) {
	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.update(e, func(it *Item) {
				if it.Status == StatusUploading && it.Progress < ProgressCeiling {
					it.Progress += ProgressStep
				}
			})
		}
	}
}

func (q *Queue) update(e *entry, fn func(*Item)) {
	q.mu.Lock()
	fn(&e.Item)
	e.UpdatedAt = time.Now()
	q.mu.Unlock()
}

// finish moves e to its final state once; later calls are ignored.
func (q *Queue) finish(e *entry, res Result, err error) bool {
	q.mu.Lock()
	if e.Done() {
		q.mu.Unlock()
		return false
	}
	if err != nil {
		e.Status = StatusError
		e.Error = objectstore.UserMessage(err)
		var cors *objectstore.CORSError
		e.CORS = errors.As(err, &cors)
	} else {
		e.Status = StatusCompleted
		e.Progress = 100
		e.PhotoUUID = res.PhotoUUID
		e.URL = res.URL
	}
	e.UpdatedAt = time.Now()
	close(e.stop)
	item := e.Item
	hook := q.onError
	q.mu.Unlock()

	if err != nil {
		log.Warnf("[UploadQueue] %s failed: %v", item.FileName, err)
		if hook != nil {
			hook(item, err)
		}
	} else {
		log.Debugf("[UploadQueue] %s completed (%s)", item.FileName, item.HumanSize())
	}
	return true
}

// Complete finishes a direct upload
func (q *Queue) Complete(id string, res Result) bool {
	e := q.lookup(id)
	if e == nil {
		return false
	}
	return q.finish(e, res, nil)
}

// Fail finishes an upload with err
func (q *Queue) Fail(id string, err error) bool {
	e := q.lookup(id)
	if e == nil {
		return false
	}
	return q.finish(e, Result{}, err)
}

func (q *Queue) lookup(id string) *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byID[id]
}

// Get returns a snapshot of one item
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return Item{}, false
	}
	return e.Item, true
}

// List returns snapshots of the event's items, newest first. eventID 0
// lists everything.
func (q *Queue) List(eventID uint) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, 0, len(q.items))
	for _, e := range q.items {
		if eventID == 0 || e.EventID == eventID {
			out = append(out, e.Item)
		}
	}
	return out
}

// Summary counts items per status
type Summary struct {
	Total     int
	Pending   int
	Uploading int
	Completed int
	Failed    int
	Bytes     int64
}

// HumanBytes is the completed volume for display
func (s Summary) HumanBytes() string {
	return humanize.Bytes(uint64(s.Bytes))
}

// Summarize counts the event's items
func (q *Queue) Summarize(eventID uint) Summary {
	var s Summary
	for _, it := range q.List(eventID) {
		s.Total++
		switch it.Status {
		case StatusPending:
			s.Pending++
		case StatusUploading:
			s.Uploading++
		case StatusCompleted:
			s.Completed++
			s.Bytes += it.Size
		case StatusError:
			s.Failed++
		}
	}
	return s
}

// ClearCompleted drops completed items of the event and returns how many
// were removed. Failed and running items stay.
func (q *Queue) ClearCompleted(eventID uint) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	removed := 0
	for _, e := range q.items {
		if e.Status == StatusCompleted && (eventID == 0 || e.EventID == eventID) {
			delete(q.byID, e.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	return removed
}

// Wait blocks until every queued upload finished
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Stop cancels running uploads and waits for them
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}
