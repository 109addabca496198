package controllers

import (
	"context"
	"time"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/draft"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
	"github.com/ManuelReschke/PixelProof/internal/pkg/statistics"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
	"github.com/ManuelReschke/PixelProof/internal/pkg/uploadqueue"
)

// DefaultLoginTimeout bounds the catalog load of one gallery login.
const DefaultLoginTimeout = 15 * time.Second

// PhotoJobs queues the background work for photos.
type PhotoJobs interface {
	EnqueuePhotoProcessing(photo *models.Photo) (*jobqueue.Job, error)
	EnqueueStorageDelete(photos []models.Photo) int
}

// JobAdmin is the job queue surface of the admin jobs page.
type JobAdmin interface {
	ListJobs(ctx context.Context, limit int) ([]jobqueue.Job, error)
	GetJobStats(ctx context.Context) (map[jobqueue.JobStatus]int64, error)
	RetryJob(ctx context.Context, jobID string) error
}

// Dependencies are the collaborators the handlers work with. They are set
// once at startup through Initialize.
type Dependencies struct {
	Repos        *repository.Repositories
	Registry     *gallery.Registry
	Catalog      catalog.Source
	Submissions  submission.Sink
	Drafts       draft.Generator
	Store        objectstore.Store
	StoreConfig  *objectstore.Config
	Uploads      *uploadqueue.Queue
	Jobs         PhotoJobs
	JobAdmin     JobAdmin
	Stats        *statistics.Service
	Cache        repository.CacheRepository
	LoginTimeout time.Duration
	GrantSecret  string

	// CountView records one gallery visit of an event.
	CountView func(eventID uint)
	// InvalidateCatalog drops cached listings after photos changed.
	InvalidateCatalog func(code string)
}

var deps = &Dependencies{}

// Initialize installs the handler dependencies. Missing optional hooks are
// replaced with no-ops.
func Initialize(d *Dependencies) {
	if d.LoginTimeout <= 0 {
		d.LoginTimeout = DefaultLoginTimeout
	}
	if d.Registry == nil {
		d.Registry = gallery.NewRegistry(0)
	}
	if d.Drafts == nil {
		d.Drafts = draft.FallbackGenerator{}
	}
	if d.Submissions == nil {
		d.Submissions = submission.NoopSink{}
	}
	if d.Uploads == nil {
		d.Uploads = uploadqueue.New(uploadqueue.DefaultConcurrency)
	}
	if d.CountView == nil {
		d.CountView = func(uint) {}
	}
	if d.InvalidateCatalog == nil {
		d.InvalidateCatalog = func(string) {}
	}
	deps = d
}

// GetDependencies returns what Initialize installed
func GetDependencies() *Dependencies {
	return deps
}
