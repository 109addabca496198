package statistics

import (
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/cache"
)

const (
	CacheKeyDashboard = "statistics:dashboard"
	CacheExpiration   = 5 * time.Minute
	RecentLimit       = 5
)

// DashboardData is shown on the admin start page
type DashboardData struct {
	TotalEvents       int64               `json:"total_events"`
	TotalPhotos       int64               `json:"total_photos"`
	TotalSubmissions  int64               `json:"total_submissions"`
	TotalViews        int64               `json:"total_views"`
	StorageBytes      int64               `json:"storage_bytes"`
	RecentSubmissions []models.Submission `json:"recent_submissions"`
	GeneratedAt       time.Time           `json:"generated_at"`
}

// HumanStorage is the stored volume for display
func (d DashboardData) HumanStorage() string {
	return humanize.Bytes(uint64(d.StorageBytes))
}

// Since is the age of the numbers for display, e.g. "2 minutes ago"
func (d DashboardData) Since() string {
	return humanize.Time(d.GeneratedAt)
}

// Store caches JSON values
type Store interface {
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Delete(key string) error
}

type redisStore struct{}

func (redisStore) SetJSON(key string, value interface{}, exp time.Duration) error {
	return cache.SetJSON(key, value, exp)
}
func (redisStore) GetJSON(key string, dest interface{}) error { return cache.GetJSON(key, dest) }
func (redisStore) Delete(key string) error                    { return cache.Delete(key) }

// Service computes dashboard statistics and caches them
type Service struct {
	repos *repository.Repositories
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

// NewService creates a service caching in Redis. store may be nil.
func NewService(repos *repository.Repositories, store Store) *Service {
	if store == nil {
		store = redisStore{}
	}
	return &Service{repos: repos, store: store, now: time.Now}
}

// Dashboard returns the cached statistics, computing them when the cache
// is empty or unreachable.
func (s *Service) Dashboard() (*DashboardData, error) {
	var data DashboardData
	if err := s.store.GetJSON(CacheKeyDashboard, &data); err == nil && !data.GeneratedAt.IsZero() {
		return &data, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := s.compute()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetJSON(CacheKeyDashboard, fresh, CacheExpiration); err != nil {
		log.Printf("Could not cache dashboard statistics: %v", err)
	}
	return fresh, nil
}

// Invalidate drops the cached statistics
func (s *Service) Invalidate() {
	if err := s.store.Delete(CacheKeyDashboard); err != nil {
		log.Printf("Could not invalidate dashboard statistics: %v", err)
	}
}

func (s *Service) compute() (*DashboardData, error) {
	var (
		d   = &DashboardData{GeneratedAt: s.now()}
		err error
	)
	if d.TotalEvents, err = s.repos.Event.Count(); err != nil {
		return nil, err
	}
	if d.TotalPhotos, err = s.repos.Photo.Count(); err != nil {
		return nil, err
	}
	if d.TotalSubmissions, err = s.repos.Submission.Count(); err != nil {
		return nil, err
	}
	if d.TotalViews, err = s.repos.Event.TotalViews(); err != nil {
		return nil, err
	}
	if d.StorageBytes, err = s.repos.Photo.TotalSize(); err != nil {
		return nil, err
	}
	if d.RecentSubmissions, err = s.repos.Submission.GetRecent(RecentLimit); err != nil {
		return nil, err
	}
	return d, nil
}
