package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// LocalStore keeps objects on disk below Root and serves them from
// URLBase. It is used in development when no bucket is configured.
type LocalStore struct {
	Root    string
	URLBase string
	now     func() time.Time
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates root if needed
func NewLocalStore(root, urlBase string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalStore{Root: root, URLBase: strings.TrimRight(urlBase, "/"), now: time.Now}, nil
}

func (s *LocalStore) Bucket() string {
	return "local"
}

func (s *LocalStore) key(keyOrURL string) string {
	return strings.TrimPrefix(keyOrURL, s.URLBase+"/")
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", errors.New("empty key")
	}
	return filepath.Join(s.Root, clean), nil
}

func (s *LocalStore) Upload(ctx context.Context, r io.Reader, size int64, name, contentType, folder string) (*UploadResult, error) {
	if contentType == "" {
		contentType = getContentType(name)
	}
	return s.Put(ctx, ObjectKey(folder, s.now(), name), r, size, contentType)
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*UploadResult, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}
	return &UploadResult{
		Key:         key,
		URL:         s.URLBase + "/" + key,
		Size:        n,
		ContentType: contentType,
		UploadedAt:  s.now(),
	}, nil
}

func (s *LocalStore) Get(ctx context.Context, keyOrURL string) (io.ReadCloser, error) {
	p, err := s.path(s.key(keyOrURL))
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *LocalStore) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	p, err := s.path(s.key(keyOrURL))
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStore) Delete(ctx context.Context, keyOrURL string) error {
	key := s.key(keyOrURL)
	p, err := s.path(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("[ObjectStore] Failed to delete %s: %v", key, err)
		return &DeleteError{Key: key, Err: err}
	}
	return nil
}

// PresignUpload is not supported on disk; the admin UI falls back to
// server side uploads.
func (s *LocalStore) PresignUpload(ctx context.Context, name, contentType, folder string) (*PresignedUpload, error) {
	return nil, errors.New("direct uploads are not available for local storage")
}

// New returns a bucket client when R2 is configured and a LocalStore
// below localRoot otherwise.
func New(ctx context.Context, localRoot, localURLBase string) (Store, *Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		log.Warnf("[ObjectStore] Bucket not configured (%v), using local storage in %s", err, localRoot)
		store, lerr := NewLocalStore(localRoot, localURLBase)
		return store, nil, lerr
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return client, cfg, nil
}
