package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// DefaultPresignTTL is how long a direct upload URL stays valid.
const DefaultPresignTTL = 15 * time.Minute

// Uploader stores one file and returns where it ended up.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, name, contentType, folder string) (*UploadResult, error)
}

// Deleter removes a stored file. keyOrURL may be a public URL or a raw key.
type Deleter interface {
	Delete(ctx context.Context, keyOrURL string) error
}

// Store is the full object storage surface used by the admin side.
type Store interface {
	Uploader
	Deleter
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*UploadResult, error)
	Get(ctx context.Context, keyOrURL string) (io.ReadCloser, error)
	Exists(ctx context.Context, keyOrURL string) (bool, error)
	PresignUpload(ctx context.Context, name, contentType, folder string) (*PresignedUpload, error)
	Bucket() string
}

// UploadResult describes a stored object
type UploadResult struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
	UploadedAt  time.Time
}

// PresignedUpload lets the browser PUT a file straight into the bucket.
type PresignedUpload struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"upload_url"`
	PublicURL string            `json:"public_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client talks to an S3 compatible bucket.
type Client struct {
	api     objectAPI
	presign func(ctx context.Context, in *s3.PutObjectInput, ttl time.Duration) (string, error)
	config  *Config
	now     func() time.Time
}

var _ Store = (*Client)(nil)

// NewClient creates a bucket client from cfg
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// R2 and B2 need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})
	presigner := s3.NewPresignClient(s3Client)

	log.Infof("[ObjectStore] Initialized client for bucket: %s", cfg.BucketName)
	return &Client{
		api: s3Client,
		presign: func(ctx context.Context, in *s3.PutObjectInput, ttl time.Duration) (string, error) {
			req, err := presigner.PresignPutObject(ctx, in, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		config: cfg,
		now:    time.Now,
	}, nil
}

func newClientWithAPI(api objectAPI, cfg *Config) *Client {
	return &Client{api: api, config: cfg, now: time.Now}
}

// Bucket returns the configured bucket name
func (c *Client) Bucket() string {
	return c.config.BucketName
}

// Config returns the client configuration
func (c *Client) Config() *Config {
	return c.config
}

// Upload stores r under "<folder>/<unix millis>-<sanitized name>".
func (c *Client) Upload(ctx context.Context, r io.Reader, size int64, name, contentType, folder string) (*UploadResult, error) {
	key := ObjectKey(folder, c.now(), name)
	if contentType == "" {
		contentType = getContentType(name)
	}
	return c.Put(ctx, key, r, size, contentType)
}

// Put stores r under an explicit key.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*UploadResult, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": c.now().UTC().Format(time.RFC3339),
		},
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := c.api.PutObject(ctx, in); err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}

	log.Debugf("[ObjectStore] Uploaded %s (%d bytes)", key, size)
	return &UploadResult{
		Key:         key,
		URL:         c.config.PublicURL(key),
		Size:        size,
		ContentType: contentType,
		UploadedAt:  c.now(),
	}, nil
}

// Get opens a stored object for reading. The caller closes it.
func (c *Client) Get(ctx context.Context, keyOrURL string) (io.ReadCloser, error) {
	key := c.config.KeyFromURL(keyOrURL)
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return out.Body, nil
}

// Exists reports whether an object is present
func (c *Client) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	key := c.config.KeyFromURL(keyOrURL)
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s: %w", key, err)
	}
	return true, nil
}

// Delete removes an object. Failures are logged and returned as
// *DeleteError; callers are free to ignore them.
func (c *Client) Delete(ctx context.Context, keyOrURL string) error {
	key := c.config.KeyFromURL(keyOrURL)
	if key == "" {
		return nil
	}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Warnf("[ObjectStore] Failed to delete %s: %v", key, err)
		return &DeleteError{Key: key, Err: err}
	}
	log.Debugf("[ObjectStore] Deleted %s", key)
	return nil
}

// PresignUpload returns a URL the browser can PUT a file to directly.
func (c *Client) PresignUpload(ctx context.Context, name, contentType, folder string) (*PresignedUpload, error) {
	if c.presign == nil {
		return nil, errors.New("direct uploads are not available")
	}
	if contentType == "" {
		contentType = getContentType(name)
	}
	key := ObjectKey(folder, c.now(), name)
	url, err := c.presign(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, DefaultPresignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return &PresignedUpload{
		Key:       key,
		UploadURL: url,
		PublicURL: c.config.PublicURL(key),
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: c.now().Add(DefaultPresignTTL),
	}, nil
}

func getContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".heic":
		return "image/heic"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
