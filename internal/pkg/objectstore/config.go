package objectstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

// Config holds the S3 compatible bucket configuration (Cloudflare R2,
// Backblaze B2, AWS S3).
type Config struct {
	Endpoint        string // empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	PublicURLBase   string
	Folder          string
}

// LoadConfig loads the bucket configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Endpoint:        env.GetEnv("R2_ENDPOINT", ""),
		AccessKeyID:     env.GetEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("R2_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("R2_REGION", "auto"),
		BucketName:      env.GetEnv("R2_BUCKET_NAME", ""),
		PublicURLBase:   strings.TrimRight(env.GetEnv("R2_PUBLIC_URL_BASE", ""), "/"),
		Folder:          env.GetEnv("R2_FOLDER", "events"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required fields
func (c *Config) Validate() error {
	switch {
	case c.AccessKeyID == "":
		return errors.New("R2_ACCESS_KEY_ID is required")
	case c.SecretAccessKey == "":
		return errors.New("R2_SECRET_ACCESS_KEY is required")
	case c.BucketName == "":
		return errors.New("R2_BUCKET_NAME is required")
	case c.PublicURLBase == "":
		return errors.New("R2_PUBLIC_URL_BASE is required")
	}
	return nil
}

var (
	whitespace   = regexp.MustCompile(`\s+`)
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	defaultCName = "photo"
)

// SanitizeFileName replaces whitespace with underscores and drops every
// character outside [a-zA-Z0-9_.-].
func SanitizeFileName(name string) string {
	clean := unsafeChars.ReplaceAllString(whitespace.ReplaceAllString(name, "_"), "")
	if clean == "" || clean == "." || clean == ".." {
		return defaultCName
	}
	return clean
}

// ObjectKey builds "<folder>/<unix millis>-<sanitized name>".
func ObjectKey(folder string, now time.Time, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%d-%s", folder, now.UnixMilli(), SanitizeFileName(name))
}

// EventFolder returns the folder photos of an event are stored under.
func (c *Config) EventFolder(eventUUID string) string {
	base := strings.Trim(c.Folder, "/")
	if base == "" {
		return eventUUID
	}
	return base + "/" + eventUUID
}

// PublicURL returns the public address of key.
func (c *Config) PublicURL(key string) string {
	return c.PublicURLBase + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL strips the public base from a URL. Values that are not under
// the base are returned unchanged, so keys pass through as well.
func (c *Config) KeyFromURL(u string) string {
	return strings.TrimPrefix(u, c.PublicURLBase+"/")
}
