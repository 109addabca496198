package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

const driveBaseURL = "https://www.googleapis.com/drive/v3"

// DriveSource reads public Google Drive folders. The folder id is the event
// code.
type DriveSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDriveSource creates a Drive source. baseURL may be empty.
func NewDriveSource(apiKey, baseURL string, client *http.Client) *DriveSource {
	if baseURL == "" {
		baseURL = driveBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &DriveSource{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type driveFile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CreatedTime   string `json:"createdTime"`
	ThumbnailLink string `json:"thumbnailLink"`
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

func (s *DriveSource) get(ctx context.Context, op, rawURL string, dest interface{}) error {
	if s.apiKey == "" {
		return &FetchError{Op: op, Err: fmt.Errorf("GOOGLE_API_KEY is not set")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return ErrAccessDenied
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{Op: op, Err: fmt.Errorf("drive returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decode drive response: %w", err)}
	}
	return nil
}

// GetEventDetails implements EventLookup.
func (s *DriveSource) GetEventDetails(ctx context.Context, code string) (gallery.Event, error) {
	q := url.Values{}
	q.Set("fields", "id,name,createdTime")
	q.Set("key", s.apiKey)
	u := fmt.Sprintf("%s/files/%s?%s", s.baseURL, url.PathEscape(code), q.Encode())

	var f driveFile
	if err := s.get(ctx, "load folder", u, &f); err != nil {
		return gallery.Event{}, err
	}
	return gallery.Event{
		ID:        f.ID,
		Name:      f.Name,
		Code:      f.ID,
		CreatedAt: parseDriveTime(f.CreatedTime),
	}, nil
}

// GetPhotos implements PhotoListing.
func (s *DriveSource) GetPhotos(ctx context.Context, code string) ([]gallery.Photo, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed=false and mimeType contains 'image/'", strings.ReplaceAll(code, "'", `\'`)))
	q.Set("fields", "files(id, name, createdTime, thumbnailLink)")
	q.Set("pageSize", fmt.Sprint(MaxPhotos))
	q.Set("key", s.apiKey)
	u := fmt.Sprintf("%s/files?%s", s.baseURL, q.Encode())

	var list driveFileList
	if err := s.get(ctx, "list photos", u, &list); err != nil {
		return nil, err
	}

	photos := make([]gallery.Photo, 0, len(list.Files))
	for _, f := range list.Files {
		photos = append(photos, gallery.Photo{
			ID:           f.ID,
			URL:          fullSizeURL(f),
			ThumbnailURL: f.ThumbnailLink,
			Name:         f.Name,
			Timestamp:    parseDriveTime(f.CreatedTime),
			EventID:      code,
		})
	}
	return photos, nil
}

// fullSizeURL asks Drive for a large rendition of the thumbnail.
func fullSizeURL(f driveFile) string {
	if f.ThumbnailLink != "" {
		return strings.Replace(f.ThumbnailLink, "=s220", "=s1920", 1)
	}
	return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w1920", url.QueryEscape(f.ID))
}

func parseDriveTime(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
