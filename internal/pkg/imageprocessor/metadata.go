package imageprocessor

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// Metadata is the EXIF data the gallery uses.
type Metadata struct {
	TakenAt     *time.Time
	CameraModel *string
}

// ExtractMetadata reads EXIF data from r. Images without EXIF yield an
// empty Metadata.
func ExtractMetadata(r io.Reader) Metadata {
	var meta Metadata

	x, err := exif.Decode(r)
	if err != nil {
		log.Debugf("[ImageProcessor] No EXIF data: %v", err)
		return meta
	}

	if m, err := x.Get(exif.Model); err == nil {
		if s, err := m.StringVal(); err == nil {
			if trimmed := strings.TrimSpace(strings.Trim(s, "\x00")); trimmed != "" {
				meta.CameraModel = &trimmed
			}
		}
	}

	if dt, err := x.DateTime(); err == nil && !dt.IsZero() {
		meta.TakenAt = &dt
	}

	return meta
}
