package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const (
	// ThumbnailWidth is the grid thumbnail width; height follows the aspect ratio.
	ThumbnailWidth = 480
	WebPQuality    = 82
	ThumbnailDir   = "thumbs"
)

// Result of processing one uploaded photo.
type Result struct {
	Width                int
	Height               int
	Thumbnail            []byte
	ThumbnailContentType string
	Metadata             Metadata
}

// Process decodes an original, extracts its EXIF data and renders the grid
// thumbnail. The thumbnail is WebP when the encoder works and JPEG
// otherwise.
func Process(data []byte) (*Result, error) {
	meta := ExtractMetadata(bytes.NewReader(data))

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	res := &Result{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Metadata: meta,
	}

	thumb := img
	if res.Width > ThumbnailWidth {
		thumb = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encodeWebP(&buf, thumb); err != nil {
		log.Warnf("[ImageProcessor] WebP encoding failed, using JPEG: %v", err)
		buf.Reset()
		if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("error encoding thumbnail: %w", err)
		}
		res.ThumbnailContentType = "image/jpeg"
	} else {
		res.ThumbnailContentType = "image/webp"
	}
	res.Thumbnail = buf.Bytes()
	return res, nil
}

func encodeWebP(w io.Writer, img image.Image) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, WebPQuality)
	if err != nil {
		return fmt.Errorf("error creating encoder options: %w", err)
	}
	if err := webp.Encode(w, img, options); err != nil {
		return fmt.Errorf("error encoding WebP image: %w", err)
	}
	return nil
}

// ThumbnailKey derives the thumbnail object key from the original's key,
// e.g. "events/e1/17-a.jpg" -> "thumbs/events/e1/17-a.webp".
func ThumbnailKey(objectKey, contentType string) string {
	ext := ".webp"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(objectKey, path.Ext(objectKey))
	return path.Join(ThumbnailDir, base) + ext
}
