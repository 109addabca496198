package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// SniffLen is how many leading bytes ValidateImageBySniff looks at.
const SniffLen = 512

var (
	ErrUnsupportedExtension = errors.New("only JPG, JPEG, PNG, GIF, WEBP, AVIF and BMP images are supported")
	ErrHTMLContent          = errors.New("invalid file type: HTML content is not allowed")
	ErrSVGContent           = errors.New("SVG/XML files are not supported")
	ErrUnsupportedType      = errors.New("the file type is not supported")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".bmp":  true,
	// SVG stays out until uploads are sanitized
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/bmp":  true,
}

// AllowedExtension reports whether filename has an accepted image extension.
func AllowedExtension(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// ValidateImageBySniff checks the provided filename (extension) and the first bytes (head)
// against a whitelist of image types. Returns detected mime or an error.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	if !AllowedExtension(filename) {
		return "", ErrUnsupportedExtension
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", ErrHTMLContent
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrSVGContent
	}

	// AVIF is not sniffed by net/http; trust the extension
	if detected == "application/octet-stream" {
		return detected, nil
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", ErrUnsupportedType
}
