package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageBySniff(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
	png := []byte("\x89PNG\r\n\x1a\n0000")

	tests := []struct {
		name    string
		file    string
		head    []byte
		want    string
		wantErr error
	}{
		{"jpeg", "IMG_1.JPG", jpeg, "image/jpeg", nil},
		{"png", "a.png", png, "image/png", nil},
		{"unsniffable binary", "a.avif", []byte{0, 1, 2, 3, 4, 5}, "application/octet-stream", nil},
		{"bad extension", "a.exe", jpeg, "", ErrUnsupportedExtension},
		{"svg extension", "a.svg", []byte("<svg/>"), "", ErrUnsupportedExtension},
		{"html disguised", "a.jpg", []byte("<!DOCTYPE html><html>"), "", ErrHTMLContent},
		{"xml disguised", "a.png", []byte("<?xml version=\"1.0\"?><svg/>"), "", ErrSVGContent},
		{"text disguised", "a.gif", []byte("just some text"), "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImageBySniff(tt.file, tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
