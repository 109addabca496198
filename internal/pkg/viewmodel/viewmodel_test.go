package viewmodel

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

func TestLayout(t *testing.T) {
	l := Layout{SiteTitle: "PixelProof"}
	assert.Equal(t, "PixelProof", l.Title())
	assert.Empty(t, l.FlashType())

	l.Page = "Gallery"
	l.Msg = fiber.Map{"type": "error", "message": "nope"}
	assert.Equal(t, "Gallery | PixelProof", l.Title())
	assert.Equal(t, "error", l.FlashType())
	assert.Equal(t, "nope", l.FlashMessage())
}

func TestSortChoices(t *testing.T) {
	choices := SortChoices(gallery.SortDateNew)
	assert.Len(t, choices, len(gallery.SortOptions))
	for _, c := range choices {
		assert.Equal(t, c.Value == string(gallery.SortDateNew), c.Selected)
		assert.NotEmpty(t, c.Label)
	}
}
