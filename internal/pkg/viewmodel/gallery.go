package viewmodel

import (
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

// SortChoice is one entry of the sort dropdown.
type SortChoice struct {
	Value    string
	Label    string
	Selected bool
}

// SortChoices lists all sort options with current marked.
func SortChoices(current gallery.SortOption) []SortChoice {
	out := make([]SortChoice, 0, len(gallery.SortOptions))
	for _, opt := range gallery.SortOptions {
		out = append(out, SortChoice{Value: string(opt), Label: opt.Label(), Selected: opt == current})
	}
	return out
}

// Review is the data of the review page.
type Review struct {
	Event      gallery.Event
	Photos     []gallery.Photo
	ClientName string
	Notes      string
	AIMessage  string
	Error      string
}

// Delivery is shown after a successful submission.
type Delivery struct {
	Reference     string
	PhotoCount    int
	ClipboardText string
	WhatsAppURL   string
}
