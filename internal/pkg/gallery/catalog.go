package gallery

import "sync/atomic"

// Photo is a single image of an event as seen by the gallery.
type Photo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Name         string `json:"name"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
	EventID      string `json:"event_id,omitempty"`
}

// Thumbnail returns the grid image URL, falling back to the full image.
func (p Photo) Thumbnail() string {
	if p.ThumbnailURL != "" {
		return p.ThumbnailURL
	}
	return p.URL
}

// Event identifies the active catalog of a client session.
type Event struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}

var catalogVersions atomic.Uint64

// Catalog is the immutable photo list loaded for one event. A new Catalog
// gets a new version, which is the identity the view derivation is keyed on.
type Catalog struct {
	photos  []Photo
	index   map[string]int
	version uint64
}

// NewCatalog copies photos into a fresh catalog. Duplicate ids keep their
// first occurrence.
func NewCatalog(photos []Photo) *Catalog {
	c := &Catalog{
		photos:  make([]Photo, 0, len(photos)),
		index:   make(map[string]int, len(photos)),
		version: catalogVersions.Add(1),
	}
	for _, p := range photos {
		if _, dup := c.index[p.ID]; dup {
			continue
		}
		c.index[p.ID] = len(c.photos)
		c.photos = append(c.photos, p)
	}
	return c
}

// EmptyCatalog returns a catalog without photos.
func EmptyCatalog() *Catalog {
	return NewCatalog(nil)
}

// Len returns the number of photos.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.photos)
}

// Version returns the catalog identity.
func (c *Catalog) Version() uint64 {
	if c == nil {
		return 0
	}
	return c.version
}

// Photos returns a copy of the photos in load order.
func (c *Catalog) Photos() []Photo {
	if c == nil {
		return nil
	}
	out := make([]Photo, len(c.photos))
	copy(out, c.photos)
	return out
}

// Contains reports whether id belongs to the catalog.
func (c *Catalog) Contains(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[id]
	return ok
}

// Get looks up a photo by id.
func (c *Catalog) Get(id string) (Photo, bool) {
	if c == nil {
		return Photo{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Photo{}, false
	}
	return c.photos[i], true
}

// IDs returns all photo ids in load order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.photos))
	for i, p := range c.photos {
		ids[i] = p.ID
	}
	return ids
}
