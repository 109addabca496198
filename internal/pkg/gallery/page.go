package gallery

// ItemsPerPage is the fixed page size of the client gallery.
const ItemsPerPage = 40

// ViewState is the sort and pagination part of a session.
type ViewState struct {
	Sort    SortOption `json:"sort"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

// DefaultViewState returns the state a new session starts with.
func DefaultViewState() ViewState {
	return ViewState{Sort: DefaultSort, Page: 1, PerPage: ItemsPerPage}
}

func normalizePerPage(perPage int) int {
	if perPage <= 0 {
		return ItemsPerPage
	}
	return perPage
}

// TotalPages returns ceil(n/perPage) and never less than 1.
func TotalPages(n, perPage int) int {
	perPage = normalizePerPage(perPage)
	if n <= 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// PageSlice returns the photos of the 1-based page. Pages outside the valid
// range yield an empty slice.
func PageSlice(sorted []Photo, page, perPage int) []Photo {
	perPage = normalizePerPage(perPage)
	if page < 1 {
		return []Photo{}
	}
	start := (page - 1) * perPage
	if start >= len(sorted) {
		return []Photo{}
	}
	end := start + perPage
	if end > len(sorted) {
		end = len(sorted)
	}
	out := make([]Photo, end-start)
	copy(out, sorted[start:end])
	return out
}

// PageInRange reports whether page can be shown for n photos.
func PageInRange(page, n, perPage int) bool {
	return page >= 1 && page <= TotalPages(n, perPage)
}

// Range is the "showing From-To of Total" counter. From and To are 1-based
// and both zero for an empty catalog.
type Range struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// DisplayRange computes the counter shown above the grid.
func DisplayRange(page, perPage, n int) Range {
	perPage = normalizePerPage(perPage)
	if n <= 0 || !PageInRange(page, n, perPage) {
		return Range{Total: maxInt(n, 0)}
	}
	from := (page-1)*perPage + 1
	to := page * perPage
	if to > n {
		to = n
	}
	return Range{From: from, To: to, Total: n}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Deriver memoizes the sorted list of a catalog. The cached list is only
// recomputed when the catalog version or the sort option changes.
type Deriver struct {
	version uint64
	sort    SortOption
	sorted  []Photo
	valid   bool

	computations int
}

// Sorted returns the catalog sorted by opt. Callers must not modify the
// returned slice.
func (d *Deriver) Sorted(c *Catalog, opt SortOption) []Photo {
	if d.valid && d.version == c.Version() && d.sort == opt {
		return d.sorted
	}
	d.sorted = SortPhotos(c.Photos(), opt)
	d.version = c.Version()
	d.sort = opt
	d.valid = true
	d.computations++
	return d.sorted
}

// Computations returns how many times the sorted list has been rebuilt.
func (d *Deriver) Computations() int {
	return d.computations
}

// Reset drops the cached list.
func (d *Deriver) Reset() {
	*d = Deriver{computations: d.computations}
}
