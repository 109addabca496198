package gallery

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption selects the order of the gallery.
type SortOption string

const (
	SortNameAsc  SortOption = "name_asc"
	SortNameDesc SortOption = "name_desc"
	SortDateNew  SortOption = "date_new"
	SortDateOld  SortOption = "date_old"

	DefaultSort = SortNameAsc
)

// SortOptions lists the options in display order.
var SortOptions = []SortOption{SortNameAsc, SortNameDesc, SortDateNew, SortDateOld}

// ParseSortOption converts a request value into a SortOption. The empty
// string yields DefaultSort.
func ParseSortOption(s string) (SortOption, error) {
	if s == "" {
		return DefaultSort, nil
	}
	opt := SortOption(s)
	if !opt.Valid() {
		return "", fmt.Errorf("unknown sort option %q", s)
	}
	return opt, nil
}

// Valid reports whether o is one of the known options.
func (o SortOption) Valid() bool {
	switch o {
	case SortNameAsc, SortNameDesc, SortDateNew, SortDateOld:
		return true
	}
	return false
}

// Label returns the human readable name of the option.
func (o SortOption) Label() string {
	switch o {
	case SortNameAsc:
		return "Name (A-Z)"
	case SortNameDesc:
		return "Name (Z-A)"
	case SortDateNew:
		return "Newest"
	case SortDateOld:
		return "Oldest"
	}
	return string(o)
}

// collate.Collator is not safe for concurrent use.
var (
	nameCollatorMu sync.Mutex
	nameCollator   = collate.New(language.Und, collate.IgnoreCase)
)

// CompareNames orders two photo names with the fixed root-locale,
// case-insensitive collation used by the gallery.
func CompareNames(a, b string) int {
	nameCollatorMu.Lock()
	defer nameCollatorMu.Unlock()
	return nameCollator.CompareString(a, b)
}

// SortPhotos returns a sorted copy of photos. Ties keep their input order.
func SortPhotos(photos []Photo, opt SortOption) []Photo {
	out := make([]Photo, len(photos))
	copy(out, photos)

	switch opt {
	case SortNameAsc, SortNameDesc:
		keys := nameKeys(out)
		perm := identity(len(out))
		sort.SliceStable(perm, func(i, j int) bool {
			c := bytes.Compare(keys[perm[i]], keys[perm[j]])
			if opt == SortNameDesc {
				return c > 0
			}
			return c < 0
		})
		return permute(out, perm)
	case SortDateNew:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	case SortDateOld:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	}
	return out
}

// nameKeys precomputes collation keys so the comparator does not call the
// collator O(n log n) times.
func nameKeys(photos []Photo) [][]byte {
	nameCollatorMu.Lock()
	defer nameCollatorMu.Unlock()

	var buf collate.Buffer
	keys := make([][]byte, len(photos))
	for i, p := range photos {
		k := nameCollator.KeyFromString(&buf, p.Name)
		keys[i] = append([]byte(nil), k...)
		buf.Reset()
	}
	return keys
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

func permute(photos []Photo, perm []int) []Photo {
	out := make([]Photo, len(photos))
	for i, j := range perm {
		out[i] = photos[j]
	}
	return out
}
