package gallery

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrStaleLogin    = errors.New("login superseded by a newer request")
	ErrUnknownPhoto  = errors.New("photo is not part of the active event")
	ErrNoActiveEvent = errors.New("no active event")
	ErrSessionClosed = errors.New("gallery session closed")
	ErrEventMismatch = errors.New("catalog belongs to a different event")
)

// LoginTicket identifies one login attempt. Only the ticket handed out by the
// most recent BeginLogin may install a catalog.
type LoginTicket struct {
	Generation uint64
	Code       string
}

// Session owns the gallery state of one visitor: the active event and
// catalog, the selection, the sort/page view and the lightbox. Every method
// locks the session, so transitions run one at a time to completion.
type Session struct {
	mu sync.Mutex

	event      *Event
	catalog    *Catalog
	selection  Selection
	view       ViewState
	lightbox   Navigator
	deriver    Deriver
	shownSize  int
	generation uint64
	loading    bool
	loginErr   error
	disposed   bool
	lastSeen   time.Time

	fx Effects
}

// NewSession creates an empty session. A nil fx records effects in an
// EffectRecorder that TakeEffects drains.
func NewSession(fx Effects) *Session {
	if fx == nil {
		fx = &EffectRecorder{}
	}
	return &Session{
		catalog:   EmptyCatalog(),
		selection: DeselectAll(),
		view:      DefaultViewState(),
		lightbox:  NewNavigator(),
		lastSeen:  time.Now(),
		fx:        fx,
	}
}

// BeginLogin starts a login for code and invalidates every earlier ticket.
func (s *Session) BeginLogin(code string) LoginTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.generation++
	s.loading = true
	s.loginErr = nil
	return LoginTicket{Generation: s.generation, Code: code}
}

// CompleteLogin installs the event and its photos if t is still the current
// ticket. The selection is emptied and the view starts on page 1.
func (s *Session) CompleteLogin(t LoginTicket, event Event, photos []Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrSessionClosed
	}
	if t.Generation != s.generation {
		return ErrStaleLogin
	}
	s.touch()
	s.lightbox.Close(s.fx)
	ev := event
	s.event = &ev
	s.catalog = NewCatalog(photos)
	s.selection = DeselectAll()
	s.view = DefaultViewState()
	s.shownSize = s.catalog.Len()
	s.loading = false
	s.loginErr = nil
	return nil
}

// FailLogin records err for the current ticket. Stale tickets are ignored.
func (s *Session) FailLogin(t LoginTicket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || t.Generation != s.generation {
		return false
	}
	s.loading = false
	s.loginErr = err
	return true
}

// Logout drops the event, catalog and selection. In-flight logins are
// invalidated.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.reset()
}

func (s *Session) reset() {
	s.lightbox.Close(s.fx)
	s.generation++
	s.event = nil
	s.catalog = EmptyCatalog()
	s.selection = DeselectAll()
	s.view = DefaultViewState()
	s.deriver.Reset()
	s.shownSize = 0
	s.loading = false
	s.loginErr = nil
}

// Dispose releases every resource the session holds. The session rejects
// logins afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.reset()
	s.disposed = true
}

// Refresh swaps in a new photo list for the active event, e.g. after the
// photographer renamed or deleted photos. Selected ids that disappeared are
// dropped and the lightbox stays on the same photo when possible.
func (s *Session) Refresh(event Event, photos []Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return ErrNoActiveEvent
	}
	if s.event.ID != event.ID {
		return ErrEventMismatch
	}
	s.touch()
	current, hasCurrent := s.lightbox.Current(s.sorted())
	ev := event
	s.event = &ev
	s.catalog = NewCatalog(photos)
	s.selection = s.selection.Prune(s.catalog)
	sorted := s.sorted()
	if hasCurrent {
		s.lightbox.Retarget(sorted, current.ID, s.fx)
	}
	s.syncPage()
	return nil
}

// SetSort changes the sort option and resets the page to 1 when it differs.
func (s *Session) SetSort(opt SortOption) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if opt == s.view.Sort || !opt.Valid() {
		return false
	}
	current, hasCurrent := s.lightbox.Current(s.sorted())
	s.view.Sort = opt
	s.view.Page = 1
	if hasCurrent {
		s.lightbox.Retarget(s.sorted(), current.ID, s.fx)
	}
	return true
}

// SetPage moves to page if it is within [1, TotalPages]. Out of range
// requests and the current page leave the view unchanged.
func (s *Session) SetPage(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.syncPage()
	if page == s.view.Page || !PageInRange(page, s.catalog.Len(), s.view.PerPage) {
		return false
	}
	s.view.Page = page
	s.fx.ScrollToTop()
	return true
}

// Toggle flips the selection of id. This is the only way the selection of a
// single photo changes.
func (s *Session) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.toggle(id)
}

func (s *Session) toggle(id string) (bool, error) {
	if s.event == nil {
		return false, ErrNoActiveEvent
	}
	if !s.catalog.Contains(id) {
		return false, ErrUnknownPhoto
	}
	s.selection = s.selection.Toggle(id)
	return s.selection.Has(id), nil
}

// SelectAll selects every photo of the catalog.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selection = SelectAll(s.catalog)
}

// DeselectAll empties the selection.
func (s *Session) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selection = DeselectAll()
}

// Selection returns the current selection value.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// OpenLightbox shows the photo with id at its position in the full sorted
// list, independent of the current page.
func (s *Session) OpenLightbox(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.lightbox.Open(s.sorted(), id, s.fx)
}

// NextPhoto moves the lightbox forward.
func (s *Session) NextPhoto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.lightbox.Next(s.sorted(), s.fx)
}

// PrevPhoto moves the lightbox back.
func (s *Session) PrevPhoto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.lightbox.Prev(s.sorted(), s.fx)
}

// CloseLightbox closes the lightbox.
func (s *Session) CloseLightbox() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.lightbox.Close(s.fx)
}

// LeaveGallery is called when the visitor navigates away from the grid.
func (s *Session) LeaveGallery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightbox.Close(s.fx)
}

// ToggleCurrent toggles the photo under the lightbox cursor. The cursor does
// not move.
func (s *Session) ToggleCurrent() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.toggleCurrent()
}

func (s *Session) toggleCurrent() (bool, error) {
	p, ok := s.lightbox.Current(s.sorted())
	if !ok {
		return false, nil
	}
	return s.toggle(p.ID)
}

// HandleKey applies a key press to the open lightbox. Keys are ignored while
// the lightbox is closed.
func (s *Session) HandleKey(key string) (Action, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lightbox.IsOpen() {
		return ActionNone, false, nil
	}
	s.touch()
	action, preventDefault := KeyAction(key)
	var err error
	sorted := s.sorted()
	switch action {
	case ActionClose:
		s.lightbox.Close(s.fx)
	case ActionNext:
		s.lightbox.Next(sorted, s.fx)
	case ActionPrev:
		s.lightbox.Prev(sorted, s.fx)
	case ActionToggle:
		_, err = s.toggleCurrent()
	}
	return action, preventDefault, err
}

// Review returns the selected photos in the current sort order.
func (s *Session) Review() []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.selection.Filter(s.sorted())
}

// Event returns the active event.
func (s *Session) Event() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return Event{}, false
	}
	return *s.event, true
}

// TakeEffects drains the effects recorded since the last call. It returns
// nil when the session was created with a custom Effects implementation.
func (s *Session) TakeEffects() []Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.fx.(*EffectRecorder); ok {
		return r.Take()
	}
	return nil
}

// LastSeen returns the time of the last state transition.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SortComputations exposes how often the sorted list was rebuilt.
func (s *Session) SortComputations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deriver.Computations()
}

func (s *Session) touch() {
	s.lastSeen = time.Now()
}

func (s *Session) sorted() []Photo {
	return s.deriver.Sorted(s.catalog, s.view.Sort)
}

// syncPage resets the page to 1 when the catalog size changed since the last
// view or the page no longer exists.
func (s *Session) syncPage() {
	n := s.catalog.Len()
	if n != s.shownSize {
		s.view.Page = 1
		s.shownSize = n
	}
	if !PageInRange(s.view.Page, n, s.view.PerPage) {
		s.view.Page = 1
	}
}

// Item is one grid cell.
type Item struct {
	Photo    Photo `json:"photo"`
	Selected bool  `json:"selected"`
}

// LightboxView describes the open lightbox.
type LightboxView struct {
	LightboxState
	Photo    *Photo `json:"photo,omitempty"`
	Selected bool   `json:"selected"`
	Total    int    `json:"total"`
}

// Snapshot is a value copy of everything a view needs.
type Snapshot struct {
	LoggedIn      bool         `json:"logged_in"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
	Event         *Event       `json:"event,omitempty"`
	Sort          SortOption   `json:"sort"`
	Page          int          `json:"page"`
	PerPage       int          `json:"per_page"`
	TotalPages    int          `json:"total_pages"`
	Range         Range        `json:"range"`
	Items         []Item       `json:"items"`
	SelectedIDs   []string     `json:"selected_ids"`
	SelectedCount int          `json:"selected_count"`
	TotalPhotos   int          `json:"total_photos"`
	Lightbox      LightboxView `json:"lightbox"`
}

// HasPrev reports whether a previous page exists.
func (v Snapshot) HasPrev() bool { return v.Page > 1 }

// HasNext reports whether a next page exists.
func (v Snapshot) HasNext() bool { return v.Page < v.TotalPages }

// PageNumbers lists 1..TotalPages for the pager.
func (v Snapshot) PageNumbers() []int {
	out := make([]int, v.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Snapshot produces the current view. Errors recorded by FailLogin are
// rendered through errMessage.
func (s *Session) Snapshot(errMessage func(error) string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncPage()

	sorted := s.sorted()
	page := PageSlice(sorted, s.view.Page, s.view.PerPage)
	items := make([]Item, len(page))
	for i, p := range page {
		items[i] = Item{Photo: p, Selected: s.selection.Has(p.ID)}
	}

	snap := Snapshot{
		LoggedIn:      s.event != nil,
		Loading:       s.loading,
		Sort:          s.view.Sort,
		Page:          s.view.Page,
		PerPage:       s.view.PerPage,
		TotalPages:    TotalPages(len(sorted), s.view.PerPage),
		Range:         DisplayRange(s.view.Page, s.view.PerPage, len(sorted)),
		Items:         items,
		SelectedIDs:   s.selection.IDs(),
		SelectedCount: s.selection.Len(),
		TotalPhotos:   len(sorted),
		Lightbox: LightboxView{
			LightboxState: s.lightbox.State(),
			Total:         len(sorted),
		},
	}
	if s.event != nil {
		ev := *s.event
		snap.Event = &ev
	}
	if s.loginErr != nil {
		if errMessage != nil {
			snap.Error = errMessage(s.loginErr)
		} else {
			snap.Error = s.loginErr.Error()
		}
	}
	if p, ok := s.lightbox.Current(sorted); ok {
		snap.Lightbox.Photo = &p
		snap.Lightbox.Selected = s.selection.Has(p.ID)
	}
	return snap
}
