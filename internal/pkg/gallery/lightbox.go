package gallery

// ClosedIndex is the lightbox index while nothing is shown.
const ClosedIndex = -1

// Effect names a side effect the browser has to apply.
type Effect string

const (
	EffectScrollToTop  Effect = "scroll_to_top"
	EffectLockScroll   Effect = "lock_scroll"
	EffectUnlockScroll Effect = "unlock_scroll"
	EffectAttachKeys   Effect = "attach_keys"
	EffectDetachKeys   Effect = "detach_keys"
)

// Effects receives the side effects of gallery transitions.
type Effects interface {
	ScrollToTop()
	LockScroll()
	UnlockScroll()
	AttachKeys()
	DetachKeys()
}

// EffectRecorder collects effects until they are taken. The HTTP layer
// returns them to the page script, which applies them in order.
type EffectRecorder struct {
	effects []Effect
}

func (r *EffectRecorder) ScrollToTop()  { r.effects = append(r.effects, EffectScrollToTop) }
func (r *EffectRecorder) LockScroll()   { r.effects = append(r.effects, EffectLockScroll) }
func (r *EffectRecorder) UnlockScroll() { r.effects = append(r.effects, EffectUnlockScroll) }
func (r *EffectRecorder) AttachKeys()   { r.effects = append(r.effects, EffectAttachKeys) }
func (r *EffectRecorder) DetachKeys()   { r.effects = append(r.effects, EffectDetachKeys) }

// Take returns the recorded effects and empties the recorder.
func (r *EffectRecorder) Take() []Effect {
	out := r.effects
	r.effects = nil
	if out == nil {
		return []Effect{}
	}
	return out
}

// Count returns how often e has been recorded and not yet taken.
func (r *EffectRecorder) Count(e Effect) int {
	n := 0
	for _, x := range r.effects {
		if x == e {
			n++
		}
	}
	return n
}

// Action is a lightbox transition requested by a key.
type Action int

const (
	ActionNone Action = iota
	ActionClose
	ActionNext
	ActionPrev
	ActionToggle
)

func (a Action) String() string {
	switch a {
	case ActionClose:
		return "close"
	case ActionNext:
		return "next"
	case ActionPrev:
		return "prev"
	case ActionToggle:
		return "toggle"
	}
	return "none"
}

type keyBinding struct {
	action         Action
	preventDefault bool
}

var keyBindings = map[string]keyBinding{
	"Escape":     {ActionClose, false},
	"Esc":        {ActionClose, false},
	"ArrowRight": {ActionNext, false},
	"ArrowLeft":  {ActionPrev, false},
	" ":          {ActionToggle, true},
	"Space":      {ActionToggle, true},
	"Spacebar":   {ActionToggle, true},
	"Enter":      {ActionToggle, true},
}

// KeyAction maps a KeyboardEvent key to a lightbox action. preventDefault is
// true when the browser must not scroll or activate the focused element.
func KeyAction(key string) (Action, bool) {
	b, ok := keyBindings[key]
	if !ok {
		return ActionNone, false
	}
	return b.action, b.preventDefault
}

// LightboxKeys returns every key KeyAction handles with its preventDefault
// flag. The browser forwards exactly these keys.
func LightboxKeys() map[string]bool {
	out := make(map[string]bool, len(keyBindings))
	for key, b := range keyBindings {
		out[key] = b.preventDefault
	}
	return out
}

// LightboxState is the serializable lightbox view.
type LightboxState struct {
	Open  bool `json:"open"`
	Index int  `json:"index"`
}

// Navigator is the lightbox state machine over the full sorted list. It owns
// the scroll lock and the key listener: both are acquired when entering Open
// and released on every path out of it.
type Navigator struct {
	open  bool
	index int
}

// NewNavigator returns a closed navigator.
func NewNavigator() Navigator {
	return Navigator{index: ClosedIndex}
}

// State returns the current state.
func (n *Navigator) State() LightboxState {
	if !n.open {
		return LightboxState{Index: ClosedIndex}
	}
	return LightboxState{Open: true, Index: n.index}
}

// IsOpen reports whether a photo is shown.
func (n *Navigator) IsOpen() bool {
	return n.open
}

// Open shows the photo with id. It is a no-op when id is not in sorted.
// Opening while already open moves the cursor without re-acquiring effects.
func (n *Navigator) Open(sorted []Photo, id string, fx Effects) bool {
	idx := indexOf(sorted, id)
	if idx < 0 {
		return false
	}
	if !n.open {
		fx.LockScroll()
		fx.AttachKeys()
	}
	n.open = true
	n.index = idx
	return true
}

// Next advances with wraparound. The list length is read on every call.
func (n *Navigator) Next(sorted []Photo, fx Effects) bool {
	size, ok := n.prepare(sorted, fx)
	if !ok {
		return false
	}
	n.index = (n.index + 1) % size
	return true
}

// Prev goes back with wraparound.
func (n *Navigator) Prev(sorted []Photo, fx Effects) bool {
	size, ok := n.prepare(sorted, fx)
	if !ok {
		return false
	}
	n.index = (n.index - 1 + size) % size
	return true
}

// prepare clamps the cursor to a list that may have shrunk since Open and
// closes the lightbox when the list is empty.
func (n *Navigator) prepare(sorted []Photo, fx Effects) (int, bool) {
	if !n.open {
		return 0, false
	}
	size := len(sorted)
	if size == 0 {
		n.Close(fx)
		return 0, false
	}
	if n.index >= size {
		n.index = size - 1
	}
	if n.index < 0 {
		n.index = 0
	}
	return size, true
}

// Close returns to Closed and releases the scroll lock and key listener.
func (n *Navigator) Close(fx Effects) bool {
	if !n.open {
		return false
	}
	n.open = false
	n.index = ClosedIndex
	fx.UnlockScroll()
	fx.DetachKeys()
	return true
}

// Current returns the photo under the cursor.
func (n *Navigator) Current(sorted []Photo) (Photo, bool) {
	if !n.open || len(sorted) == 0 {
		return Photo{}, false
	}
	idx := n.index
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], true
}

// Retarget keeps the cursor on the photo with id after the list was
// re-sorted or replaced. When the photo is gone the cursor is clamped, and
// an empty list closes the lightbox.
func (n *Navigator) Retarget(sorted []Photo, id string, fx Effects) {
	if !n.open {
		return
	}
	if len(sorted) == 0 {
		n.Close(fx)
		return
	}
	if idx := indexOf(sorted, id); idx >= 0 {
		n.index = idx
		return
	}
	if n.index >= len(sorted) {
		n.index = len(sorted) - 1
	}
}

func indexOf(sorted []Photo, id string) int {
	for i, p := range sorted {
		if p.ID == id {
			return i
		}
	}
	return -1
}
