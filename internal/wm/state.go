package wm

import "sort"

// State is the authoritative, process-wide data model. It is owned
// exclusively by the core event loop goroutine (internal/loop) — per the
// spec's concurrency model there are no locks here; nothing outside the
// loop goroutine may read or write a State value.
type State struct {
	Displays map[DisplayID]*Display
	Windows  map[WindowID]*Window
	Ignored  map[WindowID]*IgnoredWindow

	Rules []Rule

	SavedTags map[DisplayID]TagMask // saved visible-tags for sleep/wake and disconnect/reconnect
	PrevTags  map[DisplayID]TagMask // previous visible-tags per display, for tag-view-last

	FocusedDisplay DisplayID

	DefaultLayout    string
	TagLayouts       map[Tag]string
	CursorWarp       CursorWarpMode
	OuterGap         Gap
	FocusedIntent    *FocusIntent
	FocusedWindowID  WindowID
	HasFocusedWindow bool
}

// NewState returns an empty, zero-value-safe State.
func NewState() *State {
	return &State{
		Displays:   make(map[DisplayID]*Display),
		Windows:    make(map[WindowID]*Window),
		Ignored:    make(map[WindowID]*IgnoredWindow),
		SavedTags:  make(map[DisplayID]TagMask),
		PrevTags:   make(map[DisplayID]TagMask),
		TagLayouts: make(map[Tag]string),
	}
}

// SortedDisplayIDs returns display ids in ascending order.
func (s *State) SortedDisplayIDs() []DisplayID {
	ids := make([]DisplayID, 0, len(s.Displays))
	for id := range s.Displays {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WindowsOnDisplay returns the managed windows assigned to d, in
// descending LastFocused order (the focus-stack order used for tiling
// and next/prev navigation).
func (s *State) WindowsOnDisplay(d DisplayID) []*Window {
	var out []*Window
	for _, w := range s.Windows {
		if w.DisplayID == d {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastFocused.After(out[j].LastFocused) })
	return out
}

// VisibleWindowsOnDisplay returns windows on d whose tags intersect the
// display's visible-tags and which are not hidden.
func (s *State) VisibleWindowsOnDisplay(d DisplayID) []*Window {
	disp, ok := s.Displays[d]
	if !ok {
		return nil
	}
	var out []*Window
	for _, w := range s.WindowsOnDisplay(d) {
		if w.Hidden() {
			continue
		}
		if w.Tags.Intersects(disp.VisibleTags) {
			out = append(out, w)
		}
	}
	return out
}

// TileableWindows returns the visible windows on d eligible for tiling:
// not floating, not fullscreen.
func TileableWindows(windows []*Window) []*Window {
	var out []*Window
	for _, w := range windows {
		if !w.Floating && !w.Fullscreen {
			out = append(out, w)
		}
	}
	return out
}

// FullscreenWindow returns the (at most one expected) fullscreen window
// among windows, or nil.
func FullscreenWindow(windows []*Window) *Window {
	for _, w := range windows {
		if w.Fullscreen {
			return w
		}
	}
	return nil
}

// FallbackDisplay picks the display a window should move to when its own
// display disappears: the main display (lowest id, by convention) if
// present, else the first by id.
func (s *State) FallbackDisplay(exclude DisplayID) (DisplayID, bool) {
	ids := s.SortedDisplayIDs()
	for _, id := range ids {
		if id != exclude {
			return id, true
		}
	}
	return 0, false
}

// Clone returns a deep-enough copy of s suitable for before/after event
// diffing (see events.go). Rule slices and maps are copied; Window and
// Display values are copied by value (no pointer aliasing survives).
func (s *State) Clone() *State {
	c := NewState()
	for id, d := range s.Displays {
		dd := *d
		c.Displays[id] = &dd
	}
	for id, w := range s.Windows {
		ww := *w
		if w.SavedFrame != nil {
			f := *w.SavedFrame
			ww.SavedFrame = &f
		}
		if w.Orphaned != nil {
			o := *w.Orphaned
			ww.Orphaned = &o
		}
		c.Windows[id] = &ww
	}
	for id, iw := range s.Ignored {
		ii := *iw
		c.Ignored[id] = &ii
	}
	c.Rules = append([]Rule(nil), s.Rules...)
	for id, t := range s.SavedTags {
		c.SavedTags[id] = t
	}
	for id, t := range s.PrevTags {
		c.PrevTags[id] = t
	}
	c.FocusedDisplay = s.FocusedDisplay
	c.DefaultLayout = s.DefaultLayout
	for t, l := range s.TagLayouts {
		c.TagLayouts[t] = l
	}
	c.CursorWarp = s.CursorWarp
	c.OuterGap = s.OuterGap
	if s.FocusedIntent != nil {
		fi := *s.FocusedIntent
		c.FocusedIntent = &fi
	}
	c.FocusedWindowID = s.FocusedWindowID
	c.HasFocusedWindow = s.HasFocusedWindow
	return c
}
