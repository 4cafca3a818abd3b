package wm

// HidePosition computes the per-display corner a hidden window of size sz
// should be moved to so that exactly one pixel of it remains inside d's
// full bounds (SPEC_FULL.md §4.3 "Hide position").
//
// The four corners are tried in priority order — bottom-right, bottom-left,
// top-right, top-left — and the first whose window body (the full sz rect
// anchored at that corner) does not overlap any other display in s wins.
// A corner's single visible pixel always sits inside d, but the rest of the
// window necessarily spills off d in the direction away from that pixel;
// if another display sits there, the spill becomes more than one pixel
// visible on that neighbor, which is exactly what the priority order exists
// to avoid. Bottom-right is the fallback when every corner spills onto some
// other display.
func HidePosition(s *State, d *Display, sz Size) Point {
	for _, corner := range []func(*Display, Size) Point{
		BottomRightHide,
		BottomLeftHide,
		TopRightHide,
		TopLeftHide,
	} {
		p := corner(d, sz)
		body := Rect{X: p.X, Y: p.Y, W: sz.W, H: sz.H}
		if !overlapsOtherDisplay(s, d.ID, body) {
			return p
		}
	}
	return BottomRightHide(d, sz)
}

// overlapsOtherDisplay reports whether body overlaps any display in s other
// than owner. Displays are walked in sorted order so the result doesn't
// depend on map iteration order.
func overlapsOtherDisplay(s *State, owner DisplayID, body Rect) bool {
	if s == nil {
		return false
	}
	for _, id := range s.SortedDisplayIDs() {
		if id == owner {
			continue
		}
		if other := s.Displays[id]; other != nil && body.Intersects(other.FullBounds) {
			return true
		}
	}
	return false
}

// BottomRightHide places the window so only its top-left pixel
// (R-1, B-1) is on-screen.
func BottomRightHide(d *Display, sz Size) Point {
	r := d.FullBounds.Right()
	b := d.FullBounds.Bottom()
	return Point{X: r - 1, Y: b - 1}
}

// BottomLeftHide places the window so only its top-right pixel is
// on-screen: offset left by the window's own width so the single visible
// column still falls inside the display after the OS rounds coordinates.
func BottomLeftHide(d *Display, sz Size) Point {
	l := d.FullBounds.Left()
	b := d.FullBounds.Bottom()
	return Point{X: l - sz.W + 1, Y: b - 1}
}

// TopRightHide places the window so only its bottom-left pixel is
// on-screen.
func TopRightHide(d *Display, sz Size) Point {
	r := d.FullBounds.Right()
	t := d.FullBounds.Top()
	return Point{X: r - 1, Y: t - sz.H + 1}
}

// TopLeftHide places the window so only its bottom-right pixel is
// on-screen.
func TopLeftHide(d *Display, sz Size) Point {
	l := d.FullBounds.Left()
	t := d.FullBounds.Top()
	return Point{X: l - sz.W + 1, Y: t - sz.H + 1}
}

// HideFrame returns the full frame (position + preserved size) a window
// should take when hidden on display d, given the rest of the displays in s.
func HideFrame(s *State, d *Display, w *Window) Rect {
	sz := Size{W: w.CurrentFrame.W, H: w.CurrentFrame.H}
	p := HidePosition(s, d, sz)
	return Rect{X: p.X, Y: p.Y, W: sz.W, H: sz.H}
}

// IsValidHideFrame reports whether f satisfies invariant 2: at least one
// pixel of f lies inside d's full bounds.
func IsValidHideFrame(d *Display, f Rect) bool {
	return f.Intersects(d.FullBounds)
}

// HideWindow hides w on its own display: records its current frame as the
// saved frame and moves it to the hide position, returning the move the
// caller must apply.
func (s *State) HideWindow(w *Window) (WindowMove, bool) {
	if w.Hidden() {
		return WindowMove{}, false
	}
	d, ok := s.Displays[w.DisplayID]
	if !ok {
		return WindowMove{}, false
	}
	saved := w.CurrentFrame
	w.SavedFrame = &saved
	frame := HideFrame(s, d, w)
	w.CurrentFrame = frame
	return WindowMove{ID: w.ID, Frame: frame}, true
}

// ShowWindow restores w's saved frame (unhides it), returning the move
// the caller must apply.
func (s *State) ShowWindow(w *Window) (WindowMove, bool) {
	if !w.Hidden() {
		return WindowMove{}, false
	}
	frame := *w.SavedFrame
	w.SavedFrame = nil
	w.CurrentFrame = frame
	return WindowMove{ID: w.ID, Frame: frame}, true
}

// ApplyTagView sets d's visible-tags to mask, hiding/showing windows as
// needed, and returns the resulting moves. The display's previous
// visible-tags are recorded for tag-view-last.
func (s *State) ApplyTagView(d DisplayID, mask TagMask) []WindowMove {
	disp, ok := s.Displays[d]
	if !ok {
		return nil
	}
	s.PrevTags[d] = disp.VisibleTags
	disp.VisibleTags = mask

	var moves []WindowMove
	for _, w := range s.WindowsOnDisplay(d) {
		visible := w.Tags.Intersects(mask)
		switch {
		case visible && w.Hidden():
			if m, ok := s.ShowWindow(w); ok {
				moves = append(moves, m)
			}
		case !visible && !w.Hidden():
			if m, ok := s.HideWindow(w); ok {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

// ApplyTagViewLast swaps a display's current and previous visible-tags
// (tag-view-last), returning the resulting moves.
func (s *State) ApplyTagViewLast(d DisplayID) []WindowMove {
	disp, ok := s.Displays[d]
	if !ok {
		return nil
	}
	prev, ok := s.PrevTags[d]
	if !ok {
		prev = disp.VisibleTags
	}
	return s.ApplyTagView(d, prev)
}

// ApplyTagToggle flips the bits in mask within d's visible-tags, never
// leaving the result at zero (a display must always show at least one
// tag, per invariant 4).
func (s *State) ApplyTagToggle(d DisplayID, mask TagMask) []WindowMove {
	disp, ok := s.Displays[d]
	if !ok {
		return nil
	}
	next := disp.VisibleTags ^ mask
	if next == 0 {
		return nil
	}
	return s.ApplyTagView(d, next)
}
