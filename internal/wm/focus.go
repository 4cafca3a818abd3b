package wm

import (
	"time"
)

// Direction is a directional-focus command.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// FocusResult is what a focus computation produced: the window to focus
// (if any) and whether the focus crossed to a different display (used by
// the on-output-change cursor-warp mode).
type FocusResult struct {
	Window        *Window
	CrossedOutput bool
}

// DirectionalTarget picks the visible, non-hidden window on the same
// display as cur that is closest, by Manhattan distance between frame
// centers, in direction dir. Returns nil if there is no candidate.
func DirectionalTarget(cur *Window, candidates []*Window, dir Direction) *Window {
	origin := cur.CurrentFrame.Center()
	var best *Window
	bestDist := int(^uint(0) >> 1)
	for _, w := range candidates {
		if w.ID == cur.ID || w.Hidden() {
			continue
		}
		c := w.CurrentFrame.Center()
		dx, dy := c.X-origin.X, c.Y-origin.Y
		switch dir {
		case DirLeft:
			if dx >= 0 {
				continue
			}
		case DirRight:
			if dx <= 0 {
				continue
			}
		case DirUp:
			if dy >= 0 {
				continue
			}
		case DirDown:
			if dy <= 0 {
				continue
			}
		}
		dist := abs(dx) + abs(dy)
		if dist < bestDist {
			bestDist = dist
			best = w
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// StackTarget picks the next (or previous) window in focus-stack order
// among candidates, relative to cur.
func StackTarget(cur *Window, candidates []*Window, next bool) *Window {
	if len(candidates) == 0 {
		return nil
	}
	idx := -1
	for i, w := range candidates {
		if w.ID == cur.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return candidates[0]
	}
	if next {
		return candidates[(idx+1)%len(candidates)]
	}
	return candidates[(idx-1+len(candidates))%len(candidates)]
}

// SetFocusIntent records a core-initiated focus so subsequent spurious OS
// focus reports for the same pid can be suppressed (§4.4).
func (s *State) SetFocusIntent(w *Window, now time.Time) {
	s.FocusedIntent = &FocusIntent{TargetID: w.ID, TargetPID: w.PID, At: now}
	s.FocusedWindowID = w.ID
	s.HasFocusedWindow = true
	w.LastFocused = now
}

// ShouldSuppressExternalFocus reports whether an externally reported
// focus change to w should be suppressed in favor of the active intent's
// target, per §4.4.
func (s *State) ShouldSuppressExternalFocus(w *Window, now time.Time) (WindowID, bool) {
	if !s.FocusedIntent.Active(now) {
		return 0, false
	}
	if w.ID == s.FocusedIntent.TargetID {
		return 0, false
	}
	if w.PID != s.FocusedIntent.TargetPID {
		return 0, false
	}
	return s.FocusedIntent.TargetID, true
}

// ShouldSuppressRehide reports whether a re-hide move for w should be
// suppressed because a same-pid focus intent is active (§4.4).
func (s *State) ShouldSuppressRehide(w *Window, now time.Time) bool {
	return s.FocusedIntent.Active(now) && w.PID == s.FocusedIntent.TargetPID
}

// AutoTagSwitch implements "If the OS focuses a window that is currently
// hidden, switch the display's visible-tags to the window's first tag"
// (§4.4). Returns the moves produced by the resulting ApplyTagView, or
// nil if the window was not hidden.
func (s *State) AutoTagSwitch(w *Window) []WindowMove {
	if !w.Hidden() {
		return nil
	}
	tag := w.Tags.FirstTag()
	return s.ApplyTagView(w.DisplayID, TagBit(tag))
}

// ShouldWarpCursor decides whether a focus change from a window on
// fromDisplay to toDisplay should warp the cursor, given the configured
// mode (§4.4).
func ShouldWarpCursor(mode CursorWarpMode, fromDisplay, toDisplay DisplayID, displayChanged bool) bool {
	switch mode {
	case CursorWarpOnFocusChange:
		return true
	case CursorWarpOnOutputChange:
		return displayChanged && fromDisplay != toDisplay
	default:
		return false
	}
}
