package wm

// WindowObservation is one on-screen window as reported by the platform's
// window-list query, enriched (for windows not yet known) with the
// extended AX attributes sync needs to run the rules engine.
type WindowObservation struct {
	ID    WindowID
	PID   int
	App   string
	AppID string
	Title string
	Frame Rect

	// Extended attributes, only required/consulted for windows not
	// already managed or ignored.
	AXID    string
	Subrole string
	Level   WindowLevel
	Buttons Buttons
}

// DisplayLookup resolves a point to the display that contains it, used to
// derive a new window's initial DisplayID from its frame's center.
type DisplayLookup interface {
	DisplayContaining(p Point) (DisplayID, bool)
}

// AXLiveness answers the two liveness checks sync must make before
// removing a window or ignored-window entry (§4.2 "Removals").
type AXLiveness interface {
	ProcessAccessible(pid int) bool
	WindowStillInAX(pid int, id WindowID) bool
}

// SyncResult is C7's return shape: (changed, new_window_ids, window_moves).
type SyncResult struct {
	Changed      bool
	NewWindowIDs []WindowID
	Moves        []WindowMove
}

// Sync reconciles state against a freshly observed window list, per
// SPEC_FULL.md §4.2. disp resolves new windows' initial display; liveness
// gates removals. now is used for re-hide suppression via focus intent
// and is threaded in rather than read from time.Now so tests are
// deterministic.
func (s *State) Sync(observed []WindowObservation, disp DisplayLookup, liveness AXLiveness, suppressRehide func(w *Window) bool) SyncResult {
	var result SyncResult

	onScreen := make(map[WindowID]WindowObservation, len(observed))
	for _, o := range observed {
		onScreen[o.ID] = o
	}

	// Frame updates + re-hide detection for already-managed windows.
	for id, w := range s.Windows {
		o, stillOnScreen := onScreen[id]
		if !stillOnScreen {
			continue // handled in the removals pass below
		}
		if w.Hidden() {
			// A hidden window's CurrentFrame is its hide position; if the OS
			// reports something else, it was moved (e.g. by the user or as
			// an activation side effect) and must be put back, unless
			// focus-intent suppression is active for this pid.
			if o.Frame != w.CurrentFrame {
				if suppressRehide != nil && suppressRehide(w) {
					continue
				}
				if d, ok := s.Displays[w.DisplayID]; ok {
					frame := HideFrame(s, d, w)
					w.CurrentFrame = frame
					result.Moves = append(result.Moves, WindowMove{ID: id, Frame: frame})
				}
			}
			continue
		}
		if o.Frame != w.CurrentFrame {
			w.CurrentFrame = o.Frame
		}
	}

	// Removals: managed windows no longer on-screen, gated by the two
	// AX-liveness checks.
	for id, w := range s.Windows {
		if _, stillOnScreen := onScreen[id]; stillOnScreen {
			continue
		}
		if liveness != nil && (liveness.ProcessAccessible(w.PID) && liveness.WindowStillInAX(w.PID, id)) {
			continue // deferred: still reachable via AX, likely a fullscreen transition
		}
		delete(s.Windows, id)
		result.Changed = true
	}

	// Removals for the ignored set, same two-check policy.
	for id, iw := range s.Ignored {
		if _, stillOnScreen := onScreen[id]; stillOnScreen {
			continue
		}
		if liveness != nil && (liveness.ProcessAccessible(iw.PID) && liveness.WindowStillInAX(iw.PID, id)) {
			continue
		}
		delete(s.Ignored, id)
	}

	// Ignored re-evaluation: promote any ignored window no ignore rule
	// still matches.
	for id, iw := range s.Ignored {
		o, ok := onScreen[id]
		if !ok {
			continue
		}
		iw.Subrole = o.Subrole
		iw.AXID = o.AXID
		iw.Level = o.Level
		iw.Buttons = o.Buttons
		iw.Title = o.Title

		mw := matchWindowFromIgnored(iw)
		res := s.ResolveActions(mw)
		if res.Ignore {
			continue
		}
		delete(s.Ignored, id)
		s.createManagedWindow(o, disp, res)
		result.NewWindowIDs = append(result.NewWindowIDs, id)
		result.Changed = true
	}

	// Additions: on-screen windows that are neither managed nor ignored.
	for id, o := range onScreen {
		if _, managed := s.Windows[id]; managed {
			continue
		}
		if _, ignored := s.Ignored[id]; ignored {
			continue
		}
		mw := matchWindowFromObservation(o)
		res := s.ResolveActions(mw)

		nonNormal := !o.Level.IsNormal()
		if res.Ignore {
			s.Ignored[id] = &IgnoredWindow{
				ID: id, PID: o.PID, App: o.App, AppID: o.AppID, Title: o.Title,
				AXID: o.AXID, Subrole: o.Subrole, Level: o.Level, Buttons: o.Buttons,
			}
			continue
		}
		if nonNormal && !s.AnyNonIgnoreMatches(mw) {
			// Non-normal windows are unmanaged by default unless some
			// non-ignore rule matches them (§4.6).
			s.Ignored[id] = &IgnoredWindow{
				ID: id, PID: o.PID, App: o.App, AppID: o.AppID, Title: o.Title,
				AXID: o.AXID, Subrole: o.Subrole, Level: o.Level, Buttons: o.Buttons,
			}
			continue
		}
		s.createManagedWindow(o, disp, res)
		result.NewWindowIDs = append(result.NewWindowIDs, id)
		result.Changed = true
	}

	return result
}

func (s *State) createManagedWindow(o WindowObservation, disp DisplayLookup, res Resolution) {
	displayID := s.FocusedDisplay
	if disp != nil {
		if id, ok := disp.DisplayContaining(o.Frame.Center()); ok {
			displayID = id
		}
	}
	if res.Output != nil {
		if id, ok := s.ResolveDisplay(*res.Output); ok {
			displayID = id
		}
	}

	tags := TagMask(0)
	if d, ok := s.Displays[displayID]; ok {
		tags = d.VisibleTags
	}
	if res.Tags != nil {
		tags = *res.Tags
	}

	floating := !o.Level.IsNormal()
	if res.FloatSet {
		floating = res.Float
	}

	frame := o.Frame
	if res.Dimensions != nil {
		frame.W, frame.H = res.Dimensions.W, res.Dimensions.H
	}
	if res.Position != nil {
		frame.X, frame.Y = res.Position.X, res.Position.Y
	}

	w := &Window{
		ID:        o.ID,
		PID:       o.PID,
		App:       o.App,
		AppID:     o.AppID,
		Title:     o.Title,
		Tags:      tags,
		CurrentFrame: frame,
		DisplayID: displayID,
		Floating:  floating,
		AXID:      o.AXID,
		Subrole:   o.Subrole,
		Level:     o.Level,
		Buttons:   o.Buttons,
	}
	s.Windows[o.ID] = w
}

func matchWindowFromObservation(o WindowObservation) MatchWindow {
	return MatchWindow{App: o.App, AppID: o.AppID, Title: o.Title, AXID: o.AXID, Subrole: o.Subrole, Level: o.Level, Buttons: o.Buttons}
}

func matchWindowFromIgnored(iw *IgnoredWindow) MatchWindow {
	return MatchWindow{App: iw.App, AppID: iw.AppID, Title: iw.Title, AXID: iw.AXID, Subrole: iw.Subrole, Level: iw.Level, Buttons: iw.Buttons}
}
