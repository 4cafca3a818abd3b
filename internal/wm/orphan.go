package wm

// DisplayObservation is what the platform reports for one display on a
// poll tick (SPEC_FULL.md §4.5).
type DisplayObservation struct {
	ID           DisplayID
	Name         string
	FullBounds   Rect
	UsableBounds Rect
}

// DisplayChangeResult reports what handling a display-list change did,
// for logging/metrics and for the caller to decide which displays need
// retiling.
type DisplayChangeResult struct {
	Disconnected []DisplayID
	Connected    []DisplayID
	Reassigned   []WindowID // windows whose DisplayID changed
	RetileAll    bool       // reconnect branch always retiles everything
}

// HandleDisplayChange reconciles state's display map against a fresh
// observation list. It implements both branches of §4.5: disconnect
// (orphaning + fallback reassignment) and reconnect (restoration).
func (s *State) HandleDisplayChange(observed []DisplayObservation) DisplayChangeResult {
	var result DisplayChangeResult

	seen := make(map[DisplayID]DisplayObservation, len(observed))
	for _, o := range observed {
		seen[o.ID] = o
	}

	// Disconnect branch: any display id present in old set but not new.
	for id := range s.Displays {
		if _, ok := seen[id]; ok {
			continue
		}
		result.Disconnected = append(result.Disconnected, id)
		s.disconnectDisplay(id, &result)
	}

	// Reconnect branch: any display id present in new set but not old.
	for _, o := range observed {
		if _, existed := s.Displays[o.ID]; existed {
			// still present: refresh bounds, nothing else.
			d := s.Displays[o.ID]
			d.FullBounds = o.FullBounds
			d.UsableBounds = o.UsableBounds
			d.Name = o.Name
			continue
		}
		result.Connected = append(result.Connected, o.ID)
		s.connectDisplay(o, &result)
	}

	if len(result.Connected) > 0 {
		result.RetileAll = true
	}
	return result
}

func (s *State) disconnectDisplay(id DisplayID, result *DisplayChangeResult) {
	disp, ok := s.Displays[id]
	if !ok {
		return
	}

	fallback, hasFallback := s.FallbackDisplay(id)

	for _, w := range s.Windows {
		if w.DisplayID != id {
			continue
		}
		if w.Orphaned == nil {
			orphanFrom := id
			w.Orphaned = &orphanFrom
		}
		if hasFallback {
			w.DisplayID = fallback
			result.Reassigned = append(result.Reassigned, w.ID)
		}
	}

	s.SavedTags[id] = disp.VisibleTags
	delete(s.Displays, id)

	if s.FocusedDisplay == id && hasFallback {
		s.FocusedDisplay = fallback
	}
}

func (s *State) connectDisplay(o DisplayObservation, result *DisplayChangeResult) {
	vis := TagBit(0)
	if saved, ok := s.SavedTags[o.ID]; ok {
		vis = saved
		delete(s.SavedTags, o.ID)
	}

	s.Displays[o.ID] = &Display{
		ID:           o.ID,
		Name:         o.Name,
		FullBounds:   o.FullBounds,
		UsableBounds: o.UsableBounds,
		VisibleTags:  vis,
	}

	if len(s.Displays) == 1 {
		s.FocusedDisplay = o.ID
	}

	for _, w := range s.Windows {
		if w.Orphaned != nil && *w.Orphaned == o.ID {
			w.Orphaned = nil
			w.DisplayID = o.ID
			result.Reassigned = append(result.Reassigned, w.ID)
		}
	}
}

// ClearOrphan clears orphaned_from on w as an explicit output-send
// command does (§4.5 "orphaned_from clearing policy") — this is the only
// other path (besides successful reconnect restoration) permitted to
// clear it.
func (s *State) ClearOrphan(w *Window) {
	w.Orphaned = nil
}
