package wm

// TileRequest is what the core sends to a layout engine for one display
// (SPEC_FULL.md §4.3 step 3): the tileable rectangle's size and the ids
// of the windows to place, in focus-stack order.
type TileRequest struct {
	Display   DisplayID
	Engine    string
	Width     int
	Height    int
	WindowIDs []WindowID
}

// Placement is one window's position as returned by a layout engine, in
// the engine's own coordinate space (origin at the tileable rectangle's
// top-left).
type Placement struct {
	ID WindowID
	X, Y, W, H int
}

// TileableRect returns d's usable bounds with the outer gap subtracted —
// the rectangle layout engines place windows within (§4.3 step 1).
func (s *State) TileableRect(d *Display) Rect {
	return d.UsableBounds.Shrink(s.OuterGap)
}

// EngineForDisplay resolves which layout engine a display's tiling pass
// should use: the display's current_layout, else the tag's override for
// the display's first visible tag, else the process-wide default.
func (s *State) EngineForDisplay(d *Display) string {
	if d.CurrentLayout != "" {
		return d.CurrentLayout
	}
	if name, ok := s.TagLayouts[d.VisibleTags.FirstTag()]; ok && name != "" {
		return name
	}
	return s.DefaultLayout
}

// PlanTile computes what to tile for display d: either the single
// fullscreen window (taking the full tileable rect, §4.3 step 5) or the
// set of visible tileable windows to hand to the layout engine.
//
// fullscreen, if non-nil, is the move the caller should apply directly
// with no engine round-trip. Otherwise req is the request to send to the
// named engine, and ok reports whether there is anything to tile at all.
func (s *State) PlanTile(d *Display) (fullscreen *WindowMove, req TileRequest, ok bool) {
	visible := s.VisibleWindowsOnDisplay(d.ID)
	rect := s.TileableRect(d)

	if fs := FullscreenWindow(visible); fs != nil {
		return &WindowMove{ID: fs.ID, Frame: rect}, TileRequest{}, false
	}

	tileable := TileableWindows(visible)
	if len(tileable) == 0 {
		return nil, TileRequest{}, false
	}

	ids := make([]WindowID, len(tileable))
	for i, w := range tileable {
		ids[i] = w.ID
	}
	return nil, TileRequest{
		Display:   d.ID,
		Engine:    s.EngineForDisplay(d),
		Width:     rect.W,
		Height:    rect.H,
		WindowIDs: ids,
	}, true
}

// TranslatePlacements converts engine-local placements to world-coordinate
// window moves by adding the tileable rectangle's top-left offset (§4.3
// step 4).
func TranslatePlacements(origin Point, placements []Placement) []WindowMove {
	moves := make([]WindowMove, len(placements))
	for i, p := range placements {
		moves[i] = WindowMove{
			ID: p.ID,
			Frame: Rect{
				X: p.X + origin.X,
				Y: p.Y + origin.Y,
				W: p.W,
				H: p.H,
			},
		}
	}
	return moves
}

// ApplyMoves writes the frames in moves back into state's windows (the
// effect executor is responsible for also applying them to the real
// window system via the platform manipulator).
func (s *State) ApplyMoves(moves []WindowMove) {
	for _, m := range moves {
		if w, ok := s.Windows[m.ID]; ok {
			w.CurrentFrame = m.Frame
		}
	}
}
