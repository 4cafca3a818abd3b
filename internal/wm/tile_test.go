package wm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileableRectSubtractsOuterGap(t *testing.T) {
	s := NewState()
	s.OuterGap = Gap{Top: 10, Right: 10, Bottom: 10, Left: 10}
	d := newTestDisplay(1, 0)

	rect := s.TileableRect(d)
	assert.Equal(t, d.UsableBounds.X+10, rect.X)
	assert.Equal(t, d.UsableBounds.W-20, rect.W)
}

func TestEngineForDisplayPrecedence(t *testing.T) {
	s := NewState()
	s.DefaultLayout = "bsp"
	d := newTestDisplay(1, 0)
	assert.Equal(t, "bsp", s.EngineForDisplay(d), "falls back to the process default")

	s.TagLayouts[0] = "monocle"
	d.VisibleTags = TagBit(0)
	assert.Equal(t, "monocle", s.EngineForDisplay(d), "tag override beats the default")

	d.CurrentLayout = "float"
	assert.Equal(t, "float", s.EngineForDisplay(d), "display's own current_layout beats the tag override")
}

func TestPlanTileReturnsFullscreenMoveDirectly(t *testing.T) {
	s := NewState()
	d := newTestDisplay(1, 0)
	s.Displays[1] = d
	fs := newTestWindow(1, 1, 0)
	fs.Fullscreen = true
	s.Windows[1] = fs

	move, _, ok := s.PlanTile(d)
	assert.False(t, ok, "a fullscreen window bypasses the engine round-trip")
	require.NotNil(t, move)
	assert.Equal(t, s.TileableRect(d), move.Frame)
	assert.Equal(t, WindowID(1), move.ID)
}

func TestPlanTileBuildsRequestForTileableWindows(t *testing.T) {
	s := NewState()
	s.DefaultLayout = "bsp"
	d := newTestDisplay(1, 0)
	s.Displays[1] = d
	a := newTestWindow(1, 1, 0)
	b := newTestWindow(2, 1, 0)
	b.Floating = true // excluded from tiling
	s.Windows[1], s.Windows[2] = a, b

	_, req, ok := s.PlanTile(d)
	require.True(t, ok)
	assert.Equal(t, []WindowID{1}, req.WindowIDs)
	assert.Equal(t, "bsp", req.Engine)
}

func TestPlanTileNothingToTile(t *testing.T) {
	s := NewState()
	d := newTestDisplay(1, 0)
	s.Displays[1] = d
	_, _, ok := s.PlanTile(d)
	assert.False(t, ok)
}

func TestTranslatePlacementsAddsOrigin(t *testing.T) {
	placements := []Placement{{ID: 1, X: 10, Y: 20, W: 100, H: 200}}
	moves := TranslatePlacements(Point{X: 5, Y: 5}, placements)
	require.Len(t, moves, 1)
	assert.Equal(t, Rect{X: 15, Y: 25, W: 100, H: 200}, moves[0].Frame)
}

func TestApplyMovesWritesFrames(t *testing.T) {
	s := NewState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w
	s.ApplyMoves([]WindowMove{{ID: 1, Frame: Rect{X: 1, Y: 2, W: 3, H: 4}}})
	assert.Equal(t, Rect{X: 1, Y: 2, W: 3, H: 4}, w.CurrentFrame)
}
