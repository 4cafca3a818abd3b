package wm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplayLookup struct{ id DisplayID }

func (f fakeDisplayLookup) DisplayContaining(Point) (DisplayID, bool) { return f.id, true }

type fakeLiveness struct{ alive map[WindowID]bool }

func (f fakeLiveness) ProcessAccessible(pid int) bool { return f.alive[WindowID(pid)] }
func (f fakeLiveness) WindowStillInAX(pid int, id WindowID) bool { return f.alive[id] }

func TestSyncAddsNewNormalWindow(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.FocusedDisplay = 1

	obs := []WindowObservation{
		{ID: 1, PID: 100, App: "Firefox", Frame: Rect{X: 10, Y: 10, W: 800, H: 600}, Level: LevelNormal},
	}
	result := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	require.True(t, result.Changed)
	assert.Contains(t, result.NewWindowIDs, WindowID(1))
	require.Contains(t, s.Windows, WindowID(1))
	assert.Equal(t, s.Displays[1].VisibleTags, s.Windows[1].Tags, "new window inherits the display's visible tags")
}

func TestSyncIgnoresWindowMatchingIgnoreRule(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.AddRule(Rule{AppName: strp("Spotlight"), Action: Action{Kind: ActionIgnore}})

	obs := []WindowObservation{
		{ID: 1, PID: 100, App: "Spotlight", Frame: Rect{X: 0, Y: 0, W: 200, H: 50}, Level: LevelNormal},
	}
	result := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	assert.False(t, result.Changed)
	assert.NotContains(t, s.Windows, WindowID(1))
	assert.Contains(t, s.Ignored, WindowID(1))
}

func TestSyncUnmanagesNonNormalWindowByDefault(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)

	obs := []WindowObservation{
		{ID: 1, PID: 100, App: "Notifier", Frame: Rect{X: 0, Y: 0, W: 200, H: 50}, Level: LevelPopup},
	}
	s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	assert.NotContains(t, s.Windows, WindowID(1))
	assert.Contains(t, s.Ignored, WindowID(1))
}

func TestSyncManagesNonNormalWindowWhenRuleMatches(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.AddRule(Rule{AppName: strp("Picture-in-Picture"), Action: Action{Kind: ActionFloat}})

	obs := []WindowObservation{
		{ID: 1, PID: 100, App: "Picture-in-Picture", Frame: Rect{X: 0, Y: 0, W: 400, H: 300}, Level: LevelFloating},
	}
	result := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	assert.True(t, result.Changed)
	require.Contains(t, s.Windows, WindowID(1))
	assert.True(t, s.Windows[1].Floating)
}

func TestSyncRemovesManagedWindowNoLongerOnScreen(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.Windows[1] = newTestWindow(1, 1, 0)

	result := s.Sync(nil, fakeDisplayLookup{id: 1}, fakeLiveness{alive: map[WindowID]bool{}}, nil)
	assert.True(t, result.Changed)
	assert.NotContains(t, s.Windows, WindowID(1))
}

func TestSyncDefersRemovalWhileStillAXLive(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	liveness := fakeLiveness{alive: map[WindowID]bool{1: true, WindowID(w.PID): true}}
	result := s.Sync(nil, fakeDisplayLookup{id: 1}, liveness, nil)
	assert.False(t, result.Changed)
	assert.Contains(t, s.Windows, WindowID(1), "still AX-reachable windows are not removed even if absent from the on-screen list")
}

func TestSyncRehidesWindowMovedWhileHidden(t *testing.T) {
	s := NewState()
	d := newTestDisplay(1, 0)
	s.Displays[1] = d
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w
	s.HideWindow(w)
	hiddenFrame := w.CurrentFrame

	// OS reports the window somewhere other than its hide position.
	obs := []WindowObservation{{ID: 1, PID: w.PID, Frame: Rect{X: 500, Y: 500, W: hiddenFrame.W, H: hiddenFrame.H}}}
	result := s.Sync(obs, nil, nil, nil)
	require.Len(t, result.Moves, 1)
	assert.Equal(t, hiddenFrame, w.CurrentFrame, "a hidden window moved by the OS is put back at its hide position")
}

func TestSyncRehideSuppressedByFocusIntent(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w
	s.HideWindow(w)

	hiddenFrame := w.CurrentFrame
	obs := []WindowObservation{{ID: 1, PID: w.PID, Frame: Rect{X: 500, Y: 500, W: 400, H: 300}}}
	suppressAll := func(*Window) bool { return true }
	result := s.Sync(obs, nil, nil, suppressAll)
	assert.Empty(t, result.Moves, "a focus-intent-suppressed re-hide issues no corrective move")
	assert.Equal(t, hiddenFrame, w.CurrentFrame, "the core's bookkeeping keeps the prior hide frame when suppressed")
}

func TestSyncPromotesIgnoredWindowWhenRuleNoLongerMatches(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.Ignored[1] = &IgnoredWindow{ID: 1, PID: 100, App: "Finder", Title: "Old Title"}

	obs := []WindowObservation{{ID: 1, PID: 100, App: "Finder", Title: "New Title", Frame: Rect{X: 0, Y: 0, W: 300, H: 200}, Level: LevelNormal}}
	result := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	assert.Contains(t, result.NewWindowIDs, WindowID(1))
	assert.NotContains(t, s.Ignored, WindowID(1))
	require.Contains(t, s.Windows, WindowID(1))
}

func TestSyncAppliesRuleOutputAssignment(t *testing.T) {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.Displays[2] = newTestDisplay(2, 2000)
	s.AddRule(Rule{AppName: strp("Slack"), Action: Action{Kind: ActionOutput, Output: "2"}})

	obs := []WindowObservation{{ID: 1, PID: 1, App: "Slack", Frame: Rect{X: 10, Y: 10, W: 100, H: 100}, Level: LevelNormal}}
	s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
	require.Contains(t, s.Windows, WindowID(1))
	assert.Equal(t, DisplayID(2), s.Windows[1].DisplayID, "an output rule action overrides the geometric display lookup")
}
