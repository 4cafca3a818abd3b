package wm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoDisplayState() *State {
	s := NewState()
	s.Displays[1] = newTestDisplay(1, 0)
	s.Displays[2] = newTestDisplay(2, 2000)
	s.FocusedDisplay = 1
	return s
}

func effectKinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, len(effects))
	for i, e := range effects {
		out[i] = e.Kind
	}
	return out
}

func TestDispatchTagView(t *testing.T) {
	s := twoDisplayState()
	s.Windows[1] = newTestWindow(1, 1, 1)

	resp, effects := s.Dispatch(Command{Type: CmdTagView, Tag: 1}, time.Now(), nil)
	assert.True(t, resp.OK)
	assert.Equal(t, TagBit(1), s.Displays[1].VisibleTags)
	assert.Contains(t, effectKinds(effects), EffRetileDisplays)
}

func TestDispatchWindowFocusByID(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	resp, effects := s.Dispatch(Command{Type: CmdWindowFocus, WindowID: 1}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, WindowID(1), s.FocusedWindowID)
	require.Contains(t, effectKinds(effects), EffFocusWindow)
}

func TestDispatchWindowFocusDirectional(t *testing.T) {
	s := twoDisplayState()
	cur := newTestWindow(1, 1, 0)
	cur.CurrentFrame = Rect{X: 0, Y: 0, W: 100, H: 100}
	right := newTestWindow(2, 1, 0)
	right.CurrentFrame = Rect{X: 300, Y: 0, W: 100, H: 100}
	s.Windows[1], s.Windows[2] = cur, right
	s.SetFocusIntent(cur, time.Now())

	resp, _ := s.Dispatch(Command{Type: CmdWindowFocus, FocusSpec: "right"}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, WindowID(2), s.FocusedWindowID)
}

func TestDispatchWindowFocusDirectionalNoTarget(t *testing.T) {
	s := twoDisplayState()
	cur := newTestWindow(1, 1, 0)
	s.Windows[1] = cur
	s.SetFocusIntent(cur, time.Now())

	resp, effects := s.Dispatch(Command{Type: CmdWindowFocus, FocusSpec: "right"}, time.Now(), nil)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, effects)
}

func TestDispatchWindowFocusCrossDisplayWarpsCursorOnOutputChange(t *testing.T) {
	s := twoDisplayState()
	s.CursorWarp = CursorWarpOnOutputChange
	a := newTestWindow(1, 1, 0)
	b := newTestWindow(2, 2, 0)
	s.Windows[1], s.Windows[2] = a, b
	s.SetFocusIntent(a, time.Now())
	s.FocusedDisplay = 1

	_, effects := s.Dispatch(Command{Type: CmdWindowFocus, WindowID: 2}, time.Now(), nil)
	assert.Contains(t, effectKinds(effects), EffWarpCursor)
}

func TestDispatchWindowSwap(t *testing.T) {
	s := twoDisplayState()
	a := newTestWindow(1, 1, 0)
	b := newTestWindow(2, 2, 1)
	s.Windows[1], s.Windows[2] = a, b
	s.SetFocusIntent(a, time.Now())

	resp, effects := s.Dispatch(Command{Type: CmdWindowSwap, OtherWindowID: 2}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, DisplayID(2), a.DisplayID)
	assert.Equal(t, DisplayID(1), b.DisplayID)
	assert.Equal(t, TagBit(1), a.Tags)
	assert.Equal(t, TagBit(0), b.Tags)
	assert.ElementsMatch(t, []DisplayID{1, 2}, effects[0].DisplayIDs)
}

func TestDispatchWindowMoveToTag(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	resp, _ := s.Dispatch(Command{Type: CmdWindowMoveToTag, WindowID: 1, Tag: 3}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, TagBit(3), w.Tags)
}

func TestDispatchWindowToggleTagRejectsClearingLastTag(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	resp, effects := s.Dispatch(Command{Type: CmdWindowToggleTag, WindowID: 1, Mask: TagBit(0)}, time.Now(), nil)
	assert.False(t, resp.OK)
	assert.Nil(t, effects)
	assert.Equal(t, TagBit(0), w.Tags, "state is unchanged when the command is rejected")
}

func TestDispatchWindowToggleFullscreenAndFloat(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	s.Dispatch(Command{Type: CmdWindowToggleFullscreen, WindowID: 1}, time.Now(), nil)
	assert.True(t, w.Fullscreen)
	s.Dispatch(Command{Type: CmdWindowToggleFullscreen, WindowID: 1}, time.Now(), nil)
	assert.False(t, w.Fullscreen)

	s.Dispatch(Command{Type: CmdWindowToggleFloat, WindowID: 1}, time.Now(), nil)
	assert.True(t, w.Floating)
}

func TestDispatchWindowClose(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	_, effects := s.Dispatch(Command{Type: CmdWindowClose, WindowID: 1}, time.Now(), nil)
	require.Len(t, effects, 1)
	assert.Equal(t, EffExecCommand, effects[0].Kind)
	assert.Equal(t, w.PID, effects[0].PID)
}

func TestDispatchOutputFocusCyclesAndFocusesTopOfStack(t *testing.T) {
	s := twoDisplayState()
	top := newTestWindow(1, 2, 0)
	top.LastFocused = time.Now()
	other := newTestWindow(2, 2, 0)
	other.LastFocused = time.Now().Add(-time.Minute)
	s.Windows[1], s.Windows[2] = top, other

	resp, effects := s.Dispatch(Command{Type: CmdOutputFocus, Next: true}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, DisplayID(2), s.FocusedDisplay)
	assert.Equal(t, WindowID(1), s.FocusedWindowID)
	assert.Contains(t, effectKinds(effects), EffFocusWindow)
}

func TestDispatchOutputFocusEmptyTargetStillFocusesDisplay(t *testing.T) {
	s := twoDisplayState()
	resp, effects := s.Dispatch(Command{Type: CmdOutputFocus, Next: true}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, DisplayID(2), s.FocusedDisplay)
	assert.Contains(t, effectKinds(effects), EffFocusVisibleWindowIfNeeded)
}

func TestDispatchOutputSendClearsOrphanAndMoves(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	from := DisplayID(9)
	w.Orphaned = &from
	s.Windows[1] = w

	resp, effects := s.Dispatch(Command{Type: CmdOutputSend, WindowID: 1, Display: "2"}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, DisplayID(2), w.DisplayID)
	assert.Nil(t, w.Orphaned)
	assert.Contains(t, effectKinds(effects), EffRetileDisplays)
}

func TestDispatchOutputSendUnknownDisplay(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	s.Windows[1] = w

	resp, effects := s.Dispatch(Command{Type: CmdOutputSend, WindowID: 1, Display: "nope"}, time.Now(), nil)
	assert.False(t, resp.OK)
	assert.Nil(t, effects)
}

func TestDispatchLayoutSetDefault(t *testing.T) {
	s := twoDisplayState()
	resp, effects := s.Dispatch(Command{Type: CmdLayoutSetDefault, LayoutName: "monocle"}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Equal(t, "monocle", s.DefaultLayout)
	assert.Equal(t, []Effect{{Kind: EffRetile}}, effects)
}

func TestDispatchLayoutSetAndGet(t *testing.T) {
	s := twoDisplayState()
	s.Dispatch(Command{Type: CmdLayoutSet, Display: "2", LayoutName: "bsp"}, time.Now(), nil)
	assert.Equal(t, "bsp", s.Displays[2].CurrentLayout)

	resp, _ := s.Dispatch(Command{Type: CmdLayoutGet, Display: "2"}, time.Now(), nil)
	assert.Equal(t, "bsp", resp.Layout)
}

func TestDispatchLayoutCmdTargetsFocusedDisplayByDefault(t *testing.T) {
	s := twoDisplayState()
	s.Displays[1].CurrentLayout = "bsp"
	resp, effects := s.Dispatch(Command{Type: CmdLayoutCmd, LayoutCmd: "rotate"}, time.Now(), nil)
	require.True(t, resp.OK)
	require.Len(t, effects, 2)
	assert.Equal(t, "bsp", effects[0].Layout)
	assert.Equal(t, "rotate", effects[0].Cmd)
}

func TestDispatchExec(t *testing.T) {
	s := twoDisplayState()
	_, effects := s.Dispatch(Command{Type: CmdExec, ExecCommand: "/bin/true"}, time.Now(), nil)
	require.Len(t, effects, 1)
	assert.Equal(t, EffExecCommand, effects[0].Kind)
	assert.Equal(t, "/bin/true", effects[0].ExecCommand)
}

func TestDispatchExecOrFocusFocusesExistingWindow(t *testing.T) {
	s := twoDisplayState()
	w := newTestWindow(1, 1, 0)
	w.App = "Firefox"
	s.Windows[1] = w

	_, effects := s.Dispatch(Command{Type: CmdExecOrFocus, ExecCommand: "Firefox"}, time.Now(), nil)
	assert.Contains(t, effectKinds(effects), EffFocusWindow)
}

func TestDispatchExecOrFocusLaunchesWhenAbsent(t *testing.T) {
	s := twoDisplayState()
	_, effects := s.Dispatch(Command{Type: CmdExecOrFocus, ExecCommand: "Firefox"}, time.Now(), nil)
	require.Len(t, effects, 1)
	assert.Equal(t, EffExecCommand, effects[0].Kind)
}

func TestDispatchRuleAddAndDel(t *testing.T) {
	s := twoDisplayState()
	resp, _ := s.Dispatch(Command{Type: CmdRuleAdd, Rule: Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionFloat}}}, time.Now(), nil)
	require.True(t, resp.OK)
	require.Len(t, s.Rules, 1)

	resp, _ = s.Dispatch(Command{Type: CmdRuleDel, RuleIndex: 0}, time.Now(), nil)
	require.True(t, resp.OK)
	assert.Empty(t, s.Rules)

	resp, _ = s.Dispatch(Command{Type: CmdRuleDel, RuleIndex: 0}, time.Now(), nil)
	assert.False(t, resp.OK)
}

func TestDispatchListRulesAndWindowsAndOutputs(t *testing.T) {
	s := twoDisplayState()
	s.Windows[1] = newTestWindow(1, 1, 0)
	s.AddRule(Rule{AppName: strp("Firefox")})

	resp, _ := s.Dispatch(Command{Type: CmdListWindows}, time.Now(), nil)
	assert.Len(t, resp.Windows, 1)

	resp, _ = s.Dispatch(Command{Type: CmdListOutputs}, time.Now(), nil)
	assert.Len(t, resp.Displays, 2)

	resp, _ = s.Dispatch(Command{Type: CmdListRules}, time.Now(), nil)
	assert.Len(t, resp.Rules, 1)
}

func TestDispatchGetState(t *testing.T) {
	s := twoDisplayState()
	s.Windows[1] = newTestWindow(1, 1, 0)
	resp, effects := s.Dispatch(Command{Type: CmdGetState}, time.Now(), nil)
	require.NotNil(t, resp.State)
	assert.Len(t, resp.State.Windows, 1)
	assert.Len(t, resp.State.Displays, 2)
	assert.Nil(t, effects, "query commands produce no effects")
}

func TestDispatchSetCursorWarpAndOuterGap(t *testing.T) {
	s := twoDisplayState()
	s.Dispatch(Command{Type: CmdSetCursorWarp, CursorWarp: CursorWarpOnFocusChange}, time.Now(), nil)
	assert.Equal(t, CursorWarpOnFocusChange, s.CursorWarp)

	_, effects := s.Dispatch(Command{Type: CmdSetOuterGap, Gap: Gap{Top: 5, Right: 5, Bottom: 5, Left: 5}}, time.Now(), nil)
	assert.Equal(t, Gap{Top: 5, Right: 5, Bottom: 5, Left: 5}, s.OuterGap)
	assert.Equal(t, []Effect{{Kind: EffRetile}}, effects)
}

func TestDispatchQuit(t *testing.T) {
	s := twoDisplayState()
	resp, effects := s.Dispatch(Command{Type: CmdQuit}, time.Now(), nil)
	require.True(t, resp.OK)
	require.Len(t, effects, 1)
	assert.Equal(t, EffQuit, effects[0].Kind)
}

func TestDispatchListBindingsReturnsProvidedMap(t *testing.T) {
	s := twoDisplayState()
	bindings := map[string]string{"mod+j": "window-focus next"}
	resp, _ := s.Dispatch(Command{Type: CmdListBindings}, time.Now(), bindings)
	assert.Equal(t, bindings, resp.Bindings)
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := twoDisplayState()
	resp, effects := s.Dispatch(Command{Type: CommandType("bogus")}, time.Now(), nil)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, effects)
}

func TestDispatchCommandOnMissingWindowErrors(t *testing.T) {
	s := twoDisplayState()
	resp, effects := s.Dispatch(Command{Type: CmdWindowFocus, WindowID: 99}, time.Now(), nil)
	assert.False(t, resp.OK)
	assert.Nil(t, effects)
}
