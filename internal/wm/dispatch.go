package wm

import (
	"fmt"
	"strconv"
	"time"
)

// CommandType enumerates the IPC command verbs (§6 "Command IPC").
type CommandType string

const (
	CmdTagView                CommandType = "tag-view"
	CmdTagToggle              CommandType = "tag-toggle"
	CmdTagViewLast            CommandType = "tag-view-last"
	CmdWindowMoveToTag        CommandType = "window-move-to-tag"
	CmdWindowToggleTag        CommandType = "window-toggle-tag"
	CmdWindowFocus            CommandType = "window-focus"
	CmdWindowSwap             CommandType = "window-swap"
	CmdWindowToggleFullscreen CommandType = "window-toggle-fullscreen"
	CmdWindowToggleFloat      CommandType = "window-toggle-float"
	CmdWindowClose            CommandType = "window-close"
	CmdOutputFocus            CommandType = "output-focus"
	CmdOutputSend             CommandType = "output-send"
	CmdRetile                 CommandType = "retile"
	CmdLayoutSetDefault       CommandType = "layout-set-default"
	CmdLayoutSet              CommandType = "layout-set"
	CmdLayoutGet              CommandType = "layout-get"
	CmdLayoutCmd              CommandType = "layout-cmd"
	CmdListWindows            CommandType = "list-windows"
	CmdListOutputs            CommandType = "list-outputs"
	CmdGetState               CommandType = "get-state"
	CmdExec                   CommandType = "exec"
	CmdExecOrFocus            CommandType = "exec-or-focus"
	CmdRuleAdd                CommandType = "rule-add"
	CmdRuleDel                CommandType = "rule-del"
	CmdListRules              CommandType = "list-rules"
	CmdSetCursorWarp          CommandType = "set-cursor-warp"
	CmdSetOuterGap            CommandType = "set-outer-gap"
	CmdSubscribe              CommandType = "subscribe"
	CmdQuit                   CommandType = "quit"
	CmdBind                   CommandType = "bind"
	CmdUnbind                 CommandType = "unbind"
	CmdListBindings           CommandType = "list-bindings"
	CmdSetExecPath            CommandType = "set-exec-path"
	CmdAddExecPath            CommandType = "add-exec-path"
	CmdExecPath               CommandType = "exec-path"
)

// Command is the pure, decoded representation of one IPC/hotkey command.
// internal/ipc owns the JSON tagged-union encoding; this struct is the
// decoupled shape Dispatch consumes, per the "effects as data" design note.
type Command struct {
	Type CommandType

	Tag     Tag
	Mask    TagMask
	Display string // numeric id or name; resolved by ResolveDisplay
	Next    bool   // output-focus direction: true=next, false=prev

	WindowID      WindowID // explicit target; 0 means "resolve via FocusSpec/focused window"
	OtherWindowID WindowID // window-swap's swap partner; 0 means "resolve via FocusSpec"

	// FocusSpec selects a window relative to the currently focused one, for
	// window-focus and window-swap: "left"|"right"|"up"|"down" (directional,
	// DirectionalTarget) or "next"|"prev" (focus-stack order, StackTarget).
	// Empty means use WindowID/OtherWindowID directly.
	FocusSpec string

	LayoutName string
	LayoutCmd  string
	LayoutArgs []string

	ExecCommand string

	Rule      Rule
	RuleIndex int

	CursorWarp CursorWarpMode
	Gap        Gap

	HotkeyChord string
	HotkeyCmd   string

	X, Y, W, H int

	ExecPathEntry string

	SnapshotOnSubscribe bool
}

// Response is the pure result of Dispatch: either Ok or a typed payload.
// Exactly one of the payload fields is populated, matching Type.
type Response struct {
	OK    bool
	Error string

	Windows  []*Window
	Displays []*Display
	Rules    []Rule
	Bindings map[string]string
	Layout   string
	ExecPath []string
	State    *Snapshot
}

// Snapshot is the full-state payload used by get-state and by the event
// stream's initial Snapshot event (§4.7).
type Snapshot struct {
	Windows          []*Window  `json:"windows"`
	Displays         []*Display `json:"displays"`
	FocusedWindowID  WindowID   `json:"focused_window_id"`
	HasFocusedWindow bool       `json:"has_focused_window"`
	FocusedDisplay   DisplayID  `json:"focused_display"`
	DefaultLayout    string     `json:"default_layout"`
}

func errResponse(format string, a ...interface{}) Response {
	return Response{Error: fmt.Sprintf(format, a...)}
}

func okResponse() Response { return Response{OK: true} }

// EffectKind enumerates the effect data the executor (C9) interprets.
type EffectKind int

const (
	EffApplyWindowMoves EffectKind = iota
	EffFocusWindow
	EffMoveWindowToPosition
	EffSetWindowDimensions
	EffRetile
	EffRetileDisplays
	EffSendLayoutCommand
	EffExecCommand
	EffUpdateLayoutExecPath
	EffFocusVisibleWindowIfNeeded
	EffWarpCursor
	EffQuit
)

// Effect is one ordered instruction for the executor.
type Effect struct {
	Kind EffectKind

	Moves []WindowMove

	WindowID       WindowID
	PID            int
	IsOutputChange bool

	X, Y, W, H int

	DisplayIDs []DisplayID

	Layout string
	Cmd    string
	Args   []string

	ExecCommand string
	ExecPath    string
}

// ResolveDisplay resolves a numeric-id-or-name specifier to a DisplayID.
func (s *State) ResolveDisplay(spec string) (DisplayID, bool) {
	if n, err := strconv.Atoi(spec); err == nil {
		if _, ok := s.Displays[DisplayID(n)]; ok {
			return DisplayID(n), true
		}
	}
	for id, d := range s.Displays {
		if d.Name == spec {
			return id, true
		}
	}
	return 0, false
}

// FocusedWindow returns the currently focused window, if any.
func (s *State) FocusedWindow() (*Window, bool) {
	if !s.HasFocusedWindow {
		return nil, false
	}
	w, ok := s.Windows[s.FocusedWindowID]
	return w, ok
}

func (s *State) resolveTargetWindow(id WindowID) (*Window, bool) {
	if id == 0 {
		return s.FocusedWindow()
	}
	w, ok := s.Windows[id]
	return w, ok
}

// resolveRelativeWindow picks a window by directional/stack spec relative to
// the currently focused window, falling back to an explicit id when spec is
// empty (0 meaning "the focused window" itself).
func (s *State) resolveRelativeWindow(spec string, id WindowID) (*Window, bool) {
	if spec == "" {
		return s.resolveTargetWindow(id)
	}
	cur, ok := s.FocusedWindow()
	if !ok {
		return nil, false
	}
	candidates := s.VisibleWindowsOnDisplay(cur.DisplayID)
	switch spec {
	case "left":
		w := DirectionalTarget(cur, candidates, DirLeft)
		return w, w != nil
	case "right":
		w := DirectionalTarget(cur, candidates, DirRight)
		return w, w != nil
	case "up":
		w := DirectionalTarget(cur, candidates, DirUp)
		return w, w != nil
	case "down":
		w := DirectionalTarget(cur, candidates, DirDown)
		return w, w != nil
	case "next":
		w := StackTarget(cur, candidates, true)
		return w, w != nil
	case "prev":
		w := StackTarget(cur, candidates, false)
		return w, w != nil
	}
	return nil, false
}

// Dispatch processes one command against state, returning a response and
// an ordered effect list (§4.8). It is the single mutation point for
// command-driven state changes; query commands (list-*, get-*, layout-get,
// list-rules, list-bindings, exec-path) return no effects and must not
// mutate, which is enforced here by routing them before any mutation path.
func (s *State) Dispatch(cmd Command, now time.Time, bindings map[string]string) (Response, []Effect) {
	switch cmd.Type {

	case CmdListWindows:
		return Response{OK: true, Windows: s.allWindows()}, nil
	case CmdListOutputs:
		return Response{OK: true, Displays: s.allDisplays()}, nil
	case CmdListRules:
		return Response{OK: true, Rules: append([]Rule(nil), s.Rules...)}, nil
	case CmdListBindings:
		return Response{OK: true, Bindings: bindings}, nil
	case CmdLayoutGet:
		d, ok := s.displayForLayoutQuery(cmd)
		if !ok {
			return errResponse("display not found"), nil
		}
		return Response{OK: true, Layout: s.EngineForDisplay(d)}, nil
	case CmdGetState:
		return Response{OK: true, State: s.snapshot()}, nil
	case CmdExecPath:
		return Response{OK: true}, nil // exec path list is maintained by the layout manager, not core state

	case CmdTagView:
		moves := s.ApplyTagView(s.FocusedDisplay, TagBit(cmd.Tag))
		return okResponse(), movesAndRetile(moves, s.FocusedDisplay)

	case CmdTagToggle:
		moves := s.ApplyTagToggle(s.FocusedDisplay, cmd.Mask)
		return okResponse(), movesAndRetile(moves, s.FocusedDisplay)

	case CmdTagViewLast:
		moves := s.ApplyTagViewLast(s.FocusedDisplay)
		return okResponse(), movesAndRetile(moves, s.FocusedDisplay)

	case CmdWindowMoveToTag:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		w.Tags = TagBit(cmd.Tag)
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{w.DisplayID}}}

	case CmdWindowToggleTag:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		next := w.Tags ^ cmd.Mask
		if next == 0 {
			return errResponse("cannot clear a window's last tag"), nil
		}
		w.Tags = next
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{w.DisplayID}}}

	case CmdWindowFocus:
		w, ok := s.resolveRelativeWindow(cmd.FocusSpec, cmd.WindowID)
		if !ok {
			return errResponse("no window in that direction"), nil
		}
		return s.doFocus(w, now)

	case CmdWindowSwap:
		cur, ok := s.FocusedWindow()
		if !ok {
			return errResponse("no focused window"), nil
		}
		other, ok := s.resolveRelativeWindow(cmd.FocusSpec, cmd.OtherWindowID)
		if !ok {
			return errResponse("no window in that direction"), nil
		}
		cur.DisplayID, other.DisplayID = other.DisplayID, cur.DisplayID
		cur.Tags, other.Tags = other.Tags, cur.Tags
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: uniqueDisplays(cur.DisplayID, other.DisplayID)}}

	case CmdWindowToggleFullscreen:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		w.Fullscreen = !w.Fullscreen
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{w.DisplayID}}}

	case CmdWindowToggleFloat:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		w.Floating = !w.Floating
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{w.DisplayID}}}

	case CmdWindowClose:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		return okResponse(), []Effect{{Kind: EffExecCommand, WindowID: w.ID, PID: w.PID, Cmd: "close"}}

	case CmdOutputFocus:
		return s.doOutputFocus(cmd.Next, now)

	case CmdOutputSend:
		w, ok := s.resolveTargetWindow(cmd.WindowID)
		if !ok {
			return errResponse("window not found"), nil
		}
		d, ok := s.ResolveDisplay(cmd.Display)
		if !ok {
			return errResponse("display %q not found", cmd.Display), nil
		}
		from := w.DisplayID
		s.ClearOrphan(w)
		w.DisplayID = d
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: uniqueDisplays(from, d)}}

	case CmdRetile:
		return okResponse(), []Effect{{Kind: EffRetile}}

	case CmdLayoutSetDefault:
		s.DefaultLayout = cmd.LayoutName
		return okResponse(), []Effect{{Kind: EffRetile}}

	case CmdLayoutSet:
		d, ok := s.displayForLayoutQuery(cmd)
		if !ok {
			return errResponse("display not found"), nil
		}
		d.PreviousLayout = d.CurrentLayout
		d.CurrentLayout = cmd.LayoutName
		return okResponse(), []Effect{{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{d.ID}}}

	case CmdLayoutCmd:
		if cmd.LayoutName != "" {
			return okResponse(), []Effect{{Kind: EffSendLayoutCommand, Layout: cmd.LayoutName, Cmd: cmd.LayoutCmd, Args: cmd.LayoutArgs}}
		}
		d, ok := s.Displays[s.FocusedDisplay]
		if !ok {
			return errResponse("no focused display"), nil
		}
		engine := s.EngineForDisplay(d)
		return okResponse(), []Effect{
			{Kind: EffSendLayoutCommand, Layout: engine, Cmd: cmd.LayoutCmd, Args: cmd.LayoutArgs},
			{Kind: EffRetileDisplays, DisplayIDs: []DisplayID{d.ID}},
		}

	case CmdExec:
		return okResponse(), []Effect{{Kind: EffExecCommand, ExecCommand: cmd.ExecCommand}}

	case CmdExecOrFocus:
		for _, w := range s.Windows {
			if w.App == cmd.ExecCommand || w.AppID == cmd.ExecCommand {
				return s.doFocus(w, now)
			}
		}
		return okResponse(), []Effect{{Kind: EffExecCommand, ExecCommand: cmd.ExecCommand}}

	case CmdRuleAdd:
		s.AddRule(cmd.Rule)
		return okResponse(), nil

	case CmdRuleDel:
		if !s.RemoveRuleAt(cmd.RuleIndex) {
			return errResponse("rule index %d out of range", cmd.RuleIndex), nil
		}
		return okResponse(), nil

	case CmdSetCursorWarp:
		s.CursorWarp = cmd.CursorWarp
		return okResponse(), nil

	case CmdSetOuterGap:
		s.OuterGap = cmd.Gap
		return okResponse(), []Effect{{Kind: EffRetile}}

	case CmdSubscribe:
		return okResponse(), nil // handled entirely in internal/ipc; core never mutates for it

	case CmdQuit:
		return okResponse(), []Effect{{Kind: EffQuit}}

	case CmdBind:
		return okResponse(), nil // binding table lives in internal/hotkey; core only validates here
	case CmdUnbind:
		return okResponse(), nil
	case CmdSetExecPath, CmdAddExecPath:
		return okResponse(), []Effect{{Kind: EffUpdateLayoutExecPath, ExecPath: cmd.ExecPathEntry}}

	default:
		return errResponse("unknown command %q", cmd.Type), nil
	}
}

func (s *State) doFocus(w *Window, now time.Time) (Response, []Effect) {
	fromDisplay := s.FocusedDisplay
	var tagMoves []WindowMove
	if w.Hidden() {
		tagMoves = s.AutoTagSwitch(w)
	}
	crossed := fromDisplay != w.DisplayID
	s.SetFocusIntent(w, now)
	s.FocusedDisplay = w.DisplayID

	effects := movesAndRetile(tagMoves, w.DisplayID)
	effects = append(effects, Effect{Kind: EffFocusWindow, WindowID: w.ID, PID: w.PID, IsOutputChange: crossed})
	if ShouldWarpCursor(s.CursorWarp, fromDisplay, w.DisplayID, crossed) {
		effects = append(effects, Effect{Kind: EffWarpCursor, WindowID: w.ID})
	}
	return okResponse(), effects
}

func (s *State) doOutputFocus(next bool, now time.Time) (Response, []Effect) {
	ids := s.SortedDisplayIDs()
	if len(ids) == 0 {
		return errResponse("no displays"), nil
	}
	idx := 0
	for i, id := range ids {
		if id == s.FocusedDisplay {
			idx = i
			break
		}
	}
	var targetIdx int
	if next {
		targetIdx = (idx + 1) % len(ids)
	} else {
		targetIdx = (idx - 1 + len(ids)) % len(ids)
	}
	target := ids[targetIdx]

	stack := s.WindowsOnDisplay(target)
	if len(stack) == 0 {
		s.FocusedDisplay = target
		return okResponse(), []Effect{{Kind: EffFocusVisibleWindowIfNeeded}}
	}
	return s.doFocus(stack[0], now)
}

func (s *State) displayForLayoutQuery(cmd Command) (*Display, bool) {
	if cmd.Display != "" {
		id, ok := s.ResolveDisplay(cmd.Display)
		if !ok {
			return nil, false
		}
		return s.Displays[id], true
	}
	d, ok := s.Displays[s.FocusedDisplay]
	return d, ok
}

func movesAndRetile(moves []WindowMove, displays ...DisplayID) []Effect {
	var effects []Effect
	if len(moves) > 0 {
		effects = append(effects, Effect{Kind: EffApplyWindowMoves, Moves: moves})
	}
	effects = append(effects, Effect{Kind: EffRetileDisplays, DisplayIDs: displays})
	return effects
}

func uniqueDisplays(ids ...DisplayID) []DisplayID {
	seen := make(map[DisplayID]bool, len(ids))
	var out []DisplayID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *State) allWindows() []*Window {
	out := make([]*Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		out = append(out, w)
	}
	return out
}

func (s *State) allDisplays() []*Display {
	out := make([]*Display, 0, len(s.Displays))
	for _, id := range s.SortedDisplayIDs() {
		out = append(out, s.Displays[id])
	}
	return out
}

func (s *State) snapshot() *Snapshot {
	return &Snapshot{
		Windows:          s.allWindows(),
		Displays:         s.allDisplays(),
		FocusedWindowID:  s.FocusedWindowID,
		HasFocusedWindow: s.HasFocusedWindow,
		FocusedDisplay:   s.FocusedDisplay,
		DefaultLayout:    s.DefaultLayout,
	}
}
