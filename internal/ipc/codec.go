// Package ipc implements C3: the command socket, the event-stream
// socket, and (optionally) a loopback debug HTTP/websocket mirror. It
// owns every JSON tagged-union encoding the core's internal/wm package
// deliberately stays decoupled from (see wm.Command's doc comment).
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/yashiki/yashikid/internal/wm"
)

// wireCommand is the JSON shape of one Command-IPC message (§6
// "Command IPC"): a "type" discriminator plus whichever of the
// verb-specific fields that type uses. All fields are optional on the
// wire; DecodeCommand validates the ones a given type requires.
type wireCommand struct {
	Type string `json:"type"`

	Tag       int   `json:"tag,omitempty"`
	Tags      []int `json:"tags,omitempty"`
	WindowID  uint32 `json:"window_id,omitempty"`
	OtherID   uint32 `json:"other_window_id,omitempty"`
	Direction string `json:"direction,omitempty"`

	Display string `json:"display,omitempty"`
	Next    bool   `json:"next,omitempty"`

	Layout string   `json:"layout,omitempty"`
	Cmd    string   `json:"cmd,omitempty"`
	Args   []string `json:"args,omitempty"`

	Command string `json:"command,omitempty"`

	Rule      *wireRule `json:"rule,omitempty"`
	RuleIndex int       `json:"rule_index,omitempty"`

	CursorWarp string `json:"cursor_warp,omitempty"`

	Top    int `json:"top,omitempty"`
	Right  int `json:"right,omitempty"`
	Bottom int `json:"bottom,omitempty"`
	Left   int `json:"left,omitempty"`

	Chord string `json:"chord,omitempty"`

	Path string `json:"path,omitempty"`

	Snapshot bool `json:"snapshot,omitempty"`
}

// wireRule mirrors the Rules DSL in §6: glob matcher strings, an
// optional numeric-or-symbolic window level, four button-state
// matchers, and one action token with its payload.
type wireRule struct {
	AppName *string `json:"app_name,omitempty"`
	AppID   *string `json:"app_id,omitempty"`
	Title   *string `json:"title,omitempty"`
	AXID    *string `json:"ax_id,omitempty"`
	Subrole *string `json:"subrole,omitempty"`

	WindowLevel *string `json:"window_level,omitempty"`

	CloseButton      *string `json:"close_button,omitempty"`
	FullscreenButton *string `json:"fullscreen_button,omitempty"`
	MinimizeButton   *string `json:"minimize_button,omitempty"`
	ZoomButton       *string `json:"zoom_button,omitempty"`

	Action string `json:"action"`
	Tags   []int  `json:"tags,omitempty"`
	Output string `json:"output,omitempty"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	W      int    `json:"w,omitempty"`
	H      int    `json:"h,omitempty"`
}

// tagsToMask converts 1-indexed user-facing tag numbers to the core's
// 0-indexed TagMask bitmask (types.go: "bit i set means tag i+1").
func tagsToMask(tags []int) (wm.TagMask, error) {
	var mask wm.TagMask
	for _, t := range tags {
		if t < 1 || t > 8 {
			return 0, fmt.Errorf("ipc: tag %d out of range [1,8]", t)
		}
		mask |= wm.TagBit(wm.Tag(t - 1))
	}
	return mask, nil
}

func decodeButtonMatcher(s *string) (*wm.ButtonMatcher, error) {
	if s == nil {
		return nil, nil
	}
	switch wm.ButtonMatcher(*s) {
	case wm.ButtonExists, wm.ButtonNone, wm.ButtonEnabled, wm.ButtonDisabled:
		m := wm.ButtonMatcher(*s)
		return &m, nil
	default:
		return nil, fmt.Errorf("ipc: unrecognized button matcher %q", *s)
	}
}

func decodeLevelMatcher(s *string) (*wm.LevelMatcher, error) {
	if s == nil {
		return nil, nil
	}
	var n int
	if _, err := fmt.Sscanf(*s, "%d", &n); err == nil && fmt.Sprintf("%d", n) == *s {
		lvl := wm.WindowLevel(n)
		return &wm.LevelMatcher{Numeric: &lvl}, nil
	}
	return &wm.LevelMatcher{Symbolic: *s}, nil
}

func decodeRule(wr *wireRule) (wm.Rule, error) {
	if wr == nil {
		return wm.Rule{}, fmt.Errorf("ipc: rule-add requires a rule")
	}

	level, err := decodeLevelMatcher(wr.WindowLevel)
	if err != nil {
		return wm.Rule{}, err
	}
	closeB, err := decodeButtonMatcher(wr.CloseButton)
	if err != nil {
		return wm.Rule{}, err
	}
	fsB, err := decodeButtonMatcher(wr.FullscreenButton)
	if err != nil {
		return wm.Rule{}, err
	}
	minB, err := decodeButtonMatcher(wr.MinimizeButton)
	if err != nil {
		return wm.Rule{}, err
	}
	zoomB, err := decodeButtonMatcher(wr.ZoomButton)
	if err != nil {
		return wm.Rule{}, err
	}

	var action wm.Action
	switch wr.Action {
	case "ignore":
		action.Kind = wm.ActionIgnore
	case "float":
		action.Kind = wm.ActionFloat
	case "no-float":
		action.Kind = wm.ActionNoFloat
	case "tags":
		mask, err := tagsToMask(wr.Tags)
		if err != nil {
			return wm.Rule{}, err
		}
		action.Kind = wm.ActionTags
		action.Tags = mask
	case "output":
		if wr.Output == "" {
			return wm.Rule{}, fmt.Errorf("ipc: rule action %q requires output", wr.Action)
		}
		action.Kind = wm.ActionOutput
		action.Output = wr.Output
	case "position":
		action.Kind = wm.ActionPosition
		action.Pos = wm.Point{X: wr.X, Y: wr.Y}
	case "dimensions":
		action.Kind = wm.ActionDimensions
		action.Dim = wm.Size{W: wr.W, H: wr.H}
	default:
		return wm.Rule{}, fmt.Errorf("ipc: unrecognized rule action %q", wr.Action)
	}

	return wm.Rule{
		AppName:    wr.AppName,
		AppID:      wr.AppID,
		Title:      wr.Title,
		AXID:       wr.AXID,
		Subrole:    wr.Subrole,
		Level:      level,
		Close:      closeB,
		Fullscreen: fsB,
		Minimize:   minB,
		Zoom:       zoomB,
		Action:     action,
	}, nil
}

func decodeCursorWarp(s string) (wm.CursorWarpMode, error) {
	switch s {
	case "disabled":
		return wm.CursorWarpDisabled, nil
	case "on-output-change":
		return wm.CursorWarpOnOutputChange, nil
	case "on-focus-change":
		return wm.CursorWarpOnFocusChange, nil
	default:
		return 0, fmt.Errorf("ipc: unrecognized cursor-warp mode %q", s)
	}
}

// DecodeCommand parses one Command-IPC wire message into the core's
// decoupled wm.Command shape, per dispatch.go's "internal/ipc owns the
// JSON tagged-union encoding" design note.
func DecodeCommand(line []byte) (wm.Command, error) {
	var wc wireCommand
	if err := json.Unmarshal(line, &wc); err != nil {
		return wm.Command{}, fmt.Errorf("ipc: malformed command: %w", err)
	}

	cmd := wm.Command{
		Type:          wm.CommandType(wc.Type),
		Display:       wc.Display,
		Next:          wc.Next,
		WindowID:      wm.WindowID(wc.WindowID),
		OtherWindowID: wm.WindowID(wc.OtherID),
		FocusSpec:     wc.Direction,
		LayoutName:    wc.Layout,
		LayoutCmd:     wc.Cmd,
		LayoutArgs:    wc.Args,
		ExecCommand:   wc.Command,
		RuleIndex:     wc.RuleIndex,
		HotkeyChord:   wc.Chord,
		HotkeyCmd:     wc.Command,
		ExecPathEntry: wc.Path,
		SnapshotOnSubscribe: wc.Snapshot,
	}

	switch cmd.Type {
	case wm.CmdTagView, wm.CmdWindowMoveToTag:
		if wc.Tag < 1 || wc.Tag > 8 {
			return wm.Command{}, fmt.Errorf("ipc: tag %d out of range [1,8]", wc.Tag)
		}
		cmd.Tag = wm.Tag(wc.Tag - 1)
	case wm.CmdTagToggle, wm.CmdWindowToggleTag:
		mask, err := tagsToMask(wc.Tags)
		if err != nil {
			return wm.Command{}, err
		}
		cmd.Mask = mask
	case wm.CmdRuleAdd:
		rule, err := decodeRule(wc.Rule)
		if err != nil {
			return wm.Command{}, err
		}
		cmd.Rule = rule
	case wm.CmdSetCursorWarp:
		mode, err := decodeCursorWarp(wc.CursorWarp)
		if err != nil {
			return wm.Command{}, err
		}
		cmd.CursorWarp = mode
	case wm.CmdSetOuterGap:
		cmd.Gap = wm.Gap{Top: wc.Top, Right: wc.Right, Bottom: wc.Bottom, Left: wc.Left}
	}

	return cmd, nil
}

// wireResponse is the JSON shape returned for every Command-IPC
// request: Ok or a typed payload, exactly one of which is populated.
type wireResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Windows  []*wm.Window      `json:"windows,omitempty"`
	Displays []*wm.Display     `json:"displays,omitempty"`
	Rules    []wireRuleOut     `json:"rules,omitempty"`
	Bindings map[string]string `json:"bindings,omitempty"`
	Layout   string            `json:"layout,omitempty"`
	ExecPath []string          `json:"exec_path,omitempty"`
	State    *wm.Snapshot      `json:"state,omitempty"`
}

// wireRuleOut is the list-rules response encoding of a Rule; it
// round-trips through the same vocabulary wireRule accepts on rule-add.
type wireRuleOut struct {
	AppName *string `json:"app_name,omitempty"`
	AppID   *string `json:"app_id,omitempty"`
	Title   *string `json:"title,omitempty"`
	AXID    *string `json:"ax_id,omitempty"`
	Subrole *string `json:"subrole,omitempty"`
	Action  string  `json:"action"`
}

func encodeRuleOut(r wm.Rule) wireRuleOut {
	out := wireRuleOut{AppName: r.AppName, AppID: r.AppID, Title: r.Title, AXID: r.AXID, Subrole: r.Subrole}
	switch r.Action.Kind {
	case wm.ActionIgnore:
		out.Action = "ignore"
	case wm.ActionFloat:
		out.Action = "float"
	case wm.ActionNoFloat:
		out.Action = "no-float"
	case wm.ActionTags:
		out.Action = "tags"
	case wm.ActionOutput:
		out.Action = "output"
	case wm.ActionPosition:
		out.Action = "position"
	case wm.ActionDimensions:
		out.Action = "dimensions"
	}
	return out
}

// EncodeResponse renders a dispatcher Response as one Command-IPC reply
// line.
func EncodeResponse(resp wm.Response) ([]byte, error) {
	wr := wireResponse{
		OK:       resp.Error == "",
		Error:    resp.Error,
		Windows:  resp.Windows,
		Displays: resp.Displays,
		Bindings: resp.Bindings,
		Layout:   resp.Layout,
		ExecPath: resp.ExecPath,
		State:    resp.State,
	}
	if resp.Rules != nil {
		wr.Rules = make([]wireRuleOut, len(resp.Rules))
		for i, r := range resp.Rules {
			wr.Rules[i] = encodeRuleOut(r)
		}
	}
	return json.Marshal(wr)
}

// EncodeEvent renders one StateEvent as one Event-IPC stream line.
func EncodeEvent(ev wm.StateEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// EncodeSnapshot renders the initial Snapshot event sent when a
// subscription requests snapshot: true.
func EncodeSnapshot(s *wm.Snapshot) ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*wm.Snapshot
	}{Kind: "Snapshot", Snapshot: s})
}
