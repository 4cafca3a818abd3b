// Package layout implements C2: the layout-engine subprocess protocol
// client. Each layout engine is a separate process speaking newline-
// delimited JSON on its stdin/stdout (SPEC_FULL.md §6 "Layout engine
// protocol"); this package owns spawning, framing, and multiplexing
// those subprocesses so internal/wm's pure core never touches exec.Cmd.
package layout

import (
	"encoding/json"
	"fmt"

	"github.com/yashiki/yashikid/internal/wm"
)

// outEnvelope is the core -> engine wire shape: exactly one of Layout or
// Command is set per message.
type outEnvelope struct {
	Layout  *outLayout  `json:"Layout,omitempty"`
	Command *outCommand `json:"Command,omitempty"`
}

type outLayout struct {
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Windows []wm.WindowID `json:"windows"`
}

type outCommand struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args"`
}

// encodeLayoutRequest renders a tile request as the wire's Layout message.
func encodeLayoutRequest(req wm.TileRequest) ([]byte, error) {
	windows := req.WindowIDs
	if windows == nil {
		windows = []wm.WindowID{}
	}
	return json.Marshal(outEnvelope{Layout: &outLayout{
		Width:   req.Width,
		Height:  req.Height,
		Windows: windows,
	}})
}

// encodeCommand renders an arbitrary engine command (e.g. "focus-changed").
func encodeCommand(cmd string, args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	return json.Marshal(outEnvelope{Command: &outCommand{Cmd: cmd, Args: args}})
}

// ReplyKind classifies an engine's response line.
type ReplyKind int

const (
	ReplyLayout ReplyKind = iota
	ReplyOk
	ReplyNeedsRetile
	ReplyError
)

// Reply is a parsed engine -> core message.
type Reply struct {
	Kind         ReplyKind
	Placements   []wm.Placement // set iff Kind == ReplyLayout
	ErrorMessage string         // set iff Kind == ReplyError
}

type inEnvelope struct {
	Layout *inLayout `json:"Layout,omitempty"`
	Error  *inError  `json:"Error,omitempty"`
}

type inLayout struct {
	Windows []inPlacement `json:"windows"`
}

type inPlacement struct {
	ID wm.WindowID `json:"id"`
	X  int         `json:"x"`
	Y  int         `json:"y"`
	W  int         `json:"width"`
	H  int         `json:"height"`
}

type inError struct {
	Message string `json:"message"`
}

// decodeReply parses one line of engine output. The protocol allows a
// bare JSON string ("Ok"/"NeedsRetile") alongside the tagged-union
// objects, so a plain string is tried first.
func decodeReply(line []byte) (Reply, error) {
	var bare string
	if err := json.Unmarshal(line, &bare); err == nil {
		switch bare {
		case "Ok":
			return Reply{Kind: ReplyOk}, nil
		case "NeedsRetile":
			return Reply{Kind: ReplyNeedsRetile}, nil
		default:
			return Reply{}, fmt.Errorf("layout: unrecognized bare reply %q", bare)
		}
	}

	var env inEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Reply{}, fmt.Errorf("layout: malformed reply: %w", err)
	}
	switch {
	case env.Layout != nil:
		placements := make([]wm.Placement, len(env.Layout.Windows))
		for i, p := range env.Layout.Windows {
			placements[i] = wm.Placement{ID: p.ID, X: p.X, Y: p.Y, W: p.W, H: p.H}
		}
		return Reply{Kind: ReplyLayout, Placements: placements}, nil
	case env.Error != nil:
		return Reply{Kind: ReplyError, ErrorMessage: env.Error.Message}, nil
	default:
		return Reply{}, fmt.Errorf("layout: reply has neither Layout nor Error")
	}
}
