package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/yashiki/yashikid/internal/wm"
)

// EventFilter selects which event categories a subscriber wants, per
// the event socket's subscription envelope (§4.7: "{ snapshot: bool,
// filter: { window, focus, display, tags, layout: bool } }").
type EventFilter struct {
	Window  bool `json:"window"`
	Focus   bool `json:"focus"`
	Display bool `json:"display"`
	Tags    bool `json:"tags"`
	Layout  bool `json:"layout"`
}

// allowsAll is the filter used when a subscription omits a filter
// object entirely: every category passes. A subscriber that explicitly
// sends a filter gets exactly the categories it names, including a
// filter with every field false (an intentional mute-everything
// subscription, e.g. one interested only in the initial snapshot).
var allowsAll = EventFilter{Window: true, Focus: true, Display: true, Tags: true, Layout: true}

// Allows reports whether kind passes f.
func (f EventFilter) Allows(kind wm.EventKind) bool {
	switch kind {
	case wm.EventWindowCreated, wm.EventWindowDestroyed, wm.EventWindowUpdated:
		return f.Window
	case wm.EventWindowFocused, wm.EventDisplayFocused:
		return f.Focus
	case wm.EventDisplayAdded, wm.EventDisplayRemoved, wm.EventDisplayUpdated:
		return f.Display
	case wm.EventTagsChanged:
		return f.Tags
	case wm.EventLayoutChanged:
		return f.Layout
	default:
		return false
	}
}

// Subscription is the decoded event-socket subscription envelope.
type Subscription struct {
	Snapshot bool
	Filter   EventFilter
}

type wireSubscription struct {
	Snapshot bool         `json:"snapshot"`
	Filter   *EventFilter `json:"filter,omitempty"`
}

// DecodeSubscription parses the first line an event-socket client
// sends. A missing filter object defaults to allowsAll, so a bare
// {"snapshot":true} subscribes to everything plus the initial snapshot.
func DecodeSubscription(line []byte) (Subscription, error) {
	var ws wireSubscription
	if err := json.Unmarshal(line, &ws); err != nil {
		return Subscription{}, fmt.Errorf("ipc: malformed subscription: %w", err)
	}
	filter := allowsAll
	if ws.Filter != nil {
		filter = *ws.Filter
	}
	return Subscription{Snapshot: ws.Snapshot, Filter: filter}, nil
}
