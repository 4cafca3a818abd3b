package wm

// EventKind enumerates the state-change events the core emits over the
// IPC event stream (§4.7).
type EventKind string

const (
	EventWindowCreated   EventKind = "WindowCreated"
	EventWindowDestroyed EventKind = "WindowDestroyed"
	EventWindowUpdated   EventKind = "WindowUpdated"
	EventWindowFocused   EventKind = "WindowFocused"
	EventDisplayFocused  EventKind = "DisplayFocused"
	EventDisplayAdded    EventKind = "DisplayAdded"
	EventDisplayRemoved  EventKind = "DisplayRemoved"
	EventDisplayUpdated  EventKind = "DisplayUpdated"
	EventTagsChanged     EventKind = "TagsChanged"
	EventLayoutChanged   EventKind = "LayoutChanged"
)

// StateEvent is one emitted event. Only the fields relevant to Kind are
// populated; the rest are left zero.
type StateEvent struct {
	Kind EventKind `json:"kind"`

	WindowID  WindowID `json:"window_id,omitempty"`
	Window    *Window  `json:"window,omitempty"`
	DisplayID DisplayID `json:"display_id,omitempty"`

	PrevMask TagMask `json:"prev_mask,omitempty"`
	NewMask  TagMask `json:"new_mask,omitempty"`

	Layout string `json:"layout,omitempty"`
}

// DiffEvents compares a before/after pair of State snapshots and returns
// the minimal set of events describing the transition (§4.7: "the set of
// events emitted equals the symmetric difference between pre- and
// post-state over the event projections").
func DiffEvents(before, after *State) []StateEvent {
	var events []StateEvent

	for id, w := range after.Windows {
		bw, existed := before.Windows[id]
		if !existed {
			events = append(events, StateEvent{Kind: EventWindowCreated, WindowID: id, Window: w})
			continue
		}
		if !windowsEqual(bw, w) {
			events = append(events, StateEvent{Kind: EventWindowUpdated, WindowID: id, Window: w})
		}
	}
	for id, w := range before.Windows {
		if _, still := after.Windows[id]; !still {
			events = append(events, StateEvent{Kind: EventWindowDestroyed, WindowID: id, Window: w})
		}
	}

	if before.HasFocusedWindow != after.HasFocusedWindow || before.FocusedWindowID != after.FocusedWindowID {
		if after.HasFocusedWindow {
			events = append(events, StateEvent{Kind: EventWindowFocused, WindowID: after.FocusedWindowID})
		}
	}
	if before.FocusedDisplay != after.FocusedDisplay {
		events = append(events, StateEvent{Kind: EventDisplayFocused, DisplayID: after.FocusedDisplay})
	}

	for id, d := range after.Displays {
		bd, existed := before.Displays[id]
		if !existed {
			events = append(events, StateEvent{Kind: EventDisplayAdded, DisplayID: id})
			continue
		}
		if bd.VisibleTags != d.VisibleTags {
			events = append(events, StateEvent{Kind: EventTagsChanged, DisplayID: id, PrevMask: bd.VisibleTags, NewMask: d.VisibleTags})
		}
		if bd.CurrentLayout != d.CurrentLayout {
			events = append(events, StateEvent{Kind: EventLayoutChanged, DisplayID: id, Layout: d.CurrentLayout})
		}
		if bd.FullBounds != d.FullBounds || bd.UsableBounds != d.UsableBounds {
			events = append(events, StateEvent{Kind: EventDisplayUpdated, DisplayID: id})
		}
	}
	for id := range before.Displays {
		if _, still := after.Displays[id]; !still {
			events = append(events, StateEvent{Kind: EventDisplayRemoved, DisplayID: id})
		}
	}

	return events
}

func windowsEqual(a, b *Window) bool {
	if a.CurrentFrame != b.CurrentFrame || a.DisplayID != b.DisplayID || a.Tags != b.Tags {
		return false
	}
	if a.Floating != b.Floating || a.Fullscreen != b.Fullscreen {
		return false
	}
	if a.Hidden() != b.Hidden() {
		return false
	}
	if a.Title != b.Title {
		return false
	}
	return true
}
