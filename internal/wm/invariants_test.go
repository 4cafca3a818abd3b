package wm

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("core state invariants", func() {

	It("never lets a hidden window's frame leave its display's full bounds entirely", func() {
		s := NewState()
		d := newTestDisplay(1, 0)
		s.Displays[1] = d
		w := newTestWindow(1, 1, 0)
		s.Windows[1] = w

		s.HideWindow(w)
		Expect(IsValidHideFrame(d, w.CurrentFrame)).To(BeTrue())
	})

	It("keeps every window's display_id pointing at a display present in state", func() {
		s := NewState()
		s.Displays[1] = newTestDisplay(1, 0)
		s.Displays[2] = newTestDisplay(2, 2000)
		s.Windows[1] = newTestWindow(1, 1, 0)
		s.Windows[2] = newTestWindow(2, 2, 0)

		for _, w := range s.Windows {
			_, ok := s.Displays[w.DisplayID]
			Expect(ok).To(BeTrue(), "window %d references a display not in state", w.ID)
		}
	})

	It("keeps rules sorted by non-increasing specificity", func() {
		s := NewState()
		s.AddRule(Rule{AppName: strp("*"), Action: Action{Kind: ActionIgnore}})
		s.AddRule(Rule{AppName: strp("Firefox"), Title: strp("*Private*"), Action: Action{Kind: ActionFloat}})
		s.AddRule(Rule{AppName: strp("Fire*"), Action: Action{Kind: ActionTags, Tags: TagBit(2)}})

		for i := 1; i < len(s.Rules); i++ {
			Expect(specificity(s.Rules[i-1])).To(BeNumerically(">=", specificity(s.Rules[i])))
		}
	})

	It("never loses windows across a display disconnect/reconnect round trip", func() {
		s := NewState()
		s.Displays[1] = newTestDisplay(1, 0)
		s.Displays[2] = newTestDisplay(2, 2000)
		s.Windows[1] = newTestWindow(1, 1, 0)
		s.Windows[2] = newTestWindow(2, 2, 0)
		before := len(s.Windows)

		s.HandleDisplayChange([]DisplayObservation{
			{ID: 1, FullBounds: s.Displays[1].FullBounds, UsableBounds: s.Displays[1].UsableBounds},
		})
		Expect(s.Windows).To(HaveLen(before))

		s.HandleDisplayChange([]DisplayObservation{
			{ID: 1, FullBounds: s.Displays[1].FullBounds, UsableBounds: s.Displays[1].UsableBounds},
			{ID: 2, Name: "display-2", FullBounds: Rect{X: 2000, Y: 0, W: 1920, H: 1080}, UsableBounds: Rect{X: 2000, Y: 25, W: 1920, H: 1055}},
		})
		Expect(s.Windows).To(HaveLen(before))
	})

	It("emits events equal to the symmetric difference of before/after projections", func() {
		before := NewState()
		before.Displays[1] = newTestDisplay(1, 0)
		before.Windows[1] = newTestWindow(1, 1, 0)

		after := before.Clone()
		after.Windows[2] = newTestWindow(2, 1, 0)
		delete(after.Windows, 1)
		after.Displays[1].VisibleTags = TagBit(2)

		events := DiffEvents(before, after)
		kinds := map[EventKind]bool{}
		for _, e := range events {
			kinds[e.Kind] = true
		}
		Expect(kinds).To(HaveKey(EventWindowCreated))
		Expect(kinds).To(HaveKey(EventWindowDestroyed))
		Expect(kinds).To(HaveKey(EventTagsChanged))
		Expect(events).To(HaveLen(3), "no event fires for anything that didn't change")
	})
})

var _ = Describe("core laws", func() {

	It("is idempotent: a second sync_all over unchanged OS state produces no moves", func() {
		s := NewState()
		s.Displays[1] = newTestDisplay(1, 0)
		obs := []WindowObservation{{ID: 1, PID: 1, App: "Firefox", Frame: Rect{X: 0, Y: 0, W: 400, H: 300}, Level: LevelNormal}}

		first := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
		Expect(first.Changed).To(BeTrue())

		second := s.Sync(obs, fakeDisplayLookup{id: 1}, nil, nil)
		Expect(second.Changed).To(BeFalse())
		Expect(second.Moves).To(BeEmpty())
		Expect(second.NewWindowIDs).To(BeEmpty())
	})

	It("round-trips tag-view-last: view X, last, last returns to the state right after the first view", func() {
		s := NewState()
		s.Displays[1] = newTestDisplay(1, 0)
		s.Windows[1] = newTestWindow(1, 1, 0)
		s.Windows[2] = newTestWindow(2, 1, 1)

		s.ApplyTagView(1, TagBit(1))
		afterFirstView := s.Displays[1].VisibleTags

		s.ApplyTagViewLast(1)
		s.ApplyTagViewLast(1)
		Expect(s.Displays[1].VisibleTags).To(Equal(afterFirstView))
	})

	It("restores every window and clears orphaned_from on disconnect-then-reconnect with no intervening output-send", func() {
		s := NewState()
		s.Displays[1] = newTestDisplay(1, 0)
		s.Displays[2] = newTestDisplay(2, 2000)
		w := newTestWindow(1, 2, 0)
		s.Windows[1] = w

		s.HandleDisplayChange([]DisplayObservation{
			{ID: 1, FullBounds: s.Displays[1].FullBounds, UsableBounds: s.Displays[1].UsableBounds},
		})
		Expect(w.DisplayID).To(Equal(DisplayID(1)))
		Expect(w.Orphaned).NotTo(BeNil())

		s.HandleDisplayChange([]DisplayObservation{
			{ID: 1, FullBounds: s.Displays[1].FullBounds, UsableBounds: s.Displays[1].UsableBounds},
			{ID: 2, Name: "display-2", FullBounds: Rect{X: 2000, Y: 0, W: 1920, H: 1080}, UsableBounds: Rect{X: 2000, Y: 25, W: 1920, H: 1055}},
		})
		Expect(w.DisplayID).To(Equal(DisplayID(2)))
		Expect(w.Orphaned).To(BeNil())
	})

	It("never lets a less-specific rule added later change an already-resolved action", func() {
		s := NewState()
		s.AddRule(Rule{AppName: strp("Safari"), Title: strp("*Preferences*"), Action: Action{Kind: ActionFloat}})
		before := s.ResolveActions(MatchWindow{App: "Safari", Title: "Preferences"})

		s.AddRule(Rule{AppName: strp("Safari"), Action: Action{Kind: ActionTags, Tags: TagBit(2)}})
		after := s.ResolveActions(MatchWindow{App: "Safari", Title: "Preferences"})

		Expect(after.Float).To(Equal(before.Float))
		Expect(after.FloatSet).To(Equal(before.FloatSet))
	})

	It("re-focuses the intended window when a same-process spurious external focus settles within the suppression window", func() {
		s := NewState()
		w1 := newTestWindow(1, 1, 0)
		w2 := newTestWindow(2, 1, 0)
		w2.PID = w1.PID
		s.Windows[1], s.Windows[2] = w1, w2

		now := time.Now()
		s.SetFocusIntent(w1, now)

		_, suppress := s.ShouldSuppressExternalFocus(w2, now.Add(50*time.Millisecond))
		Expect(suppress).To(BeTrue())
		Expect(s.FocusedWindowID).To(Equal(WindowID(1)), "focused_window_id is unchanged by the suppressed report")
	})
})
