package wm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, value string
		want           bool
	}{
		{"Firefox", "Firefox", true},
		{"Firefox", "firefox", false},
		{"*", "anything", true},
		{"Fire*", "Firefox", true},
		{"Fire*", "Chrome", false},
		{"*fox", "Firefox", true},
		{"*fox", "foxtrot", false},
		{"*fire*", "wildfire", true},
		{"*a*b*", "xaxbx", true},
		{"*a*b*", "xbxax", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, globMatch(c.pattern, c.value), "pattern %q value %q", c.pattern, c.value)
	}
}

func TestSpecificityOrdering(t *testing.T) {
	exact := strp("Firefox")
	prefix := strp("Fire*")
	suffix := strp("*fox")
	contains := strp("*ire*")
	wildcard := strp("*")

	assert.Greater(t, globSpecificity(exact), globSpecificity(prefix))
	assert.Greater(t, globSpecificity(prefix), globSpecificity(suffix))
	assert.Greater(t, globSpecificity(suffix), globSpecificity(contains))
	assert.Greater(t, globSpecificity(contains), globSpecificity(wildcard))
	assert.Greater(t, globSpecificity(wildcard), globSpecificity(nil))
}

func TestAddRuleSortsBySpecificityStable(t *testing.T) {
	s := NewState()
	wildcardRule := Rule{AppName: strp("*"), Action: Action{Kind: ActionIgnore}}
	exactRule := Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionFloat}}
	s.AddRule(wildcardRule)
	s.AddRule(exactRule)

	require.Len(t, s.Rules, 2)
	assert.Equal(t, "Firefox", *s.Rules[0].AppName, "more specific rule sorts first regardless of insertion order")
}

func TestAddRulePreservesInsertionOrderOnTies(t *testing.T) {
	s := NewState()
	first := Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionFloat}}
	second := Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionIgnore}}
	s.AddRule(first)
	s.AddRule(second)

	require.Len(t, s.Rules, 2)
	assert.Equal(t, ActionFloat, s.Rules[0].Action.Kind, "equal specificity preserves insertion order")
	assert.Equal(t, ActionIgnore, s.Rules[1].Action.Kind)
}

func TestRemoveRuleAt(t *testing.T) {
	s := NewState()
	s.AddRule(Rule{AppName: strp("A")})
	s.AddRule(Rule{AppName: strp("B")})
	require.True(t, s.RemoveRuleAt(0))
	require.Len(t, s.Rules, 1)
	assert.False(t, s.RemoveRuleAt(5))
}

func TestMatchWindowAXIDNoneSentinel(t *testing.T) {
	r := Rule{AXID: strp("none")}
	assert.True(t, r.Matches(MatchWindow{AXID: ""}))
	assert.False(t, r.Matches(MatchWindow{AXID: "some-id"}))
}

func TestMatchWindowSubroleNormalizesAXPrefix(t *testing.T) {
	r := Rule{Subrole: strp("AXDialog")}
	assert.True(t, r.Matches(MatchWindow{Subrole: "Dialog"}))
	assert.True(t, r.Matches(MatchWindow{Subrole: "AXDialog"}))
}

func TestLevelMatcherSymbolic(t *testing.T) {
	lv, ok := ParseLevelSymbol("floating")
	require.True(t, ok)
	r := Rule{Level: &lv}
	assert.True(t, r.Matches(MatchWindow{Level: LevelFloating}))
	assert.False(t, r.Matches(MatchWindow{Level: LevelNormal}))
}

func TestResolveActionsFirstMatchWinsPerCategory(t *testing.T) {
	s := NewState()
	s.AddRule(Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionTags, Tags: TagBit(2)}})
	s.AddRule(Rule{AppName: strp("*"), Action: Action{Kind: ActionTags, Tags: TagBit(0)}})

	res := s.ResolveActions(MatchWindow{App: "Firefox"})
	require.NotNil(t, res.Tags)
	assert.Equal(t, TagBit(2), *res.Tags, "the more specific rule's tag action wins")
}

func TestResolveActionsIndependentCategories(t *testing.T) {
	s := NewState()
	s.AddRule(Rule{AppName: strp("Firefox"), Action: Action{Kind: ActionFloat}})
	s.AddRule(Rule{AppName: strp("*"), Action: Action{Kind: ActionTags, Tags: TagBit(3)}})

	res := s.ResolveActions(MatchWindow{App: "Firefox"})
	assert.True(t, res.FloatSet)
	assert.True(t, res.Float)
	require.NotNil(t, res.Tags)
	assert.Equal(t, TagBit(3), *res.Tags, "a less specific rule's action still applies to an unclaimed category")
}

func TestAnyNonIgnoreMatches(t *testing.T) {
	s := NewState()
	s.AddRule(Rule{AppName: strp("Spotlight"), Action: Action{Kind: ActionIgnore}})
	assert.False(t, s.AnyNonIgnoreMatches(MatchWindow{App: "Spotlight"}))

	s.AddRule(Rule{AppName: strp("Spotlight"), Action: Action{Kind: ActionFloat}})
	assert.True(t, s.AnyNonIgnoreMatches(MatchWindow{App: "Spotlight"}))
}

func TestButtonMatcher(t *testing.T) {
	enabled := true
	disabled := false
	assert.True(t, ButtonExists.matches(&ButtonState{}))
	assert.False(t, ButtonExists.matches(nil))
	assert.True(t, ButtonNone.matches(nil))
	assert.True(t, ButtonEnabled.matches(&ButtonState{Enabled: &enabled}))
	assert.True(t, ButtonDisabled.matches(&ButtonState{Enabled: &disabled}))
}
