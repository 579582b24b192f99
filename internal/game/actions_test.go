package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixtureHand(cards string, bet int) Hand {
	h := NewHand("p1", bet)
	h.Cards = MustParseCards(cards)
	return h
}

func TestLegalActions(t *testing.T) {
	rules := DefaultRules()
	six := MustParseCards("6C")[0]
	ace := MustParseCards("AC")[0]

	tests := []struct {
		name  string
		hand  func() Hand
		up    Card
		ctx   ActionContext
		rules func(r Rules) Rules
		want  []Action
	}{
		{
			name: "fresh pair",
			hand: func() Hand { return fixtureHand("8S 8H", 10) },
			up:   six,
			ctx:  ActionContext{Balance: 100},
			want: []Action{ActionHit, ActionStand, ActionDouble, ActionSplit, ActionSurrender},
		},
		{
			name: "short of funds",
			hand: func() Hand { return fixtureHand("8S 8H", 10) },
			up:   six,
			ctx:  ActionContext{Balance: 5},
			want: []Action{ActionHit, ActionStand, ActionSurrender},
		},
		{
			name: "insurance against an ace",
			hand: func() Hand { return fixtureHand("10S 7H", 10) },
			up:   ace,
			ctx:  ActionContext{Balance: 100},
			want: []Action{ActionHit, ActionStand, ActionDouble, ActionSurrender, ActionInsurance},
		},
		{
			name: "insurance already decided",
			hand: func() Hand {
				h := fixtureHand("10S 7H", 10)
				h.InsuranceDecided = true
				return h
			},
			up:   ace,
			ctx:  ActionContext{Balance: 100},
			want: []Action{ActionHit, ActionStand, ActionDouble, ActionSurrender},
		},
		{
			name: "after a hit",
			hand: func() Hand {
				h := fixtureHand("5S 3H 2D", 10)
				h.Decisions = 1
				return h
			},
			up:   six,
			ctx:  ActionContext{Balance: 100},
			want: []Action{ActionHit, ActionStand},
		},
		{
			name: "no surrender",
			hand: func() Hand { return fixtureHand("10S 6H", 10) },
			up:   six,
			ctx:  ActionContext{Balance: 100},
			rules: func(r Rules) Rules {
				r.Surrender = SurrenderNone
				return r
			},
			want: []Action{ActionHit, ActionStand, ActionDouble},
		},
		{
			name: "split hand without double after split",
			hand: func() Hand {
				h := fixtureHand("9S 2H", 10)
				h.FromSplit = true
				return h
			},
			up:  six,
			ctx: ActionContext{Balance: 100, SplitsUsed: 1},
			rules: func(r Rules) Rules {
				r.DoubleAfterSplit = false
				return r
			},
			want: []Action{ActionHit, ActionStand},
		},
		{
			name: "split limit reached",
			hand: func() Hand {
				h := fixtureHand("9S 9H", 10)
				h.FromSplit = true
				return h
			},
			up:   six,
			ctx:  ActionContext{Balance: 100, SplitsUsed: 3},
			want: []Action{ActionHit, ActionStand, ActionDouble},
		},
		{
			name: "split aces may only stand",
			hand: func() Hand {
				h := fixtureHand("AS 5H", 10)
				h.FromSplit = true
				return h
			},
			up:   six,
			ctx:  ActionContext{Balance: 100, SplitsUsed: 1},
			want: []Action{ActionStand},
		},
		{
			name: "resplit aces",
			hand: func() Hand {
				h := fixtureHand("AS AH", 10)
				h.FromSplit = true
				return h
			},
			up:  six,
			ctx: ActionContext{Balance: 100, SplitsUsed: 1},
			rules: func(r Rules) Rules {
				r.ResplitAces = true
				return r
			},
			want: []Action{ActionStand, ActionSplit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rules
			if tt.rules != nil {
				r = tt.rules(r)
			}
			assert.Equal(t, tt.want, LegalActions(tt.hand(), tt.up, r, tt.ctx))
		})
	}
}

func TestLegalActionsResolvedHand(t *testing.T) {
	h := fixtureHand("10S 7H", 10)
	h.Status = HandStanding
	assert.Empty(t, LegalActions(h, MustParseCards("6C")[0], DefaultRules(), ActionContext{Balance: 100}))

	single := fixtureHand("10S", 10)
	assert.Empty(t, LegalActions(single, MustParseCards("6C")[0], DefaultRules(), ActionContext{Balance: 100}))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("double")
	assert.True(t, ok)
	assert.Equal(t, ActionDouble, a)

	_, ok = ParseAction("fold")
	assert.False(t, ok)
}
