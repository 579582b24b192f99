package game

import "fmt"

// DealerHand carries the dealer's cards. While HasHiddenCard is set the hole
// card (index 1) is in Cards but excluded from visible totals and views.
type DealerHand struct {
	Cards         []Card `json:"cards"`
	HasHiddenCard bool   `json:"hasHiddenCard"`
}

// UpCard returns the first dealer card, or the zero Card before the deal.
func (d DealerHand) UpCard() Card {
	if len(d.Cards) == 0 {
		return Card{}
	}
	return d.Cards[0]
}

// VisibleCards returns the cards a player may see.
func (d DealerHand) VisibleCards() []Card {
	if !d.HasHiddenCard || len(d.Cards) < 2 {
		return append([]Card(nil), d.Cards...)
	}
	out := make([]Card, 0, len(d.Cards)-1)
	out = append(out, d.Cards[0])
	return append(out, d.Cards[2:]...)
}

// VisibleTotal is the best total over the visible cards.
func (d DealerHand) VisibleTotal() int {
	return BestTotal(d.VisibleCards())
}

// IsBlackjack checks the full hand, hole card included.
func (d DealerHand) IsBlackjack() bool {
	return IsBlackjack(d.Cards)
}

// Masked returns a copy safe to show players: the hole card keeps its slot
// but loses its suit and rank.
func (d DealerHand) Masked() DealerHand {
	cards := append([]Card(nil), d.Cards...)
	if d.HasHiddenCard && len(cards) >= 2 {
		cards[1] = Card{FaceUp: false}
	}
	return DealerHand{Cards: cards, HasHiddenCard: d.HasHiddenCard}
}

func (d DealerHand) revealed() DealerHand {
	cards := make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		cards[i] = c.WithFace(true)
	}
	return DealerHand{Cards: cards}
}

type DealerState string

const (
	DealerHiddenHole DealerState = "hiddenHole"
	DealerRevealing  DealerState = "revealing"
	DealerHitting    DealerState = "hitting"
	DealerStanding   DealerState = "standing"
	DealerBusted     DealerState = "busted"
)

func (s DealerState) Terminal() bool {
	return s == DealerStanding || s == DealerBusted
}

// DealerMove is one transition of the dealer automaton. Card is the card
// revealed or drawn by that transition, if any.
type DealerMove struct {
	State  DealerState `json:"state"`
	Card   *Card       `json:"card,omitempty"`
	Cards  []Card      `json:"cards"`
	Totals []int       `json:"totals"`
	Total  int         `json:"total"`
	Soft   bool        `json:"soft"`
}

// DealerShouldHit applies the house drawing rule to a revealed hand.
func DealerShouldHit(cards []Card, rules Rules) bool {
	if IsBusted(cards) {
		return false
	}
	total := BestTotal(cards)
	if total < 17 {
		return true
	}
	return total == 17 && rules.DealerHitsSoft17 && IsSoft(cards)
}

// DealerAutomaton plays the dealer hand one transition at a time:
// hiddenHole -> revealing -> hitting* -> standing|busted.
type DealerAutomaton struct {
	hand  DealerHand
	state DealerState
	rules Rules
	moves []DealerMove
}

func NewDealerAutomaton(hand DealerHand, rules Rules) *DealerAutomaton {
	return &DealerAutomaton{hand: hand, state: DealerHiddenHole, rules: rules}
}

func (a *DealerAutomaton) State() DealerState { return a.state }
func (a *DealerAutomaton) Hand() DealerHand   { return a.hand }
func (a *DealerAutomaton) Done() bool         { return a.state.Terminal() }

// Moves returns every transition taken so far, in order.
func (a *DealerAutomaton) Moves() []DealerMove {
	return append([]DealerMove(nil), a.moves...)
}

func (a *DealerAutomaton) record(state DealerState, card *Card) DealerMove {
	a.state = state
	cards := append([]Card(nil), a.hand.Cards...)
	m := DealerMove{
		State:  state,
		Card:   card,
		Cards:  cards,
		Totals: AllTotals(cards),
		Total:  BestTotal(cards),
		Soft:   IsSoft(cards),
	}
	a.moves = append(a.moves, m)
	return m
}

func (a *DealerAutomaton) reveal() DealerMove {
	var hole *Card
	if len(a.hand.Cards) >= 2 {
		c := a.hand.Cards[1].WithFace(true)
		hole = &c
	}
	a.hand = a.hand.revealed()
	return a.record(DealerRevealing, hole)
}

// Step performs one transition. A failed draw leaves the automaton where it
// was and returns ErrEmptyShoe.
func (a *DealerAutomaton) Step(shoe *Shoe) (DealerMove, error) {
	switch a.state {
	case DealerHiddenHole:
		return a.reveal(), nil

	case DealerRevealing, DealerHitting:
		cards := a.hand.Cards
		switch {
		case a.state == DealerRevealing && IsBlackjack(cards):
			return a.record(DealerStanding, nil), nil
		case IsBusted(cards):
			return a.record(DealerBusted, nil), nil
		case DealerShouldHit(cards, a.rules):
			card, err := shoe.Draw(true)
			if err != nil {
				return DealerMove{}, err
			}
			a.hand.Cards = withCard(a.hand.Cards, card)
			return a.record(DealerHitting, &card), nil
		default:
			return a.record(DealerStanding, nil), nil
		}
	}

	return DealerMove{}, fmt.Errorf("%w: dealer hand already finished", ErrIllegalAction)
}

// Finish reveals the hole card if needed and ends without drawing. Used when
// no player hand is left to beat.
func (a *DealerAutomaton) Finish() DealerMove {
	if a.state == DealerHiddenHole {
		a.reveal()
	}
	if a.state.Terminal() {
		return a.moves[len(a.moves)-1]
	}
	if IsBusted(a.hand.Cards) {
		return a.record(DealerBusted, nil)
	}
	return a.record(DealerStanding, nil)
}

// Run steps until a terminal state.
func (a *DealerAutomaton) Run(shoe *Shoe) ([]DealerMove, error) {
	for !a.Done() {
		if _, err := a.Step(shoe); err != nil {
			return a.Moves(), err
		}
	}
	return a.Moves(), nil
}

// PlayDealer plays a dealer hand to completion and returns the final hand and
// the full move log.
func PlayDealer(hand DealerHand, shoe *Shoe, rules Rules) (DealerHand, []DealerMove, error) {
	a := NewDealerAutomaton(hand, rules)
	moves, err := a.Run(shoe)
	return a.Hand(), moves, err
}
