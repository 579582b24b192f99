package game

// HandView is a hand as shown to a client.
type HandView struct {
	Hand
	Total        int      `json:"total"`
	Totals       []int    `json:"totals"`
	Soft         bool     `json:"soft"`
	LegalActions []Action `json:"legalActions,omitempty"`
}

type PlayerView struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Balance *int       `json:"balance,omitempty"`
	Hands   []HandView `json:"hands"`
}

// GameView is the state a single viewer is allowed to see. The shoe order and
// the dealer's hole card never appear in it.
type GameView struct {
	ID             string       `json:"id"`
	TableID        string       `json:"tableId"`
	Phase          Phase        `json:"phase"`
	Round          int          `json:"round"`
	Rules          Rules        `json:"rules"`
	Dealer         DealerHand   `json:"dealer"`
	DealerTotal    int          `json:"dealerTotal"`
	DealerMoves    []DealerMove `json:"dealerMoves,omitempty"`
	Players        []PlayerView `json:"players"`
	ActiveHandID   string       `json:"activeHandId,omitempty"`
	CardsRemaining int          `json:"cardsRemaining"`
	NeedsReshuffle bool         `json:"needsReshuffle"`
	LastResult     *RoundResult `json:"lastResult,omitempty"`
}

// View returns the game state for viewerID. Balances are only included for
// the viewer; legal actions are listed on the viewer's own hands.
func (g *BlackjackGame) View(viewerID string) GameView {
	v := GameView{
		ID:             g.ID,
		TableID:        g.TableID,
		Phase:          g.Phase,
		Round:          g.Round,
		Rules:          g.Rules,
		Dealer:         g.Dealer.Masked(),
		DealerTotal:    g.Dealer.VisibleTotal(),
		DealerMoves:    g.DealerMoves,
		Players:        make([]PlayerView, len(g.Players)),
		ActiveHandID:   g.ActiveHandID(),
		CardsRemaining: g.Shoe.Remaining(),
		NeedsReshuffle: g.Shoe.NeedsReshuffle(),
		LastResult:     g.LastResult,
	}

	for pi, p := range g.Players {
		pv := PlayerView{ID: p.ID, Name: p.Name, Hands: make([]HandView, len(p.Hands))}
		if p.ID == viewerID {
			balance := p.Balance
			pv.Balance = &balance
		}
		for hi, h := range p.Hands {
			hv := HandView{Hand: h, Total: h.Total(), Totals: h.Totals(), Soft: h.IsSoft()}
			if p.ID == viewerID {
				hv.LegalActions = g.legalFor(pi, hi)
			}
			pv.Hands[hi] = hv
		}
		v.Players[pi] = pv
	}
	return v
}

// Odds computes the dealer's final-hand distribution from what the players
// cannot see: the undealt shoe plus the hole card while it is down. Once the
// dealer has peeked without finding blackjack the result excludes a natural.
func (g *BlackjackGame) Odds() (DealerOdds, error) {
	if len(g.Dealer.Cards) < 2 || !g.Dealer.HasHiddenCard {
		return DealerOdds{}, ErrWrongPhase
	}

	unseen := append(g.Shoe.RemainingCards(), g.Dealer.Cards[1])

	up := g.Dealer.UpCard()
	peeked := g.Rules.DealerPeek && g.Phase == PhasePlayerTurn && (up.Rank == Ace || up.Value() == 10)
	return ComputeDealerOdds(unseen, up, g.Rules, peeked)
}
