package game

// Settlement is the outcome of one main wager. Payout is the total returned
// to the player, stake included; zero on a loss.
type Settlement struct {
	HandID   string  `json:"handId"`
	PlayerID string  `json:"playerId"`
	Outcome  Outcome `json:"outcome"`
	Bet      int     `json:"bet"`
	Payout   int     `json:"payout"`
}

// Net is the player's profit on the hand.
func (s Settlement) Net() int {
	return s.Payout - s.Bet
}

// SettleHand compares a finished hand against the finished dealer cards.
// Checks run in a fixed order: surrender, player bust, naturals, dealer bust,
// then totals.
func SettleHand(h Hand, dealer []Card, rules Rules) Settlement {
	bet := h.Wager.Amount
	s := Settlement{HandID: h.ID, PlayerID: h.PlayerID, Bet: bet}

	playerNatural := h.IsNatural()
	dealerNatural := IsBlackjack(dealer)

	switch {
	case h.Status == HandSurrendered:
		s.Outcome, s.Payout = OutcomeSurrender, bet/2
	case h.IsBusted():
		s.Outcome, s.Payout = OutcomeLoss, 0
	case playerNatural && dealerNatural:
		s.Outcome, s.Payout = OutcomePush, bet
	case playerNatural:
		s.Outcome, s.Payout = OutcomeBlackjack, bet+int(float64(bet)*rules.BlackjackPayout)
	case dealerNatural:
		s.Outcome, s.Payout = OutcomeLoss, 0
	case IsBusted(dealer):
		s.Outcome, s.Payout = OutcomeWin, bet*2
	default:
		player, house := h.Total(), BestTotal(dealer)
		switch {
		case player > house:
			s.Outcome, s.Payout = OutcomeWin, bet*2
		case player < house:
			s.Outcome, s.Payout = OutcomeLoss, 0
		default:
			s.Outcome, s.Payout = OutcomePush, bet
		}
	}
	return s
}

var betStatusFor = map[Outcome]BetStatus{
	OutcomeWin:       BetWon,
	OutcomeBlackjack: BetWon,
	OutcomeLoss:      BetLost,
	OutcomePush:      BetPush,
	OutcomeSurrender: BetSurrendered,
}

// applySettlement records s on a copy of the wager.
func applySettlement(w Bet, s Settlement) Bet {
	w.Status = betStatusFor[s.Outcome]
	w.Payout = s.Payout
	if w.Amount > 0 {
		w.Multiplier = float64(s.Payout-w.Amount) / float64(w.Amount)
	}
	return w
}

var defaultInsuranceTable = PayoutTables{SideBetInsurance: {"dealer-blackjack": 2}}

// SettleInsurance pays 2:1 when the dealer holds a natural and loses
// otherwise, whatever happened to the main hand. A configured insurance pay
// table overrides the 2:1 default.
func SettleInsurance(ins Bet, dealer []Card, tables PayoutTables) Bet {
	if !tables.Offers(SideBetInsurance) {
		tables = defaultInsuranceTable
	}
	res, _ := EvaluateSideBet(SideBetInsurance, SideBetCards{Dealer: dealer}, tables)
	if res.Won {
		ins.Status = BetWon
		ins.Multiplier = res.Multiplier
		ins.Payout = ins.Amount + int(float64(ins.Amount)*res.Multiplier)
	} else {
		ins.Status = BetLost
		ins.Multiplier = -1
		ins.Payout = 0
	}
	return ins
}

// RoundResult is everything settlement produced for one round.
type RoundResult struct {
	Round       int          `json:"round"`
	Hands       []Settlement `json:"hands"`
	Insurance   []Bet        `json:"insurance,omitempty"`
	SideBets    []SideBet    `json:"sideBets,omitempty"`
	DealerCards []Card       `json:"dealerCards"`
	DealerMoves []DealerMove `json:"dealerMoves,omitempty"`
}

// TotalPayout sums every amount returned to players.
func (r RoundResult) TotalPayout() int {
	total := 0
	for _, s := range r.Hands {
		total += s.Payout
	}
	for _, b := range r.Insurance {
		total += b.Payout
	}
	for _, b := range r.SideBets {
		total += b.Payout
	}
	return total
}

// PayoutFor sums what player receives from the round.
func (r RoundResult) PayoutFor(playerID string) int {
	total := 0
	for _, s := range r.Hands {
		if s.PlayerID == playerID {
			total += s.Payout
		}
	}
	for _, b := range r.Insurance {
		if b.PlayerID == playerID {
			total += b.Payout
		}
	}
	for _, b := range r.SideBets {
		if b.PlayerID == playerID {
			total += b.Payout
		}
	}
	return total
}

// SettleRound settles every hand's main wager, insurance and side bets
// against the dealer. It returns settled copies of the hands; the inputs are
// not modified.
func SettleRound(hands []Hand, dealer []Card, rules Rules) (RoundResult, []Hand, error) {
	res := RoundResult{DealerCards: append([]Card(nil), dealer...)}
	settled := make([]Hand, len(hands))

	for i, h := range hands {
		s := SettleHand(h, dealer, rules)
		res.Hands = append(res.Hands, s)

		h.Result = s.Outcome
		h.Wager = applySettlement(h.Wager, s)

		if h.Insurance != nil {
			ins := SettleInsurance(*h.Insurance, dealer, rules.SideBetPayouts)
			h.Insurance = &ins
			res.Insurance = append(res.Insurance, ins)
		}

		if len(h.SideBets) > 0 {
			cards := SideBetCards{Player: h.dealtCards(), Dealer: dealer}
			if len(dealer) > 0 {
				cards.DealerUp = dealer[0]
			}
			bets := make([]SideBet, len(h.SideBets))
			for j, sb := range h.SideBets {
				out, err := SettleSideBet(sb, cards, rules.SideBetPayouts)
				if err != nil {
					return RoundResult{}, nil, err
				}
				bets[j] = out
				res.SideBets = append(res.SideBets, out)
			}
			h.SideBets = bets
		}

		settled[i] = h
	}
	return res, settled, nil
}
