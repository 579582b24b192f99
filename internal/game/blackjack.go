package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Phase is the round phase. Rounds move strictly
// betting -> dealing -> playerTurn -> dealerTurn -> settlement -> cleanup -> betting.
type Phase string

const (
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhasePlayerTurn Phase = "playerTurn"
	PhaseDealerTurn Phase = "dealerTurn"
	PhaseSettlement Phase = "settlement"
	PhaseCleanup    Phase = "cleanup"
)

type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Balance    int    `json:"balance"`
	Hands      []Hand `json:"hands"`
	SplitsUsed int    `json:"splitsUsed"`
}

// BlackjackGame is one table session. It owns its shoe and is not safe for
// concurrent use; callers serialize access.
type BlackjackGame struct {
	ID           string       `json:"id"`
	TableID      string       `json:"tableId"`
	Rules        Rules        `json:"rules"`
	Shoe         *Shoe        `json:"shoe"`
	Dealer       DealerHand   `json:"dealer"`
	Players      []Player     `json:"players"`
	Phase        Phase        `json:"phase"`
	Round        int          `json:"round"`
	ActivePlayer int          `json:"activePlayer"`
	ActiveHand   int          `json:"activeHand"`
	DealerMoves  []DealerMove `json:"dealerMoves,omitempty"`
	LastResult   *RoundResult `json:"lastResult,omitempty"`
	Seed         *int64       `json:"seed,omitempty"`
	Closed       bool         `json:"closed"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	rng Source
}

// NewBlackjackGame validates rules and opens a session with a freshly
// shuffled shoe. A non-nil seed makes every shuffle reproducible.
func NewBlackjackGame(tableID string, rules Rules, seed *int64) (*BlackjackGame, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	shoe, err := NewShoe(rules.DeckCount, rules.Penetration)
	if err != nil {
		return nil, err
	}

	g := &BlackjackGame{
		ID:           uuid.New().String(),
		TableID:      tableID,
		Rules:        rules,
		Shoe:         shoe,
		Players:      []Player{},
		Phase:        PhaseBetting,
		Round:        1,
		ActivePlayer: -1,
		ActiveHand:   -1,
		Seed:         seed,
	}
	if err := shoe.Shuffle(rules.Shuffle, g.source()); err != nil {
		return nil, err
	}

	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	return g, nil
}

func (g *BlackjackGame) source() Source {
	if g.rng == nil {
		g.rng = NewSource(g.Seed)
	}
	return g.rng
}

func (g *BlackjackGame) touch() {
	g.UpdatedAt = time.Now()
}

func (g *BlackjackGame) playerIndex(playerID string) int {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns a copy of the player's state.
func (g *BlackjackGame) Player(playerID string) (Player, error) {
	i := g.playerIndex(playerID)
	if i < 0 {
		return Player{}, ErrUnknownPlayer
	}
	return g.Players[i], nil
}

func (g *BlackjackGame) findHand(handID string) (int, int, error) {
	for pi := range g.Players {
		for hi := range g.Players[pi].Hands {
			if g.Players[pi].Hands[hi].ID == handID {
				return pi, hi, nil
			}
		}
	}
	return -1, -1, ErrUnknownHand
}

// Hand returns a copy of the hand.
func (g *BlackjackGame) Hand(handID string) (Hand, error) {
	pi, hi, err := g.findHand(handID)
	if err != nil {
		return Hand{}, err
	}
	return g.Players[pi].Hands[hi], nil
}

// Hands returns every hand of the round in play order.
func (g *BlackjackGame) Hands() []Hand {
	var out []Hand
	for _, p := range g.Players {
		out = append(out, p.Hands...)
	}
	return out
}

// ActiveHandID returns the hand whose turn it is, or "".
func (g *BlackjackGame) ActiveHandID() string {
	if g.Phase != PhasePlayerTurn || g.ActivePlayer < 0 {
		return ""
	}
	return g.Players[g.ActivePlayer].Hands[g.ActiveHand].ID
}

// AddPlayer seats a player. Seating is only possible between rounds; an
// already seated player is returned unchanged.
func (g *BlackjackGame) AddPlayer(playerID, name string, balance int) (Player, error) {
	if i := g.playerIndex(playerID); i >= 0 {
		return g.Players[i], nil
	}
	if g.Phase != PhaseBetting {
		return Player{}, ErrWrongPhase
	}
	if balance < 0 {
		return Player{}, fmt.Errorf("%w: negative balance", ErrInvalidConfig)
	}

	p := Player{ID: playerID, Name: name, Balance: balance, Hands: []Hand{}}
	g.Players = append(g.Players, p)
	g.Closed = false
	g.touch()
	return p, nil
}

// RemovePlayer unseats a player between rounds, refunding unplayed bets.
// Mid-round only a seat without hands may leave.
func (g *BlackjackGame) RemovePlayer(playerID string) (Player, error) {
	i := g.playerIndex(playerID)
	if i < 0 {
		return Player{}, ErrUnknownPlayer
	}
	if g.Phase != PhaseBetting && g.Phase != PhaseSettlement && len(g.Players[i].Hands) > 0 {
		return Player{}, ErrWrongPhase
	}

	if g.Phase == PhaseBetting {
		g.refundHands(&g.Players[i])
	}
	p := g.Players[i]
	g.Players = slices.Delete(g.Players, i, i+1)
	if g.ActivePlayer > i {
		g.ActivePlayer--
	}
	g.touch()
	return p, nil
}

// PlaceBet opens a new hand for the player backed by amount.
func (g *BlackjackGame) PlaceBet(playerID string, amount int) (Hand, error) {
	if g.Phase != PhaseBetting {
		return Hand{}, ErrWrongPhase
	}
	if amount < g.Rules.MinBet || amount > g.Rules.MaxBet {
		return Hand{}, ErrInvalidBet
	}

	i := g.playerIndex(playerID)
	if i < 0 {
		return Hand{}, ErrUnknownPlayer
	}
	p := &g.Players[i]
	if len(p.Hands) >= g.Rules.MaxHands {
		return Hand{}, ErrHandLimit
	}
	if p.Balance < amount {
		return Hand{}, ErrInsufficientFunds
	}

	h := NewHand(playerID, amount)
	p.Balance -= amount
	p.Hands = append(p.Hands, h)
	g.touch()
	return h, nil
}

// PlaceSideBet attaches a side bet to one of the player's pending hands.
// Insurance is not a side bet here; it is offered through Insurance.
func (g *BlackjackGame) PlaceSideBet(handID string, t SideBetType, amount int) (SideBet, error) {
	if g.Phase != PhaseBetting {
		return SideBet{}, ErrWrongPhase
	}
	if t == SideBetInsurance || !g.Rules.SideBetPayouts.Offers(t) {
		return SideBet{}, fmt.Errorf("%w: side bet %q is not offered", ErrInvalidConfig, t)
	}
	if amount <= 0 || amount > g.Rules.MaxBet {
		return SideBet{}, ErrInvalidBet
	}

	pi, hi, err := g.findHand(handID)
	if err != nil {
		return SideBet{}, err
	}
	p := &g.Players[pi]
	h := &p.Hands[hi]
	for _, sb := range h.SideBets {
		if sb.Type == t {
			return SideBet{}, fmt.Errorf("%w: %s already placed on this hand", ErrIllegalAction, t)
		}
	}
	if p.Balance < amount {
		return SideBet{}, ErrInsufficientFunds
	}

	sb := NewSideBet(p.ID, h.ID, t, amount)
	p.Balance -= amount
	h.SideBets = append(slices.Clip(h.SideBets), sb)
	g.touch()
	return sb, nil
}

// ClearBets takes back every bet the player placed this round.
func (g *BlackjackGame) ClearBets(playerID string) error {
	if g.Phase != PhaseBetting {
		return ErrWrongPhase
	}
	i := g.playerIndex(playerID)
	if i < 0 {
		return ErrUnknownPlayer
	}
	g.refundHands(&g.Players[i])
	g.touch()
	return nil
}

func (g *BlackjackGame) refundHands(p *Player) {
	for _, h := range p.Hands {
		p.Balance += h.Wager.Amount
		if h.Insurance != nil {
			p.Balance += h.Insurance.Amount
		}
		for _, sb := range h.SideBets {
			p.Balance += sb.Amount
		}
	}
	p.Hands = []Hand{}
	p.SplitsUsed = 0
}

// NeedsReshuffle reports whether the cut card has come out.
func (g *BlackjackGame) NeedsReshuffle() bool {
	return g.Shoe.NeedsReshuffle()
}

// Reshuffle shuffles the whole shoe. Only allowed between rounds.
func (g *BlackjackGame) Reshuffle() error {
	if g.Phase != PhaseBetting {
		return ErrWrongPhase
	}
	if err := g.Shoe.Shuffle(g.Rules.Shuffle, g.source()); err != nil {
		return err
	}
	g.touch()
	return nil
}

// Deal deals two cards to every hand and to the dealer, hole card down.
// When the dealer shows an ace the session stays in the dealing phase until
// every hand has taken or declined insurance.
func (g *BlackjackGame) Deal() error {
	if g.Phase != PhaseBetting {
		return ErrWrongPhase
	}

	hands := len(g.Hands())
	if hands == 0 {
		return fmt.Errorf("%w: no bets placed", ErrIllegalAction)
	}
	if g.Shoe.Remaining() < 2*hands+2 {
		return ErrEmptyShoe
	}

	g.Phase = PhaseDealing
	dealer := make([]Card, 0, 2)
	for pass := 0; pass < 2; pass++ {
		for pi := range g.Players {
			for hi := range g.Players[pi].Hands {
				h := &g.Players[pi].Hands[hi]
				h.Cards = withCard(h.Cards, g.mustDraw(true))
			}
		}
		dealer = append(dealer, g.mustDraw(pass == 0))
	}
	g.Dealer = DealerHand{Cards: dealer, HasHiddenCard: true}

	for pi := range g.Players {
		for hi := range g.Players[pi].Hands {
			h := &g.Players[pi].Hands[hi]
			h.Dealt = append([]Card(nil), h.Cards...)
			if h.IsNatural() {
				h.Status = HandBlackjack
			}
		}
	}

	g.touch()
	if g.insuranceWindow() {
		return nil
	}
	return g.closeInsurance()
}

// mustDraw is for draws already covered by a Remaining check.
func (g *BlackjackGame) mustDraw(faceUp bool) Card {
	c, err := g.Shoe.Draw(faceUp)
	invariant(err == nil, "draw after remaining check: %v", err)
	return c
}

func (g *BlackjackGame) insuranceWindow() bool {
	return g.Phase == PhaseDealing && g.Dealer.UpCard().Rank == Ace
}

// closeInsurance ends the insurance window, lets the dealer peek, and starts
// the player turn or goes straight to settlement on a dealer natural.
func (g *BlackjackGame) closeInsurance() error {
	for pi := range g.Players {
		for hi := range g.Players[pi].Hands {
			g.Players[pi].Hands[hi].InsuranceDecided = true
		}
	}

	up := g.Dealer.UpCard()
	peek := g.Rules.DealerPeek && (up.Rank == Ace || up.Value() == 10)
	if peek && g.Dealer.IsBlackjack() {
		return g.dealerTurn()
	}

	g.Phase = PhasePlayerTurn
	return g.advance()
}

// Insurance takes (stake = half the wager) or declines insurance for a hand
// while the dealer shows an ace.
func (g *BlackjackGame) Insurance(handID string, take bool) error {
	pi, hi, err := g.findHand(handID)
	if err != nil {
		return err
	}
	if !g.insuranceWindow() {
		return ErrWrongPhase
	}

	p := &g.Players[pi]
	h := &p.Hands[hi]
	if h.InsuranceDecided {
		return illegal(ActionInsurance)
	}

	if take {
		stake := h.Wager.Amount / 2
		if stake <= 0 {
			return fmt.Errorf("%w: wager too small to insure", ErrInvalidConfig)
		}
		if p.Balance < stake {
			return ErrInsufficientFunds
		}
		ins := newBet(p.ID, h.ID, stake)
		p.Balance -= stake
		h.Insurance = &ins
	}
	h.InsuranceDecided = true
	g.touch()

	for _, other := range g.Hands() {
		if !other.InsuranceDecided {
			return nil
		}
	}
	return g.closeInsurance()
}

// LegalActions returns what the hand may do right now, which is empty when
// it is not the hand's turn.
func (g *BlackjackGame) LegalActions(handID string) ([]Action, error) {
	pi, hi, err := g.findHand(handID)
	if err != nil {
		return nil, err
	}
	return g.legalFor(pi, hi), nil
}

func (g *BlackjackGame) legalFor(pi, hi int) []Action {
	p := &g.Players[pi]
	h := p.Hands[hi]

	switch g.Phase {
	case PhaseDealing:
		if g.insuranceWindow() && !h.InsuranceDecided {
			return []Action{ActionInsurance}
		}
	case PhasePlayerTurn:
		if pi == g.ActivePlayer && hi == g.ActiveHand {
			return LegalActions(h, g.Dealer.UpCard(), g.Rules, ActionContext{
				Balance:    p.Balance,
				SplitsUsed: p.SplitsUsed,
			})
		}
	}
	return nil
}

// Act applies a player decision to a hand. Illegal actions leave the session
// untouched.
func (g *BlackjackGame) Act(handID string, a Action) error {
	if a == ActionInsurance {
		return g.Insurance(handID, true)
	}

	pi, hi, err := g.findHand(handID)
	if err != nil {
		return err
	}
	if g.Phase != PhasePlayerTurn {
		return ErrWrongPhase
	}
	if pi != g.ActivePlayer || hi != g.ActiveHand {
		return ErrNotYourTurn
	}
	if !hasAction(g.legalFor(pi, hi), a) {
		return illegal(a)
	}

	switch a {
	case ActionHit:
		err = g.hit(pi, hi)
	case ActionStand:
		err = g.stand(pi, hi)
	case ActionDouble:
		err = g.double(pi, hi)
	case ActionSplit:
		err = g.split(pi, hi)
	case ActionSurrender:
		err = g.surrender(pi, hi)
	}
	if err != nil {
		return err
	}
	g.touch()

	g.autoResolve(pi, hi)
	if g.Players[pi].Hands[hi].Status != HandActive {
		if err := g.advance(); err != nil {
			return err
		}
	}
	g.checkInvariants()
	return nil
}

func (g *BlackjackGame) Hit(handID string) error       { return g.Act(handID, ActionHit) }
func (g *BlackjackGame) Stand(handID string) error     { return g.Act(handID, ActionStand) }
func (g *BlackjackGame) Double(handID string) error    { return g.Act(handID, ActionDouble) }
func (g *BlackjackGame) Split(handID string) error     { return g.Act(handID, ActionSplit) }
func (g *BlackjackGame) Surrender(handID string) error { return g.Act(handID, ActionSurrender) }

func (g *BlackjackGame) hit(pi, hi int) error {
	card, err := g.Shoe.Draw(true)
	if err != nil {
		return err
	}
	h := &g.Players[pi].Hands[hi]
	h.Cards = withCard(h.Cards, card)
	h.Decisions++
	if h.IsBusted() {
		h.Status = HandBusted
	}
	return nil
}

func (g *BlackjackGame) stand(pi, hi int) error {
	h := &g.Players[pi].Hands[hi]
	h.Status = HandStanding
	h.Decisions++
	return nil
}

func (g *BlackjackGame) double(pi, hi int) error {
	card, err := g.Shoe.Draw(true)
	if err != nil {
		return err
	}
	p := &g.Players[pi]
	h := &p.Hands[hi]

	p.Balance -= h.Wager.Amount
	h.Wager.Amount *= 2
	h.Doubled = true
	h.Cards = withCard(h.Cards, card)
	h.Decisions++
	if h.IsBusted() {
		h.Status = HandBusted
	} else {
		h.Status = HandStanding
	}
	return nil
}

func (g *BlackjackGame) split(pi, hi int) error {
	if g.Shoe.Remaining() < 2 {
		return ErrEmptyShoe
	}
	p := &g.Players[pi]
	parent := p.Hands[hi]

	first, second := g.mustDraw(true), g.mustDraw(true)

	child := NewHand(p.ID, parent.Wager.Amount)
	child.Cards = []Card{parent.Cards[1], second}
	child.FromSplit = true
	child.InsuranceDecided = true

	parent.Cards = []Card{parent.Cards[0], first}
	parent.FromSplit = true
	parent.Decisions = 0

	p.Balance -= parent.Wager.Amount
	p.SplitsUsed++
	p.Hands[hi] = parent
	p.Hands = slices.Insert(p.Hands, hi+1, child)
	return nil
}

func (g *BlackjackGame) surrender(pi, hi int) error {
	h := &g.Players[pi].Hands[hi]
	h.Status = HandSurrendered
	h.Decisions++
	return nil
}

// autoResolve stands hands that have nothing left to decide: a total of 21,
// or split aces that may not draw and cannot be split again.
func (g *BlackjackGame) autoResolve(pi, hi int) {
	p := &g.Players[pi]
	h := &p.Hands[hi]
	if h.Status != HandActive {
		return
	}
	if !h.IsBusted() && h.Total() == 21 {
		h.Status = HandStanding
		return
	}
	if h.isSplitAces() && !g.Rules.HitSplitAces {
		legal := LegalActions(*h, g.Dealer.UpCard(), g.Rules, ActionContext{Balance: p.Balance, SplitsUsed: p.SplitsUsed})
		if !hasAction(legal, ActionSplit) {
			h.Status = HandStanding
		}
	}
}

// advance moves the turn to the first unresolved hand, or to the dealer when
// none is left.
func (g *BlackjackGame) advance() error {
	for pi := range g.Players {
		for hi := range g.Players[pi].Hands {
			g.autoResolve(pi, hi)
			if g.Players[pi].Hands[hi].Status == HandActive {
				g.ActivePlayer, g.ActiveHand = pi, hi
				return nil
			}
		}
	}
	g.ActivePlayer, g.ActiveHand = -1, -1
	return g.dealerTurn()
}

func (g *BlackjackGame) hasLiveHands() bool {
	for _, h := range g.Hands() {
		if h.Status == HandStanding {
			return true
		}
	}
	return false
}

// dealerTurn plays the dealer and settles. The dealer only draws when a
// standing hand is left to beat. On ErrEmptyShoe the session stays in the
// dealer turn and the round has to be voided.
func (g *BlackjackGame) dealerTurn() error {
	g.Phase = PhaseDealerTurn
	g.ActivePlayer, g.ActiveHand = -1, -1

	a := NewDealerAutomaton(g.Dealer, g.Rules)
	var err error
	if g.hasLiveHands() {
		_, err = a.Run(g.Shoe)
	} else {
		a.Finish()
	}
	g.Dealer = a.Hand()
	g.DealerMoves = a.Moves()
	if err != nil {
		return err
	}
	return g.settle()
}

func (g *BlackjackGame) settle() error {
	g.Phase = PhaseSettlement

	res, settled, err := SettleRound(g.Hands(), g.Dealer.Cards, g.Rules)
	if err != nil {
		return err
	}
	res.Round = g.Round
	res.DealerMoves = g.DealerMoves

	k := 0
	for pi := range g.Players {
		p := &g.Players[pi]
		for hi := range p.Hands {
			p.Hands[hi] = settled[k]
			k++
		}
		p.Balance += res.PayoutFor(p.ID)
	}

	g.LastResult = &res
	g.touch()
	return nil
}

// VoidRound cancels the round in progress and refunds every wager, for
// example after the shoe ran out mid-round.
func (g *BlackjackGame) VoidRound() error {
	if g.Phase == PhaseBetting || g.Phase == PhaseSettlement {
		return ErrWrongPhase
	}
	for pi := range g.Players {
		g.refundHands(&g.Players[pi])
	}
	g.resetTable()
	g.Phase = PhaseBetting
	g.touch()
	return nil
}

// NextRound clears the settled round and opens betting for the next one.
func (g *BlackjackGame) NextRound() error {
	if g.Phase != PhaseSettlement {
		return ErrWrongPhase
	}
	g.Phase = PhaseCleanup
	for pi := range g.Players {
		g.Players[pi].Hands = []Hand{}
		g.Players[pi].SplitsUsed = 0
	}
	g.resetTable()
	g.Phase = PhaseBetting
	g.touch()
	return nil
}

func (g *BlackjackGame) resetTable() {
	g.Dealer = DealerHand{}
	g.DealerMoves = nil
	g.ActivePlayer, g.ActiveHand = -1, -1
	g.Round++
}

func (g *BlackjackGame) checkInvariants() {
	for _, p := range g.Players {
		invariant(p.Balance >= 0, "player %s balance %d", p.ID, p.Balance)
		for _, h := range p.Hands {
			invariant(h.Wager.Amount >= 0, "hand %s wager %d", h.ID, h.Wager.Amount)
		}
	}
	if g.Phase == PhasePlayerTurn {
		invariant(g.ActivePlayer >= 0, "player turn without an active hand")
		h := g.Players[g.ActivePlayer].Hands[g.ActiveHand]
		invariant(h.Status == HandActive, "active hand %s is %s", h.ID, h.Status)
	} else {
		invariant(g.ActivePlayer < 0, "active hand outside player turn")
	}
}
