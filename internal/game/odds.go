package game

import "fmt"

// DealerOdds is the exact distribution of the dealer's final hand for a
// given up-card and unseen card pool.
type DealerOdds struct {
	UpCard    Card            `json:"upCard"`
	Totals    map[int]float64 `json:"totals"`
	Bust      float64         `json:"bust"`
	Blackjack float64         `json:"blackjack"`
	// NoNatural is set when the distribution is conditioned on the dealer
	// not holding blackjack (after a peek).
	NoNatural bool `json:"noNatural"`
}

const (
	oddsBust      = 22
	oddsBlackjack = 23
)

type oddsDist [24]float64

type oddsKey struct {
	counts [11]int16
	hard   int
	ace    bool
	n      int
}

type oddsCalc struct {
	rules Rules
	memo  map[oddsKey]oddsDist
}

// ComputeDealerOdds enumerates every way the dealer can finish, drawing
// without replacement from unseen. unseen must include the hole card when
// it has not been revealed. With noNatural the result is conditioned on the
// dealer not holding blackjack.
func ComputeDealerOdds(unseen []Card, up Card, rules Rules, noNatural bool) (DealerOdds, error) {
	if up.Value() == 0 {
		return DealerOdds{}, fmt.Errorf("%w: no dealer up-card", ErrInvalidConfig)
	}
	if len(unseen) == 0 {
		return DealerOdds{}, ErrEmptyShoe
	}

	var counts [11]int16
	for _, c := range unseen {
		counts[c.Value()]++
	}

	calc := &oddsCalc{rules: rules, memo: make(map[oddsKey]oddsDist)}
	d := calc.dist(oddsKey{counts: counts, hard: up.Value(), ace: up.Rank == Ace, n: 1})

	if noNatural {
		rest := 1 - d[oddsBlackjack]
		if rest <= 0 {
			return DealerOdds{}, fmt.Errorf("%w: dealer natural is certain", ErrInvalidConfig)
		}
		for i := range d {
			d[i] /= rest
		}
		d[oddsBlackjack] = 0
	}

	odds := DealerOdds{
		UpCard:    up.WithFace(true),
		Totals:    make(map[int]float64),
		Bust:      d[oddsBust],
		Blackjack: d[oddsBlackjack],
		NoNatural: noNatural,
	}
	for t := 0; t <= 21; t++ {
		if d[t] > 0 {
			odds.Totals[t] = d[t]
		}
	}
	return odds, nil
}

func (c *oddsCalc) dist(k oddsKey) oddsDist {
	if d, ok := c.memo[k]; ok {
		return d
	}

	var d oddsDist
	best, soft := k.hard, false
	if k.ace && k.hard+10 <= 21 {
		best, soft = k.hard+10, true
	}

	switch {
	case k.n == 2 && best == 21:
		d[oddsBlackjack] = 1
	case k.hard > 21:
		d[oddsBust] = 1
	case best > 17 || (best == 17 && !(soft && c.rules.DealerHitsSoft17)):
		d[best] = 1
	default:
		total := 0
		for v := 1; v <= 10; v++ {
			total += int(k.counts[v])
		}
		if total == 0 {
			// Nothing left to draw; the dealer is stuck on best.
			d[best] = 1
			break
		}
		for v := 1; v <= 10; v++ {
			if k.counts[v] == 0 {
				continue
			}
			p := float64(k.counts[v]) / float64(total)
			next := k
			next.counts[v]--
			next.hard += v
			next.ace = k.ace || v == 1
			next.n++
			sub := c.dist(next)
			for i := range d {
				d[i] += p * sub[i]
			}
		}
	}

	c.memo[k] = d
	return d
}
