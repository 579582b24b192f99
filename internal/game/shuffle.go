package game

import (
	"fmt"
	"math/rand"
	"time"
)

// ShuffleKind selects a shuffle algorithm. Only FisherYates gives a uniform
// permutation; the others imitate hand shuffles and must not back any
// fairness claim.
type ShuffleKind string

const (
	FisherYates ShuffleKind = "fisher-yates"
	Riffle      ShuffleKind = "riffle"
	Overhand    ShuffleKind = "overhand"
	Strip       ShuffleKind = "strip"
)

// Source is the randomness a shuffle consumes.
type Source interface {
	// Intn returns a value in [0, n). n is always > 0.
	Intn(n int) int
}

// LCG is a 64-bit linear congruential generator. Identical seeds give
// identical sequences on every platform.
type LCG struct {
	state uint64
}

func NewLCG(seed int64) *LCG {
	l := &LCG{state: uint64(seed)}
	// Scramble small seeds so 42 and 43 diverge from the first draw.
	l.next()
	l.state ^= 0x9e3779b97f4a7c15
	return l
}

func (l *LCG) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

func (l *LCG) Intn(n int) int {
	return int((l.next() >> 33) % uint64(n))
}

// NewSource returns a seeded LCG when seed is set and a time-seeded
// math/rand generator otherwise.
func NewSource(seed *int64) Source {
	if seed != nil {
		return NewLCG(*seed)
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

type shuffleFunc func(cards []Card, rng Source) []Card

var shufflers = map[ShuffleKind]shuffleFunc{
	FisherYates: fisherYates,
	Riffle:      riffleShuffle,
	Overhand:    overhandShuffle,
	Strip:       stripShuffle,
}

// ValidShuffle reports whether kind names a known algorithm.
func ValidShuffle(kind ShuffleKind) bool {
	_, ok := shufflers[kind]
	return ok
}

// Shuffle returns a shuffled copy of cards. The input is never modified.
func Shuffle(kind ShuffleKind, cards []Card, rng Source) ([]Card, error) {
	fn, ok := shufflers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown shuffle %q", ErrInvalidConfig, kind)
	}
	return fn(cards, rng), nil
}

func fisherYates(cards []Card, rng Source) []Card {
	out := append([]Card(nil), cards...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// riffleShuffle cuts near the middle and interleaves packets of one to three
// cards from each half, seven times.
func riffleShuffle(cards []Card, rng Source) []Card {
	out := append([]Card(nil), cards...)
	n := len(out)
	if n < 2 {
		return out
	}

	for pass := 0; pass < 7; pass++ {
		spread := n/8 + 1
		cut := n/2 + rng.Intn(spread) - spread/2
		if cut < 1 {
			cut = 1
		}
		if cut > n-1 {
			cut = n - 1
		}

		left, right := out[:cut], out[cut:]
		merged := make([]Card, 0, n)
		fromLeft := rng.Intn(2) == 0
		for len(left) > 0 || len(right) > 0 {
			packet := 1 + rng.Intn(3)
			if fromLeft && len(left) > 0 {
				k := min(packet, len(left))
				merged = append(merged, left[:k]...)
				left = left[k:]
			} else if len(right) > 0 {
				k := min(packet, len(right))
				merged = append(merged, right[:k]...)
				right = right[k:]
			}
			fromLeft = !fromLeft
		}
		out = merged
	}
	return out
}

// restack moves packets from the top of cards onto a new pile, reversing
// packet order. Packet sizes are drawn from [1, maxPacket].
func restack(cards []Card, rng Source, maxPacket int) []Card {
	if maxPacket < 1 {
		maxPacket = 1
	}
	pile := make([]Card, 0, len(cards))
	rest := cards
	for len(rest) > 0 {
		k := min(1+rng.Intn(maxPacket), len(rest))
		packet := rest[:k]
		rest = rest[k:]
		pile = append(append(make([]Card, 0, len(pile)+k), packet...), pile...)
	}
	return pile
}

// overhandShuffle runs a few passes of small packets.
func overhandShuffle(cards []Card, rng Source) []Card {
	out := append([]Card(nil), cards...)
	for pass := 0; pass < 4; pass++ {
		out = restack(out, rng, len(out)/10+1)
	}
	return out
}

// stripShuffle runs a single pass with larger packets.
func stripShuffle(cards []Card, rng Source) []Card {
	out := append([]Card(nil), cards...)
	return restack(out, rng, len(out)/4+1)
}
