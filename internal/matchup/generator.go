// Package matchup selects pairings from the deck registry, either at
// random from a type pool or from a caller-specified pair. It keeps no
// state of its own beyond the injected random source.
package matchup

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"cardfight-tracker/internal/store"
)

// Pool modes. Anything other than "standard" or "stride" selects from all
// decks.
const (
	ModeStandard = "standard"
	ModeStride   = "stride"
	ModeAny      = "any"
)

// Generator produces matchups from the current deck registry snapshot.
// The random source is injected so selection is deterministic in tests.
type Generator struct {
	store store.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator backed by the given store and random source.
func New(s store.Store, rng *rand.Rand) *Generator {
	return &Generator{store: s, rng: rng}
}

// Matchup is a selected pairing with a first player drawn from the pair.
type Matchup struct {
	Deck1       store.Deck
	Deck2       store.Deck
	FirstPlayer store.Deck
}

// Pool returns the decks eligible for the given mode. The pool filters by
// deck type only; active filtering is the caller's choice.
func (g *Generator) Pool(ctx context.Context, mode string) ([]store.Deck, error) {
	decks, err := g.store.ListDecks(ctx, true)
	if err != nil {
		return nil, err
	}

	var want string
	switch strings.ToLower(mode) {
	case ModeStandard:
		want = store.TypeStandard
	case ModeStride:
		want = store.TypeStride
	default:
		return decks, nil
	}

	pool := decks[:0:0]
	for _, d := range decks {
		if d.Type == want {
			pool = append(pool, d)
		}
	}
	return pool, nil
}

// Random selects two distinct decks uniformly from the mode's pool and a
// first player uniformly between them.
func (g *Generator) Random(ctx context.Context, mode string) (*Matchup, error) {
	pool, err := g.Pool(ctx, mode)
	if err != nil {
		return nil, err
	}
	if len(pool) < 2 {
		return nil, store.Validationf("not enough decks for mode %q", mode)
	}

	g.mu.Lock()
	i := g.rng.Intn(len(pool))
	j := g.rng.Intn(len(pool) - 1)
	if j >= i {
		j++
	}
	firstIsDeck1 := g.rng.Intn(2) == 0
	g.mu.Unlock()

	return pair(pool[i], pool[j], firstIsDeck1), nil
}

// Fixed builds a matchup from two caller-chosen decks, picking only the
// first player at random.
func (g *Generator) Fixed(ctx context.Context, id1, id2 int64) (*Matchup, error) {
	if id1 == id2 {
		return nil, store.Validationf("deck1_id and deck2_id must be different")
	}

	d1, err := g.store.GetDeck(ctx, id1)
	if err != nil {
		return nil, err
	}
	d2, err := g.store.GetDeck(ctx, id2)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	firstIsDeck1 := g.rng.Intn(2) == 0
	g.mu.Unlock()

	return pair(*d1, *d2, firstIsDeck1), nil
}

func pair(d1, d2 store.Deck, firstIsDeck1 bool) *Matchup {
	m := &Matchup{Deck1: d1, Deck2: d2, FirstPlayer: d2}
	if firstIsDeck1 {
		m.FirstPlayer = d1
	}
	return m
}
