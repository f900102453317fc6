package matchup

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardfight-tracker/internal/store"
)

func newTestGenerator(t *testing.T) (*Generator, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, rand.New(rand.NewSource(1))), st
}

func mustDeck(t *testing.T, st store.Store, name, deckType string) *store.Deck {
	t.Helper()
	deck, err := st.CreateDeck(context.Background(), name, deckType, true)
	require.NoError(t, err)
	return deck
}

func TestPoolFiltersByTypeOnly(t *testing.T) {
	gen, st := newTestGenerator(t)
	ctx := context.Background()

	shiranui := mustDeck(t, st, "Shiranui", store.TypeStride)
	mustDeck(t, st, "Eva", store.TypeStandard)
	magnolia := mustDeck(t, st, "Magnolia", store.TypeStandard)

	// inactive decks stay in the pool; the generator filters by type only
	_, err := st.UpdateDeck(ctx, magnolia.ID, store.DeckUpdate{Active: boolPtr(false)})
	require.NoError(t, err)

	standard, err := gen.Pool(ctx, ModeStandard)
	require.NoError(t, err)
	assert.Len(t, standard, 2)
	for _, d := range standard {
		assert.Equal(t, store.TypeStandard, d.Type)
	}

	stride, err := gen.Pool(ctx, ModeStride)
	require.NoError(t, err)
	require.Len(t, stride, 1)
	assert.Equal(t, shiranui.ID, stride[0].ID)

	all, err := gen.Pool(ctx, "any")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// unrecognized modes fall back to the full pool
	weird, err := gen.Pool(ctx, "bo3")
	require.NoError(t, err)
	assert.Len(t, weird, 3)
}

func boolPtr(v bool) *bool { return &v }

func TestRandomNeedsTwoDecksInPool(t *testing.T) {
	gen, st := newTestGenerator(t)
	ctx := context.Background()

	mustDeck(t, st, "Shiranui", store.TypeStride)
	mustDeck(t, st, "Eva", store.TypeStandard)

	// only one Standard deck
	_, err := gen.Random(ctx, ModeStandard)
	var validation *store.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Msg, "not enough decks")

	mustDeck(t, st, "Magnolia", store.TypeStandard)

	m, err := gen.Random(ctx, ModeStandard)
	require.NoError(t, err)
	names := map[string]bool{m.Deck1.Name: true, m.Deck2.Name: true}
	assert.True(t, names["Eva"])
	assert.True(t, names["Magnolia"])
}

func TestRandomPicksDistinctDecksAndFirstPlayer(t *testing.T) {
	gen, st := newTestGenerator(t)
	ctx := context.Background()

	mustDeck(t, st, "Shiranui", store.TypeStride)
	mustDeck(t, st, "Eva", store.TypeStandard)
	mustDeck(t, st, "Magnolia", store.TypeStandard)
	mustDeck(t, st, "Luard", store.TypeStride)

	for i := 0; i < 100; i++ {
		m, err := gen.Random(ctx, "any")
		require.NoError(t, err)
		assert.NotEqual(t, m.Deck1.ID, m.Deck2.ID)
		assert.True(t, m.FirstPlayer.ID == m.Deck1.ID || m.FirstPlayer.ID == m.Deck2.ID)
	}
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	mustDeck(t, st, "Shiranui", store.TypeStride)
	mustDeck(t, st, "Eva", store.TypeStandard)
	mustDeck(t, st, "Magnolia", store.TypeStandard)

	a := New(st, rand.New(rand.NewSource(42)))
	b := New(st, rand.New(rand.NewSource(42)))

	for i := 0; i < 20; i++ {
		ma, err := a.Random(ctx, "any")
		require.NoError(t, err)
		mb, err := b.Random(ctx, "any")
		require.NoError(t, err)
		assert.Equal(t, ma.Deck1.ID, mb.Deck1.ID)
		assert.Equal(t, ma.Deck2.ID, mb.Deck2.ID)
		assert.Equal(t, ma.FirstPlayer.ID, mb.FirstPlayer.ID)
	}
}

func TestFixedMatchup(t *testing.T) {
	gen, st := newTestGenerator(t)
	ctx := context.Background()

	shiranui := mustDeck(t, st, "Shiranui", store.TypeStride)
	eva := mustDeck(t, st, "Eva", store.TypeStandard)

	_, err := gen.Fixed(ctx, shiranui.ID, shiranui.ID)
	assert.IsType(t, &store.ValidationError{}, err)

	_, err = gen.Fixed(ctx, shiranui.ID, 999)
	assert.IsType(t, &store.NotFoundError{}, err)

	m, err := gen.Fixed(ctx, shiranui.ID, eva.ID)
	require.NoError(t, err)
	assert.Equal(t, shiranui.ID, m.Deck1.ID)
	assert.Equal(t, eva.ID, m.Deck2.ID)
	assert.True(t, m.FirstPlayer.ID == shiranui.ID || m.FirstPlayer.ID == eva.ID)
}
