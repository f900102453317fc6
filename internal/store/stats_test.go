package store

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *StoreSuite) TestVersusBreakdown() {
	shiranui := s.mustDeck("Shiranui", TypeStride)
	eva := s.mustDeck("Eva", TypeStandard)
	magnolia := s.mustDeck("Magnolia", TypeStandard)

	// Eva vs Shiranui: 2 wins, 1 loss. Eva vs Magnolia: 1 win.
	s.mustMatch(eva.ID, shiranui.ID, idPtr(eva.ID))
	s.mustMatch(shiranui.ID, eva.ID, idPtr(eva.ID))
	s.mustMatch(eva.ID, shiranui.ID, idPtr(shiranui.ID))
	s.mustMatch(eva.ID, magnolia.ID, idPtr(eva.ID))

	bundle, err := s.store.Versus(s.ctx, eva.ID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "Eva", bundle.Deck.Name)
	assert.Equal(s.T(), 3, bundle.Deck.Wins)
	assert.Equal(s.T(), 1, bundle.Deck.Losses)

	require.Len(s.T(), bundle.Versus, 2)
	// sorted case-insensitively by opponent name: Magnolia before Shiranui
	assert.Equal(s.T(), "Magnolia", bundle.Versus[0].OpponentName)
	assert.Equal(s.T(), 1, bundle.Versus[0].Games)
	assert.Equal(s.T(), 1, bundle.Versus[0].Wins)
	assert.Equal(s.T(), 0, bundle.Versus[0].Losses)
	assert.Equal(s.T(), 1.0, bundle.Versus[0].WinPct)

	assert.Equal(s.T(), "Shiranui", bundle.Versus[1].OpponentName)
	assert.Equal(s.T(), 3, bundle.Versus[1].Games)
	assert.Equal(s.T(), 2, bundle.Versus[1].Wins)
	assert.Equal(s.T(), 1, bundle.Versus[1].Losses)
	assert.Equal(s.T(), 0.667, bundle.Versus[1].WinPct)

	require.Len(s.T(), bundle.ByOpponentType, 2)
	assert.Equal(s.T(), TypeStandard, bundle.ByOpponentType[0].OpponentType)
	assert.Equal(s.T(), 1, bundle.ByOpponentType[0].Games)
	assert.Equal(s.T(), TypeStride, bundle.ByOpponentType[1].OpponentType)
	assert.Equal(s.T(), 3, bundle.ByOpponentType[1].Games)
	assert.Equal(s.T(), 2, bundle.ByOpponentType[1].Wins)

	require.Len(s.T(), bundle.Recent, 4)
	for _, r := range bundle.Recent {
		switch {
		case r.WinnerID == nil:
			assert.Equal(s.T(), "-", r.Result)
		case *r.WinnerID == eva.ID:
			assert.Equal(s.T(), "W", r.Result)
		default:
			assert.Equal(s.T(), "L", r.Result)
		}
		assert.NotEqual(s.T(), eva.ID, r.OpponentID)
	}
}

func (s *StoreSuite) TestVersusUnknownDeck() {
	_, err := s.store.Versus(s.ctx, 999)
	assert.IsType(s.T(), &NotFoundError{}, err)
}

func (s *StoreSuite) TestVersusWithNoMatches() {
	eva := s.mustDeck("Eva", TypeStandard)

	bundle, err := s.store.Versus(s.ctx, eva.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), bundle.Versus)
	assert.Empty(s.T(), bundle.ByOpponentType)
	assert.Empty(s.T(), bundle.Recent)
	assert.Equal(s.T(), 0.0, bundle.Deck.WinPct)
}

func (s *StoreSuite) TestMatrixSymmetryAndRates() {
	shiranui := s.mustDeck("Shiranui", TypeStride)
	eva := s.mustDeck("Eva", TypeStandard)
	magnolia := s.mustDeck("Magnolia", TypeStandard)

	s.mustMatch(shiranui.ID, eva.ID, idPtr(shiranui.ID))
	s.mustMatch(eva.ID, shiranui.ID, idPtr(shiranui.ID))
	s.mustMatch(shiranui.ID, eva.ID, nil) // undecided still counts as a game
	s.mustMatch(eva.ID, magnolia.ID, idPtr(magnolia.ID))

	bundle, err := s.store.Matrix(s.ctx)
	require.NoError(s.T(), err)

	require.Len(s.T(), bundle.Decks, 3)
	n := len(bundle.Decks)
	idx := map[int64]int{}
	for i, d := range bundle.Decks {
		idx[d.ID] = i
	}
	si, ei, mi := idx[shiranui.ID], idx[eva.ID], idx[magnolia.ID]

	for i := 0; i < n; i++ {
		assert.Nil(s.T(), bundle.Rates[i][i])
		for j := 0; j < n; j++ {
			assert.Equal(s.T(), bundle.Games[i][j], bundle.Games[j][i])
		}
	}

	assert.Equal(s.T(), 3, bundle.Games[si][ei])
	require.NotNil(s.T(), bundle.Rates[si][ei])
	assert.Equal(s.T(), 0.667, *bundle.Rates[si][ei])
	require.NotNil(s.T(), bundle.Rates[ei][si])
	assert.Equal(s.T(), 0.0, *bundle.Rates[ei][si])

	assert.Equal(s.T(), 1, bundle.Games[ei][mi])
	require.NotNil(s.T(), bundle.Rates[mi][ei])
	assert.Equal(s.T(), 1.0, *bundle.Rates[mi][ei])

	// pairs that never played stay null
	assert.Equal(s.T(), 0, bundle.Games[si][mi])
	assert.Nil(s.T(), bundle.Rates[si][mi])
	assert.Nil(s.T(), bundle.Rates[mi][si])
}

func (s *StoreSuite) TestMatrixEmpty() {
	bundle, err := s.store.Matrix(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), bundle.Decks)
	assert.Empty(s.T(), bundle.Rates)
	assert.Empty(s.T(), bundle.Games)
}
