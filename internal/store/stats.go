package store

import (
	"context"
	"sort"
	"strings"
)

const recentHistoryLimit = 50

// opponentJoin resolves the "other" participant of each match the subject
// deck played in.
const opponentJoin = `
	FROM matches m
	JOIN decks opp ON opp.id = CASE WHEN m.deck1_id = ? THEN m.deck2_id ELSE m.deck1_id END
	WHERE m.deck1_id = ? OR m.deck2_id = ?`

// Versus builds the head-to-head view for one deck: per-opponent record,
// the same rollup by opponent type, and recent history tagged W/L/-.
func (s *SQLiteStore) Versus(ctx context.Context, deckID int64) (*VersusBundle, error) {
	subject, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT opp.id, opp.name, opp.type,
		        COUNT(*) AS games,
		        SUM(CASE WHEN m.winner_id = ? THEN 1 ELSE 0 END) AS wins`+
			opponentJoin+`
		GROUP BY opp.id, opp.name, opp.type`,
		deckID, deckID, deckID, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versus := []VersusRow{}
	typeTotals := map[string]*TypeRow{}
	for rows.Next() {
		var r VersusRow
		if err := rows.Scan(&r.OpponentID, &r.OpponentName, &r.OpponentType, &r.Games, &r.Wins); err != nil {
			return nil, err
		}
		r.Losses = r.Games - r.Wins
		r.WinPct = roundPct(r.Wins, r.Games)
		versus = append(versus, r)

		t, ok := typeTotals[r.OpponentType]
		if !ok {
			t = &TypeRow{OpponentType: r.OpponentType}
			typeTotals[r.OpponentType] = t
		}
		t.Games += r.Games
		t.Wins += r.Wins
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(versus, func(i, j int) bool {
		return strings.ToLower(versus[i].OpponentName) < strings.ToLower(versus[j].OpponentName)
	})

	byType := []TypeRow{}
	for _, t := range typeTotals {
		t.Losses = t.Games - t.Wins
		t.WinPct = roundPct(t.Wins, t.Games)
		byType = append(byType, *t)
	}
	sort.Slice(byType, func(i, j int) bool {
		return byType[i].OpponentType < byType[j].OpponentType
	})

	recent, err := s.recentHistory(ctx, deckID)
	if err != nil {
		return nil, err
	}

	return &VersusBundle{
		Deck:           *subject,
		Versus:         versus,
		ByOpponentType: byType,
		Recent:         recent,
	}, nil
}

func (s *SQLiteStore) recentHistory(ctx context.Context, deckID int64) ([]RecentMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.date_played, opp.id, opp.name, opp.type, m.winner_id, m.notes`+
			opponentJoin+`
		ORDER BY m.date_played DESC, m.id DESC
		LIMIT ?`,
		deckID, deckID, deckID, recentHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []RecentMatch{}
	for rows.Next() {
		var r RecentMatch
		if err := rows.Scan(&r.MatchID, &r.DatePlayed, &r.OpponentID, &r.OpponentName,
			&r.OpponentType, &r.WinnerID, &r.Notes); err != nil {
			return nil, err
		}
		switch {
		case r.WinnerID == nil:
			r.Result = "-"
		case *r.WinnerID == deckID:
			r.Result = "W"
		default:
			r.Result = "L"
		}
		recent = append(recent, r)
	}
	return recent, rows.Err()
}

// Matrix builds the all-pairs win-rate table. Each match counts toward the
// games of both ordered pairs and toward the wins of the pair led by the
// winner; undecided matches contribute games only.
func (s *SQLiteStore) Matrix(ctx context.Context) (*MatrixBundle, error) {
	deckRows, err := s.db.QueryContext(ctx, `SELECT id, name FROM decks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer deckRows.Close()

	decks := []DeckRef{}
	index := map[int64]int{}
	for deckRows.Next() {
		var d DeckRef
		if err := deckRows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		index[d.ID] = len(decks)
		decks = append(decks, d)
	}
	if err := deckRows.Err(); err != nil {
		return nil, err
	}

	n := len(decks)
	games := make([][]int, n)
	wins := make([][]int, n)
	for i := range games {
		games[i] = make([]int, n)
		wins[i] = make([]int, n)
	}

	matchRows, err := s.db.QueryContext(ctx, `SELECT deck1_id, deck2_id, winner_id FROM matches`)
	if err != nil {
		return nil, err
	}
	defer matchRows.Close()

	for matchRows.Next() {
		var d1, d2 int64
		var winner *int64
		if err := matchRows.Scan(&d1, &d2, &winner); err != nil {
			return nil, err
		}
		i, ok1 := index[d1]
		j, ok2 := index[d2]
		if !ok1 || !ok2 || i == j {
			continue
		}
		games[i][j]++
		games[j][i]++
		if winner != nil {
			if *winner == d1 {
				wins[i][j]++
			} else if *winner == d2 {
				wins[j][i]++
			}
		}
	}
	if err := matchRows.Err(); err != nil {
		return nil, err
	}

	rates := make([][]*float64, n)
	for i := range rates {
		rates[i] = make([]*float64, n)
		for j := range rates[i] {
			if i == j || games[i][j] == 0 {
				continue
			}
			rate := roundPct(wins[i][j], games[i][j])
			rates[i][j] = &rate
		}
	}

	return &MatrixBundle{Decks: decks, Rates: rates, Games: games}, nil
}
