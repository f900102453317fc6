package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and runs
// migrations. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Counter maintenance relies on serialized writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS decks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deck1_id INTEGER NOT NULL REFERENCES decks(id),
			deck2_id INTEGER NOT NULL REFERENCES decks(id),
			winner_id INTEGER REFERENCES decks(id),
			first_player_id INTEGER REFERENCES decks(id),
			format TEXT,
			date_played TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_deck1 ON matches(deck1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_deck2 ON matches(deck2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(date_played)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx so reads can run inside
// or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func roundPct(wins, games int) float64 {
	if games == 0 {
		return 0.0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 1000
}

const deckColumns = `id, name, type, wins, losses, active, created_at`

func scanDeck(row *sql.Row) (*Deck, error) {
	var d Deck
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Wins, &d.Losses, &d.Active, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Games = d.Wins + d.Losses
	d.WinPct = roundPct(d.Wins, d.Games)
	return &d, nil
}

func (s *SQLiteStore) getDeck(ctx context.Context, q querier, id int64) (*Deck, error) {
	deck, err := scanDeck(q.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, NotFoundf("deck %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// ListDecks returns decks ordered by name ascending, skipping inactive
// decks unless includeInactive is set.
func (s *SQLiteStore) ListDecks(ctx context.Context, includeInactive bool) ([]Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks`
	if !includeInactive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Wins, &d.Losses, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Games = d.Wins + d.Losses
		d.WinPct = roundPct(d.Wins, d.Games)
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// GetDeck retrieves a deck by id.
func (s *SQLiteStore) GetDeck(ctx context.Context, id int64) (*Deck, error) {
	return s.getDeck(ctx, s.db, id)
}

// CreateDeck registers a new deck.
func (s *SQLiteStore) CreateDeck(ctx context.Context, name, deckType string, active bool) (*Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("deck name must not be empty")
	}
	if !ValidDeckType(deckType) {
		return nil, Validationf("deck type must be %q or %q", TypeStandard, TypeStride)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decks WHERE name = ?`, name).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, Conflictf("deck with name %q already exists", name)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO decks (name, type, active, created_at) VALUES (?, ?, ?, ?)`,
		name, deckType, active, time.Now())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	deck, err := s.getDeck(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return deck, nil
}

// UpdateDeck applies a partial edit to a deck's name and active flag.
func (s *SQLiteStore) UpdateDeck(ctx context.Context, id int64, upd DeckUpdate) (*Deck, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.getDeck(ctx, tx, id); err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, Validationf("deck name must not be empty")
		}
		var collisions int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM decks WHERE name = ? AND id != ?`, name, id).Scan(&collisions); err != nil {
			return nil, err
		}
		if collisions > 0 {
			return nil, Conflictf("deck with name %q already exists", name)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE decks SET name = ? WHERE id = ?`, name, id); err != nil {
			return nil, err
		}
	}

	if upd.Active != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE decks SET active = ? WHERE id = ?`, *upd.Active, id); err != nil {
			return nil, err
		}
	}

	deck, err := s.getDeck(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return deck, nil
}

// DeleteDeck removes a deck. The delete is refused while any match
// references the deck; deactivate instead.
func (s *SQLiteStore) DeleteDeck(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deck, err := s.getDeck(ctx, tx, id)
	if err != nil {
		return err
	}

	var refs int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE deck1_id = ? OR deck2_id = ?`, id, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return Conflictf("cannot delete %q: %d matches reference this deck; set it inactive instead", deck.Name, refs)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// validateParticipants checks that the two participant ids are distinct
// and both resolve to existing decks.
func validateParticipants(ctx context.Context, q querier, d1, d2 int64) error {
	if d1 == d2 {
		return Validationf("deck1_id and deck2_id must be different")
	}
	var found int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decks WHERE id IN (?, ?)`, d1, d2).Scan(&found); err != nil {
		return err
	}
	if found != 2 {
		return NotFoundf("one or both deck IDs do not exist")
	}
	return nil
}

func memberOfPair(id *int64, d1, d2 int64) bool {
	return id == nil || *id == d1 || *id == d2
}

// applyResult credits a decided match: winner.wins += 1, loser.losses += 1.
// Must run at most once per decided match.
func applyResult(ctx context.Context, tx *sql.Tx, winnerID, loserID int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE decks SET wins = wins + 1 WHERE id = ?`, winnerID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE decks SET losses = losses + 1 WHERE id = ?`, loserID)
	return err
}

// reverseResult undoes a previously applied result.
func reverseResult(ctx context.Context, tx *sql.Tx, winnerID, loserID int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE decks SET wins = wins - 1 WHERE id = ?`, winnerID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE decks SET losses = losses - 1 WHERE id = ?`, loserID)
	return err
}

// loserOf returns the participant that is not the winner.
func loserOf(winnerID, d1, d2 int64) int64 {
	if winnerID == d1 {
		return d2
	}
	return d1
}

// reapplyResult transitions the counters of an edited match from its old
// decided state to its new one. The old result is reversed against the
// participants as they were before the edit, the new result applied
// against the participants after it. Keyed on the (winner, loser) pair so
// a participant swap under an unchanged winner still reverses the stale
// loser.
func reapplyResult(ctx context.Context, tx *sql.Tx, oldWinner *int64, oldD1, oldD2 int64, newWinner *int64, newD1, newD2 int64) error {
	var oldLoser, newLoser int64
	if oldWinner != nil {
		oldLoser = loserOf(*oldWinner, oldD1, oldD2)
	}
	if newWinner != nil {
		newLoser = loserOf(*newWinner, newD1, newD2)
	}

	if oldWinner != nil && newWinner != nil &&
		*oldWinner == *newWinner && oldLoser == newLoser {
		return nil
	}
	if oldWinner == nil && newWinner == nil {
		return nil
	}

	if oldWinner != nil {
		if err := reverseResult(ctx, tx, *oldWinner, oldLoser); err != nil {
			return err
		}
	}
	if newWinner != nil {
		if err := applyResult(ctx, tx, *newWinner, newLoser); err != nil {
			return err
		}
	}
	return nil
}

// CreateMatch logs a match result. When a winner is given, the counter
// update runs in the same transaction as the insert.
func (s *SQLiteStore) CreateMatch(ctx context.Context, nm NewMatch) (*MatchView, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := validateParticipants(ctx, tx, nm.Deck1ID, nm.Deck2ID); err != nil {
		return nil, err
	}
	if !memberOfPair(nm.WinnerID, nm.Deck1ID, nm.Deck2ID) {
		return nil, Validationf("winner_id must be one of the participants or null")
	}
	if !memberOfPair(nm.FirstPlayerID, nm.Deck1ID, nm.Deck2ID) {
		return nil, Validationf("first_player_id must be one of the participants or null")
	}
	if nm.Format != nil && !ValidFormat(*nm.Format) {
		return nil, Validationf("format must be %s, %s or %s", TypeStandard, TypeStride, FormatAny)
	}

	datePlayed := time.Now()
	if nm.DatePlayed != nil {
		datePlayed = *nm.DatePlayed
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO matches (deck1_id, deck2_id, winner_id, first_player_id, format, date_played, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nm.Deck1ID, nm.Deck2ID, nm.WinnerID, nm.FirstPlayerID, nm.Format,
		datePlayed, strings.TrimSpace(nm.Notes))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if nm.WinnerID != nil {
		if err := applyResult(ctx, tx, *nm.WinnerID, loserOf(*nm.WinnerID, nm.Deck1ID, nm.Deck2ID)); err != nil {
			return nil, err
		}
	}

	view, err := s.getMatchView(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return view, nil
}

const matchViewSelect = `
	SELECT m.id, m.deck1_id, m.deck2_id, m.winner_id, m.first_player_id,
	       m.format, m.date_played, m.notes, d1.name, d2.name
	FROM matches m
	JOIN decks d1 ON m.deck1_id = d1.id
	JOIN decks d2 ON m.deck2_id = d2.id`

func scanMatchView(rows interface{ Scan(...any) error }) (*MatchView, error) {
	var v MatchView
	err := rows.Scan(&v.ID, &v.Deck1ID, &v.Deck2ID, &v.WinnerID, &v.FirstPlayerID,
		&v.Format, &v.DatePlayed, &v.Notes, &v.Deck1Name, &v.Deck2Name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteStore) getMatchView(ctx context.Context, q querier, id int64) (*MatchView, error) {
	view, err := scanMatchView(q.QueryRowContext(ctx, matchViewSelect+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, NotFoundf("match %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetMatch retrieves a single match with participant names.
func (s *SQLiteStore) GetMatch(ctx context.Context, id int64) (*MatchView, error) {
	return s.getMatchView(ctx, s.db, id)
}

// ListMatches returns matches newest-first, narrowed by the filter.
func (s *SQLiteStore) ListMatches(ctx context.Context, f MatchFilter) ([]MatchView, error) {
	query := matchViewSelect + ` WHERE 1=1`
	args := []any{}

	if f.Format != nil && ValidFormat(*f.Format) {
		query += ` AND m.format = ?`
		args = append(args, *f.Format)
	}

	if f.DeckID != nil {
		query += ` AND (m.deck1_id = ? OR m.deck2_id = ?)`
		args = append(args, *f.DeckID, *f.DeckID)

		if f.Result != nil {
			switch *f.Result {
			case "-":
				query += ` AND m.winner_id IS NULL`
			case "W":
				query += ` AND m.winner_id = ?`
				args = append(args, *f.DeckID)
			case "L":
				query += ` AND m.winner_id IS NOT NULL AND m.winner_id != ?`
				args = append(args, *f.DeckID)
			}
		}
	}

	if f.Since != nil {
		query += ` AND m.date_played >= ?`
		args = append(args, *f.Since)
	}
	if f.Until != nil {
		query += ` AND m.date_played < ?`
		args = append(args, *f.Until)
	}

	if f.NotesContains != nil && *f.NotesContains != "" {
		query += ` AND instr(lower(m.notes), lower(?)) > 0`
		args = append(args, *f.NotesContains)
	}

	query += ` ORDER BY m.date_played DESC, m.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []MatchView
	for rows.Next() {
		v, err := scanMatchView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// UpdateMatch applies a partial edit. Participant changes are validated
// first; winner and first player must belong to the post-edit pair. A
// winner (or loser) change reverses the old result against the original
// pairing and applies the new one against the new pairing, all within one
// transaction.
func (s *SQLiteStore) UpdateMatch(ctx context.Context, id int64, upd MatchUpdate) (*MatchView, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	old, err := s.getMatchView(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	newD1, newD2 := old.Deck1ID, old.Deck2ID
	if upd.Deck1ID != nil {
		newD1 = *upd.Deck1ID
	}
	if upd.Deck2ID != nil {
		newD2 = *upd.Deck2ID
	}
	if newD1 != old.Deck1ID || newD2 != old.Deck2ID {
		if err := validateParticipants(ctx, tx, newD1, newD2); err != nil {
			return nil, err
		}
	}

	newWinner := old.WinnerID
	if upd.WinnerID.Set {
		newWinner = upd.WinnerID.Value
	}
	if !memberOfPair(newWinner, newD1, newD2) {
		return nil, Validationf("winner_id must be one of the participants or null")
	}

	newFirst := old.FirstPlayerID
	if upd.FirstPlayerID.Set {
		newFirst = upd.FirstPlayerID.Value
	}
	if !memberOfPair(newFirst, newD1, newD2) {
		return nil, Validationf("first_player_id must be one of the participants or null")
	}

	newFormat := old.Format
	if upd.Format.Set {
		if upd.Format.Value != nil && !ValidFormat(*upd.Format.Value) {
			return nil, Validationf("format must be %s, %s, %s or null", TypeStandard, TypeStride, FormatAny)
		}
		newFormat = upd.Format.Value
	}

	newNotes := old.Notes
	if upd.Notes != nil {
		newNotes = strings.TrimSpace(*upd.Notes)
	}

	newDate := old.DatePlayed
	if upd.DatePlayed != nil {
		newDate = *upd.DatePlayed
	}

	if err := reapplyResult(ctx, tx, old.WinnerID, old.Deck1ID, old.Deck2ID, newWinner, newD1, newD2); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE matches
		 SET deck1_id = ?, deck2_id = ?, winner_id = ?, first_player_id = ?,
		     format = ?, date_played = ?, notes = ?
		 WHERE id = ?`,
		newD1, newD2, newWinner, newFirst, newFormat, newDate, newNotes, id); err != nil {
		return nil, err
	}

	view, err := s.getMatchView(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteMatch removes a match permanently, reversing its result first if
// it had a decided winner.
func (s *SQLiteStore) DeleteMatch(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	m, err := s.getMatchView(ctx, tx, id)
	if err != nil {
		return err
	}

	if m.WinnerID != nil {
		if err := reverseResult(ctx, tx, *m.WinnerID, loserOf(*m.WinnerID, m.Deck1ID, m.Deck2ID)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Recount rebuilds every deck's cached counters from the match log. It is
// the ground truth for what the counters should be and repairs drift from
// out-of-band edits.
func (s *SQLiteStore) Recount(ctx context.Context) (*RecountSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE decks SET wins = 0, losses = 0`); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT deck1_id, deck2_id, winner_id FROM matches WHERE winner_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}

	type decided struct {
		d1, d2, winner int64
	}
	var results []decided
	for rows.Next() {
		var r decided
		if err := rows.Scan(&r.d1, &r.d2, &r.winner); err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.winner != r.d1 && r.winner != r.d2 {
			// stale row from an out-of-band edit; skip
			continue
		}
		if err := applyResult(ctx, tx, r.winner, loserOf(r.winner, r.d1, r.d2)); err != nil {
			return nil, err
		}
	}

	var summary RecountSummary
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(wins), 0), COALESCE(SUM(losses), 0) FROM decks`).
		Scan(&summary.TotalWins, &summary.TotalLosses); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &summary, nil
}
