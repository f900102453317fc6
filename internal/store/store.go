package store

import (
	"context"
	"time"
)

// Deck types and match formats. A match format is the pool the matchup was
// drawn from and is independent of either deck's own type.
const (
	TypeStandard = "Standard"
	TypeStride   = "Stride"
	FormatAny    = "Any"
)

// ValidDeckType reports whether t is a recognized deck type.
func ValidDeckType(t string) bool {
	return t == TypeStandard || t == TypeStride
}

// ValidFormat reports whether f is a recognized match format.
func ValidFormat(f string) bool {
	return f == TypeStandard || f == TypeStride || f == FormatAny
}

// Deck is a named, typed loadout tracked for win/loss record purposes.
// Wins and Losses are cached aggregates over the match log; Games and
// WinPct are derived from them on every read.
type Deck struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Games     int       `json:"games"`
	WinPct    float64   `json:"win_pct"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is one recorded contest between two decks. WinnerID and
// FirstPlayerID are nil or one of the two participant ids.
type Match struct {
	ID            int64     `json:"id"`
	Deck1ID       int64     `json:"deck1_id"`
	Deck2ID       int64     `json:"deck2_id"`
	WinnerID      *int64    `json:"winner_id"`
	FirstPlayerID *int64    `json:"first_player_id"`
	Format        *string   `json:"format"`
	DatePlayed    time.Time `json:"date_played"`
	Notes         string    `json:"notes"`
}

// MatchView is a Match enriched with both participant names.
type MatchView struct {
	Match
	Deck1Name string `json:"deck1_name"`
	Deck2Name string `json:"deck2_name"`
}

// NewMatch carries the fields for logging a match result. A nil WinnerID
// logs the match without a decision. A nil DatePlayed defaults to now.
type NewMatch struct {
	Deck1ID       int64
	Deck2ID       int64
	WinnerID      *int64
	FirstPlayerID *int64
	Format        *string
	Notes         string
	DatePlayed    *time.Time
}

// DeckUpdate carries a partial deck edit; nil fields are left untouched.
type DeckUpdate struct {
	Name   *string
	Active *bool
}

// OptionalID is a tri-state id field for partial updates: absent
// (Set=false), set to null (Set=true, Value=nil), or set to an id.
type OptionalID struct {
	Set   bool
	Value *int64
}

// OptionalString is the tri-state counterpart for nullable text fields.
type OptionalString struct {
	Set   bool
	Value *string
}

// MatchUpdate carries a partial match edit. Participant and notes/date
// fields are plain pointers (they cannot be nulled); winner, first player
// and format are tri-state.
type MatchUpdate struct {
	Deck1ID       *int64
	Deck2ID       *int64
	WinnerID      OptionalID
	FirstPlayerID OptionalID
	Format        OptionalString
	Notes         *string
	DatePlayed    *time.Time
}

// MatchFilter narrows ListMatches. Result is meaningful only with DeckID
// set: "W" the deck won, "L" a different non-nil winner, "-" undecided.
// Since is inclusive, Until exclusive. NotesContains matches
// case-insensitively.
type MatchFilter struct {
	DeckID        *int64
	Format        *string
	Result        *string
	Since         *time.Time
	Until         *time.Time
	NotesContains *string
}

// VersusRow aggregates one deck's record against a single opponent.
type VersusRow struct {
	OpponentID   int64   `json:"opponent_id"`
	OpponentName string  `json:"opponent_name"`
	OpponentType string  `json:"opponent_type"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinPct       float64 `json:"win_pct"`
}

// TypeRow is the versus aggregation collapsed by opponent deck type.
type TypeRow struct {
	OpponentType string  `json:"opponent_type"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinPct       float64 `json:"win_pct"`
}

// RecentMatch is one entry of a deck's recent history, annotated with the
// opponent and a W/L/- result tag.
type RecentMatch struct {
	MatchID      int64     `json:"match_id"`
	DatePlayed   time.Time `json:"date_played"`
	OpponentID   int64     `json:"opponent_id"`
	OpponentName string    `json:"opponent_name"`
	OpponentType string    `json:"opponent_type"`
	WinnerID     *int64    `json:"winner_id"`
	Result       string    `json:"result"`
	Notes        string    `json:"notes"`
}

// VersusBundle is the head-to-head view for one deck.
type VersusBundle struct {
	Deck           Deck          `json:"deck"`
	Versus         []VersusRow   `json:"versus"`
	ByOpponentType []TypeRow     `json:"by_opponent_type"`
	Recent         []RecentMatch `json:"recent"`
}

// DeckRef identifies a deck in the matrix header.
type DeckRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MatrixBundle is the all-pairs win-rate table. Rates and Games are
// row-major grids aligned with Decks; a nil rate means no games between
// the pair (or the diagonal). Games is symmetric.
type MatrixBundle struct {
	Decks []DeckRef    `json:"decks"`
	Rates [][]*float64 `json:"rates"`
	Games [][]int      `json:"games"`
}

// RecountSummary reports the totals after a full counter rebuild.
type RecountSummary struct {
	TotalWins   int `json:"total_wins"`
	TotalLosses int `json:"total_losses"`
}

// Store is the persistence boundary. Every mutating operation is atomic:
// a match insert/edit/delete and its counter delta either both apply or
// neither does.
type Store interface {
	ListDecks(ctx context.Context, includeInactive bool) ([]Deck, error)
	GetDeck(ctx context.Context, id int64) (*Deck, error)
	CreateDeck(ctx context.Context, name, deckType string, active bool) (*Deck, error)
	UpdateDeck(ctx context.Context, id int64, upd DeckUpdate) (*Deck, error)
	DeleteDeck(ctx context.Context, id int64) error

	CreateMatch(ctx context.Context, nm NewMatch) (*MatchView, error)
	ListMatches(ctx context.Context, f MatchFilter) ([]MatchView, error)
	GetMatch(ctx context.Context, id int64) (*MatchView, error)
	UpdateMatch(ctx context.Context, id int64, upd MatchUpdate) (*MatchView, error)
	DeleteMatch(ctx context.Context, id int64) error

	Versus(ctx context.Context, deckID int64) (*VersusBundle, error)
	Matrix(ctx context.Context) (*MatrixBundle, error)
	Recount(ctx context.Context) (*RecountSummary, error)

	Close() error
}
