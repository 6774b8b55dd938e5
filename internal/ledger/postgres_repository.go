package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &PostgresStore{pool: pool}
}

// Append durably inserts a single ledger entry. Foreign-key violations are
// mapped to the unknown-reference sentinels so callers can answer 404.
func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO leaderboard_entries (team_id, challenge_id, points, description, assigned_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		e.TeamID, e.ChallengeID, e.Points, e.Description, e.AssignedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			switch pgErr.ConstraintName {
			case "leaderboard_entries_team_id_fkey":
				return ErrUnknownTeam
			case "leaderboard_entries_challenge_id_fkey":
				return ErrUnknownChallenge
			case "leaderboard_entries_assigned_by_fkey":
				return ErrUnknownProfile
			}
			return ErrUnknownTeam
		}
		return fmt.Errorf("inserting ledger entry: %w", err)
	}

	return nil
}

const entryColumns = `id, team_id, challenge_id, points, description, assigned_by, created_at`

func scanEntry(row pgx.Row, e *Entry) error {
	return row.Scan(&e.ID, &e.TeamID, &e.ChallengeID, &e.Points,
		&e.Description, &e.AssignedBy, &e.CreatedAt)
}

// List returns every ledger entry. Order is unspecified; aggregation is
// order-independent.
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM leaderboard_entries`)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByTeam returns all entries awarded to one team.
func (s *PostgresStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM leaderboard_entries WHERE team_id = $1`, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries for team: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListDetailed returns recent entries joined with display names, newest first.
func (s *PostgresStore) ListDetailed(ctx context.Context, limit int) ([]DetailedEntry, error) {
	query := `
		SELECT e.id, e.team_id, e.challenge_id, e.points, e.description, e.assigned_by, e.created_at,
		       t.name, c.title, p.email
		FROM leaderboard_entries e
		JOIN teams t ON t.id = e.team_id
		LEFT JOIN challenges c ON c.id = e.challenge_id
		JOIN profiles p ON p.id = e.assigned_by
		ORDER BY e.created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing detailed ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []DetailedEntry{}
	for rows.Next() {
		var d DetailedEntry
		err := rows.Scan(&d.ID, &d.TeamID, &d.ChallengeID, &d.Points,
			&d.Description, &d.AssignedBy, &d.CreatedAt,
			&d.TeamName, &d.ChallengeTitle, &d.AssignedByMail)
		if err != nil {
			return nil, fmt.Errorf("scanning detailed entry row: %w", err)
		}
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating detailed entry rows: %w", err)
	}

	return entries, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := scanEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("scanning ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entry rows: %w", err)
	}
	return entries, nil
}
