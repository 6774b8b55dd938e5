package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const challengeColumns = `id, title, description, difficulty, category, icon, requirements, is_visible, max_points, status, created_at, updated_at`

func scanChallenge(row pgx.Row, c *Challenge) error {
	return row.Scan(&c.ID, &c.Title, &c.Description, &c.Difficulty, &c.Category,
		&c.Icon, &c.Requirements, &c.IsVisible, &c.MaxPoints, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
}

// Create inserts a new challenge record.
func (r *PostgresRepository) Create(ctx context.Context, c *Challenge) error {
	query := `
		INSERT INTO challenges (title, description, difficulty, category, icon, requirements, is_visible, max_points, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	if c.Requirements == nil {
		c.Requirements = []string{}
	}

	err := r.pool.QueryRow(ctx, query,
		c.Title, c.Description, c.Difficulty, c.Category, c.Icon,
		c.Requirements, c.IsVisible, c.MaxPoints, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting challenge: %w", err)
	}

	return nil
}

// GetByID retrieves a single challenge with its participating teams.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	var c Challenge
	if err := scanChallenge(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("querying challenge: %w", err)
	}

	participants, err := r.listParticipants(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Participants = participants
	c.ParticipantCount = len(participants)

	return &c, nil
}

func (r *PostgresRepository) listParticipants(ctx context.Context, challengeID uuid.UUID) ([]Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.account_id, t.name, t.avatar
		FROM team_challenges tc
		JOIN teams t ON t.id = tc.team_id
		WHERE tc.challenge_id = $1
		ORDER BY tc.created_at ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("listing challenge participants: %w", err)
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TeamID, &p.AccountID, &p.Name, &p.Avatar); err != nil {
			return nil, fmt.Errorf("scanning challenge participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge participant rows: %w", err)
	}

	return participants, nil
}

// List retrieves challenges with their participant counts, ordered by
// creation time. Hidden challenges are excluded when visibleOnly is set.
func (r *PostgresRepository) List(ctx context.Context, visibleOnly bool) ([]Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `,
		       (SELECT COUNT(*) FROM team_challenges tc WHERE tc.challenge_id = challenges.id)
		FROM challenges`
	if visibleOnly {
		query += ` WHERE is_visible`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	defer rows.Close()

	challenges := []Challenge{}
	for rows.Next() {
		var c Challenge
		err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Difficulty, &c.Category,
			&c.Icon, &c.Requirements, &c.IsVisible, &c.MaxPoints, &c.Status,
			&c.CreatedAt, &c.UpdatedAt, &c.ParticipantCount)
		if err != nil {
			return nil, fmt.Errorf("scanning challenge row: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge rows: %w", err)
	}

	return challenges, nil
}

// Update applies a partial update to a challenge.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, upd Update) (*Challenge, error) {
	query := `
		UPDATE challenges
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    difficulty = COALESCE($4, difficulty),
		    category = COALESCE($5, category),
		    icon = COALESCE($6, icon),
		    requirements = COALESCE($7, requirements),
		    is_visible = COALESCE($8, is_visible),
		    max_points = COALESCE($9, max_points),
		    status = COALESCE($10, status),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + challengeColumns

	var reqs []string
	if upd.Requirements != nil {
		reqs = *upd.Requirements
	}

	var c Challenge
	err := scanChallenge(r.pool.QueryRow(ctx, query,
		id, upd.Title, upd.Description, upd.Difficulty, upd.Category,
		upd.Icon, reqs, upd.IsVisible, upd.MaxPoints, upd.Status,
	), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("updating challenge: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_challenges WHERE challenge_id = $1`, id,
	).Scan(&c.ParticipantCount)
	if err != nil {
		return nil, fmt.Errorf("counting challenge participants: %w", err)
	}

	return &c, nil
}
