package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// Create inserts a new team record.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (account_id, name, description, avatar, photo_url, team_lead_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		t.AccountID, t.Name, t.Description, t.Avatar, t.PhotoURL, t.TeamLeadID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAccountID
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

const teamColumns = `id, account_id, name, description, avatar, photo_url, team_lead_id, created_at, updated_at`

func scanTeam(row pgx.Row, t *Team) error {
	return row.Scan(&t.ID, &t.AccountID, &t.Name, &t.Description, &t.Avatar,
		&t.PhotoURL, &t.TeamLeadID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a single team with its roster.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	var t Team
	if err := scanTeam(r.pool.QueryRow(ctx, query, id), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}

	if err := r.loadAssociations(ctx, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// GetByAccountID retrieves a single team by its account handle.
func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE account_id = $1`

	var t Team
	if err := scanTeam(r.pool.QueryRow(ctx, query, accountID), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team by account ID: %w", err)
	}

	if err := r.loadAssociations(ctx, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// GetByLeadID retrieves the team led by the given profile.
func (r *PostgresRepository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_lead_id = $1`

	var t Team
	if err := scanTeam(r.pool.QueryRow(ctx, query, leadID), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team by lead: %w", err)
	}

	if err := r.loadAssociations(ctx, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// List retrieves all teams with their rosters, ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var t Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		t.Members = []Member{}
		t.ChallengeIDs = []uuid.UUID{}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		return []Team{}, nil
	}

	memberRows, err := r.pool.Query(ctx, `
		SELECT id, team_id, name, role, avatar, created_at
		FROM team_members
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var m Member
		err := memberRows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Role, &m.Avatar, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning team member row: %w", err)
		}
		if i, ok := index[m.TeamID]; ok {
			teams[i].Members = append(teams[i].Members, m)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team member rows: %w", err)
	}

	tcRows, err := r.pool.Query(ctx, `
		SELECT team_id, challenge_id FROM team_challenges
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing challenge participation: %w", err)
	}
	defer tcRows.Close()

	for tcRows.Next() {
		var teamID, challengeID uuid.UUID
		if err := tcRows.Scan(&teamID, &challengeID); err != nil {
			return nil, fmt.Errorf("scanning challenge participation row: %w", err)
		}
		if i, ok := index[teamID]; ok {
			teams[i].ChallengeIDs = append(teams[i].ChallengeIDs, challengeID)
		}
	}
	if err := tcRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge participation rows: %w", err)
	}

	return teams, nil
}

// Update applies a partial update to a team's profile fields.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, upd Update) (*Team, error) {
	query := `
		UPDATE teams
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    avatar = COALESCE($4, avatar),
		    photo_url = COALESCE($5, photo_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + teamColumns

	var t Team
	err := scanTeam(r.pool.QueryRow(ctx, query,
		id, upd.Name, upd.Description, upd.Avatar, upd.PhotoURL,
	), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("updating team: %w", err)
	}

	if err := r.loadAssociations(ctx, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// Delete removes a team by its UUID. Returns ErrTeamHasEntries if ledger
// entries still reference the team (FK RESTRICT).
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTeamHasEntries
		}
		return fmt.Errorf("deleting team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// AddMember inserts a roster member. The team row is locked for the duration
// of the transaction so concurrent additions serialize on the MaxMembers
// check; under READ COMMITTED a plain count guard would let two in-flight
// inserts both pass it.
func (r *PostgresRepository) AddMember(ctx context.Context, m *Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning roster transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var teamID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, m.TeamID).Scan(&teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("locking team row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1`, m.TeamID).Scan(&count)
	if err != nil {
		return fmt.Errorf("counting team members: %w", err)
	}
	if count >= MaxMembers {
		return ErrRosterFull
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO team_members (team_id, name, role, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		m.TeamID, m.Name, m.Role, m.Avatar,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting team member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing roster transaction: %w", err)
	}

	return nil
}

// UpdateMember applies a partial update to a roster member. The member must
// belong to the given team.
func (r *PostgresRepository) UpdateMember(ctx context.Context, teamID, id uuid.UUID, name, role, avatar *string) (*Member, error) {
	query := `
		UPDATE team_members
		SET name = COALESCE($3, name),
		    role = COALESCE($4, role),
		    avatar = COALESCE($5, avatar)
		WHERE id = $1 AND team_id = $2
		RETURNING id, team_id, name, role, avatar, created_at`

	var m Member
	err := r.pool.QueryRow(ctx, query, id, teamID, name, role, avatar).
		Scan(&m.ID, &m.TeamID, &m.Name, &m.Role, &m.Avatar, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("updating team member: %w", err)
	}

	return &m, nil
}

// RemoveMember deletes a roster member. The member must belong to the given team.
func (r *PostgresRepository) RemoveMember(ctx context.Context, teamID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM team_members WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		return fmt.Errorf("deleting team member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	return nil
}

func (r *PostgresRepository) loadAssociations(ctx context.Context, t *Team) error {
	members, err := r.listMembers(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Members = members

	ids, err := r.listChallengeIDs(ctx, t.ID)
	if err != nil {
		return err
	}
	t.ChallengeIDs = ids

	return nil
}

// JoinChallenge registers the team as a participant in a challenge.
func (r *PostgresRepository) JoinChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_challenges (team_id, challenge_id)
		VALUES ($1, $2)`, teamID, challengeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyInChallenge
			case "23503":
				if pgErr.ConstraintName == "team_challenges_challenge_id_fkey" {
					return ErrUnknownChallenge
				}
				return ErrTeamNotFound
			}
		}
		return fmt.Errorf("inserting challenge participation: %w", err)
	}

	return nil
}

// LeaveChallenge removes the team's participation in a challenge.
func (r *PostgresRepository) LeaveChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM team_challenges
		WHERE team_id = $1 AND challenge_id = $2`, teamID, challengeID)
	if err != nil {
		return fmt.Errorf("deleting challenge participation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotInChallenge
	}

	return nil
}

func (r *PostgresRepository) listChallengeIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT challenge_id FROM team_challenges
		WHERE team_id = $1
		ORDER BY created_at ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing challenge participation: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning challenge participation row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge participation rows: %w", err)
	}

	return ids, nil
}

func (r *PostgresRepository) listMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, team_id, name, role, avatar, created_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY created_at ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Role, &m.Avatar, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning team member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team member rows: %w", err)
	}

	return members, nil
}
