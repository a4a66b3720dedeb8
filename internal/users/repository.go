package users

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memhive/memhive/internal/identity"
	"github.com/memhive/memhive/internal/shared"
)

// Repository defines persistence operations for principals.
type Repository interface {
	GetByID(ctx context.Context, id string) (*identity.Principal, error)
	GetByUsername(ctx context.Context, username string) (*identity.Principal, error)
	GetByEmail(ctx context.Context, email string) (*identity.Principal, error)
	List(ctx context.Context) ([]identity.Principal, error)
	Create(ctx context.Context, p *identity.Principal, passwordHash string) error
	ReplaceAssignments(ctx context.Context, principalID string, assignments []identity.RoleAssignment) error
	SetActive(ctx context.Context, id string, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const principalColumns = `id, username, email, role, is_active, metadata, created_at, updated_at`

// GetByID fetches a principal with its assignments.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	return r.getBy(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
}

// GetByUsername fetches a principal by username.
func (r *PGRepository) GetByUsername(ctx context.Context, username string) (*identity.Principal, error) {
	return r.getBy(ctx, `SELECT `+principalColumns+` FROM principals WHERE username = $1`, username)
}

// GetByEmail fetches a principal by email.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	return r.getBy(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email)
}

func (r *PGRepository) getBy(ctx context.Context, query, arg string) (*identity.Principal, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	p, err := scanPrincipal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	assignments, err := r.loadAssignments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Assignments = assignments
	return p, nil
}

// List returns all principals ordered by username, assignments included.
func (r *PGRepository) List(ctx context.Context) ([]identity.Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]identity.Principal, 0)
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		assignments, err := r.loadAssignments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Assignments = assignments
	}
	return out, nil
}

// Create inserts a principal and its initial assignments in one transaction.
func (r *PGRepository) Create(ctx context.Context, p *identity.Principal, passwordHash string) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO principals (id, username, email, role, is_active, password_hash, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		p.ID, p.Username, p.Email, string(p.Role), p.IsActive, passwordHash, metadata, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return err
	}
	if err := insertAssignments(ctx, tx, p.ID, p.Assignments); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceAssignments swaps the principal's assignment set wholesale.
func (r *PGRepository) ReplaceAssignments(ctx context.Context, principalID string, assignments []identity.RoleAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM role_assignments WHERE principal_id = $1`, principalID); err != nil {
		return err
	}
	if err := insertAssignments(ctx, tx, principalID, assignments); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE principals SET updated_at = $2 WHERE id = $1`, principalID, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetActive toggles the logical-delete flag.
func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE principals SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) loadAssignments(ctx context.Context, principalID string) ([]identity.RoleAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT agent_id, access_level, read_collections, write_collections, assigned_at, assigned_by
		 FROM role_assignments WHERE principal_id = $1 ORDER BY agent_id`,
		principalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]identity.RoleAssignment, 0)
	for rows.Next() {
		var a identity.RoleAssignment
		var level string
		if err := rows.Scan(&a.AgentID, &level, &a.ReadCollections, &a.WriteCollections, &a.AssignedAt, &a.AssignedBy); err != nil {
			return nil, err
		}
		a.AccessLevel = identity.AccessLevel(level)
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertAssignments(ctx context.Context, tx pgx.Tx, principalID string, assignments []identity.RoleAssignment) error {
	for _, a := range assignments {
		_, err := tx.Exec(ctx,
			`INSERT INTO role_assignments (principal_id, agent_id, access_level, read_collections, write_collections, assigned_at, assigned_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			principalID, a.AgentID, string(a.AccessLevel), a.ReadCollections, a.WriteCollections, a.AssignedAt, a.AssignedBy,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*identity.Principal, error) {
	var p identity.Principal
	var role string
	var metadata []byte
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &role, &p.IsActive, &metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = identity.Role(role)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
