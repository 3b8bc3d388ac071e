package group

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Group is a teacher-owned group students attach to via the join code.
type Group struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	GroupNumber string    `json:"group_number"`
	JoinCode    string    `json:"join_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists groups in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new group inside its own transaction so a conflicting
// attempt leaves no trace. Unique violations surface to the caller.
func (r *Repository) Insert(ctx context.Context, g Group) (Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Group{}, err
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO groups (id, teacher_id, group_number, join_code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, g.ID, g.TeacherID, g.GroupNumber, g.JoinCode)
	if err := row.Scan(&g.CreatedAt); err != nil {
		_ = tx.Rollback()
		return Group{}, err
	}
	if err := tx.Commit(); err != nil {
		return Group{}, err
	}
	return g, nil
}

// Exists reports whether the teacher already has a group with this number.
func (r *Repository) Exists(ctx context.Context, teacherID, groupNumber string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM groups WHERE teacher_id = $1 AND group_number = $2 LIMIT 1
	`, teacherID, groupNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByTeacher returns the teacher's groups, newest first.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, teacher_id, group_number, join_code, created_at
		FROM groups
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.TeacherID, &g.GroupNumber, &g.JoinCode, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByJoinCode returns the group holding the code, or nil when none does.
func (r *Repository) GetByJoinCode(ctx context.Context, code string) (*Group, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, teacher_id, group_number, join_code, created_at
		FROM groups WHERE join_code = $1 LIMIT 1
	`, code)
	var g Group
	if err := row.Scan(&g.ID, &g.TeacherID, &g.GroupNumber, &g.JoinCode, &g.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// GetByID returns a group by primary key, or nil when missing.
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, teacher_id, group_number, join_code, created_at
		FROM groups WHERE id = $1
	`, id)
	var g Group
	if err := row.Scan(&g.ID, &g.TeacherID, &g.GroupNumber, &g.JoinCode, &g.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}
