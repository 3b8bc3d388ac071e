package participant

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Participant is a student's membership in one group. Position is the
// queue sort key frozen at the moment of the last join.
type Participant struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"group_id"`
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Region         *string   `json:"region"`
	MSKOffsetHours *int      `json:"msk_offset_hours"`
	JoinedAt       time.Time `json:"joined_at"`
	Position       int       `json:"position"`
}

// Repository persists participants in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the membership row or, when (group_id, user_id) already
// exists, refreshes it in place — a rejoin never duplicates the row but
// does reset joined_at. One statement, so concurrent rejoins by the same
// user serialize on the row and the last writer wins.
func (r *Repository) Upsert(ctx context.Context, p Participant) (Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, group_id, user_id, display_name, region, msk_offset_hours, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_id, user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			region = EXCLUDED.region,
			msk_offset_hours = EXCLUDED.msk_offset_hours,
			position = EXCLUDED.position,
			joined_at = NOW()
		RETURNING id, joined_at
	`, p.ID, p.GroupID, p.UserID, p.DisplayName, p.Region, p.MSKOffsetHours, p.Position)
	if err := row.Scan(&p.ID, &p.JoinedAt); err != nil {
		return Participant{}, err
	}
	return p, nil
}

// ListByGroup returns the group's participants ordered by join time only;
// the queue ordering is applied by the service on every read.
func (r *Repository) ListByGroup(ctx context.Context, groupID string) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, display_name, region, msk_offset_hours, joined_at, position
		FROM participants
		WHERE group_id = $1
		ORDER BY joined_at ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.GroupID, &p.UserID, &p.DisplayName, &p.Region, &p.MSKOffsetHours, &p.JoinedAt, &p.Position); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordJoinAudit appends one audit row for a processed join event.
func (r *Repository) RecordJoinAudit(ctx context.Context, groupID, userID string, position int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO join_audit (id, group_id, user_id, position)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), groupID, userID, position)
	return err
}
