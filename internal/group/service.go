package group

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrAlreadyExists means the teacher already has a group with this number.
	ErrAlreadyExists = errors.New("group already exists")
	// ErrNotFound means no group matches the lookup.
	ErrNotFound = errors.New("group not found")
	// ErrCodeSpaceExhausted means the join-code retry budget ran out, which
	// points at a generator or constraint defect rather than user error.
	ErrCodeSpaceExhausted = errors.New("failed to generate unique join code")
)

const (
	joinCodeLength = 8
	createAttempts = 10
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, g Group) (Group, error)
	Exists(ctx context.Context, teacherID, groupNumber string) (bool, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Group, error)
	GetByJoinCode(ctx context.Context, code string) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
}

// Service owns group creation and lookup.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create inserts a group with a fresh join code, retrying on the rare code
// collision. A duplicate (teacher, group number) pair is a semantic conflict
// and is reported as ErrAlreadyExists no matter which attempt hit it.
func (s *Service) Create(ctx context.Context, teacherID, groupNumber string) (Group, error) {
	groupNumber = strings.TrimSpace(groupNumber)

	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := NewJoinCode(joinCodeLength)
		if err != nil {
			return Group{}, err
		}
		g, err := s.store.Insert(ctx, Group{
			TeacherID:   teacherID,
			GroupNumber: groupNumber,
			JoinCode:    code,
		})
		if err == nil {
			return g, nil
		}
		if !isUniqueViolation(err) {
			return Group{}, err
		}
		exists, exErr := s.store.Exists(ctx, teacherID, groupNumber)
		if exErr != nil {
			return Group{}, exErr
		}
		if exists {
			return Group{}, ErrAlreadyExists
		}
		// join code collided, draw a new one
	}

	log.Printf("group create: join code space exhausted after %d attempts (teacher %s)", createAttempts, teacherID)
	return Group{}, ErrCodeSpaceExhausted
}

// ListMyGroups returns the teacher's groups, newest first.
func (s *Service) ListMyGroups(ctx context.Context, teacherID string) ([]Group, error) {
	return s.store.ListByTeacher(ctx, teacherID)
}

// GetByJoinCode looks a group up by its public code. Comparison is
// case-insensitive; the stored form is uppercase.
func (s *Service) GetByJoinCode(ctx context.Context, code string) (Group, error) {
	g, err := s.store.GetByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Group{}, err
	}
	if g == nil {
		return Group{}, ErrNotFound
	}
	return *g, nil
}

// GetByID returns a group by primary key.
func (s *Service) GetByID(ctx context.Context, id string) (Group, error) {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if g == nil {
		return Group{}, ErrNotFound
	}
	return *g, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
