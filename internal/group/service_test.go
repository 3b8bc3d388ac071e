package group

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJoinCode(t *testing.T) {
	code, err := NewJoinCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Containsf(t, joinCodeAlphabet, string(r), "code %q", code)
	}
}

// fakeStore keeps groups in memory and enforces the two unique constraints
// the real table has.
type fakeStore struct {
	groups      []Group
	insertCalls int
	// forceCodeConflicts makes the first N inserts fail as if the join code
	// were already taken.
	forceCodeConflicts int
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (f *fakeStore) Insert(_ context.Context, g Group) (Group, error) {
	f.insertCalls++
	if f.forceCodeConflicts > 0 {
		f.forceCodeConflicts--
		return Group{}, uniqueViolation()
	}
	for _, existing := range f.groups {
		if existing.TeacherID == g.TeacherID && existing.GroupNumber == g.GroupNumber {
			return Group{}, uniqueViolation()
		}
		if existing.JoinCode == g.JoinCode {
			return Group{}, uniqueViolation()
		}
	}
	g.ID = "g-" + g.JoinCode
	g.CreatedAt = time.Now()
	f.groups = append(f.groups, g)
	return g, nil
}

func (f *fakeStore) Exists(_ context.Context, teacherID, groupNumber string) (bool, error) {
	for _, g := range f.groups {
		if g.TeacherID == teacherID && g.GroupNumber == groupNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByTeacher(_ context.Context, teacherID string) ([]Group, error) {
	var out []Group
	for _, g := range f.groups {
		if g.TeacherID == teacherID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByJoinCode(_ context.Context, code string) (*Group, error) {
	for i := range f.groups {
		if f.groups[i].JoinCode == code {
			return &f.groups[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Group, error) {
	for i := range f.groups {
		if f.groups[i].ID == id {
			return &f.groups[i], nil
		}
	}
	return nil, nil
}

func TestCreateGroup(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	g, err := svc.Create(context.Background(), "t1", "  ИУ7-64Б ")
	require.NoError(t, err)
	assert.Equal(t, "ИУ7-64Б", g.GroupNumber)
	assert.Len(t, g.JoinCode, joinCodeLength)
	assert.Equal(t, strings.ToUpper(g.JoinCode), g.JoinCode)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestCreateGroupDuplicateNumber(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), "t1", "101")
	require.NoError(t, err)

	calls := store.insertCalls
	_, err = svc.Create(context.Background(), "t1", "101")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	// the semantic conflict is detected on the first attempt; no further
	// join codes are burned
	assert.Equal(t, calls+1, store.insertCalls)

	// a different teacher may reuse the number
	_, err = svc.Create(context.Background(), "t2", "101")
	assert.NoError(t, err)
}

func TestCreateGroupRetriesOnCodeCollision(t *testing.T) {
	store := &fakeStore{forceCodeConflicts: 2}
	svc := NewService(store)

	g, err := svc.Create(context.Background(), "t1", "202")
	require.NoError(t, err)
	assert.NotEmpty(t, g.JoinCode)
	assert.Equal(t, 3, store.insertCalls)
}

func TestCreateGroupExhaustsAttempts(t *testing.T) {
	store := &fakeStore{forceCodeConflicts: createAttempts}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), "t1", "303")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, createAttempts, store.insertCalls)
}

func TestGetByJoinCodeNormalizesInput(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	created, err := svc.Create(context.Background(), "t1", "404")
	require.NoError(t, err)

	got, err := svc.GetByJoinCode(context.Background(), "  "+strings.ToLower(created.JoinCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetByJoinCode(context.Background(), "NOPE0000")
	assert.ErrorIs(t, err, ErrNotFound)
}
