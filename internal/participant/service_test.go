package participant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore mimics the ON CONFLICT (group_id, user_id) upsert in memory.
type fakeStore struct {
	rows []Participant
	now  time.Time
}

func (f *fakeStore) clock() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeStore) Upsert(_ context.Context, p Participant) (Participant, error) {
	for i := range f.rows {
		if f.rows[i].GroupID == p.GroupID && f.rows[i].UserID == p.UserID {
			p.ID = f.rows[i].ID
			p.JoinedAt = f.clock()
			f.rows[i] = p
			return p, nil
		}
	}
	p.ID = uuid.NewString()
	p.JoinedAt = f.clock()
	f.rows = append(f.rows, p)
	return p, nil
}

func (f *fakeStore) ListByGroup(_ context.Context, groupID string) ([]Participant, error) {
	var out []Participant
	for _, p := range f.rows {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestJoinUpsertsSingleRow(t *testing.T) {
	store := &fakeStore{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Join(ctx, "g1", "u1", "Аня", nil, intPtr(5))
	require.NoError(t, err)

	second, err := svc.Join(ctx, "g1", "u1", "Анна", nil, intPtr(5))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Анна", second.DisplayName)
	assert.True(t, second.JoinedAt.After(first.JoinedAt), "rejoin must advance joined_at")
	assert.Len(t, store.rows, 1)

	// joining another group is an independent membership
	_, err = svc.Join(ctx, "g2", "u1", "Анна", nil, intPtr(5))
	require.NoError(t, err)
	assert.Len(t, store.rows, 2)
}

func TestListQueueOrdering(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []Participant{
		{ID: "c", GroupID: "g1", UserID: "u3", Position: 0, JoinedAt: base.Add(3 * time.Minute)},
		{ID: "a", GroupID: "g1", UserID: "u1", Position: 19, JoinedAt: base.Add(1 * time.Minute)},
		{ID: "b", GroupID: "g1", UserID: "u2", Position: 15, JoinedAt: base.Add(2 * time.Minute)},
	}}
	svc := NewService(store)

	got, err := svc.ListQueue(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestListQueueTieBreakByJoinTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []Participant{
		{ID: "e", GroupID: "g1", UserID: "u2", Position: 12, JoinedAt: base.Add(2 * time.Minute)},
		{ID: "d", GroupID: "g1", UserID: "u1", Position: 12, JoinedAt: base.Add(1 * time.Minute)},
	}}
	svc := NewService(store)

	got, err := svc.ListQueue(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "e", got[1].ID)
}

func TestListQueueUnprioritizedPoolKeepsJoinOrder(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []Participant{
		{ID: "y", GroupID: "g1", UserID: "u2", Position: 0, JoinedAt: base.Add(2 * time.Minute)},
		{ID: "x", GroupID: "g1", UserID: "u1", Position: 0, JoinedAt: base.Add(1 * time.Minute)},
		{ID: "p", GroupID: "g1", UserID: "u3", Position: 1, JoinedAt: base.Add(9 * time.Minute)},
	}}
	svc := NewService(store)

	got, err := svc.ListQueue(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// even the lowest non-zero position outranks the whole pool
	assert.Equal(t, []string{"p", "x", "y"}, []string{got[0].ID, got[1].ID, got[2].ID})
}
