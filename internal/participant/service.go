package participant

import (
	"context"
	"sort"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	Upsert(ctx context.Context, p Participant) (Participant, error)
	ListByGroup(ctx context.Context, groupID string) ([]Participant, error)
}

// Service owns queue membership and ordering.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Join registers the user in the group, computing the position snapshot at
// this instant. Rejoining updates the existing membership.
func (s *Service) Join(ctx context.Context, groupID, userID, displayName string, region *string, mskOffsetHours *int) (Participant, error) {
	return s.store.Upsert(ctx, Participant{
		GroupID:        groupID,
		UserID:         userID,
		DisplayName:    displayName,
		Region:         region,
		MSKOffsetHours: mskOffsetHours,
		Position:       PositionAt(time.Now(), mskOffsetHours),
	})
}

// ListQueue returns the group's defense queue, ordered fresh on every read:
// participants with a position come first, later local hour first, joins
// breaking ties; the unprioritized pool follows in join order.
func (s *Service) ListQueue(ctx context.Context, groupID string) ([]Participant, error) {
	ps, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sortQueue(ps)
	return ps, nil
}

func sortQueue(ps []Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		aPrio, bPrio := a.Position > 0, b.Position > 0
		if aPrio != bPrio {
			return aPrio
		}
		if aPrio && a.Position != b.Position {
			return a.Position > b.Position
		}
		return a.JoinedAt.Before(b.JoinedAt)
	})
}
