package battle

import (
	"context"
	"sort"
)

// UserBattles returns every battle the user participates in, in creation
// order. The user index set is unordered, so ordering is recovered from the
// aggregates themselves.
func (m *Manager) UserBattles(ctx context.Context, userID string) ([]*Battle, error) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	ids, err := m.rdb.SMembers(ctx, userIdxKey(userID)).Result()
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	list := make([]*Battle, 0, len(ids))
	for _, id := range ids {
		b, gerr := m.get(ctx, id)
		if gerr != nil {
			return nil, wrapStoreErr(gerr)
		}
		if b != nil {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// SentRequests projects the pending requests the user initiated. Derived
// views are computed from battle state only; nothing is stored per request.
func SentRequests(battles []*Battle, userID string) []*Battle {
	var out []*Battle
	for _, b := range battles {
		if b.State == StateRequested && b.PlayerOneID == userID {
			out = append(out, b)
		}
	}
	return out
}

// ReceivedRequests projects the pending requests awaiting the user's answer.
func ReceivedRequests(battles []*Battle, userID string) []*Battle {
	var out []*Battle
	for _, b := range battles {
		if b.State == StateRequested && b.PlayerTwoID == userID {
			out = append(out, b)
		}
	}
	return out
}
