package memory

import (
	"context"
	"sync"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
)

// GroupRepository is an in-memory implementation of app.GroupRepository.
// At most one groups document exists per day.
type GroupRepository struct {
	mu   sync.RWMutex
	days map[domain.Day]domain.DayGroups
}

var _ app.GroupRepository = (*GroupRepository)(nil)

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{days: make(map[domain.Day]domain.DayGroups)}
}

func (r *GroupRepository) GetDay(_ context.Context, day domain.Day) (domain.DayGroups, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups, ok := r.days[day]
	if !ok {
		return domain.DayGroups{}, false, nil
	}
	return cloneDayGroups(groups), true, nil
}

func (r *GroupRepository) ReplaceDay(_ context.Context, groups domain.DayGroups) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[groups.Day] = cloneDayGroups(groups)
	return nil
}

func cloneDayGroups(in domain.DayGroups) domain.DayGroups {
	out := domain.DayGroups{Day: in.Day, Groups: make([]domain.Group, len(in.Groups))}
	for i, g := range in.Groups {
		members := make([]string, len(g.Members))
		copy(members, g.Members)
		out.Groups[i] = domain.Group{Name: g.Name, Members: members, TotalScore: g.TotalScore}
	}
	return out
}
