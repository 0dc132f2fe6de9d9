package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GroupRepository stores one groups document per day as JSONB.
type GroupRepository struct {
	pool *pgxpool.Pool
}

var _ app.GroupRepository = (*GroupRepository)(nil)

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) GetDay(ctx context.Context, day domain.Day) (domain.DayGroups, bool, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT groups FROM day_groups WHERE day = $1`, string(day)).Scan(&raw)
	if err == pgx.ErrNoRows {
		return domain.DayGroups{}, false, nil
	}
	if err != nil {
		return domain.DayGroups{}, false, fmt.Errorf("get day groups: %w", err)
	}
	dg := domain.DayGroups{Day: day}
	if err := json.Unmarshal(raw, &dg.Groups); err != nil {
		return domain.DayGroups{}, false, fmt.Errorf("unmarshal groups: %w", err)
	}
	return dg, true, nil
}

func (r *GroupRepository) ReplaceDay(ctx context.Context, groups domain.DayGroups) error {
	raw, err := json.Marshal(groups.Groups)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO day_groups (day, groups) VALUES ($1, $2::jsonb)
		 ON CONFLICT (day) DO UPDATE SET groups = EXCLUDED.groups`,
		string(groups.Day), string(raw))
	if err != nil {
		return fmt.Errorf("replace day groups: %w", err)
	}
	return nil
}
