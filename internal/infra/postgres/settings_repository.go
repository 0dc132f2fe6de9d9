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

// SettingsRepository stores the singleton settings row. The table's
// check-constrained primary key rejects any second insert, which is what the
// lazy-create path relies on.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

var _ app.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, bool, error) {
	var s domain.Settings
	var rawDay string
	var rawColors []byte
	err := r.pool.QueryRow(ctx,
		`SELECT current_day, group_colors FROM settings WHERE id = 1`).Scan(&rawDay, &rawColors)
	if err == pgx.ErrNoRows {
		return domain.Settings{}, false, nil
	}
	if err != nil {
		return domain.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}
	s.CurrentDay = domain.Day(rawDay)
	if err := json.Unmarshal(rawColors, &s.GroupColors); err != nil {
		return domain.Settings{}, false, fmt.Errorf("unmarshal group colors: %w", err)
	}
	return s, true, nil
}

func (r *SettingsRepository) Create(ctx context.Context, s domain.Settings) error {
	colors, err := json.Marshal(s.GroupColors)
	if err != nil {
		return fmt.Errorf("marshal group colors: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO settings (id, current_day, group_colors) VALUES (1, $1, $2::jsonb)`,
		string(s.CurrentDay), string(colors))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: settings singleton already exists", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) SetCurrentDay(ctx context.Context, day domain.Day) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE settings SET current_day = $1 WHERE id = 1`, string(day))
	if err != nil {
		return fmt.Errorf("set current day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: settings singleton", domain.ErrNotFound)
	}
	return nil
}

func (r *SettingsRepository) SetGroupColors(ctx context.Context, day domain.Day, colors []string) error {
	raw, err := json.Marshal(colors)
	if err != nil {
		return fmt.Errorf("marshal colors: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE settings SET group_colors = jsonb_set(group_colors, ARRAY[$1::text], $2::jsonb, true) WHERE id = 1`,
		string(day), string(raw))
	if err != nil {
		return fmt.Errorf("set group colors: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: settings singleton", domain.ErrNotFound)
	}
	return nil
}
