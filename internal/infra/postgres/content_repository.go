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

// ContentRepository stores the append-only upload history. The table's
// primary key on (day, game, grp, version) backs the conflict guarantee.
type ContentRepository struct {
	pool *pgxpool.Pool
}

var _ app.ContentRepository = (*ContentRepository)(nil)

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func (r *ContentRepository) MaxVersion(ctx context.Context, day domain.Day, game domain.Game, group string) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM content_versions WHERE day = $1 AND game = $2 AND grp = $3`,
		string(day), string(game), group).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max version: %w", err)
	}
	return max, nil
}

func (r *ContentRepository) Insert(ctx context.Context, cv domain.ContentVersion) error {
	payload, err := json.Marshal(cv.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO content_versions (day, game, grp, version, payload, uploaded_at) VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		string(cv.Day), string(cv.Game), cv.Group, cv.Version, string(payload), cv.UploadedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: version %d already exists for %s/%s/%s", domain.ErrConflict, cv.Version, cv.Day, cv.Game, cv.Group)
	}
	if err != nil {
		return fmt.Errorf("insert content version: %w", err)
	}
	return nil
}

func (r *ContentRepository) Current(ctx context.Context, day domain.Day, game domain.Game, group string) (domain.ContentVersion, error) {
	cv := domain.ContentVersion{Day: day, Game: game, Group: group}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT version, payload, uploaded_at FROM content_versions
		 WHERE day = $1 AND game = $2 AND grp = $3
		 ORDER BY version DESC LIMIT 1`,
		string(day), string(game), group).Scan(&cv.Version, &raw, &cv.UploadedAt)
	if err == pgx.ErrNoRows {
		return domain.ContentVersion{}, fmt.Errorf("%w: no content for %s/%s/%s", domain.ErrNotFound, day, game, group)
	}
	if err != nil {
		return domain.ContentVersion{}, fmt.Errorf("current content: %w", err)
	}
	if err := json.Unmarshal(raw, &cv.Payload); err != nil {
		return domain.ContentVersion{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return cv, nil
}
