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

// ParticipantRepository stores participants with the score matrix as JSONB.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

var _ app.ParticipantRepository = (*ParticipantRepository)(nil)

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) Insert(ctx context.Context, p domain.Participant) error {
	scores, err := json.Marshal(p.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO participants (external_id, display_name, scores, created_at) VALUES ($1, $2, $3::jsonb, $4)`,
		p.ExternalID, p.DisplayName, string(scores), p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: participant %q already registered", domain.ErrConflict, p.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) Get(ctx context.Context, externalID string) (domain.Participant, error) {
	p := domain.Participant{ExternalID: externalID}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT display_name, scores, created_at FROM participants WHERE external_id = $1`,
		externalID).Scan(&p.DisplayName, &raw, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return domain.Participant{}, fmt.Errorf("%w: participant %q", domain.ErrNotFound, externalID)
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	if err := json.Unmarshal(raw, &p.Scores); err != nil {
		return domain.Participant{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	return p, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT external_id, display_name, scores, created_at FROM participants ORDER BY external_id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		var raw []byte
		if err := rows.Scan(&p.ExternalID, &p.DisplayName, &raw, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if err := json.Unmarshal(raw, &p.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetScore writes one cell inside the JSONB matrix in a single statement so
// concurrent writes to different cells never clobber each other.
func (r *ParticipantRepository) SetScore(ctx context.Context, externalID string, game domain.Game, day domain.Day, score int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants
		 SET scores = jsonb_set(scores, ARRAY[$2::text],
		     COALESCE(scores->$2::text, '{}'::jsonb) || jsonb_build_object($3::text, $4::int), true)
		 WHERE external_id = $1`,
		externalID, string(game), string(day), score)
	if err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: participant %q", domain.ErrNotFound, externalID)
	}
	return nil
}
