package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sweatervote/internal/model"
)

type participantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

const participantColumns = `id, nickname, photo_url, votes_count, approved, created_at`

// Create inserts an approved entry with zero votes.
func (r *participantRepository) Create(ctx context.Context, tx *sqlx.Tx, nickname, photoURL string) (*model.Participant, error) {
	query := `
		INSERT INTO participants (nickname, photo_url, approved, votes_count)
		VALUES ($1, $2, TRUE, 0)
		RETURNING ` + participantColumns
	var p model.Participant
	if err := sqlx.GetContext(ctx, execer(r.db, tx), &p, query, nickname, photoURL); err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	return &p, nil
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	var p model.Participant
	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *participantRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM participants WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check participant exists: %w", err)
	}
	return exists, nil
}

// UpdatePhoto only touches photo_url; nickname and votes stay as they are.
func (r *participantRepository) UpdatePhoto(ctx context.Context, id, photoURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET photo_url = $2 WHERE id = $1`, id, photoURL)
	if err != nil {
		return fmt.Errorf("update participant photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update participant photo rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrParticipantNotFound
	}
	return nil
}

func (r *participantRepository) ListLeaderboard(ctx context.Context, limit int) ([]model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE approved = TRUE
		ORDER BY votes_count DESC, created_at ASC, id ASC
		LIMIT $1
	`
	items := []model.Participant{}
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return items, nil
}

func (r *participantRepository) ListRecent(ctx context.Context, limit int) ([]model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		ORDER BY created_at DESC
		LIMIT $1
	`
	items := []model.Participant{}
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list recent participants: %w", err)
	}
	return items, nil
}

func (r *participantRepository) IncrementVoteCount(ctx context.Context, tx *sqlx.Tx, id string, delta int) error {
	query := `UPDATE participants SET votes_count = GREATEST(votes_count + $2, 0) WHERE id = $1`
	res, err := execer(r.db, tx).ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment vote count rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrParticipantNotFound
	}
	return nil
}
