package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sweatervote/internal/model"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type ballotRepository struct {
	db *sqlx.DB
}

func NewBallotRepository(db *sqlx.DB) BallotRepository {
	return &ballotRepository{db: db}
}

// Insert relies on the primary key on device_id: whichever concurrent insert
// commits second gets a unique violation and is reported as blocked.
func (r *ballotRepository) Insert(ctx context.Context, tx *sqlx.Tx, deviceID, participantID string) error {
	query := `INSERT INTO votes (device_id, participant_id) VALUES ($1, $2)`
	_, err := execer(r.db, tx).ExecContext(ctx, query, deviceID, participantID)
	if err != nil {
		switch pqErrorCode(err) {
		case pqUniqueViolation:
			return model.ErrVoteBlocked
		case pqForeignKeyViolation:
			return model.ErrParticipantNotFound
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (r *ballotRepository) CountForParticipant(ctx context.Context, participantID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM votes WHERE participant_id = $1`, participantID)
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return count, nil
}

func pqErrorCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqErrorCode(err) == pqUniqueViolation
}
