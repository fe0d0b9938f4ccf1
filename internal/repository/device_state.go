package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sweatervote/internal/model"
)

type deviceStateRepository struct {
	db *sqlx.DB
}

func NewDeviceStateRepository(db *sqlx.DB) DeviceStateRepository {
	return &deviceStateRepository{db: db}
}

// GetOrCreate inserts the device row if it is missing and returns it.
// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *deviceStateRepository) GetOrCreate(ctx context.Context, deviceID string) (*model.DeviceState, error) {
	query := `
		INSERT INTO device_state (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO UPDATE SET device_id = EXCLUDED.device_id
		RETURNING device_id, has_uploaded, has_voted, created_at
	`
	var state model.DeviceState
	if err := r.db.GetContext(ctx, &state, query, deviceID); err != nil {
		return nil, fmt.Errorf("upsert device state: %w", err)
	}
	return &state, nil
}

// TryClaim only updates a row whose flag is still false. Concurrent claims on
// the same row serialize on the row lock and the loser sees zero rows affected.
func (r *deviceStateRepository) TryClaim(ctx context.Context, tx *sqlx.Tx, deviceID string, field model.ClaimField) (bool, error) {
	var query string
	switch field {
	case model.ClaimUploaded:
		query = `UPDATE device_state SET has_uploaded = TRUE WHERE device_id = $1 AND has_uploaded = FALSE`
	case model.ClaimVoted:
		query = `UPDATE device_state SET has_voted = TRUE WHERE device_id = $1 AND has_voted = FALSE`
	default:
		return false, model.ErrInvalidClaim
	}

	res, err := execer(r.db, tx).ExecContext(ctx, query, deviceID)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", field, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim %s rows affected: %w", field, err)
	}
	return affected == 1, nil
}

// execer prefers the transaction when one is given.
func execer(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}
