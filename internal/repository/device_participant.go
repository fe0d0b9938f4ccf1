package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sweatervote/internal/model"
)

type deviceParticipantRepository struct {
	db *sqlx.DB
}

func NewDeviceParticipantRepository(db *sqlx.DB) DeviceParticipantRepository {
	return &deviceParticipantRepository{db: db}
}

func (r *deviceParticipantRepository) Link(ctx context.Context, tx *sqlx.Tx, deviceID, participantID string) error {
	query := `INSERT INTO device_participants (device_id, participant_id) VALUES ($1, $2)`
	_, err := execer(r.db, tx).ExecContext(ctx, query, deviceID, participantID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyUploaded
		}
		return fmt.Errorf("link device participant: %w", err)
	}
	return nil
}

func (r *deviceParticipantRepository) ParticipantIDForDevice(ctx context.Context, deviceID string) (string, error) {
	var link model.DeviceParticipant
	query := `SELECT device_id, participant_id, created_at FROM device_participants WHERE device_id = $1`
	err := r.db.GetContext(ctx, &link, query, deviceID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get device participant: %w", err)
	}
	return link.ParticipantID, nil
}
