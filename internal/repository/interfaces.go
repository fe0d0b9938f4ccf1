package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sweatervote/internal/model"
)

// TxRunner runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type DeviceStateRepository interface {
	// GetOrCreate upserts the device row and returns its current flags.
	GetOrCreate(ctx context.Context, deviceID string) (*model.DeviceState, error)
	// TryClaim flips field from false to true. It returns false when the flag was
	// already set, which callers treat as "already did this".
	TryClaim(ctx context.Context, tx *sqlx.Tx, deviceID string, field model.ClaimField) (bool, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, nickname, photoURL string) (*model.Participant, error)
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdatePhoto(ctx context.Context, id, photoURL string) error
	// ListLeaderboard returns approved entries by votes desc, then oldest first.
	ListLeaderboard(ctx context.Context, limit int) ([]model.Participant, error)
	// ListRecent returns the newest entries regardless of approval.
	ListRecent(ctx context.Context, limit int) ([]model.Participant, error)
	IncrementVoteCount(ctx context.Context, tx *sqlx.Tx, id string, delta int) error
}

type BallotRepository interface {
	// Insert records a ballot. A second ballot for the same device fails with
	// model.ErrVoteBlocked.
	Insert(ctx context.Context, tx *sqlx.Tx, deviceID, participantID string) error
	CountForParticipant(ctx context.Context, participantID string) (int, error)
}

type DeviceParticipantRepository interface {
	Link(ctx context.Context, tx *sqlx.Tx, deviceID, participantID string) error
	// ParticipantIDForDevice returns "" when the device has no linked entry.
	ParticipantIDForDevice(ctx context.Context, deviceID string) (string, error)
}
