package model

import (
	"errors"
	"time"
)

const (
	// DeviceCookieName carries the device identity issued by the middleware.
	DeviceCookieName = "device_id"

	// DeviceCookieMaxAge is 30 days, in seconds.
	DeviceCookieMaxAge = 60 * 60 * 24 * 30
)

// DeviceState is the per-device eligibility record. Both flags start false and
// only ever move to true.
type DeviceState struct {
	DeviceID    string    `db:"device_id" json:"-"`
	HasUploaded bool      `db:"has_uploaded" json:"has_uploaded"`
	HasVoted    bool      `db:"has_voted" json:"has_voted"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// ClaimField names a one-shot flag on DeviceState.
type ClaimField string

const (
	ClaimUploaded ClaimField = "has_uploaded"
	ClaimVoted    ClaimField = "has_voted"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	HasUploaded bool `json:"has_uploaded"`
	HasVoted    bool `json:"has_voted"`
}

var (
	// ErrIdentityMissing means a handler ran without the device middleware in front of it.
	ErrIdentityMissing = errors.New("device identity missing")
	ErrInvalidClaim    = errors.New("invalid claim field")
)
