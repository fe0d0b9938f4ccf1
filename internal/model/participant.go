package model

import (
	"errors"
	"time"
)

const (
	// DemoIDPrefix marks participants that only exist in the demo dataset.
	DemoIDPrefix = "demo-"

	LeaderboardDefaultLimit = 10
	LeaderboardMaxLimit     = 500

	// RecentParticipantScan bounds the photo-path fallback lookup.
	RecentParticipantScan = 100

	MaxNicknameLength = 40
)

// Participant is one contest entry.
type Participant struct {
	ID         string    `db:"id" json:"id"`
	Nickname   string    `db:"nickname" json:"nickname"`
	PhotoURL   string    `db:"photo_url" json:"photo_url"`
	VotesCount int       `db:"votes_count" json:"votes_count"`
	Approved   bool      `db:"approved" json:"approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DeviceParticipant links a device to the entry it uploaded.
type DeviceParticipant struct {
	DeviceID      string    `db:"device_id"`
	ParticipantID string    `db:"participant_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// UploadRequest is the parsed multipart body of POST /upload.
type UploadRequest struct {
	Nickname string
	Photo    PhotoUpload
}

// LeaderboardResponse is the body of GET /leaderboard.
type LeaderboardResponse struct {
	Items []Participant `json:"items"`
}

// MyParticipantResponse is the body of GET /my-participant.
type MyParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	OK          bool         `json:"ok"`
	Participant *Participant `json:"participant"`
}

// UpdatePhotoResponse is the body of a successful POST /update-photo.
type UpdatePhotoResponse struct {
	OK       bool   `json:"ok"`
	PhotoURL string `json:"photo_url"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyUploaded     = "ALREADY_UPLOADED"
	CodeNoUpload            = "NO_UPLOAD"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeUploadUnavailable   = "UPLOAD_UNAVAILABLE"
)

// Domain errors for participant operations
var (
	ErrNicknameRequired    = errors.New("nickname required")
	ErrNicknameTooLong     = errors.New("nickname too long")
	ErrPhotoRequired       = errors.New("photo required")
	ErrAlreadyUploaded     = errors.New("already uploaded")
	ErrNoUpload            = errors.New("no upload found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStoreUnavailable    = errors.New("backing store unavailable")
	ErrStorageUnavailable  = errors.New("photo storage unavailable")
)
