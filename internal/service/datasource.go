package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"sweatervote/internal/model"
)

// Mode tells which DataSource implementation is serving requests.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

// DataSource is the contract every handler talks to. Read methods have no
// error result: a live source that cannot reach its store answers with demo
// data instead. Write methods return model errors that the HTTP layer maps to
// status codes.
type DataSource interface {
	Mode() Mode

	Status(ctx context.Context, deviceID string) model.StatusResponse
	Leaderboard(ctx context.Context, limit int) []model.Participant
	MyParticipant(ctx context.Context, deviceID string) *model.Participant

	Upload(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error)
	ChangePhoto(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error)
	Vote(ctx context.Context, deviceID, participantID string) (model.VoteResult, error)
}

// ClampLimit bounds a leaderboard page size to [1, LeaderboardMaxLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > model.LeaderboardMaxLimit {
		return model.LeaderboardMaxLimit
	}
	return limit
}

// IsDemoID reports whether id belongs to the canned demo dataset.
func IsDemoID(id string) bool {
	return strings.HasPrefix(id, model.DemoIDPrefix)
}

// NormalizeNickname trims the nickname and enforces its length bounds.
func NormalizeNickname(raw string) (string, error) {
	nickname := strings.TrimSpace(raw)
	if nickname == "" {
		return "", model.ErrNicknameRequired
	}
	if utf8.RuneCountInString(nickname) > model.MaxNicknameLength {
		return "", model.ErrNicknameTooLong
	}
	return nickname, nil
}
