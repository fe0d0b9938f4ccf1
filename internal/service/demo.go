package service

import (
	"context"
	"strconv"
	"time"

	"sweatervote/internal/model"
)

var demoEpoch = time.Date(2024, time.December, 20, 18, 0, 0, 0, time.UTC)

// demoParticipants is already in leaderboard order.
var demoParticipants = []model.Participant{
	demoEntry(1, "Maria 🎄", "photo-1517841905240-472988babdf9", 42),
	demoEntry(2, "Ion 🎅", "photo-1507003211169-0a1dd7228f2d", 38),
	demoEntry(3, "Ana ⛄", "photo-1494790108377-be9c29b29330", 35),
	demoEntry(4, "Alex 🦌", "photo-1500648767791-00dcc994a43e", 28),
	demoEntry(5, "Elena 🎁", "photo-1438761681033-6461ffad8d80", 25),
	demoEntry(6, "Mihai 🎄", "photo-1472099645785-5658abf4ff4e", 22),
	demoEntry(7, "Ioana 🎅", "photo-1544005313-94ddf0286df2", 18),
	demoEntry(8, "Andrei ⛄", "photo-1506794778202-cad84cf45f1d", 15),
}

func demoEntry(n int, nickname, photo string, votes int) model.Participant {
	return model.Participant{
		ID:         model.DemoIDPrefix + strconv.Itoa(n),
		Nickname:   nickname,
		PhotoURL:   "https://images.unsplash.com/" + photo + "?w=400&h=400&fit=crop",
		VotesCount: votes,
		Approved:   true,
		CreatedAt:  demoEpoch.Add(time.Duration(n) * time.Minute),
	}
}

// DemoSource serves a fixed dataset and never persists anything. It backs the
// whole API when the database is not configured, and supplies fallback reads
// for the live source.
type DemoSource struct{}

func NewDemoSource() *DemoSource {
	return &DemoSource{}
}

func (d *DemoSource) Mode() Mode {
	return ModeDemo
}

func (d *DemoSource) Status(ctx context.Context, deviceID string) model.StatusResponse {
	return model.StatusResponse{}
}

// Leaderboard returns a copy so callers can't mutate the shared dataset.
func (d *DemoSource) Leaderboard(ctx context.Context, limit int) []model.Participant {
	limit = min(ClampLimit(limit), len(demoParticipants))
	items := make([]model.Participant, limit)
	copy(items, demoParticipants[:limit])
	return items
}

func (d *DemoSource) MyParticipant(ctx context.Context, deviceID string) *model.Participant {
	return nil
}

// Upload validates its input like the live source does, so a bad request is
// still a 400, and then reports that nothing can be stored.
func (d *DemoSource) Upload(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
	if _, err := NormalizeNickname(req.Nickname); err != nil {
		return nil, err
	}
	if len(req.Photo.Data) == 0 {
		return nil, model.ErrPhotoRequired
	}
	return nil, model.ErrStoreUnavailable
}

func (d *DemoSource) ChangePhoto(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error) {
	if len(photo.Data) == 0 {
		return "", model.ErrPhotoRequired
	}
	return "", model.ErrStoreUnavailable
}

// Vote accepts any target without recording it. The client keeps track of
// which demo entries it already voted for.
func (d *DemoSource) Vote(ctx context.Context, deviceID, participantID string) (model.VoteResult, error) {
	if participantID == "" {
		return model.VoteResult{}, model.ErrParticipantIDRequired
	}
	return model.VoteResult{Demo: true}, nil
}
