package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sweatervote/internal/cache"
	"sweatervote/internal/model"
	"sweatervote/internal/queue"
	"sweatervote/internal/repository"
)

// ContestDeps holds everything the live data source needs.
type ContestDeps struct {
	Tx                 repository.TxRunner
	DeviceStates       repository.DeviceStateRepository
	Participants       repository.ParticipantRepository
	Ballots            repository.BallotRepository
	DeviceParticipants repository.DeviceParticipantRepository
	Photos             PhotoStore
	Leaderboard        cache.LeaderboardCache // optional
	Publisher          queue.Publisher        // optional
}

// ContestService is the live DataSource. Every state-changing action reads the
// device state first and then relies on a conditional update or a unique
// constraint inside one transaction, so a lost race surfaces as an
// "already done" error instead of a duplicate row.
type ContestService struct {
	tx                 repository.TxRunner
	deviceStates       repository.DeviceStateRepository
	participants       repository.ParticipantRepository
	ballots            repository.BallotRepository
	deviceParticipants repository.DeviceParticipantRepository
	photos             PhotoStore
	leaderboard        cache.LeaderboardCache
	publisher          queue.Publisher
	demo               *DemoSource
}

func NewContestService(deps ContestDeps) *ContestService {
	leaderboard := deps.Leaderboard
	if leaderboard == nil {
		leaderboard = cache.NoopLeaderboardCache{}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	photos := deps.Photos
	if photos == nil {
		photos = NewUnavailablePhotoStore()
	}

	return &ContestService{
		tx:                 deps.Tx,
		deviceStates:       deps.DeviceStates,
		participants:       deps.Participants,
		ballots:            deps.Ballots,
		deviceParticipants: deps.DeviceParticipants,
		photos:             photos,
		leaderboard:        leaderboard,
		publisher:          publisher,
		demo:               NewDemoSource(),
	}
}

func (s *ContestService) Mode() Mode {
	return ModeLive
}

// Status returns the device's flags, creating the row on first contact.
// Any failure reports a fresh device.
func (s *ContestService) Status(ctx context.Context, deviceID string) model.StatusResponse {
	if deviceID == "" {
		return s.demo.Status(ctx, deviceID)
	}

	state, err := s.deviceStates.GetOrCreate(ctx, deviceID)
	if err != nil {
		log.Printf("[ContestService] Status fallback: device=%s err=%v", deviceID, err)
		return s.demo.Status(ctx, deviceID)
	}

	return model.StatusResponse{HasUploaded: state.HasUploaded, HasVoted: state.HasVoted}
}

// Leaderboard returns approved entries by votes desc, oldest first on ties.
// Store errors and an empty registry both fall back to the demo dataset.
func (s *ContestService) Leaderboard(ctx context.Context, limit int) []model.Participant {
	limit = ClampLimit(limit)

	items, found, err := s.leaderboard.Get(ctx, limit)
	if err != nil {
		log.Printf("[ContestService] Leaderboard cache read failed: %v", err)
	}
	if found {
		return items
	}

	items, err = s.participants.ListLeaderboard(ctx, limit)
	if err != nil {
		log.Printf("[ContestService] Leaderboard fallback: limit=%d err=%v", limit, err)
		return s.demo.Leaderboard(ctx, limit)
	}
	if len(items) == 0 {
		return s.demo.Leaderboard(ctx, limit)
	}

	if err := s.leaderboard.Set(ctx, limit, items); err != nil {
		log.Printf("[ContestService] Leaderboard cache write failed: %v", err)
	}
	return items
}

// MyParticipant returns the entry uploaded from this device, or nil.
func (s *ContestService) MyParticipant(ctx context.Context, deviceID string) *model.Participant {
	if deviceID == "" {
		return nil
	}

	state, err := s.deviceStates.GetOrCreate(ctx, deviceID)
	if err != nil {
		log.Printf("[ContestService] MyParticipant fallback: device=%s err=%v", deviceID, err)
		return nil
	}
	if !state.HasUploaded {
		return nil
	}

	participant, err := s.resolveParticipant(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, model.ErrParticipantNotFound) {
			log.Printf("[ContestService] MyParticipant fallback: device=%s err=%v", deviceID, err)
		}
		return nil
	}
	return participant
}

// Upload creates the device's single contest entry.
//
// The photo is stored before the transaction; if the transaction then fails
// the blob stays behind unreferenced.
func (s *ContestService) Upload(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
	if deviceID == "" {
		return nil, model.ErrIdentityMissing
	}
	nickname, err := NormalizeNickname(req.Nickname)
	if err != nil {
		return nil, err
	}
	if len(req.Photo.Data) == 0 {
		return nil, model.ErrPhotoRequired
	}

	state, err := s.deviceStates.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("get device state: %w", err)
	}
	if state.HasUploaded {
		return nil, model.ErrAlreadyUploaded
	}

	stored, err := s.photos.Put(ctx, deviceID, req.Photo)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	var participant *model.Participant
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		claimed, err := s.deviceStates.TryClaim(ctx, tx, deviceID, model.ClaimUploaded)
		if err != nil {
			return err
		}
		if !claimed {
			return model.ErrAlreadyUploaded
		}

		p, err := s.participants.Create(ctx, tx, nickname, stored.URL)
		if err != nil {
			return err
		}
		if err := s.deviceParticipants.Link(ctx, tx, deviceID, p.ID); err != nil {
			return err
		}

		participant = p
		return nil
	})
	if err != nil {
		log.Printf("[ContestService] Upload failed after storing blob: device=%s key=%s err=%v", deviceID, stored.Key, err)
		if errors.Is(err, model.ErrAlreadyUploaded) {
			return nil, model.ErrAlreadyUploaded
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}

	log.Printf("[ContestService] Participant created: id=%s device=%s", participant.ID, deviceID)
	s.afterWrite(ctx, queue.NewParticipantCreatedEvent(participant.ID, deviceID, participant.PhotoURL))
	return participant, nil
}

// ChangePhoto replaces the photo of the device's entry. Nickname and votes are
// untouched; the previous blob is left in storage.
func (s *ContestService) ChangePhoto(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error) {
	if deviceID == "" {
		return "", model.ErrIdentityMissing
	}
	if len(photo.Data) == 0 {
		return "", model.ErrPhotoRequired
	}

	state, err := s.deviceStates.GetOrCreate(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("get device state: %w", err)
	}
	if !state.HasUploaded {
		return "", model.ErrNoUpload
	}

	participant, err := s.resolveParticipant(ctx, deviceID)
	if err != nil {
		return "", err
	}

	stored, err := s.photos.Put(ctx, deviceID, photo)
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	if err := s.participants.UpdatePhoto(ctx, participant.ID, stored.URL); err != nil {
		return "", fmt.Errorf("update photo: %w", err)
	}

	log.Printf("[ContestService] Photo changed: participant=%s device=%s", participant.ID, deviceID)
	s.afterWrite(ctx, queue.NewPhotoChangedEvent(participant.ID, deviceID, stored.URL))
	return stored.URL, nil
}

// Vote records the device's single ballot. Demo ids get a synthetic success
// without touching the store. Voting for one's own entry is not rejected.
func (s *ContestService) Vote(ctx context.Context, deviceID, participantID string) (model.VoteResult, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return model.VoteResult{}, model.ErrParticipantIDRequired
	}
	if IsDemoID(participantID) {
		return model.VoteResult{Demo: true}, nil
	}
	if deviceID == "" {
		return model.VoteResult{}, model.ErrIdentityMissing
	}

	state, err := s.deviceStates.GetOrCreate(ctx, deviceID)
	if err != nil {
		return model.VoteResult{}, fmt.Errorf("get device state: %w", err)
	}
	if state.HasVoted {
		return model.VoteResult{}, model.ErrAlreadyVoted
	}

	if _, err := uuid.Parse(participantID); err != nil {
		return model.VoteResult{}, model.ErrParticipantNotFound
	}
	exists, err := s.participants.Exists(ctx, participantID)
	if err != nil {
		return model.VoteResult{}, fmt.Errorf("check participant: %w", err)
	}
	if !exists {
		return model.VoteResult{}, model.ErrParticipantNotFound
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		// The unique constraint on the ballot is the authoritative gate.
		if err := s.ballots.Insert(ctx, tx, deviceID, participantID); err != nil {
			return err
		}

		claimed, err := s.deviceStates.TryClaim(ctx, tx, deviceID, model.ClaimVoted)
		if err != nil {
			return err
		}
		if !claimed {
			return model.ErrAlreadyVoted
		}

		return s.participants.IncrementVoteCount(ctx, tx, participantID, 1)
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVoteBlocked),
			errors.Is(err, model.ErrAlreadyVoted),
			errors.Is(err, model.ErrParticipantNotFound):
			return model.VoteResult{}, err
		}
		return model.VoteResult{}, fmt.Errorf("cast vote: %w", err)
	}

	log.Printf("[ContestService] Vote cast: device=%s participant=%s", deviceID, participantID)
	s.afterWrite(ctx, queue.NewVoteCastEvent(participantID, deviceID))
	return model.VoteResult{}, nil
}

// resolveParticipant finds the entry a device uploaded: first through the
// device link, then by scanning recent entries for a photo key that embeds the
// device id (entries created before links were recorded).
func (s *ContestService) resolveParticipant(ctx context.Context, deviceID string) (*model.Participant, error) {
	participantID, err := s.deviceParticipants.ParticipantIDForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("lookup device participant: %w", err)
	}
	if participantID != "" {
		return s.participants.GetByID(ctx, participantID)
	}

	recent, err := s.participants.ListRecent(ctx, model.RecentParticipantScan)
	if err != nil {
		return nil, fmt.Errorf("list recent participants: %w", err)
	}

	marker := model.PhotoFolder + "/" + deviceID + "-"
	for i := range recent {
		if strings.Contains(recent[i].PhotoURL, marker) {
			return &recent[i], nil
		}
	}
	return nil, model.ErrParticipantNotFound
}

// afterWrite drops cached leaderboard pages and announces the change. Both are
// best effort; the write has already committed.
func (s *ContestService) afterWrite(ctx context.Context, event queue.ContestEvent) {
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		log.Printf("[ContestService] Leaderboard invalidate failed: %v", err)
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamContest, event); err != nil {
		log.Printf("[ContestService] Failed to publish %s event: participant=%s err=%v",
			event.Type, event.ParticipantID, err)
	}
}
