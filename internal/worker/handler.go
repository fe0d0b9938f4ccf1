package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"sweatervote/internal/cache"
	"sweatervote/internal/queue"
)

// Handler reacts to contest events by dropping cached leaderboard pages, so the
// display picks up new entries and votes without waiting for the TTL.
type Handler struct {
	leaderboard cache.LeaderboardCache
}

// NewHandler creates a new event handler.
func NewHandler(leaderboard cache.LeaderboardCache) *Handler {
	return &Handler{leaderboard: leaderboard}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ContestEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventParticipantCreated:
		log.Printf("[Worker] ParticipantCreated: participant=%s device=%s", event.ParticipantID, event.DeviceID)
		err = h.refreshLeaderboard(ctx)
	case queue.EventPhotoChanged:
		log.Printf("[Worker] PhotoChanged: participant=%s url=%s", event.ParticipantID, event.PhotoURL)
		err = h.refreshLeaderboard(ctx)
	case queue.EventVoteCast:
		log.Printf("[Worker] VoteCast: participant=%s", event.ParticipantID)
		err = h.refreshLeaderboard(ctx)
	default:
		log.Printf("[Worker] Unknown event type: %q", event.Type)
		return fmt.Errorf("unknown event type: %q", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) refreshLeaderboard(ctx context.Context) error {
	if err := h.leaderboard.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate leaderboard: %w", err)
	}
	return nil
}
