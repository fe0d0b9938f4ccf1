package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the contest stream
const (
	EventParticipantCreated = "participant_created"
	EventPhotoChanged       = "photo_changed"
	EventVoteCast           = "vote_cast"
)

// Stream names
const (
	StreamContest = "stream:contest"
)

// Consumer group name for leaderboard workers
const (
	ConsumerGroupLeaderboard = "leaderboard_workers"
)

// ContestEvent is published after a state-changing action has committed.
type ContestEvent struct {
	Type          string `json:"type"`
	Timestamp     int64  `json:"timestamp"` // Unix millis
	ParticipantID string `json:"participant_id"`
	DeviceID      string `json:"device_id,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
}

// NewParticipantCreatedEvent is emitted when a device's upload creates an entry.
func NewParticipantCreatedEvent(participantID, deviceID, photoURL string) ContestEvent {
	return ContestEvent{
		Type:          EventParticipantCreated,
		Timestamp:     time.Now().UnixMilli(),
		ParticipantID: participantID,
		DeviceID:      deviceID,
		PhotoURL:      photoURL,
	}
}

// NewPhotoChangedEvent is emitted when an entry's photo is replaced.
func NewPhotoChangedEvent(participantID, deviceID, photoURL string) ContestEvent {
	return ContestEvent{
		Type:          EventPhotoChanged,
		Timestamp:     time.Now().UnixMilli(),
		ParticipantID: participantID,
		DeviceID:      deviceID,
		PhotoURL:      photoURL,
	}
}

// NewVoteCastEvent is emitted when a ballot has been recorded.
func NewVoteCastEvent(participantID, deviceID string) ContestEvent {
	return ContestEvent{
		Type:          EventVoteCast,
		Timestamp:     time.Now().UnixMilli(),
		ParticipantID: participantID,
		DeviceID:      deviceID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// The full event is JSON in a "data" field; "type" is duplicated for XRANGE readability.
func (e ContestEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseContestEvent parses a ContestEvent from Redis stream message values.
func ParseContestEvent(values map[string]interface{}) (ContestEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ContestEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ContestEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ContestEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
