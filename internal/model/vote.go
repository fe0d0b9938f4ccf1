package model

import "errors"

// VoteRequest is the JSON body of POST /vote.
type VoteRequest struct {
	ParticipantID string `json:"participantId"`
}

// VoteResult reports how a vote was handled. Demo votes are never persisted;
// the client remembers them locally.
type VoteResult struct {
	Demo bool
}

// VoteResponse is the body of a successful POST /vote.
type VoteResponse struct {
	OK   bool `json:"ok"`
	Demo bool `json:"demo,omitempty"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyVoted = "ALREADY_VOTED"
	CodeVoteBlocked  = "VOTE_BLOCKED"
)

// Domain errors for voting
var (
	ErrParticipantIDRequired = errors.New("participantId required")
	ErrAlreadyVoted          = errors.New("already voted")
	// ErrVoteBlocked is returned when the ballot insert loses a race on the
	// per-device unique constraint.
	ErrVoteBlocked = errors.New("vote blocked")
)
