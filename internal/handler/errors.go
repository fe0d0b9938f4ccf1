package handler

import (
	"errors"
	"log"
	"net/http"

	"sweatervote/internal/httputil"
	"sweatervote/internal/model"
)

// writeActionError maps a write-path error to its HTTP response. "Already
// done" outcomes are 403 so clients can tell them apart from failures worth
// retrying.
func writeActionError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, model.ErrNicknameRequired):
		httputil.WriteBadRequest(w, "nickname is required")
	case errors.Is(err, model.ErrNicknameTooLong):
		httputil.WriteBadRequest(w, "nickname is too long")
	case errors.Is(err, model.ErrPhotoRequired):
		httputil.WriteBadRequest(w, "file is required")
	case errors.Is(err, model.ErrParticipantIDRequired):
		httputil.WriteBadRequest(w, "participantId is required")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Photo exceeds 10MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")

	case errors.Is(err, model.ErrAlreadyUploaded):
		httputil.WriteForbiddenWithCode(w, model.CodeAlreadyUploaded, "This device already uploaded a photo")
	case errors.Is(err, model.ErrNoUpload):
		httputil.WriteForbiddenWithCode(w, model.CodeNoUpload, "This device has not uploaded a photo yet")
	case errors.Is(err, model.ErrAlreadyVoted):
		httputil.WriteForbiddenWithCode(w, model.CodeAlreadyVoted, "This device already voted")
	case errors.Is(err, model.ErrVoteBlocked):
		httputil.WriteForbiddenWithCode(w, model.CodeVoteBlocked, "Vote blocked")

	case errors.Is(err, model.ErrParticipantNotFound):
		httputil.WriteNotFoundWithCode(w, model.CodeParticipantNotFound, "Participant not found")

	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrStorageUnavailable):
		log.Printf("[ERROR] %s: %v", action, err)
		httputil.WriteInternalErrorWithCode(w, model.CodeUploadUnavailable, "Uploads are not available right now")
	default:
		log.Printf("[ERROR] %s: %v", action, err)
		httputil.WriteInternalError(w, "Failed to "+action)
	}
}
