package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"sweatervote/internal/httputil"
	"sweatervote/internal/model"
	"sweatervote/internal/service"
	"sweatervote/internal/transport/http/middleware"
)

// multipartOverhead leaves room for form fields and boundaries around the photo.
const multipartOverhead = 1 << 20

type ParticipantHandler struct {
	source service.DataSource
}

func NewParticipantHandler(source service.DataSource) *ParticipantHandler {
	return &ParticipantHandler{source: source}
}

// Leaderboard handles GET /leaderboard
//
// Query params:
//   - limit: optional, number of entries (default 10, clamped to [1, 500])
func (h *ParticipantHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := model.LeaderboardDefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	items := h.source.Leaderboard(r.Context(), limit)
	if items == nil {
		items = []model.Participant{}
	}
	httputil.WriteJSON(w, http.StatusOK, model.LeaderboardResponse{Items: items})
}

// MyParticipant handles GET /my-participant
// Returns {"participant": null} when the device has no entry.
func (h *ParticipantHandler) MyParticipant(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := middleware.GetDeviceIDFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, model.MyParticipantResponse{
		Participant: h.source.MyParticipant(r.Context(), deviceID),
	})
}

// Upload handles POST /upload
// Multipart form with "nickname" and "file".
func (h *ParticipantHandler) Upload(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.GetDeviceIDFromContext(r.Context())
	if !ok {
		writeActionError(w, "upload", model.ErrIdentityMissing)
		return
	}

	photo, ok := readPhoto(w, r, "upload")
	if !ok {
		return
	}

	participant, err := h.source.Upload(r.Context(), deviceID, model.UploadRequest{
		Nickname: r.FormValue("nickname"),
		Photo:    photo,
	})
	if err != nil {
		writeActionError(w, "upload", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.UploadResponse{OK: true, Participant: participant})
}

// UpdatePhoto handles POST /update-photo
// Multipart form with "file". Replaces the photo of the device's entry.
func (h *ParticipantHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.GetDeviceIDFromContext(r.Context())
	if !ok {
		writeActionError(w, "update photo", model.ErrIdentityMissing)
		return
	}

	photo, ok := readPhoto(w, r, "update photo")
	if !ok {
		return
	}

	photoURL, err := h.source.ChangePhoto(r.Context(), deviceID, photo)
	if err != nil {
		writeActionError(w, "update photo", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.UpdatePhotoResponse{OK: true, PhotoURL: photoURL})
}

// readPhoto parses the multipart body and returns the "file" part. A missing
// file yields an empty PhotoUpload so the source reports it as a validation
// error. It writes the response itself when the body cannot be parsed; action
// names the calling endpoint in logs and error messages.
func readPhoto(w http.ResponseWriter, r *http.Request, action string) (model.PhotoUpload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, model.MaxPhotoSizeBytes+multipartOverhead)
	if err := r.ParseMultipartForm(model.MaxPhotoSizeBytes + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeActionError(w, action, model.ErrFileTooLarge)
			return model.PhotoUpload{}, false
		}
		log.Printf("[WARN] %s: invalid multipart form: %v", action, err)
		httputil.WriteBadRequest(w, "Invalid multipart form for "+action)
		return model.PhotoUpload{}, false
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return model.PhotoUpload{}, true
	}
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid file field for "+action)
		return model.PhotoUpload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, model.MaxPhotoSizeBytes+1))
	if err != nil {
		log.Printf("[ERROR] %s: read file: %v", action, err)
		httputil.WriteBadRequest(w, "Failed to read file")
		return model.PhotoUpload{}, false
	}

	return model.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
