package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sweatervote/internal/httputil"
	"sweatervote/internal/model"
	"sweatervote/internal/service"
	"sweatervote/internal/transport/http/middleware"
)

// =============================================================================
// MOCK DATA SOURCE
// =============================================================================

type mockDataSource struct {
	statusFn        func(ctx context.Context, deviceID string) model.StatusResponse
	leaderboardFn   func(ctx context.Context, limit int) []model.Participant
	myParticipantFn func(ctx context.Context, deviceID string) *model.Participant
	uploadFn        func(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error)
	changePhotoFn   func(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error)
	voteFn          func(ctx context.Context, deviceID, participantID string) (model.VoteResult, error)

	lastLimit int
}

func (m *mockDataSource) Mode() service.Mode { return service.ModeLive }

func (m *mockDataSource) Status(ctx context.Context, deviceID string) model.StatusResponse {
	if m.statusFn != nil {
		return m.statusFn(ctx, deviceID)
	}
	return model.StatusResponse{}
}

func (m *mockDataSource) Leaderboard(ctx context.Context, limit int) []model.Participant {
	m.lastLimit = limit
	if m.leaderboardFn != nil {
		return m.leaderboardFn(ctx, limit)
	}
	return nil
}

func (m *mockDataSource) MyParticipant(ctx context.Context, deviceID string) *model.Participant {
	if m.myParticipantFn != nil {
		return m.myParticipantFn(ctx, deviceID)
	}
	return nil
}

func (m *mockDataSource) Upload(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, deviceID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDataSource) ChangePhoto(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error) {
	if m.changePhotoFn != nil {
		return m.changePhotoFn(ctx, deviceID, photo)
	}
	return "", errors.New("not implemented")
}

func (m *mockDataSource) Vote(ctx context.Context, deviceID, participantID string) (model.VoteResult, error) {
	if m.voteFn != nil {
		return m.voteFn(ctx, deviceID, participantID)
	}
	return model.VoteResult{}, nil
}

const testDevice = "3b241101-e2bb-4255-8caf-4136c566a962"

func withDevice(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithDeviceID(r.Context(), testDevice))
}

func multipartRequest(t *testing.T, target string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "sweater.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(file)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return withDevice(req)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error.Code
}

// =============================================================================
// READS
// =============================================================================

func TestDeviceHandler_Status(t *testing.T) {
	src := &mockDataSource{
		statusFn: func(ctx context.Context, deviceID string) model.StatusResponse {
			if deviceID != testDevice {
				t.Errorf("device id = %q, want %q", deviceID, testDevice)
			}
			return model.StatusResponse{HasUploaded: true}
		},
	}
	h := NewDeviceHandler(src)

	rec := httptest.NewRecorder()
	h.Status(rec, withDevice(httptest.NewRequest(http.MethodGet, "/status", nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	want := `{"has_uploaded":true,"has_voted":false}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestParticipantHandler_Leaderboard_Limit(t *testing.T) {
	tests := []struct {
		query     string
		wantLimit int
	}{
		{query: "", wantLimit: model.LeaderboardDefaultLimit},
		{query: "?limit=25", wantLimit: 25},
		{query: "?limit=abc", wantLimit: model.LeaderboardDefaultLimit},
		{query: "?limit=1000", wantLimit: 1000}, // clamped by the source
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			src := &mockDataSource{}
			h := NewParticipantHandler(src)

			rec := httptest.NewRecorder()
			h.Leaderboard(rec, httptest.NewRequest(http.MethodGet, "/leaderboard"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status code = %d, want 200", rec.Code)
			}
			if src.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", src.lastLimit, tt.wantLimit)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"items":[]}` {
				t.Errorf("body = %s, want empty items array", got)
			}
		})
	}
}

func TestParticipantHandler_MyParticipant_None(t *testing.T) {
	h := NewParticipantHandler(&mockDataSource{})

	rec := httptest.NewRecorder()
	h.MyParticipant(rec, withDevice(httptest.NewRequest(http.MethodGet, "/my-participant", nil)))

	if got := strings.TrimSpace(rec.Body.String()); got != `{"participant":null}` {
		t.Errorf("body = %s, want participant null", got)
	}
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestParticipantHandler_Upload_Success(t *testing.T) {
	var got model.UploadRequest
	src := &mockDataSource{
		uploadFn: func(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
			got = req
			return &model.Participant{ID: "p1", Nickname: req.Nickname, PhotoURL: "https://cdn/x.jpg"}, nil
		},
	}
	h := NewParticipantHandler(src)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "/upload", map[string]string{"nickname": "Test"}, []byte("jpegbytes")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got.Nickname != "Test" || string(got.Photo.Data) != "jpegbytes" || got.Photo.Filename != "sweater.jpg" {
		t.Errorf("upload request = %+v", got)
	}

	var resp model.UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Participant == nil || resp.Participant.Nickname != "Test" {
		t.Errorf("response = %+v", resp)
	}
}

func TestParticipantHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing nickname", model.ErrNicknameRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"missing file", model.ErrPhotoRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
		{"bad image", model.ErrInvalidImageType, http.StatusBadRequest, model.CodeInvalidImageType},
		{"already uploaded", model.ErrAlreadyUploaded, http.StatusForbidden, model.CodeAlreadyUploaded},
		{"demo mode", model.ErrStoreUnavailable, http.StatusInternalServerError, model.CodeUploadUnavailable},
		{"store failure", errors.New("boom"), http.StatusInternalServerError, httputil.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockDataSource{
				uploadFn: func(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
					return nil, tt.err
				},
			}
			h := NewParticipantHandler(src)

			rec := httptest.NewRecorder()
			h.Upload(rec, multipartRequest(t, "/upload", map[string]string{"nickname": "x"}, []byte("x")))

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, rec); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestParticipantHandler_Upload_MissingFilePassesEmptyPhoto(t *testing.T) {
	src := &mockDataSource{
		uploadFn: func(ctx context.Context, deviceID string, req model.UploadRequest) (*model.Participant, error) {
			if len(req.Photo.Data) != 0 {
				t.Errorf("photo data = %d bytes, want none", len(req.Photo.Data))
			}
			return nil, model.ErrPhotoRequired
		},
	}
	h := NewParticipantHandler(src)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "/upload", map[string]string{"nickname": "x"}, nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", rec.Code)
	}
}

func TestParticipantHandler_Upload_NotMultipart(t *testing.T) {
	h := NewParticipantHandler(&mockDataSource{})

	req := withDevice(httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"nickname":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", rec.Code)
	}
}

func TestParticipantHandler_Upload_IdentityMissing(t *testing.T) {
	h := NewParticipantHandler(&mockDataSource{})

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rec.Code)
	}
}

func TestParticipantHandler_DemoSourceValidation(t *testing.T) {
	h := NewParticipantHandler(service.NewDemoSource())

	tests := []struct {
		name  string
		serve func(w http.ResponseWriter, r *http.Request)
		req   *http.Request
	}{
		{"upload blank nickname", h.Upload, multipartRequest(t, "/upload", map[string]string{"nickname": "   "}, []byte("jpeg"))},
		{"upload missing file", h.Upload, multipartRequest(t, "/upload", map[string]string{"nickname": "Ana"}, nil)},
		{"update photo missing file", h.UpdatePhoto, multipartRequest(t, "/update-photo", nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.serve(rec, tt.req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status code = %d, want 400", rec.Code)
			}
			if code := decodeErrorCode(t, rec); code != httputil.ErrCodeBadRequest {
				t.Errorf("error code = %q, want %q", code, httputil.ErrCodeBadRequest)
			}
		})
	}
}

func TestParticipantHandler_DemoSourceUploadUnavailable(t *testing.T) {
	h := NewParticipantHandler(service.NewDemoSource())

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "/upload", map[string]string{"nickname": "Ana"}, []byte("jpeg")))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != model.CodeUploadUnavailable {
		t.Errorf("error code = %q, want %q", code, model.CodeUploadUnavailable)
	}
}

// =============================================================================
// UPDATE PHOTO
// =============================================================================

func TestParticipantHandler_UpdatePhoto_NotMultipart(t *testing.T) {
	h := NewParticipantHandler(&mockDataSource{})

	req := withDevice(httptest.NewRequest(http.MethodPost, "/update-photo", strings.NewReader(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.UpdatePhoto(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", rec.Code)
	}
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(resp.Error.Message, "update photo") {
		t.Errorf("message = %q, want it to name the update photo action", resp.Error.Message)
	}
}

func TestParticipantHandler_UpdatePhoto(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"no prior upload", model.ErrNoUpload, http.StatusForbidden},
		{"participant missing", model.ErrParticipantNotFound, http.StatusNotFound},
		{"missing file", model.ErrPhotoRequired, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockDataSource{
				changePhotoFn: func(ctx context.Context, deviceID string, photo model.PhotoUpload) (string, error) {
					if tt.err != nil {
						return "", tt.err
					}
					return "https://cdn/new.jpg", nil
				},
			}
			h := NewParticipantHandler(src)

			rec := httptest.NewRecorder()
			h.UpdatePhoto(rec, multipartRequest(t, "/update-photo", nil, []byte("x")))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.err == nil {
				want := `{"ok":true,"photo_url":"https://cdn/new.jpg"}`
				if got := strings.TrimSpace(rec.Body.String()); got != want {
					t.Errorf("body = %s, want %s", got, want)
				}
			}
		})
	}
}

// =============================================================================
// VOTE
// =============================================================================

func TestVoteHandler_Vote(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     model.VoteResult
		err        error
		wantStatus int
		wantBody   string
		wantCode   string
	}{
		{
			name:       "live vote",
			body:       `{"participantId":"abc"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true}`,
		},
		{
			name:       "demo vote",
			body:       `{"participantId":"demo-1"}`,
			result:     model.VoteResult{Demo: true},
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true,"demo":true}`,
		},
		{
			name:       "missing id",
			body:       `{}`,
			err:        model.ErrParticipantIDRequired,
			wantStatus: http.StatusBadRequest,
			wantCode:   httputil.ErrCodeBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"participantId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   httputil.ErrCodeBadRequest,
		},
		{
			name:       "already voted",
			body:       `{"participantId":"abc"}`,
			err:        model.ErrAlreadyVoted,
			wantStatus: http.StatusForbidden,
			wantCode:   model.CodeAlreadyVoted,
		},
		{
			name:       "blocked",
			body:       `{"participantId":"abc"}`,
			err:        model.ErrVoteBlocked,
			wantStatus: http.StatusForbidden,
			wantCode:   model.CodeVoteBlocked,
		},
		{
			name:       "unknown participant",
			body:       `{"participantId":"abc"}`,
			err:        model.ErrParticipantNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   model.CodeParticipantNotFound,
		},
		{
			name:       "internal",
			body:       `{"participantId":"abc"}`,
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   httputil.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockDataSource{
				voteFn: func(ctx context.Context, deviceID, participantID string) (model.VoteResult, error) {
					return tt.result, tt.err
				},
			}
			h := NewVoteHandler(src)

			req := withDevice(httptest.NewRequest(http.MethodPost, "/vote", strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()
			h.Vote(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" {
				if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
					t.Errorf("body = %s, want %s", got, tt.wantBody)
				}
			}
			if tt.wantCode != "" {
				if code := decodeErrorCode(t, rec); code != tt.wantCode {
					t.Errorf("error code = %q, want %q", code, tt.wantCode)
				}
			}
		})
	}
}
