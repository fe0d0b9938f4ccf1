package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"sweatervote/internal/model"
)

func captureDeviceID(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = GetDeviceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func deviceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == model.DeviceCookieName {
			return c
		}
	}
	return nil
}

func TestDeviceIdentity_IssuesCookie(t *testing.T) {
	var seen string
	h := DeviceIdentity(true)(captureDeviceID(&seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	cookie := deviceCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected device_id cookie to be set")
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		t.Errorf("cookie value %q is not a uuid", cookie.Value)
	}
	if seen != cookie.Value {
		t.Errorf("context device id = %q, want %q", seen, cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Errorf("cookie flags httpOnly=%v secure=%v, want both true", cookie.HttpOnly, cookie.Secure)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("samesite = %v, want lax", cookie.SameSite)
	}
	if cookie.MaxAge != model.DeviceCookieMaxAge || cookie.Path != "/" {
		t.Errorf("max-age=%d path=%q, want %d and /", cookie.MaxAge, cookie.Path, model.DeviceCookieMaxAge)
	}
}

func TestDeviceIdentity_KeepsExistingCookie(t *testing.T) {
	existing := uuid.NewString()
	var seen string
	h := DeviceIdentity(false)(captureDeviceID(&seen))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.AddCookie(&http.Cookie{Name: model.DeviceCookieName, Value: existing})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if deviceCookie(t, rec) != nil {
		t.Error("cookie should not be reissued when already present")
	}
	if seen != existing {
		t.Errorf("context device id = %q, want %q", seen, existing)
	}
}

func TestDeviceIdentity_ReplacesGarbageCookie(t *testing.T) {
	var seen string
	h := DeviceIdentity(false)(captureDeviceID(&seen))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.AddCookie(&http.Cookie{Name: model.DeviceCookieName, Value: "'; DROP TABLE votes;--"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookie := deviceCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected a replacement cookie")
	}
	if cookie.Secure {
		t.Error("cookie should not be secure outside production")
	}
	if seen != cookie.Value {
		t.Errorf("context device id = %q, want %q", seen, cookie.Value)
	}
}

func TestGetDeviceIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if id, ok := GetDeviceIDFromContext(req.Context()); ok || id != "" {
		t.Errorf("got (%q, %v), want (\"\", false)", id, ok)
	}
}
