package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"sweatervote/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// DeviceIDKey is the context key for the caller's device identity
	DeviceIDKey contextKey = "device_id"
)

// DeviceIdentity makes sure every request carries a device id. A request
// without a usable device_id cookie gets a fresh UUID, set on the response as
// a 30-day cookie. Either way the id is placed on the request context.
func DeviceIdentity(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := ""
			if cookie, err := r.Cookie(model.DeviceCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					deviceID = id.String()
				}
			}

			if deviceID == "" {
				deviceID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     model.DeviceCookieName,
					Value:    deviceID,
					Path:     "/",
					MaxAge:   model.DeviceCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithDeviceID(r.Context(), deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithDeviceID returns a copy of ctx carrying deviceID.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

// GetDeviceIDFromContext extracts the device ID from the request context
// Returns the device ID and true if found, or "" and false if not found
func GetDeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	return deviceID, ok && deviceID != ""
}
