package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sweatervote/internal/handler"
	"sweatervote/internal/httputil"
	"sweatervote/internal/service"
	devicemw "sweatervote/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	DeviceHandler      *handler.DeviceHandler
	ParticipantHandler *handler.ParticipantHandler
	VoteHandler        *handler.VoteHandler
	Mode               service.Mode
	// AllowedOrigins is a comma-separated list; empty disables CORS.
	AllowedOrigins string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if origins := splitOrigins(cfg.AllowedOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": string(cfg.Mode)})
	})

	// Everything else needs a device identity, issued on first contact.
	r.Group(func(r chi.Router) {
		r.Use(devicemw.DeviceIdentity(cfg.SecureCookies))

		r.Get("/status", cfg.DeviceHandler.Status)
		r.Get("/leaderboard", cfg.ParticipantHandler.Leaderboard)
		r.Get("/my-participant", cfg.ParticipantHandler.MyParticipant)

		r.Post("/upload", cfg.ParticipantHandler.Upload)
		r.Post("/update-photo", cfg.ParticipantHandler.UpdatePhoto)
		r.Post("/vote", cfg.VoteHandler.Vote)
	})

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
