package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"sweatervote/internal/cache"
	"sweatervote/internal/config"
	"sweatervote/internal/database"
	"sweatervote/internal/handler"
	"sweatervote/internal/queue"
	"sweatervote/internal/redis"
	"sweatervote/internal/repository"
	"sweatervote/internal/service"
	"sweatervote/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database (optional; without it the API serves demo data)
	db := connectDatabase(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	// 3. Photo storage
	photos := service.NewUnavailablePhotoStore()
	if cfg.StorageConfigured() {
		mediaService, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			log.Printf("[Server] Photo storage disabled: %v", err)
		} else {
			photos = mediaService
		}
	} else {
		log.Println("[Server] R2 not configured, uploads disabled")
	}

	// 4. Redis (optional; leaderboard cache and contest stream)
	var leaderboard cache.LeaderboardCache = cache.NoopLeaderboardCache{}
	var publisher queue.Publisher = queue.NoopPublisher{}
	var workers *worker.Manager
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[Server] Redis unavailable, running without cache: %v", err)
		} else {
			defer rdb.Close()
			leaderboard = cache.NewLeaderboardCache(rdb.Client, cfg.LeaderboardCacheTTL)
			publisher = queue.NewPublisher(rdb.Client)
			workers = worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(leaderboard), worker.DefaultManagerConfig())
		}
	}

	// 5. Pick the data source
	var source service.DataSource = service.NewDemoSource()
	if db != nil {
		source = service.NewContestService(service.ContestDeps{
			Tx:                 repository.NewTxRunner(db),
			DeviceStates:       repository.NewDeviceStateRepository(db),
			Participants:       repository.NewParticipantRepository(db),
			Ballots:            repository.NewBallotRepository(db),
			DeviceParticipants: repository.NewDeviceParticipantRepository(db),
			Photos:             photos,
			Leaderboard:        leaderboard,
			Publisher:          publisher,
		})
	}
	log.Printf("[Server] Data source mode: %s", source.Mode())

	if workers != nil && source.Mode() == service.ModeLive {
		if err := workers.Start(ctx); err != nil {
			log.Printf("[Server] Worker manager failed to start: %v", err)
		} else {
			defer workers.Stop()
		}
	}

	// 6. Setup Router
	router := NewRouter(RouterConfig{
		DeviceHandler:      handler.NewDeviceHandler(source),
		ParticipantHandler: handler.NewParticipantHandler(source),
		VoteHandler:        handler.NewVoteHandler(source),
		Mode:               source.Mode(),
		AllowedOrigins:     cfg.AllowedOrigin,
		SecureCookies:      cfg.DeviceCookieSecure,
	})

	// 7. Serve until signalled
	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Gracefully shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// connectDatabase returns nil when the database is not configured or cannot be
// reached, which puts the API in demo mode.
func connectDatabase(ctx context.Context, cfg *config.Config) *sqlx.DB {
	if !cfg.DatabaseConfigured() {
		log.Println("[Server] Database not configured, serving demo data")
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Printf("[Server] Database unavailable, serving demo data: %v", err)
		return nil
	}

	if err := database.Migrate(ctx, db); err != nil {
		log.Printf("[Server] Migration failed, serving demo data: %v", err)
		db.Close()
		return nil
	}
	return db
}
