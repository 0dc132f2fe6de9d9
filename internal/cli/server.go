package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-games-service/internal/app"
	"event-games-service/internal/config"
	"event-games-service/internal/infra/memory"
	"event-games-service/internal/infra/postgres"
	redisinfra "event-games-service/internal/infra/redis"
	transport "event-games-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the event games server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var participants app.ParticipantRepository
	var contents app.ContentRepository
	var groups app.GroupRepository
	var settings app.SettingsRepository
	if pool != nil {
		participants = postgres.NewParticipantRepository(pool)
		contents = postgres.NewContentRepository(pool)
		groups = postgres.NewGroupRepository(pool)
		settings = postgres.NewSettingsRepository(pool)
	} else {
		log.Println("no postgres configured, using in-memory stores")
		participants = memory.NewParticipantRepository()
		contents = memory.NewContentRepository()
		groups = memory.NewGroupRepository()
		settings = memory.NewSettingsRepository()
	}

	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, 10*time.Second)
	var cache app.LeaderboardCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = redisinfra.NewLeaderboardCache(redisClient, leaderboardTTL)
	} else {
		cache = memory.NewLeaderboardCache(leaderboardTTL)
	}

	scoreboard := app.NewScoreboardService(participants, groups, cache)
	content := app.NewContentService(contents)
	admin := app.NewAdminService(settings, groups)

	mux := http.NewServeMux()
	transport.NewHandler(scoreboard, content, admin, cfg.Admin.Key).Register(mux)
	mux.HandleFunc("GET /ws/leaderboard", transport.NewWSHandler(scoreboard).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting event games service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
