package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movie-night-backend/internal/config"
	"movie-night-backend/internal/handlers"
	"movie-night-backend/internal/middleware"
	"movie-night-backend/internal/repository"
	"movie-night-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	// Connect to database
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse database configuration")
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	db, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database schema")
		}
		log.Info().Msg("Database schema ready")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userMovieRepo := repository.NewUserMovieRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	blockedRepo := repository.NewBlockedUserRepository(db)

	// Initialize services
	verifier := services.NewJWTVerifier(cfg.JWT.Secret)
	userService := services.NewUserService(userRepo)
	wsHub := services.NewWSHub()

	var pusher services.Pusher
	if cfg.APNs.Enabled() {
		apns, err := services.NewAPNsPusher(services.APNsOptions{
			Topic:        cfg.APNs.Topic,
			Production:   cfg.APNs.Production,
			KeyFile:      cfg.APNs.KeyFile,
			KeyID:        cfg.APNs.KeyID,
			TeamID:       cfg.APNs.TeamID,
			CertFile:     cfg.APNs.CertFile,
			CertPassword: cfg.APNs.CertPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
		log.Info().Str("topic", cfg.APNs.Topic).Bool("production", cfg.APNs.Production).Msg("Push notifications enabled")
	}

	var publisher services.EventPublisher
	if cfg.AMQP.URL != "" {
		publisher = services.NewAMQPPublisher(cfg.AMQP.URL)
		log.Info().Str("queue", services.ScheduleEventsQueue).Msg("Schedule event publishing enabled")
	}

	notifier := services.NewNotifier(wsHub, userService, pusher, publisher)
	watchService := services.NewWatchService(userMovieRepo)

	app := &application{
		cfg:      cfg,
		verifier: verifier,

		health:    handlers.NewHealthHandler(db.Ping),
		users:     handlers.NewUserHandler(userService),
		schedules: handlers.NewScheduleHandler(services.NewScheduleCoordinator(scheduleRepo), notifier),
		reviews:   handlers.NewReviewHandler(services.NewReviewService(reviewRepo)),
		watchlist: handlers.NewWatchListHandler(watchService),
		watched:   handlers.NewWatchedHandler(watchService),
		friends:   handlers.NewFriendHandler(services.NewFriendService(friendRepo)),
		blocked:   handlers.NewBlockedUserHandler(services.NewBlockService(blockedRepo)),
		websocket: handlers.NewWebSocketHandler(wsHub, verifier),
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	notifier.Wait()

	log.Info().Msg("Server exited")
}

// application holds what the router needs
type application struct {
	cfg      *config.Config
	verifier services.Verifier

	health    *handlers.HealthHandler
	users     *handlers.UserHandler
	schedules *handlers.ScheduleHandler
	reviews   *handlers.ReviewHandler
	watchlist *handlers.WatchHandler
	watched   *handlers.WatchHandler
	friends   *handlers.FriendHandler
	blocked   *handlers.BlockedUserHandler
	websocket *handlers.WebSocketHandler
}

func (app *application) router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         app.cfg.CORS.MaxAge,
	}))

	r.Get("/healthz", app.health.Health)
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket route, authenticated by query token
	r.Get("/ws", app.websocket.HandleWebSocket)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(app.cfg.Server.RequestTimeout))
		if app.cfg.RateLimit.Requests > 0 {
			r.Use(httprate.LimitByIP(app.cfg.RateLimit.Requests, app.cfg.RateLimit.Window))
		}
		r.Use(middleware.AuthMiddleware(app.verifier))

		r.Post("/users", app.users.SaveProfile)
		r.Get("/users/search/{query}", app.users.SearchUsers)

		r.Route("/users/{userId}", func(r chi.Router) {
			owner := middleware.RequireOwner("userId")

			r.Get("/", app.users.GetUser)
			r.With(owner).Put("/push-token", app.users.UpdatePushToken)

			r.Get("/schedule", app.schedules.ListSchedules)
			r.Get("/schedule/{isoDate}", app.schedules.GetSchedule)
			r.With(owner).Post("/schedule", app.schedules.CreateSchedule)
			r.With(owner).Patch("/schedule/{isoDate}", app.schedules.RescheduleSchedule)
			r.With(owner).Delete("/schedule/{isoDate}", app.schedules.DeleteSchedule)

			r.Get("/watchlist", app.watchlist.List)
			r.With(owner).Post("/watchlist", app.watchlist.Add)
			r.With(owner).Delete("/watchlist/{movieId}", app.watchlist.Remove)

			r.Get("/watched", app.watched.List)
			r.With(owner).Post("/watched", app.watched.Add)
			r.With(owner).Delete("/watched/{movieId}", app.watched.Remove)

			r.Get("/friend", app.friends.ListFriends)
			r.With(owner).Post("/friend", app.friends.AddFriend)
			r.With(owner).Delete("/friend/{friendId}", app.friends.RemoveFriend)

			r.Get("/blocked", app.blocked.ListBlocked)
			r.With(owner).Post("/blocked", app.blocked.Block)
			r.With(owner).Delete("/blocked/{blockedUserId}", app.blocked.Unblock)
		})

		r.Route("/movies/{movieId}/review", func(r chi.Router) {
			owner := middleware.RequireOwner("userId")

			r.Get("/", app.reviews.ListReviews)
			r.Post("/", app.reviews.CreateReview)
			r.Get("/{userId}", app.reviews.GetReview)
			r.With(owner).Patch("/{userId}", app.reviews.EditReview)
			r.With(owner).Delete("/{userId}", app.reviews.DeleteReview)
		})
	})

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
