package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/onair-media/be-editorial-workflow/internal/client"
	"github.com/onair-media/be-editorial-workflow/internal/config"
	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/handler"
	"github.com/onair-media/be-editorial-workflow/internal/logger"
	"github.com/onair-media/be-editorial-workflow/internal/middleware"
	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	rules := cfg.Rules()
	log.Info().
		Str("publish_min_role", cfg.Workflow.PublishMinRole).
		Msg("Starting Editorial Workflow Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize notification publisher
	publisher, err := client.NewNotificationPublisher(cfg.NATS.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer publisher.Close()

	// Initialize repositories
	storyRepo := repository.NewStoryRepository(db)
	bulletinRepo := repository.NewBulletinRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	storyService := service.NewStoryService(storyRepo, historyRepo, revisionRepo, userRepo, log)
	storyFlow := service.NewStoryWorkflowService(storyRepo, userRepo, rules, log)
	bulletinService := service.NewBulletinService(bulletinRepo, historyRepo, userRepo, log)
	bulletinFlow := service.NewBulletinWorkflowService(bulletinRepo, userRepo, rules, log)
	announcementService := service.NewAnnouncementService(announcementRepo, userRepo, rules, log)
	directoryService := service.NewDirectoryService(userRepo, rules)

	// Setup HTTP routes
	h := handler.New(storyService, storyFlow, bulletinService, bulletinFlow,
		announcementService, directoryService, publisher, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Story routes
	mux.HandleFunc("/api/v1/stories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListStories(w, r)
		case http.MethodPost:
			h.CreateStory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/stories/get", h.GetStory)
	mux.HandleFunc("/api/v1/stories/update", h.UpdateStoryContent)
	mux.HandleFunc("/api/v1/stories/transition", h.TransitionStory)
	mux.HandleFunc("/api/v1/stories/transitions", h.StoryTransitions)
	mux.HandleFunc("/api/v1/stories/audio", h.AttachAudioClip)
	mux.HandleFunc("/api/v1/stories/published", h.PublishedFeed)

	// Bulletin routes
	mux.HandleFunc("/api/v1/bulletins", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListBulletins(w, r)
		case http.MethodPost:
			h.CreateBulletin(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/bulletins/get", h.GetBulletin)
	mux.HandleFunc("/api/v1/bulletins/stories", h.SetBulletinStories)
	mux.HandleFunc("/api/v1/bulletins/transition", h.TransitionBulletin)
	mux.HandleFunc("/api/v1/bulletins/transitions", h.BulletinTransitions)

	// Announcement routes
	mux.HandleFunc("/api/v1/announcements", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListAnnouncements(w, r)
		case http.MethodPost:
			h.CreateAnnouncement(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/announcements/dismiss", h.DismissAnnouncement)

	// Directory routes
	mux.HandleFunc("/api/v1/assignees", h.EligibleAssignees)
	mux.HandleFunc("/api/v1/capabilities", h.Capabilities)

	// Apply middleware
	var handlerChain http.Handler = mux
	handlerChain = middleware.Timeout(cfg.Server.RequestTimeout)(handlerChain)
	handlerChain = middleware.CORS([]string{"*"})(handlerChain)
	handlerChain = middleware.Recovery(log)(handlerChain)
	handlerChain = middleware.Logger(log)(handlerChain)
	handlerChain = middleware.RequestID(handlerChain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handlerChain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
