package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/guestlobby/internal/directory"
	"github.com/diagnosis/guestlobby/internal/handlers"
	"github.com/diagnosis/guestlobby/internal/listener"
	"github.com/diagnosis/guestlobby/internal/mailer"
	"github.com/diagnosis/guestlobby/internal/presence"
	"github.com/diagnosis/guestlobby/internal/repository"
	"github.com/diagnosis/guestlobby/internal/service"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/database"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/diagnosis/guestlobby/pkg/logger"
	mw "github.com/diagnosis/guestlobby/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to redis (participant presence)
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(pool)
	inviteRepo := repository.NewInviteRepository(pool)
	lobbyRepo := repository.NewLobbyRepository(pool)

	// Initialize collaborators
	projects := directory.NewProjectDirectory(cfg.Directory.ProjectsURL, cfg.Directory.RequestTimeout)
	users := directory.NewUserDirectory(cfg.Directory.UsersURL, cfg.Directory.RequestTimeout)
	presenceSvc := presence.NewRedisPresence(redisClient)
	mail := selectMailer(cfg)

	// Initialize services
	verifySvc := service.NewVerifyService(projects, users)
	lobbySvc := service.NewLobbyService(lobbyRepo, sessionRepo, projects, presenceSvc, eventBus)
	sessionSvc := service.NewSessionService(sessionRepo, inviteRepo, verifySvc, lobbySvc, eventBus, cfg)
	emailSvc := service.NewEmailService(sessionRepo, projects, users, mail, cfg)
	inviteSvc := service.NewInviteService(inviteRepo, projects, mail, eventBus, cfg)

	// Subscribe to domain events
	dispatcher := events.NewDispatcher(eventBus, cfg.NATS.Queue)
	l := listener.New(sessionSvc, lobbySvc, cfg)
	if err := l.Register(dispatcher); err != nil {
		logger.Error("Failed to register event handlers", "error", err)
		os.Exit(1)
	}
	if err := dispatcher.Start(); err != nil {
		logger.Error("Failed to start event dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	h := handlers.New(sessionSvc, lobbySvc, emailSvc, verifySvc, inviteSvc)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("guestlobby"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)

	// Routes
	r.Route("/", func(r chi.Router) {
		r.Post("/guest/verify", h.VerifyGuest)

		r.Route("/guest/sessions", func(r chi.Router) {
			r.Post("/", h.CreateGuestSession)
			r.Get("/{id}", h.GetGuestSession)
			r.Patch("/{id}", h.UpdateGuestSession)
			r.Post("/{id}/notify-host", h.NotifyHost)
		})

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/status", h.GetProjectStatus)
			r.Get("/guest-sessions", h.GetGuestSessionsByProject)
			r.Delete("/guest-sessions", h.DeleteGuestSessionsForProject)
			r.Post("/lobby-state", h.CreateProjectLobbyState)
			r.Post("/lobby-state/recalculate", h.RecalculateProjectLobbyState)
			r.Delete("/lobby-state", h.DeleteProjectLobbyState)
			r.Post("/invites", h.CreateInvite)
			r.Get("/invites", h.ListInvitesByProject)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down guestlobby service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Guestlobby service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting guestlobby service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Guestlobby service error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS,
	)
}
