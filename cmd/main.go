// cmd/main.go is the application entry point.
// It wires together all layers, starts the retirement scheduler, and runs
// the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"volunteerhub/internal/config"
	"volunteerhub/internal/database"
	"volunteerhub/internal/handler"
	"volunteerhub/internal/log"
	"volunteerhub/internal/model"
	"volunteerhub/internal/notify"
	"volunteerhub/internal/repository"
	"volunteerhub/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	// .env is optional; it carries SMTP and session secrets locally.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", err, "path", *configPath)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if cfg.SessionSecret == "" {
		log.Error("missing session secret", errors.New("set session_secret in config or SESSION_SECRET in env"))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("load timezone", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	// ── 1. Open the flat-file stores ─────────────────────────────────────
	store, err := database.NewStore(cfg.DataDir, loc)
	if err != nil {
		log.Error("open store", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	repo := repository.NewRepository(store)
	if err := repo.Load(); err != nil {
		// Fail fast: a partial load would surface as silently missing
		// records.
		log.Error("load store", err)
		os.Exit(1)
	}
	log.Info("store loaded", "dir", cfg.DataDir)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	clock := model.NewSystemClock(loc)
	eventSvc := service.NewEventService(repo, clock, loc)
	userSvc := service.NewUserService(repo)

	notifier, err := notify.NewNotifier(cfg.DataDir, cfg.SMTP, eventSvc, userSvc)
	if err != nil {
		log.Error("load notifier state", err)
		os.Exit(1)
	}

	sessions := handler.NewSessions(cfg.SessionSecret)
	uploads, err := handler.NewUploads(cfg.DataDir)
	if err != nil {
		log.Error("create upload dirs", err)
		os.Exit(1)
	}
	h := handler.New(eventSvc, userSvc, notifier, sessions, uploads)

	// ── 3. Periodic retirement + reminder pass ───────────────────────────
	refresh := func() {
		retired := eventSvc.RetireExpired()
		if len(retired) > 0 {
			log.Info("events retired", "count", len(retired))
			notifier.Forget(retired)
		}
		notifier.OneDayReminders()
	}
	refresh() // catch up on anything that expired while we were down

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshCron, refresh); err != nil {
		log.Error("bad refresh schedule", err, "cron", cfg.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log

	// Health
	r.Get("/health", handler.HealthCheck)

	// Pages
	r.Get("/", h.Index)
	r.HandleFunc("/login", h.LoginPage)
	r.Post("/logout", h.Logout)
	r.HandleFunc("/register", h.RegisterPage)
	r.Get("/account", h.AccountPage)
	r.Post("/account/edit", h.AccountEdit)
	r.Get("/events", h.EventsPage)
	r.Get("/events/archive", h.ArchivePage)
	r.Get("/events/archive/detail", h.ArchiveDetailPage)
	r.Get("/events/detail", h.EventDetailPage)
	r.Post("/events/rsvp", h.EventRSVPForm)
	r.HandleFunc("/events/new", h.NewEventPage)
	r.HandleFunc("/events/edit", h.EditEventPage)
	r.Post("/events/delete", h.DeleteEvent)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(handler.CORS)
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/popular", h.PopularEvents)
		r.Get("/events/{name}", h.GetEvent)
		r.Post("/events/{name}/rsvp", h.JoinRSVP)
		r.Delete("/events/{name}/rsvp", h.LeaveRSVP)
	})

	// Uploaded images
	imagesDir := http.Dir(uploads.Dir() + "/images")
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(imagesDir)))

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
