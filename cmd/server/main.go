// Package main is the entry point for the rental calendar server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rental-calendar/backend/internal/api"
	"github.com/rental-calendar/backend/internal/booking"
	"github.com/rental-calendar/backend/internal/calendar"
	"github.com/rental-calendar/backend/internal/config"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "rental-calendar.toml", "Path to TOML config file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for SQLite database (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if secret := os.Getenv("SYNC_SECRET"); secret != "" {
		cfg.SyncSecret = secret
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting rental calendar server (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DataDir + "/rental-calendar.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	publisher := websocket.NewEventBroadcaster(hub)

	// Initialize repositories
	listingRepo := storage.NewListingRepository(db)
	feedRepo := storage.NewFeedRepository(db)
	blockRepo := storage.NewBlockRepository(db)
	reservationRepo := storage.NewReservationRepository(db)

	// Initialize services
	syncService := calendar.NewSyncService(
		feedRepo,
		blockRepo,
		reservationRepo,
		calendar.LogAudit{},
		publisher,
		time.Duration(cfg.FetchTimeoutSeconds)*time.Second,
		cfg.SyncWorkers,
	)

	bookingService := booking.NewService(
		listingRepo,
		reservationRepo,
		blockRepo,
		blockRepo,
		publisher,
		time.Duration(cfg.HoldTTLMinutes)*time.Minute,
	)

	scheduler := calendar.NewScheduler(syncService, feedRepo, cfg.SyncIntervalMin)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(api.Deps{
		DB:           db,
		Hub:          hub,
		Publisher:    publisher,
		Listings:     listingRepo,
		Feeds:        feedRepo,
		Blocks:       blockRepo,
		Reservations: reservationRepo,
		SyncService:  syncService,
		Scheduler:    scheduler,
		Booking:      bookingService,
		StaticDir:    cfg.StaticDir,
		SyncSecret:   cfg.SyncSecret,
		ExportHost:   cfg.ExportHost,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
