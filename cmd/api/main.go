package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/notes-backend/internal/config"
	"github.com/Tomlord1122/notes-backend/internal/database"
	"github.com/Tomlord1122/notes-backend/internal/logging"
	"github.com/Tomlord1122/notes-backend/internal/metrics"
	"github.com/Tomlord1122/notes-backend/internal/repository"
	"github.com/Tomlord1122/notes-backend/internal/server"
	"github.com/Tomlord1122/notes-backend/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Errorf("server forced to shutdown with error: %v", err)
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			log.Errorf("close database connection pool: %v", err)
		} else {
			log.Println("database connection pool closed")
		}
	}

	log.Println("server exiting")

	done <- true
}

// openRepository picks Postgres when the connection is configured and falls
// back to the in-memory store otherwise. The returned database.Service is nil
// in the in-memory case.
func openRepository(cfg config.DBConfig) (repository.NoteRepository, database.Service, error) {
	if !cfg.Configured() {
		log.Warn("database not configured, notes are kept in memory")
		return repository.NewMemoryNoteRepository(), nil, nil
	}

	dbService, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Println("running database auto-migration...")
	if err := dbService.Migrate(); err != nil {
		_ = dbService.Close()
		return nil, nil, err
	}
	log.Println("database auto-migration complete")

	return repository.NewGormNoteRepository(dbService.GetDB()), dbService, nil
}

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(logging.SetupParams{
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	noteRepo, dbService, err := openRepository(cfg.DB)
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}

	registry := prometheus.NewRegistry()
	metricsManager := metrics.NewManager("notes", "backend", registry)

	noteService := service.NewNoteService(noteRepo, metricsManager)

	apiServer := server.NewServer(server.Params{
		Port:        cfg.Port,
		NoteService: noteService,
		DB:          dbService,
		Metrics:     metricsManager,
		Gatherer:    registry,
	})

	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, dbService, done)

	log.Printf("starting server on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server ListenAndServe error: %v", err)
	}

	<-done
	log.Println("graceful shutdown complete")
}
