package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tomlord1122/notes-backend/internal/database"
	"github.com/Tomlord1122/notes-backend/internal/metrics"
	"github.com/Tomlord1122/notes-backend/internal/service"
)

type Server struct {
	port        int
	noteService service.NoteService
	db          database.Service
	metrics     *metrics.Manager
	gatherer    prometheus.Gatherer
}

type Params struct {
	Port        int
	NoteService service.NoteService
	// DB is nil when notes are kept in memory.
	DB       database.Service
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer
}

func NewServer(params Params) *http.Server {
	appServer := &Server{
		port:        params.Port,
		noteService: params.NoteService,
		db:          params.DB,
		metrics:     params.Metrics,
		gatherer:    params.Gatherer,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
