package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/notes-backend/internal/domain"
	"github.com/Tomlord1122/notes-backend/internal/service"
)

const locationHeader = "Location"

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LogRequest())
	r.Use(RequestMetrics(s.metrics))
	r.Use(PanicRecovery(s.metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{locationHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", s.handle(s.getAllNotesHandler))
		r.Get("/{id:[0-9]+}", s.handle(s.getNoteByIDHandler))
		r.Post("/", s.handle(s.createNoteHandler))
		r.Put("/{id:[0-9]+}", s.handle(s.upsertNoteHandler))
	})

	return r
}

// handlerFunc is an http handler that hands unexpected errors back to the
// router instead of writing them itself.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle maps errors returned by h to a status code and writes the error
// text as a JSON string, unless h already started the response.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		err := h(ww, r)
		if err == nil {
			return
		}

		if ww.Status() != 0 {
			log.Errorf("%s %s failed after response was sent: %s", r.Method, r.URL.Path, err)
			return
		}

		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		}
		respondWithError(ww, status, err)
	}
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case domain.IsBadRequest(err), errors.As(err, &reqErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestError is a malformed request that never reached the service.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "up",
			"backend": "memory",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	healthStats := s.db.Health(ctx)
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) getAllNotesHandler(w http.ResponseWriter, r *http.Request) error {
	notes, err := s.noteService.GetAll(r.Context())
	if err != nil {
		return fmt.Errorf("get all notes: %w", err)
	}
	if notes == nil {
		notes = []domain.Note{}
	}

	respondWithJSON(w, http.StatusOK, notes)
	return nil
}

func (s *Server) getNoteByIDHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r)
	if err != nil {
		// the route only matches digits, so this is an id beyond any stored one
		respondWithJSON(w, http.StatusNotFound, nil)
		return nil
	}

	note, err := s.noteService.GetByID(r.Context(), id)
	if err != nil {
		return fmt.Errorf("get note %d: %w", id, err)
	}
	if note == nil {
		respondWithJSON(w, http.StatusNotFound, nil)
		return nil
	}

	respondWithJSON(w, http.StatusOK, note)
	return nil
}

func (s *Server) createNoteHandler(w http.ResponseWriter, r *http.Request) error {
	var req service.CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	note, err := s.noteService.Create(r.Context(), req)
	if err != nil {
		return err
	}

	w.Header().Set(locationHeader, noteLocation(r, note.ID))
	respondWithJSON(w, http.StatusCreated, note)
	return nil
}

func (s *Server) upsertNoteHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(r)
	if err != nil {
		return badRequest("%s", domain.ErrInvalidNoteID)
	}

	var req service.UpsertNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	created, err := s.noteService.Upsert(r.Context(), id, req)
	if err != nil {
		return err
	}

	if !created {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	w.Header().Set(locationHeader, noteLocation(r, id))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	return nil
}

func parseID(r *http.Request) (uint, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(dst)
	if err == nil {
		if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return badRequest("Request body must only contain a single JSON object")
		}
		return nil
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		return badRequest("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		return badRequest("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
	case errors.Is(err, io.EOF):
		return badRequest("Request body must not be empty")
	default:
		return fmt.Errorf("decode request body: %w", err)
	}
}

func noteLocation(r *http.Request, id uint) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/notes/%d", scheme, r.Host, id)
}

func respondWithError(w http.ResponseWriter, code int, err error) {
	respondWithJSON(w, code, err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`"Internal server error preparing response"`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
