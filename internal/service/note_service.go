package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/notes-backend/internal/domain"
	"github.com/Tomlord1122/notes-backend/internal/metrics"
	"github.com/Tomlord1122/notes-backend/internal/repository"
)

// Input Structs (Data Transfer Objects - DTOs)

// CreateNoteRequest holds the data needed to create a new note
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpsertNoteRequest holds the full representation sent with PUT.
// ID must match the id in the route.
type UpsertNoteRequest struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// --- Service Interface ---

// NoteService defines the operations for managing notes.
// It validates input and orchestrates the repository calls.
type NoteService interface {
	// GetAll retrieves every stored note.
	GetAll(ctx context.Context) ([]domain.Note, error)

	// GetByID retrieves a single note, nil when it does not exist.
	GetByID(ctx context.Context, id uint) (*domain.Note, error)

	// Create validates and stores a new note.
	Create(ctx context.Context, req CreateNoteRequest) (*domain.Note, error)

	// Upsert creates the note with the given id or overwrites its title and
	// content. It reports whether a new note was created.
	Upsert(ctx context.Context, id uint, req UpsertNoteRequest) (bool, error)
}

// --- Service Implementation ---

type noteService struct {
	repo    repository.NoteRepository
	metrics *metrics.Manager
}

// NewNoteService creates a new instance of noteService.
// metricsManager may be nil.
func NewNoteService(repo repository.NoteRepository, metricsManager *metrics.Manager) NoteService {
	return &noteService{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (s *noteService) GetAll(ctx context.Context) ([]domain.Note, error) {
	return s.repo.ListAll(ctx)
}

func (s *noteService) GetByID(ctx context.Context, id uint) (*domain.Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *noteService) Create(ctx context.Context, req CreateNoteRequest) (*domain.Note, error) {
	if err := validateNote(req.Title, req.Content); err != nil {
		return nil, err
	}

	note, err := s.repo.Insert(ctx, domain.Note{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterNotesCreated.Inc()
	}
	log.WithField("note_id", note.ID).Debug("note created")

	return note, nil
}

func (s *noteService) Upsert(ctx context.Context, id uint, req UpsertNoteRequest) (bool, error) {
	// zero means "unassigned" to the backend, which would pick its own id
	if id == 0 {
		return false, domain.ErrInvalidNoteID
	}
	if id != req.ID {
		return false, domain.ErrIDMismatch
	}
	if err := validateNote(req.Title, req.Content); err != nil {
		return false, err
	}

	note := domain.Note{
		ID:      req.ID,
		Title:   req.Title,
		Content: req.Content,
	}

	_, created, err := s.repo.FindOrCreate(ctx, note)
	if err != nil {
		return false, fmt.Errorf("find or create note %d: %w", id, err)
	}

	// A freshly created row already holds the requested values.
	if !created {
		if _, err := s.repo.Update(ctx, note); err != nil {
			return false, fmt.Errorf("update note %d: %w", id, err)
		}
	}

	if s.metrics != nil {
		if created {
			s.metrics.CounterNotesCreated.Inc()
		} else {
			s.metrics.CounterNotesUpdated.Inc()
		}
	}
	log.WithFields(log.Fields{
		"note_id": id,
		"created": created,
	}).Debug("note upserted")

	return created, nil
}

// validateNote checks title before content.
func validateNote(title, content string) error {
	if title == "" {
		return domain.ErrInvalidNoteTitle
	}
	if content == "" {
		return domain.ErrInvalidNoteContent
	}
	return nil
}
