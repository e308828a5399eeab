package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tomlord1122/notes-backend/internal/domain"
)

// memoryNoteRepository keeps notes in process memory. It is used when no
// database is configured and by tests.
type memoryNoteRepository struct {
	mu     sync.RWMutex
	notes  map[uint]domain.Note
	nextID uint
	now    func() time.Time
}

func NewMemoryNoteRepository() NoteRepository {
	return &memoryNoteRepository{
		notes:  make(map[uint]domain.Note),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *memoryNoteRepository) ListAll(_ context.Context) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]domain.Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

func (r *memoryNoteRepository) GetByID(_ context.Context, id uint) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	return &note, nil
}

func (r *memoryNoteRepository) Insert(_ context.Context, note domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.store(r.nextID, note)
	return &stored, nil
}

func (r *memoryNoteRepository) FindOrCreate(_ context.Context, note domain.Note) (*domain.Note, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.notes[note.ID]; ok {
		return &existing, false, nil
	}

	id := note.ID
	if id == 0 {
		id = r.nextID
	}
	stored := r.store(id, note)
	return &stored, true, nil
}

func (r *memoryNoteRepository) Update(_ context.Context, note domain.Note) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[note.ID]
	if !ok {
		return 0, &domain.NoRecordUpdatedError{ID: note.ID, Table: domain.NotesTable}
	}

	existing.Title = note.Title
	existing.Content = note.Content
	existing.UpdatedAt = r.now()
	r.notes[note.ID] = existing
	return 1, nil
}

// store must be called with mu held.
func (r *memoryNoteRepository) store(id uint, note domain.Note) domain.Note {
	now := r.now()
	stored := domain.Note{
		ID:        id,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes[id] = stored
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return stored
}
