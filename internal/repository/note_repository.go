package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Tomlord1122/notes-backend/internal/domain"
)

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	// ListAll returns every stored note in insertion order.
	ListAll(ctx context.Context) ([]domain.Note, error)
	// GetByID returns nil without an error when the note does not exist.
	GetByID(ctx context.Context, id uint) (*domain.Note, error)
	Insert(ctx context.Context, note domain.Note) (*domain.Note, error)
	// FindOrCreate creates the note when its id is unknown, otherwise it
	// returns the stored row untouched.
	FindOrCreate(ctx context.Context, note domain.Note) (*domain.Note, bool, error)
	// Update overwrites title and content and returns the affected row count.
	Update(ctx context.Context, note domain.Note) (int64, error)
}

// gormNoteRepository implements NoteRepository using GORM
type gormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GORM note repository
func NewGormNoteRepository(db *gorm.DB) NoteRepository {
	return &gormNoteRepository{db: db}
}

func (r *gormNoteRepository) ListAll(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	result := r.db.WithContext(ctx).Order("id").Find(&notes)
	if result.Error != nil {
		return nil, result.Error
	}
	return notes, nil
}

func (r *gormNoteRepository) GetByID(ctx context.Context, id uint) (*domain.Note, error) {
	var note domain.Note
	result := r.db.WithContext(ctx).First(&note, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &note, nil
}

func (r *gormNoteRepository) Insert(ctx context.Context, note domain.Note) (*domain.Note, error) {
	newNote := &domain.Note{
		Title:   note.Title,
		Content: note.Content,
	}
	// GORM populates the ID after creation
	if err := r.db.WithContext(ctx).Create(newNote).Error; err != nil {
		return nil, err
	}
	return newNote, nil
}

func (r *gormNoteRepository) FindOrCreate(ctx context.Context, note domain.Note) (*domain.Note, bool, error) {
	var stored domain.Note
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// RowsAffected stays 0 when the row already existed
		result := tx.
			Where("id = ?", note.ID).
			Attrs(domain.Note{ID: note.ID, Title: note.Title, Content: note.Content}).
			FirstOrCreate(&stored)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected == 1
		if !created {
			return nil
		}

		// an explicit id does not advance the serial sequence, so the next
		// Insert would otherwise reuse it
		return tx.Exec(syncIDSequenceSQL).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

var syncIDSequenceSQL = fmt.Sprintf(
	"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT MAX(id) FROM %[1]s))",
	domain.NotesTable,
)

func (r *gormNoteRepository) Update(ctx context.Context, note domain.Note) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("id = ?", note.ID).
		Updates(map[string]interface{}{
			"title":   note.Title,
			"content": note.Content,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, &domain.NoRecordUpdatedError{ID: note.ID, Table: domain.NotesTable}
	}
	return result.RowsAffected, nil
}
