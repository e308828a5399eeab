package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Tomlord1122/notes-backend/internal/domain"
	"github.com/Tomlord1122/notes-backend/internal/metrics"
	"github.com/Tomlord1122/notes-backend/internal/repository"
)

type mockNoteRepository struct {
	mock.Mock
}

var _ repository.NoteRepository = (*mockNoteRepository)(nil)

func (m *mockNoteRepository) ListAll(ctx context.Context) ([]domain.Note, error) {
	args := m.Called(ctx)
	notes, _ := args.Get(0).([]domain.Note)
	return notes, args.Error(1)
}

func (m *mockNoteRepository) GetByID(ctx context.Context, id uint) (*domain.Note, error) {
	args := m.Called(ctx, id)
	note, _ := args.Get(0).(*domain.Note)
	return note, args.Error(1)
}

func (m *mockNoteRepository) Insert(ctx context.Context, note domain.Note) (*domain.Note, error) {
	args := m.Called(ctx, note)
	inserted, _ := args.Get(0).(*domain.Note)
	return inserted, args.Error(1)
}

func (m *mockNoteRepository) FindOrCreate(ctx context.Context, note domain.Note) (*domain.Note, bool, error) {
	args := m.Called(ctx, note)
	found, _ := args.Get(0).(*domain.Note)
	return found, args.Bool(1), args.Error(2)
}

func (m *mockNoteRepository) Update(ctx context.Context, note domain.Note) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func TestNoteService_GetAll(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	notes := []domain.Note{{ID: 1, Title: "a", Content: "b"}, {ID: 2, Title: "c", Content: "d"}}
	repo.On("ListAll", ctx).Return(notes, nil).Once()

	got, err := NewNoteService(repo, nil).GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, notes, got)
	repo.AssertExpectations(t)
}

func TestNoteService_GetByID(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	repo.On("GetByID", ctx, uint(1)).Return(&domain.Note{ID: 1, Title: "a", Content: "b"}, nil).Once()
	repo.On("GetByID", ctx, uint(3)).Return(nil, nil).Once()

	svc := NewNoteService(repo, nil)

	found, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, uint(1), found.ID)

	missing, err := svc.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, missing)
	repo.AssertExpectations(t)
}

func TestNoteService_Create(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	m := metrics.NewTestManager()
	repo.On("Insert", ctx, domain.Note{Title: "Titolo", Content: "Contenuto"}).
		Return(&domain.Note{ID: 3, Title: "Titolo", Content: "Contenuto"}, nil).Once()

	note, err := NewNoteService(repo, m).Create(ctx, CreateNoteRequest{Title: "Titolo", Content: "Contenuto"})
	require.NoError(t, err)
	assert.Equal(t, uint(3), note.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterNotesCreated))
	repo.AssertExpectations(t)
}

func TestNoteService_Create_RepositoryError(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	dbErr := errors.New("connection refused")
	repo.On("Insert", ctx, mock.Anything).Return(nil, dbErr).Once()

	_, err := NewNoteService(repo, nil).Create(ctx, CreateNoteRequest{Title: "t", Content: "c"})
	require.ErrorIs(t, err, dbErr)
	assert.False(t, domain.IsBadRequest(err))
}

func TestNoteService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateNoteRequest
		wantErr error
	}{
		{"missing title", CreateNoteRequest{Content: "Contenuto"}, domain.ErrInvalidNoteTitle},
		{"missing content", CreateNoteRequest{Title: "Titolo"}, domain.ErrInvalidNoteContent},
		{"both missing reports title", CreateNoteRequest{}, domain.ErrInvalidNoteTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockNoteRepository{}
			_, err := NewNoteService(repo, nil).Create(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestNoteService_Upsert_CreatesWithoutUpdate(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	m := metrics.NewTestManager()
	note := domain.Note{ID: 3, Title: "Titolo 3", Content: "Contenuto 3"}
	repo.On("FindOrCreate", ctx, note).Return(&note, true, nil).Once()

	created, err := NewNoteService(repo, m).Upsert(ctx, 3, UpsertNoteRequest{ID: 3, Title: "Titolo 3", Content: "Contenuto 3"})
	require.NoError(t, err)
	assert.True(t, created)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterNotesCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterNotesUpdated))
}

func TestNoteService_Upsert_UpdatesExisting(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	m := metrics.NewTestManager()
	note := domain.Note{ID: 2, Title: "Nuovo titolo", Content: "Nuovo contenuto"}
	stored := &domain.Note{ID: 2, Title: "Titolo 2", Content: "Contenuto 2"}
	repo.On("FindOrCreate", ctx, note).Return(stored, false, nil).Once()
	repo.On("Update", ctx, note).Return(int64(1), nil).Once()

	created, err := NewNoteService(repo, m).Upsert(ctx, 2, UpsertNoteRequest{ID: 2, Title: "Nuovo titolo", Content: "Nuovo contenuto"})
	require.NoError(t, err)
	assert.False(t, created)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "Update", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterNotesUpdated))
}

func TestNoteService_Upsert_UpdateFails(t *testing.T) {
	repo := &mockNoteRepository{}
	ctx := context.Background()
	note := domain.Note{ID: 2, Title: "t", Content: "c"}
	noRecord := &domain.NoRecordUpdatedError{ID: 2, Table: domain.NotesTable}
	repo.On("FindOrCreate", ctx, note).Return(&note, false, nil).Once()
	repo.On("Update", ctx, note).Return(int64(0), noRecord).Once()

	_, err := NewNoteService(repo, nil).Upsert(ctx, 2, UpsertNoteRequest{ID: 2, Title: "t", Content: "c"})
	require.ErrorIs(t, err, domain.ErrNoRecordUpdated)
	assert.False(t, domain.IsBadRequest(err))
	repo.AssertExpectations(t)
}

func TestNoteService_Upsert_IDMismatchBeforeValidation(t *testing.T) {
	repo := &mockNoteRepository{}

	_, err := NewNoteService(repo, nil).Upsert(context.Background(), 3, UpsertNoteRequest{ID: 2})
	require.ErrorIs(t, err, domain.ErrIDMismatch)
	assert.Empty(t, repo.Calls)
}

func TestNoteService_Upsert_ZeroIDRejected(t *testing.T) {
	repo := &mockNoteRepository{}

	created, err := NewNoteService(repo, nil).Upsert(context.Background(), 0, UpsertNoteRequest{ID: 0, Title: "t", Content: "c"})
	require.ErrorIs(t, err, domain.ErrInvalidNoteID)
	assert.False(t, created)
	assert.True(t, domain.IsBadRequest(err))
	assert.Empty(t, repo.Calls)
}

func TestNoteService_Upsert_WithMemoryRepository(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	svc := NewNoteService(repo, nil)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, 5, UpsertNoteRequest{ID: 5, Title: "Titolo", Content: "Contenuto"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Upsert(ctx, 5, UpsertNoteRequest{ID: 5, Title: "Nuovo titolo", Content: "Nuovo contenuto"})
	require.NoError(t, err)
	assert.False(t, created)

	note, err := svc.GetByID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "Nuovo titolo", note.Title)
	assert.Equal(t, "Nuovo contenuto", note.Content)
}

func testInvalidTitleNeverReachesRepository(t *rapid.T) {
	repo := &mockNoteRepository{}
	svc := NewNoteService(repo, nil)
	id := rapid.UintRange(1, 1<<31).Draw(t, "id")
	content := rapid.String().Draw(t, "content")

	_, err := svc.Create(context.Background(), CreateNoteRequest{Content: content})
	if !errors.Is(err, domain.ErrInvalidNoteTitle) {
		t.Fatalf("create: got %v, want %v", err, domain.ErrInvalidNoteTitle)
	}
	_, err = svc.Upsert(context.Background(), id, UpsertNoteRequest{ID: id, Content: content})
	if !errors.Is(err, domain.ErrInvalidNoteTitle) {
		t.Fatalf("upsert: got %v, want %v", err, domain.ErrInvalidNoteTitle)
	}
	if len(repo.Calls) != 0 {
		t.Fatalf("repository called %d times", len(repo.Calls))
	}
}

func TestNoteService_InvalidTitleNeverReachesRepository(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testInvalidTitleNeverReachesRepository)
}

func testInvalidContentNeverReachesRepository(t *rapid.T) {
	repo := &mockNoteRepository{}
	svc := NewNoteService(repo, nil)
	id := rapid.UintRange(1, 1<<31).Draw(t, "id")
	title := rapid.StringN(1, 64, -1).Draw(t, "title")

	_, err := svc.Create(context.Background(), CreateNoteRequest{Title: title})
	if !errors.Is(err, domain.ErrInvalidNoteContent) {
		t.Fatalf("create: got %v, want %v", err, domain.ErrInvalidNoteContent)
	}
	_, err = svc.Upsert(context.Background(), id, UpsertNoteRequest{ID: id, Title: title})
	if !errors.Is(err, domain.ErrInvalidNoteContent) {
		t.Fatalf("upsert: got %v, want %v", err, domain.ErrInvalidNoteContent)
	}
	if len(repo.Calls) != 0 {
		t.Fatalf("repository called %d times", len(repo.Calls))
	}
}

func TestNoteService_InvalidContentNeverReachesRepository(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testInvalidContentNeverReachesRepository)
}

func testIDMismatchAlwaysRejected(t *rapid.T) {
	repo := &mockNoteRepository{}
	routeID := rapid.UintRange(1, 1<<31).Draw(t, "route_id")
	offset := rapid.UintRange(1, 1<<20).Draw(t, "offset")
	title := rapid.String().Draw(t, "title")
	content := rapid.String().Draw(t, "content")

	_, err := NewNoteService(repo, nil).Upsert(context.Background(), routeID, UpsertNoteRequest{
		ID:      routeID + offset,
		Title:   title,
		Content: content,
	})
	if !errors.Is(err, domain.ErrIDMismatch) {
		t.Fatalf("got %v, want %v", err, domain.ErrIDMismatch)
	}
	if len(repo.Calls) != 0 {
		t.Fatalf("repository called %d times", len(repo.Calls))
	}
}

func TestNoteService_IDMismatchAlwaysRejected(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testIDMismatchAlwaysRejected)
}
