package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/library-loans/internal/ledger"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

type RepoMock struct {
	mock.Mock
	book models.Book
}

func (m *RepoMock) CreateBook(ctx context.Context, book models.Book) (int, error) {
	args := m.Called(ctx, book)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ReadBook(ctx context.Context, id int) (*models.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *RepoMock) ReadBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *RepoMock) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Book), args.Error(1)
}

func (m *RepoMock) ResizeBookTx(ctx context.Context, bookID int, apply func(book *models.Book) error) (*models.Book, error) {
	args := m.Called(ctx, bookID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	book := m.book
	if err := apply(&book); err != nil {
		return nil, err
	}
	m.book = book
	return &book, nil
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type MetadataMock struct{ mock.Mock }

func (m *MetadataMock) FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookMetadata), args.Error(1)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCatalog_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyBook
		setupMocks func(repo *RepoMock, metadata *MetadataMock)
		wantID     int
		wantErr    error
	}{
		{
			name: "success create with metadata lookup",
			req:  models.DummyBook{ISBN: "978-5-17-118366-5", TotalCopies: 3},
			setupMocks: func(repo *RepoMock, metadata *MetadataMock) {
				repo.On("ReadBookByISBN", mock.Anything, "9785171183665").
					Return(nil, repository.ErrBookNotFound).Once()
				metadata.On("FetchByISBN", mock.Anything, "9785171183665").
					Return(&models.BookMetadata{Title: "Мастер и Маргарита", Author: "Михаил Булгаков"}, nil).Once()
				repo.On("CreateBook", mock.Anything, mock.MatchedBy(func(b models.Book) bool {
					return b.ISBN == "9785171183665" &&
						b.Title == "Мастер и Маргарита" &&
						b.AvailableCopies == 3
				})).Return(42, nil).Once()
			},
			wantID: 42,
		},
		{
			name: "metadata source down but request is complete",
			req:  models.DummyBook{ISBN: "9785171183665", Title: "Мастер и Маргарита", Author: "Михаил Булгаков", TotalCopies: 1},
			setupMocks: func(repo *RepoMock, metadata *MetadataMock) {
				repo.On("ReadBookByISBN", mock.Anything, "9785171183665").
					Return(nil, repository.ErrBookNotFound).Once()
				metadata.On("FetchByISBN", mock.Anything, "9785171183665").
					Return(nil, errors.New("openlibrary unreachable")).Once()
				repo.On("CreateBook", mock.Anything, mock.Anything).Return(7, nil).Once()
			},
			wantID: 7,
		},
		{
			name: "metadata missing everywhere",
			req:  models.DummyBook{ISBN: "9785171183665", TotalCopies: 1},
			setupMocks: func(repo *RepoMock, metadata *MetadataMock) {
				repo.On("ReadBookByISBN", mock.Anything, "9785171183665").
					Return(nil, repository.ErrBookNotFound).Once()
				metadata.On("FetchByISBN", mock.Anything, "9785171183665").
					Return(nil, errors.New("not found")).Once()
			},
			wantErr: ErrMissingMetadata,
		},
		{
			name: "duplicate isbn rejected before metadata lookup",
			req:  models.DummyBook{ISBN: "978-5-17-118366-5", Title: "Мастер и Маргарита", Author: "Михаил Булгаков", TotalCopies: 1},
			setupMocks: func(repo *RepoMock, _ *MetadataMock) {
				existing := &models.Book{ID: 42, ISBN: "9785171183665"}
				repo.On("ReadBookByISBN", mock.Anything, "9785171183665").
					Return(existing, nil).Once()
			},
			wantErr: repository.ErrDuplicateISBN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{}
			metadata := &MetadataMock{}
			tt.setupMocks(repo, metadata)
			svc := NewCatalogService(repo, &CacheMock{}, metadata, NewNoopLogger())

			id, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
			metadata.AssertExpectations(t)
		})
	}
}

func TestCatalog_Read(t *testing.T) {
	book := &models.Book{ID: 42, ISBN: "9785171183665", Title: "Мастер и Маргарита"}

	t.Run("cache miss reads repo and caches", func(t *testing.T) {
		repo := &RepoMock{}
		cache := &CacheMock{}
		cache.On("Get", "book:42", mock.Anything).Return(false, nil).Once()
		repo.On("ReadBook", mock.Anything, 42).Return(book, nil).Once()
		cache.On("Set", "book:42", book, time.Hour).Return(nil).Once()
		svc := NewCatalogService(repo, cache, &MetadataMock{}, NewNoopLogger())

		got, err := svc.Read(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, book, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips repo", func(t *testing.T) {
		repo := &RepoMock{}
		cache := &CacheMock{}
		cache.On("Get", "book:42", mock.Anything).Return(true, nil).Once()
		svc := NewCatalogService(repo, cache, &MetadataMock{}, NewNoopLogger())

		_, err := svc.Read(context.Background(), 42)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ReadBook", mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})
}

func TestCatalog_Resize(t *testing.T) {
	tests := []struct {
		name          string
		book          models.Book
		newTotal      int
		wantErr       error
		wantAvailable int
	}{
		{
			name:          "grow fund",
			book:          models.Book{ID: 42, TotalCopies: 3, AvailableCopies: 1},
			newTotal:      5,
			wantAvailable: 3,
		},
		{
			name:     "shrink below outstanding",
			book:     models.Book{ID: 42, TotalCopies: 3, AvailableCopies: 1},
			newTotal: 1,
			wantErr:  ledger.ErrInvalidResize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{book: tt.book}
			cache := &CacheMock{}
			repo.On("ResizeBookTx", mock.Anything, 42).Return(nil).Once()
			if tt.wantErr == nil {
				cache.On("Invalidate", "book:42").Return(nil).Once()
			}
			svc := NewCatalogService(repo, cache, &MetadataMock{}, NewNoopLogger())

			book, err := svc.Resize(context.Background(), 42, tt.newTotal)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.newTotal, book.TotalCopies)
				assert.Equal(t, tt.wantAvailable, book.AvailableCopies)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
