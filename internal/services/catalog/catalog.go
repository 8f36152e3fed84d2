// Package services содержит бизнес-логику управления каталогом книг:
// создание с предзаполнением метаданных по ISBN, чтение с кешированием
// и изменение количества экземпляров через ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/library-loans/internal/ledger"
	"github.com/magabrotheeeer/library-loans/internal/lib/isbn"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// ErrMissingMetadata возвращается, когда ни запрос, ни внешний источник
// не дали название или автора книги.
var ErrMissingMetadata = errors.New("book title and author are required")

// CatalogRepository определяет методы для работы с каталогом в хранилище.
type CatalogRepository interface {
	// CreateBook добавляет новую книгу и возвращает её ID.
	CreateBook(ctx context.Context, book models.Book) (int, error)
	// ReadBook возвращает книгу по ID.
	ReadBook(ctx context.Context, id int) (*models.Book, error)
	// ReadBookByISBN возвращает книгу по нормализованному ISBN.
	ReadBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	// ListBooks возвращает список книг с пагинацией.
	ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error)
	// ResizeBookTx меняет количество экземпляров книги с блокировкой строки.
	ResizeBookTx(ctx context.Context, bookID int, apply func(book *models.Book) error) (*models.Book, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// MetadataSource описывает внешний источник метаданных книги.
// Используется только при создании записи каталога.
type MetadataSource interface {
	FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error)
}

// CatalogService реализует бизнес-логику работы с каталогом, включая кеширование.
type CatalogService struct {
	repo     CatalogRepository
	cache    Cache
	metadata MetadataSource
	log      *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, cache Cache, metadata MetadataSource, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		metadata: metadata,
		log:      log,
	}
}

// Create добавляет книгу в каталог. ISBN нормализуется, отсутствующие
// название, автор и обложка запрашиваются у внешнего источника метаданных;
// его недоступность не прерывает создание, если название и автор заданы
// в запросе. Все экземпляры новой книги доступны для выдачи.
func (s *CatalogService) Create(ctx context.Context, req models.DummyBook) (int, error) {
	normalized := isbn.Normalize(req.ISBN)

	// Занятый ISBN отклоняется до обращения к источнику метаданных.
	// Гонку двух одновременных созданий ловит уникальный индекс в CreateBook.
	if _, err := s.repo.ReadBookByISBN(ctx, normalized); err == nil {
		return 0, repository.ErrDuplicateISBN
	} else if !errors.Is(err, repository.ErrBookNotFound) {
		return 0, err
	}

	book := models.Book{
		ISBN:            normalized,
		Title:           req.Title,
		Author:          req.Author,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies,
	}
	if req.Genre != "" {
		book.Genre = &req.Genre
	}

	if book.Title == "" || book.Author == "" || book.CoverURL == nil {
		meta, err := s.metadata.FetchByISBN(ctx, normalized)
		if err != nil {
			s.log.Warn("failed to fetch book metadata", slog.String("isbn", normalized), slog.Any("err", err))
		} else {
			if book.Title == "" {
				book.Title = meta.Title
			}
			if book.Author == "" {
				book.Author = meta.Author
			}
			if meta.CoverURL != "" {
				coverURL := meta.CoverURL
				book.CoverURL = &coverURL
			}
		}
	}
	if book.Title == "" || book.Author == "" {
		return 0, ErrMissingMetadata
	}

	id, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return 0, err
	}

	s.log.Info("created new book", slog.Int("id", id), slog.String("isbn", normalized))
	return id, nil
}

// Read возвращает книгу по ID, используя кеш или репозиторий.
func (s *CatalogService) Read(ctx context.Context, id int) (*models.Book, error) {
	var result *models.Book
	cacheKey := fmt.Sprintf("book:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// List возвращает список книг каталога с пагинацией.
func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	return s.repo.ListBooks(ctx, limit, offset)
}

// Resize меняет общее количество экземпляров книги. Количество доступных
// экземпляров пересчитывает ledger, учитывая книги на руках. Отказы:
// repository.ErrBookNotFound, ledger.ErrInvalidResize.
func (s *CatalogService) Resize(ctx context.Context, bookID, newTotal int) (*models.Book, error) {
	book, err := s.repo.ResizeBookTx(ctx, bookID, func(book *models.Book) error {
		return ledger.Resize(book, newTotal)
	})
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("book:%d", bookID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	s.log.Info("resized book copies",
		slog.Int("book_id", bookID), slog.Int("total_copies", book.TotalCopies))
	return book, nil
}
