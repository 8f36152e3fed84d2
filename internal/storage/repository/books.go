package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

// CreateBook вставляет новую книгу каталога и возвращает её ID.
// Дубликат ISBN транслируется в ErrDuplicateISBN.
func (s *Storage) CreateBook(ctx context.Context, book models.Book) (int, error) {
	const op = "storage.CreateBook"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO books (isbn, title, author, genre, cover_url,
			      total_copies, available_copies)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		book.ISBN, book.Title, book.Author, book.Genre, book.CoverURL,
		book.TotalCopies, book.AvailableCopies).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicateISBN)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadBook возвращает книгу по её ID.
func (s *Storage) ReadBook(ctx context.Context, id int) (*models.Book, error) {
	const op = "storage.ReadBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, isbn, title, author, genre, cover_url,
			      total_copies, available_copies
			  FROM books WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Book
	if err := scanBook(row, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ReadBookByISBN возвращает книгу по нормализованному ISBN.
func (s *Storage) ReadBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	const op = "storage.ReadBookByISBN"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, isbn, title, author, genre, cover_url,
			      total_copies, available_copies
			  FROM books WHERE isbn = $1`
	row := s.DB.QueryRowContext(ctx, query, isbn)

	var result models.Book
	if err := scanBook(row, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListBooks возвращает список книг каталога с пагинацией.
func (s *Storage) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "storage.ListBooks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, isbn, title, author, genre, cover_url,
			      total_copies, available_copies
			  FROM books
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Book
	for rows.Next() {
		var item models.Book
		if err := scanBook(rows, &item); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, b *models.Book) error {
	var genre, coverURL sql.NullString
	if err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &genre, &coverURL,
		&b.TotalCopies, &b.AvailableCopies); err != nil {
		return err
	}
	if genre.Valid {
		b.Genre = &genre.String
	}
	if coverURL.Valid {
		b.CoverURL = &coverURL.String
	}
	return nil
}
