package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

// ReserveTx выполняет бронирование книги одной транзакцией: строка книги
// берётся с блокировкой FOR UPDATE, apply применяет бизнес-правила
// (списание экземпляра и создание выдачи), после чего книга и новая выдача
// сохраняются атомарно. Ошибка apply откатывает транзакцию целиком —
// частичного состояния не остаётся.
func (s *Storage) ReserveTx(ctx context.Context, bookID int,
	apply func(book *models.Book) (models.Loan, error)) (*models.Loan, error) {
	const op = "storage.ReserveTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	book, err := getBookForUpdate(ctx, tx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	loan, err := apply(book)
	if err != nil {
		return nil, err
	}

	if err = updateBookCopies(ctx, tx, book); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO loans (user_uid, book_id, loan_date, expiration_date,
			      return_date, status, fine_amount, renewals)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	if err = tx.QueryRowContext(ctx, query,
		loan.UserUID, loan.BookID, loan.LoanDate, loan.ExpirationDate,
		loan.ReturnDate, loan.Status, loan.FineAmount, loan.Renewals).Scan(&loan.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &loan, nil
}

// RenewTx выполняет продление выдачи одной транзакцией: строка выдачи
// берётся с блокировкой FOR UPDATE, apply применяет проверки и продление,
// затем выдача сохраняется.
func (s *Storage) RenewTx(ctx context.Context, loanID int,
	apply func(loan *models.Loan) error) (*models.Loan, error) {
	const op = "storage.RenewTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	loan, err := getLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = apply(loan); err != nil {
		return nil, err
	}

	if err = updateLoan(ctx, tx, loan); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loan, nil
}

// ReturnTx выполняет возврат книги одной транзакцией: блокируются строки
// выдачи и книги, apply применяет возврат и освобождение экземпляра, обе
// записи сохраняются атомарно — либо фиксируются обе, либо ни одной.
func (s *Storage) ReturnTx(ctx context.Context, loanID int,
	apply func(loan *models.Loan, book *models.Book) error) (*models.Loan, error) {
	const op = "storage.ReturnTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	loan, err := getLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	book, err := getBookForUpdate(ctx, tx, loan.BookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = apply(loan, book); err != nil {
		return nil, err
	}

	if err = updateLoan(ctx, tx, loan); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = updateBookCopies(ctx, tx, book); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loan, nil
}

// ResizeBookTx меняет количество экземпляров книги одной транзакцией
// с блокировкой строки книги.
func (s *Storage) ResizeBookTx(ctx context.Context, bookID int,
	apply func(book *models.Book) error) (*models.Book, error) {
	const op = "storage.ResizeBookTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	book, err := getBookForUpdate(ctx, tx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = apply(book); err != nil {
		return nil, err
	}

	query := `UPDATE books SET total_copies = $1, available_copies = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, query, book.TotalCopies, book.AvailableCopies, book.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return book, nil
}

func getBookForUpdate(ctx context.Context, tx *sql.Tx, bookID int) (*models.Book, error) {
	query := `SELECT id, isbn, title, author, genre, cover_url,
			      total_copies, available_copies
			  FROM books WHERE id = $1
			  FOR UPDATE`
	row := tx.QueryRowContext(ctx, query, bookID)

	var book models.Book
	if err := scanBook(row, &book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func getLoanForUpdate(ctx context.Context, tx *sql.Tx, loanID int) (*models.Loan, error) {
	query := `SELECT id, user_uid, book_id, loan_date, expiration_date,
			      return_date, status, fine_amount, renewals
			  FROM loans WHERE id = $1
			  FOR UPDATE`
	row := tx.QueryRowContext(ctx, query, loanID)

	var loan models.Loan
	if err := scanLoan(row, &loan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func updateBookCopies(ctx context.Context, tx *sql.Tx, book *models.Book) error {
	query := `UPDATE books SET available_copies = $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, book.AvailableCopies, book.ID)
	return err
}

func updateLoan(ctx context.Context, tx *sql.Tx, loan *models.Loan) error {
	query := `UPDATE loans
			  SET expiration_date = $1, return_date = $2, status = $3,
			      fine_amount = $4, renewals = $5
			  WHERE id = $6`
	_, err := tx.ExecContext(ctx, query,
		loan.ExpirationDate, loan.ReturnDate, loan.Status, loan.FineAmount,
		loan.Renewals, loan.ID)
	return err
}
