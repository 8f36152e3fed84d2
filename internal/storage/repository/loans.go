package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

// ListLoans возвращает список всех выдач пользователя с пагинацией.
func (s *Storage) ListLoans(ctx context.Context, userUID string, limit, offset int) ([]*models.Loan, error) {
	const op = "storage.ListLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, book_id, loan_date, expiration_date,
			      return_date, status, fine_amount, renewals
			  FROM loans
			  WHERE user_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectLoans(rows, op)
}

// ListAllLoans возвращает список всех выдач с пагинацией.
func (s *Storage) ListAllLoans(ctx context.Context, limit, offset int) ([]*models.Loan, error) {
	const op = "storage.ListAllLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, book_id, loan_date, expiration_date,
			      return_date, status, fine_amount, renewals
			  FROM loans
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectLoans(rows, op)
}

// ListLoansForBook возвращает все выдачи по книге.
func (s *Storage) ListLoansForBook(ctx context.Context, bookID int) ([]*models.Loan, error) {
	const op = "storage.ListLoansForBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, book_id, loan_date, expiration_date,
			      return_date, status, fine_amount, renewals
			  FROM loans
			  WHERE book_id = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectLoans(rows, op)
}

// FindOverdueLoans находит невозвращённые выдачи с истёкшим сроком
// вместе с почтой читателя и названием книги для уведомлений.
func (s *Storage) FindOverdueLoans(ctx context.Context) ([]*models.OverdueNotice, error) {
	const op = "storage.FindOverdueLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT l.id, u.email, u.username, b.title, l.expiration_date
			  FROM loans l
			  JOIN users u ON u.uid = l.user_uid
			  JOIN books b ON b.id = l.book_id
			  WHERE l.return_date IS NULL AND l.expiration_date < NOW()`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.OverdueNotice
	for rows.Next() {
		var n models.OverdueNotice
		if err = rows.Scan(&n.LoanID, &n.Email, &n.Username, &n.BookTitle, &n.ExpirationDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanLoan(row rowScanner, l *models.Loan) error {
	var returnDate sql.NullTime
	if err := row.Scan(&l.ID, &l.UserUID, &l.BookID, &l.LoanDate, &l.ExpirationDate,
		&returnDate, &l.Status, &l.FineAmount, &l.Renewals); err != nil {
		return err
	}
	if returnDate.Valid {
		l.ReturnDate = &returnDate.Time
	}
	return nil
}

func collectLoans(rows *sql.Rows, op string) ([]*models.Loan, error) {
	var result []*models.Loan
	for rows.Next() {
		var item models.Loan
		if err := scanLoan(rows, &item); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
