// Package services содержит бизнес-логику жизненного цикла выдачи книг:
// бронирование, продление, возврат и чтение списков. Правила по экземплярам
// применяет пакет ledger, правила по статусам и штрафам — пакет lifecycle;
// сервис соединяет их с хранилищем так, чтобы книга и выдача менялись
// одной транзакцией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/library-loans/internal/ledger"
	"github.com/magabrotheeeer/library-loans/internal/lifecycle"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

// ErrForbidden возвращается при попытке работать с чужой выдачей.
var ErrForbidden = errors.New("loan belongs to another user")

// LoanRepository определяет методы для работы с выдачами в хранилище.
// Транзакционные методы загружают строки с блокировкой, применяют apply
// и сохраняют результат атомарно; ошибка apply откатывает транзакцию.
type LoanRepository interface {
	// ReserveTx бронирует книгу: блокирует строку книги, применяет apply
	// и сохраняет книгу вместе с новой выдачей.
	ReserveTx(ctx context.Context, bookID int, apply func(book *models.Book) (models.Loan, error)) (*models.Loan, error)
	// RenewTx продлевает выдачу: блокирует строку выдачи, применяет apply
	// и сохраняет выдачу.
	RenewTx(ctx context.Context, loanID int, apply func(loan *models.Loan) error) (*models.Loan, error)
	// ReturnTx возвращает книгу: блокирует строки выдачи и книги,
	// применяет apply и сохраняет обе записи.
	ReturnTx(ctx context.Context, loanID int, apply func(loan *models.Loan, book *models.Book) error) (*models.Loan, error)
	// ListLoans возвращает список выдач пользователя с пагинацией.
	ListLoans(ctx context.Context, userUID string, limit, offset int) ([]*models.Loan, error)
	// ListAllLoans возвращает список всех выдач с пагинацией.
	ListAllLoans(ctx context.Context, limit, offset int) ([]*models.Loan, error)
	// ListLoansForBook возвращает все выдачи по книге.
	ListLoansForBook(ctx context.Context, bookID int) ([]*models.Loan, error)
}

// Cache описывает инвалидацию кеша каталога: изменение счётчиков книги
// делает закешированные карточки устаревшими.
type Cache interface {
	Invalidate(key string) error
}

// Metrics описывает счётчики операций с выдачами.
type Metrics interface {
	RecordReserve()
	RecordRenew()
	RecordReturn()
	RecordRejection(operation string)
	RecordFineAssessed(amount float64)
}

// LoanService реализует бизнес-логику работы с выдачами.
type LoanService struct {
	repo       LoanRepository
	cache      Cache
	metrics    Metrics
	log        *slog.Logger
	periodDays int
}

// NewLoanService создает новый экземпляр LoanService. При periodDays <= 0
// используется срок выдачи по умолчанию.
func NewLoanService(repo LoanRepository, cache Cache, metrics Metrics, log *slog.Logger, periodDays int) *LoanService {
	if periodDays <= 0 {
		periodDays = lifecycle.DefaultPeriodDays
	}
	return &LoanService{
		repo:       repo,
		cache:      cache,
		metrics:    metrics,
		log:        log,
		periodDays: periodDays,
	}
}

// Reserve бронирует экземпляр книги для пользователя: списывает экземпляр
// и создаёт выдачу одной транзакцией. Отказы: repository.ErrBookNotFound,
// ledger.ErrUnavailable.
func (s *LoanService) Reserve(ctx context.Context, userUID string, req models.DummyReserve) (*models.Loan, error) {
	now := time.Now().UTC()

	loan, err := s.repo.ReserveTx(ctx, req.BookID, func(book *models.Book) (models.Loan, error) {
		if err := ledger.Reserve(book); err != nil {
			return models.Loan{}, err
		}
		return lifecycle.New(userUID, book.ID, now, s.periodDays), nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			s.metrics.RecordRejection("reserve")
		}
		return nil, err
	}

	s.metrics.RecordReserve()
	s.log.Info("reserved book",
		slog.Int("loan_id", loan.ID), slog.Int("book_id", loan.BookID))

	s.invalidateBook(loan.BookID)
	return loan, nil
}

// Renew продлевает выдачу пользователя. Отказы: repository.ErrLoanNotFound,
// ErrForbidden для чужой выдачи, lifecycle.ErrNotRenewable.
func (s *LoanService) Renew(ctx context.Context, userUID string, loanID int) (*models.Loan, error) {
	now := time.Now().UTC()

	loan, err := s.repo.RenewTx(ctx, loanID, func(loan *models.Loan) error {
		if loan.UserUID != userUID {
			return ErrForbidden
		}
		return lifecycle.Renew(loan, now)
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotRenewable) {
			s.metrics.RecordRejection("renew")
		}
		return nil, err
	}

	s.metrics.RecordRenew()
	s.log.Info("renewed loan",
		slog.Int("loan_id", loan.ID), slog.Int("renewals", loan.Renewals))
	return loan, nil
}

// Return завершает выдачу: фиксирует штраф, освобождает экземпляр книги
// и сохраняет обе записи одной транзакцией. Отказы: repository.ErrLoanNotFound,
// ErrForbidden, lifecycle.ErrAlreadyReturned.
func (s *LoanService) Return(ctx context.Context, userUID string, loanID int) (*models.Loan, error) {
	now := time.Now().UTC()

	loan, err := s.repo.ReturnTx(ctx, loanID, func(loan *models.Loan, book *models.Book) error {
		if loan.UserUID != userUID {
			return ErrForbidden
		}
		if err := lifecycle.Return(loan, now); err != nil {
			return err
		}
		return ledger.Release(book)
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyReturned) {
			s.metrics.RecordRejection("return")
		}
		return nil, err
	}

	s.metrics.RecordReturn()
	if loan.FineAmount > 0 {
		s.metrics.RecordFineAssessed(loan.FineAmount)
	}
	s.log.Info("returned loan",
		slog.Int("loan_id", loan.ID), slog.Float64("fine_amount", loan.FineAmount))

	s.invalidateBook(loan.BookID)
	return loan, nil
}

// List возвращает список выдач в зависимости от роли пользователя:
// администратор видит все выдачи, читатель — только свои. Перед отдачей
// статус и штраф каждой выдачи пересчитываются на текущий момент, чтобы
// наружу не ушло устаревшее сохранённое значение.
func (s *LoanService) List(ctx context.Context, userUID, role string, limit, offset int) ([]*models.Loan, error) {
	var err error
	var loans []*models.Loan
	if role == models.RoleAdmin {
		loans, err = s.repo.ListAllLoans(ctx, limit, offset)
	} else {
		loans, err = s.repo.ListLoans(ctx, userUID, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, loan := range loans {
		lifecycle.Refresh(loan, now)
	}
	return loans, nil
}

// ListForBook возвращает историю выдач одной книги для административного
// аудита фонда. Статус и штраф пересчитываются так же, как в List.
func (s *LoanService) ListForBook(ctx context.Context, bookID int) ([]*models.Loan, error) {
	loans, err := s.repo.ListLoansForBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, loan := range loans {
		lifecycle.Refresh(loan, now)
	}
	return loans, nil
}

func (s *LoanService) invalidateBook(bookID int) {
	key := fmt.Sprintf("book:%d", bookID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), slog.Any("err", err))
	}
}
