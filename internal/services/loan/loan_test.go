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
	"github.com/magabrotheeeer/library-loans/internal/lifecycle"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

// RepoMock повторяет контракт транзакционных методов хранилища: apply
// выполняется над копией зафиксированного состояния, его ошибка
// возвращается без сохранения.
type RepoMock struct {
	mock.Mock
	book models.Book
	loan models.Loan
}

func (m *RepoMock) ReserveTx(ctx context.Context, bookID int, apply func(book *models.Book) (models.Loan, error)) (*models.Loan, error) {
	args := m.Called(ctx, bookID)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	book := m.book
	loan, err := apply(&book)
	if err != nil {
		return nil, err
	}
	loan.ID = args.Int(0)
	m.book = book
	return &loan, nil
}

func (m *RepoMock) RenewTx(ctx context.Context, loanID int, apply func(loan *models.Loan) error) (*models.Loan, error) {
	args := m.Called(ctx, loanID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	loan := m.loan
	if err := apply(&loan); err != nil {
		return nil, err
	}
	m.loan = loan
	return &loan, nil
}

func (m *RepoMock) ReturnTx(ctx context.Context, loanID int, apply func(loan *models.Loan, book *models.Book) error) (*models.Loan, error) {
	args := m.Called(ctx, loanID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	loan, book := m.loan, m.book
	if err := apply(&loan, &book); err != nil {
		return nil, err
	}
	m.loan, m.book = loan, book
	return &loan, nil
}

func (m *RepoMock) ListLoans(ctx context.Context, userUID string, limit, offset int) ([]*models.Loan, error) {
	args := m.Called(ctx, userUID, limit, offset)
	return args.Get(0).([]*models.Loan), args.Error(1)
}

func (m *RepoMock) ListAllLoans(ctx context.Context, limit, offset int) ([]*models.Loan, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Loan), args.Error(1)
}

func (m *RepoMock) ListLoansForBook(ctx context.Context, bookID int) ([]*models.Loan, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).([]*models.Loan), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type MetricsMock struct{ mock.Mock }

func (m *MetricsMock) RecordReserve()                    { m.Called() }
func (m *MetricsMock) RecordRenew()                      { m.Called() }
func (m *MetricsMock) RecordReturn()                     { m.Called() }
func (m *MetricsMock) RecordRejection(operation string)  { m.Called(operation) }
func (m *MetricsMock) RecordFineAssessed(amount float64) { m.Called(amount) }

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "3f1a9c52-8f0e-4a6d-9f37-2d1c6f1a0b42"

func TestLoan_Reserve(t *testing.T) {
	tests := []struct {
		name       string
		book       models.Book
		setupMocks func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock)
		wantErr    error
	}{
		{
			name: "success reserve",
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 1},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReserveTx", mock.Anything, 7).Return(42, nil).Once()
				metrics.On("RecordReserve").Once()
				cache.On("Invalidate", "book:7").Return(nil).Once()
			},
		},
		{
			name: "no available copies",
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 0},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReserveTx", mock.Anything, 7).Return(0, nil).Once()
				metrics.On("RecordRejection", "reserve").Once()
			},
			wantErr: ledger.ErrUnavailable,
		},
		{
			name: "storage error",
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 1},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReserveTx", mock.Anything, 7).Return(0, errors.New("db down")).Once()
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{book: tt.book}
			cache := &CacheMock{}
			metrics := &MetricsMock{}
			tt.setupMocks(repo, cache, metrics)
			svc := NewLoanService(repo, cache, metrics, NewNoopLogger(), 14)

			loan, err := svc.Reserve(context.Background(), userUID, models.DummyReserve{BookID: 7})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 42, loan.ID)
				assert.Equal(t, userUID, loan.UserUID)
				assert.Equal(t, models.StatusOnLoan, loan.Status)
				assert.Equal(t, 0, repo.book.AvailableCopies)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestLoan_Renew(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name       string
		loan       models.Loan
		setupMocks func(repo *RepoMock, metrics *MetricsMock)
		wantErr    error
	}{
		{
			name: "success renew",
			loan: models.Loan{ID: 42, UserUID: userUID, ExpirationDate: now.AddDate(0, 0, 7), Status: models.StatusOnLoan},
			setupMocks: func(repo *RepoMock, metrics *MetricsMock) {
				repo.On("RenewTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordRenew").Once()
			},
		},
		{
			name: "foreign loan",
			loan: models.Loan{ID: 42, UserUID: "other-uid", ExpirationDate: now.AddDate(0, 0, 7)},
			setupMocks: func(repo *RepoMock, metrics *MetricsMock) {
				repo.On("RenewTx", mock.Anything, 42).Return(nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name: "overdue loan",
			loan: models.Loan{ID: 42, UserUID: userUID, ExpirationDate: now.AddDate(0, 0, -1)},
			setupMocks: func(repo *RepoMock, metrics *MetricsMock) {
				repo.On("RenewTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordRejection", "renew").Once()
			},
			wantErr: lifecycle.ErrNotRenewable,
		},
		{
			name: "renewals exhausted",
			loan: models.Loan{ID: 42, UserUID: userUID, ExpirationDate: now.AddDate(0, 0, 7), Renewals: 2},
			setupMocks: func(repo *RepoMock, metrics *MetricsMock) {
				repo.On("RenewTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordRejection", "renew").Once()
			},
			wantErr: lifecycle.ErrNotRenewable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{loan: tt.loan}
			cache := &CacheMock{}
			metrics := &MetricsMock{}
			tt.setupMocks(repo, metrics)
			svc := NewLoanService(repo, cache, metrics, NewNoopLogger(), 14)

			loan, err := svc.Renew(context.Background(), userUID, 42)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.loan.Renewals+1, loan.Renewals)
				assert.Equal(t, tt.loan.ExpirationDate.AddDate(0, 0, lifecycle.RenewalExtensionDays), loan.ExpirationDate)
			}
			repo.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestLoan_Return(t *testing.T) {
	now := time.Now().UTC()
	returned := now.AddDate(0, 0, -1)
	tests := []struct {
		name       string
		loan       models.Loan
		book       models.Book
		setupMocks func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock)
		wantErr    error
		wantFine   float64
	}{
		{
			name: "success return on time",
			loan: models.Loan{ID: 42, UserUID: userUID, BookID: 7, ExpirationDate: now.AddDate(0, 0, 7)},
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 2},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReturnTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordReturn").Once()
				cache.On("Invalidate", "book:7").Return(nil).Once()
			},
		},
		{
			name: "overdue return assesses fine",
			loan: models.Loan{ID: 42, UserUID: userUID, BookID: 7, ExpirationDate: now.AddDate(0, 0, -5)},
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 2},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReturnTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordReturn").Once()
				metrics.On("RecordFineAssessed", 5.0).Once()
				cache.On("Invalidate", "book:7").Return(nil).Once()
			},
			wantFine: 5.0,
		},
		{
			name: "already returned",
			loan: models.Loan{ID: 42, UserUID: userUID, BookID: 7, ReturnDate: &returned, Status: models.StatusReturned},
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 3},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReturnTx", mock.Anything, 42).Return(nil).Once()
				metrics.On("RecordRejection", "return").Once()
			},
			wantErr: lifecycle.ErrAlreadyReturned,
		},
		{
			name: "foreign loan",
			loan: models.Loan{ID: 42, UserUID: "other-uid", BookID: 7},
			book: models.Book{ID: 7, TotalCopies: 3, AvailableCopies: 2},
			setupMocks: func(repo *RepoMock, cache *CacheMock, metrics *MetricsMock) {
				repo.On("ReturnTx", mock.Anything, 42).Return(nil).Once()
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{loan: tt.loan, book: tt.book}
			cache := &CacheMock{}
			metrics := &MetricsMock{}
			tt.setupMocks(repo, cache, metrics)
			svc := NewLoanService(repo, cache, metrics, NewNoopLogger(), 14)

			loan, err := svc.Return(context.Background(), userUID, 42)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.StatusReturned, loan.Status)
				require.NotNil(t, loan.ReturnDate)
				assert.Equal(t, tt.wantFine, loan.FineAmount)
				assert.Equal(t, tt.book.AvailableCopies+1, repo.book.AvailableCopies)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestLoan_List(t *testing.T) {
	now := time.Now().UTC()
	overdueLoan := &models.Loan{ID: 1, UserUID: userUID, ExpirationDate: now.AddDate(0, 0, -3), Status: models.StatusOnLoan}
	activeLoan := &models.Loan{ID: 2, UserUID: userUID, ExpirationDate: now.AddDate(0, 0, 3), Status: models.StatusOnLoan}

	t.Run("reader sees own loans with refreshed status", func(t *testing.T) {
		repo := &RepoMock{}
		repo.On("ListLoans", mock.Anything, userUID, 20, 0).
			Return([]*models.Loan{overdueLoan, activeLoan}, nil).Once()
		svc := NewLoanService(repo, &CacheMock{}, &MetricsMock{}, NewNoopLogger(), 14)

		loans, err := svc.List(context.Background(), userUID, models.RoleUser, 20, 0)

		require.NoError(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, models.StatusOverdue, loans[0].Status)
		assert.Equal(t, 3.0, loans[0].FineAmount)
		assert.Equal(t, models.StatusOnLoan, loans[1].Status)
		repo.AssertExpectations(t)
	})

	t.Run("admin sees all loans", func(t *testing.T) {
		repo := &RepoMock{}
		repo.On("ListAllLoans", mock.Anything, 20, 0).
			Return([]*models.Loan{activeLoan}, nil).Once()
		svc := NewLoanService(repo, &CacheMock{}, &MetricsMock{}, NewNoopLogger(), 14)

		loans, err := svc.List(context.Background(), userUID, models.RoleAdmin, 20, 0)

		require.NoError(t, err)
		require.Len(t, loans, 1)
		repo.AssertExpectations(t)
	})
}

func TestLoan_ListForBook(t *testing.T) {
	now := time.Now().UTC()
	overdueLoan := &models.Loan{ID: 1, UserUID: userUID, BookID: 7, ExpirationDate: now.AddDate(0, 0, -5), Status: models.StatusOnLoan}

	repo := &RepoMock{}
	repo.On("ListLoansForBook", mock.Anything, 7).
		Return([]*models.Loan{overdueLoan}, nil).Once()
	svc := NewLoanService(repo, &CacheMock{}, &MetricsMock{}, NewNoopLogger(), 14)

	loans, err := svc.ListForBook(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, models.StatusOverdue, loans[0].Status)
	assert.Equal(t, 5.0, loans[0].FineAmount)
	repo.AssertExpectations(t)
}
