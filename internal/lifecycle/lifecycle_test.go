package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	loan := New("user-uid", 7, base, 14)

	assert.Equal(t, "user-uid", loan.UserUID)
	assert.Equal(t, 7, loan.BookID)
	assert.Equal(t, base, loan.LoanDate)
	assert.Equal(t, base.AddDate(0, 0, 14), loan.ExpirationDate)
	assert.Equal(t, models.StatusOnLoan, loan.Status)
	assert.Zero(t, loan.FineAmount)
	assert.Zero(t, loan.Renewals)
	assert.Nil(t, loan.ReturnDate)
}

func TestNew_DefaultPeriod(t *testing.T) {
	loan := New("user-uid", 7, base, 0)
	assert.Equal(t, base.AddDate(0, 0, DefaultPeriodDays), loan.ExpirationDate)
}

func TestOverdue(t *testing.T) {
	returned := base.Add(time.Hour)
	tests := []struct {
		name string
		loan models.Loan
		now  time.Time
		want bool
	}{
		{
			name: "before expiration",
			loan: models.Loan{ExpirationDate: base},
			now:  base.Add(-time.Hour),
			want: false,
		},
		{
			name: "exactly at expiration",
			loan: models.Loan{ExpirationDate: base},
			now:  base,
			want: false,
		},
		{
			name: "after expiration",
			loan: models.Loan{ExpirationDate: base},
			now:  base.Add(time.Second),
			want: true,
		},
		{
			name: "returned loan is never overdue",
			loan: models.Loan{ExpirationDate: base, ReturnDate: &returned},
			now:  base.AddDate(0, 0, 30),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overdue(&tt.loan, tt.now))
		})
	}
}

func TestRefresh_FineIsFloorOfFullDays(t *testing.T) {
	tests := []struct {
		name       string
		elapsed    time.Duration
		wantStatus string
		wantFine   float64
	}{
		{
			name:       "not yet expired",
			elapsed:    -time.Hour,
			wantStatus: models.StatusOnLoan,
			wantFine:   0,
		},
		{
			name:       "overdue by a few hours",
			elapsed:    3 * time.Hour,
			wantStatus: models.StatusOverdue,
			wantFine:   0,
		},
		{
			name:       "overdue by five days and three hours",
			elapsed:    5*24*time.Hour + 3*time.Hour,
			wantStatus: models.StatusOverdue,
			wantFine:   5,
		},
		{
			name:       "overdue by twenty days",
			elapsed:    20 * 24 * time.Hour,
			wantStatus: models.StatusOverdue,
			wantFine:   20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := models.Loan{
				ExpirationDate: base,
				Status:         models.StatusOnLoan,
			}
			Refresh(&loan, base.Add(tt.elapsed))
			assert.Equal(t, tt.wantStatus, loan.Status)
			assert.Equal(t, tt.wantFine, loan.FineAmount)
		})
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	loan := models.Loan{ExpirationDate: base}
	now := base.AddDate(0, 0, 3)

	Refresh(&loan, now)
	first := loan
	Refresh(&loan, now)

	assert.Equal(t, first, loan)
}

func TestRefresh_ReturnedLoanIsFrozen(t *testing.T) {
	returned := base.AddDate(0, 0, 5)
	loan := models.Loan{
		ExpirationDate: base,
		ReturnDate:     &returned,
		Status:         models.StatusReturned,
		FineAmount:     5,
	}

	Refresh(&loan, base.AddDate(0, 0, 30))

	assert.Equal(t, models.StatusReturned, loan.Status)
	assert.Equal(t, 5.0, loan.FineAmount)
}

func TestRenew(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	firstExpiration := loan.ExpirationDate
	now := base.AddDate(0, 0, 1)

	require.NoError(t, Renew(&loan, now))
	assert.Equal(t, firstExpiration.AddDate(0, 0, RenewalExtensionDays), loan.ExpirationDate)
	assert.Equal(t, 1, loan.Renewals)

	require.NoError(t, Renew(&loan, now))
	assert.Equal(t, 2, loan.Renewals)

	err := Renew(&loan, now)
	require.ErrorIs(t, err, ErrNotRenewable)
	assert.Equal(t, 2, loan.Renewals)
	assert.Equal(t, firstExpiration.AddDate(0, 0, 2*RenewalExtensionDays), loan.ExpirationDate)
}

func TestRenew_ExactlyAtExpiration(t *testing.T) {
	loan := New("user-uid", 7, base, 14)

	// выдача, истекающая ровно сейчас, ещё не просрочена и продлевается
	err := Renew(&loan, loan.ExpirationDate)
	require.NoError(t, err)
	assert.Equal(t, 1, loan.Renewals)
}

func TestRenew_OverdueLoan(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	expiration := loan.ExpirationDate

	err := Renew(&loan, expiration.Add(time.Second))
	require.ErrorIs(t, err, ErrNotRenewable)
	assert.Equal(t, 0, loan.Renewals)
	assert.Equal(t, expiration, loan.ExpirationDate)
}

func TestRenew_ReturnedLoan(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	require.NoError(t, Return(&loan, base.AddDate(0, 0, 1)))

	err := Renew(&loan, base.AddDate(0, 0, 2))
	require.ErrorIs(t, err, ErrNotRenewable)
}

func TestReturn(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	now := base.AddDate(0, 0, 3)

	require.NoError(t, Return(&loan, now))
	assert.Equal(t, models.StatusReturned, loan.Status)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, now, *loan.ReturnDate)
	assert.Zero(t, loan.FineAmount)
}

func TestReturn_OverdueFreezesFine(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	now := loan.ExpirationDate.AddDate(0, 0, 20)

	require.NoError(t, Return(&loan, now))
	assert.Equal(t, models.StatusReturned, loan.Status)
	assert.Equal(t, 20.0, loan.FineAmount)

	// дальнейший пересчёт штраф не меняет
	Refresh(&loan, now.AddDate(0, 0, 10))
	assert.Equal(t, 20.0, loan.FineAmount)
}

func TestReturn_Twice(t *testing.T) {
	loan := New("user-uid", 7, base, 14)
	now := base.AddDate(0, 0, 3)
	require.NoError(t, Return(&loan, now))
	returned := *loan.ReturnDate

	err := Return(&loan, now.AddDate(0, 0, 1))
	require.ErrorIs(t, err, ErrAlreadyReturned)
	assert.Equal(t, returned, *loan.ReturnDate)
}
