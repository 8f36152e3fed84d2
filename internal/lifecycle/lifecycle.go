// Package lifecycle реализует машину состояний выдачи книги:
// OnLoan -> Overdue -> Returned. Overdue — не отдельный переход,
// а вычисляемый статус: он определяется текущим временем и датой
// истечения, штраф пересчитывается при каждом обращении через Refresh.
// Функции чистые и работают только с переданным Loan; сохранение
// результата — забота вызывающего сервиса.
package lifecycle

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

const (
	// DefaultPeriodDays — срок выдачи по умолчанию.
	DefaultPeriodDays = 14
	// RenewalExtensionDays — на сколько дней продление сдвигает дату истечения.
	RenewalExtensionDays = 14
	// MaxRenewals — максимальное количество продлений одной выдачи.
	MaxRenewals = 2
	// DailyFineRate — штраф за каждый полный день просрочки.
	DailyFineRate = 1.0
)

// ErrNotRenewable возвращается, когда выдачу нельзя продлить:
// исчерпан лимит продлений, книга просрочена или уже возвращена.
// Выдача при этом не меняется.
var ErrNotRenewable = errors.New("loan is not renewable")

// ErrAlreadyReturned возвращается при попытке вернуть уже возвращённую книгу.
var ErrAlreadyReturned = errors.New("loan is already returned")

// New создаёт выдачу в статусе OnLoan. При periodDays <= 0 используется
// срок по умолчанию.
func New(userUID string, bookID int, now time.Time, periodDays int) models.Loan {
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	return models.Loan{
		UserUID:        userUID,
		BookID:         bookID,
		LoanDate:       now,
		ExpirationDate: now.AddDate(0, 0, periodDays),
		Status:         models.StatusOnLoan,
		FineAmount:     0,
		Renewals:       0,
	}
}

// Overdue сообщает, просрочена ли невозвращённая выдача на момент now.
// Сравнение строгое: выдача, истекающая ровно сейчас, ещё не просрочена.
func Overdue(l *models.Loan, now time.Time) bool {
	return l.ReturnDate == nil && now.After(l.ExpirationDate)
}

// Refresh пересчитывает вычисляемый статус и штраф на момент now.
// Вызов идемпотентен: повторный пересчёт до следующего изменения состояния
// даёт тот же результат и никогда не обнуляет штраф просроченной выдачи.
// Возвращённую выдачу Refresh не трогает — её штраф заморожен.
func Refresh(l *models.Loan, now time.Time) {
	if l.ReturnDate != nil {
		return
	}
	if !Overdue(l, now) {
		l.Status = models.StatusOnLoan
		return
	}
	l.Status = models.StatusOverdue
	daysOverdue := math.Floor(now.Sub(l.ExpirationDate).Hours() / 24)
	l.FineAmount = daysOverdue * DailyFineRate
}

// Renew продлевает выдачу на RenewalExtensionDays. Продление возможно,
// пока не исчерпан лимит, книга не возвращена и не просрочена на момент now.
// При отказе выдача остаётся без изменений.
func Renew(l *models.Loan, now time.Time) error {
	const op = "lifecycle.Renew"
	if l.ReturnDate != nil || l.Renewals >= MaxRenewals || Overdue(l, now) {
		return fmt.Errorf("%s: %w", op, ErrNotRenewable)
	}
	Refresh(l, now)
	l.ExpirationDate = l.ExpirationDate.AddDate(0, 0, RenewalExtensionDays)
	l.Renewals++
	return nil
}

// Return завершает выдачу: штраф фиксируется пересчётом на момент возврата,
// после чего он больше не растёт. Повторный возврат — ошибка
// ErrAlreadyReturned, состояние не меняется.
func Return(l *models.Loan, now time.Time) error {
	const op = "lifecycle.Return"
	if l.ReturnDate != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyReturned)
	}
	Refresh(l, now)
	l.ReturnDate = &now
	l.Status = models.StatusReturned
	return nil
}
