// Package models содержит доменную модель выдачи книги (loan).
// Переходы между статусами и начисление штрафа реализует пакет lifecycle.
package models

import "time"

// Статусы выдачи. Overdue — вычисляемый статус: он определяется текущим
// временем и ExpirationDate, в базе хранится только как кэш для отображения.
const (
	StatusOnLoan   = "OnLoan"
	StatusOverdue  = "Overdue"
	StatusReturned = "Returned"
)

// Loan представляет выдачу книги читателю. Запись никогда не удаляется
// физически — это исторический журнал. Либо Status == Returned и ReturnDate
// установлена, либо Status in {OnLoan, Overdue} и ReturnDate == nil.
type Loan struct {
	ID             int        // Суррогатный идентификатор
	UserUID        string     // Идентификатор читателя
	BookID         int        // Идентификатор книги
	LoanDate       time.Time  // Дата выдачи
	ExpirationDate time.Time  // Дата, до которой книгу нужно вернуть
	ReturnDate     *time.Time // Дата возврата, nil пока книга на руках
	Status         string     // Текущий статус выдачи
	FineAmount     float64    // Накопленный штраф в условных единицах
	Renewals       int        // Количество продлений, 0..2
}

// Outstanding сообщает, что книга ещё не возвращена.
func (l *Loan) Outstanding() bool {
	return l.ReturnDate == nil
}

// OverdueNotice содержит данные просроченной выдачи для почтового уведомления.
type OverdueNotice struct {
	LoanID         int
	Email          string
	Username       string
	BookTitle      string
	ExpirationDate time.Time
}

// DummyReserve используется для приёма данных бронирования из JSON-запроса.
type DummyReserve struct {
	BookID int `json:"book_id" validate:"required,gt=0"` // Идентификатор книги
}
