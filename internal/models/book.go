// Package models содержит доменную модель книги каталога.
// Инварианты по количеству экземпляров поддерживает пакет ledger,
// напрямую поля TotalCopies и AvailableCopies бизнес-логика не меняет.
package models

// Book представляет книгу каталога библиотеки.
// Всегда выполняется 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              int     // Суррогатный идентификатор
	ISBN            string  // Нормализованный ISBN (без дефисов и пробелов), уникальный
	Title           string  // Название книги
	Author          string  // Автор книги
	Genre           *string // Жанр (опционально)
	CoverURL        *string // Ссылка на обложку (опционально)
	TotalCopies     int     // Общее количество экземпляров
	AvailableCopies int     // Количество доступных экземпляров
}

// DummyBook используется для приёма данных новой книги из JSON-запроса,
// прежде чем конвертировать их в Book. Название и автор опциональны:
// отсутствующие поля заполняются из внешнего источника метаданных по ISBN.
type DummyBook struct {
	ISBN        string `json:"isbn" validate:"required"`               // ISBN, допускаются дефисы и пробелы
	Title       string `json:"title,omitempty" validate:"omitempty"`   // Название
	Author      string `json:"author,omitempty" validate:"omitempty"`  // Автор
	Genre       string `json:"genre,omitempty"`                        // Жанр (опционально)
	TotalCopies int    `json:"total_copies" validate:"required,gte=0"` // Общее количество экземпляров
}

// BookMetadata содержит данные книги, полученные из внешнего источника
// метаданных по ISBN. Любое поле может отсутствовать.
type BookMetadata struct {
	Title    string
	Author   string
	CoverURL string
}

// DummyResize используется для приёма нового количества экземпляров из JSON-запроса.
type DummyResize struct {
	TotalCopies int `json:"total_copies" validate:"gte=0"` // Новое общее количество экземпляров
}
