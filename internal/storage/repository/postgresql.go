// Package repository реализует хранилище данных на основе PostgreSQL
// для управления каталогом книг, пользователями и выдачами. Каждая
// изменяющая операция над парой книга+выдача выполняется одной транзакцией
// с блокировкой строк (SELECT ... FOR UPDATE), чтобы два конкурентных
// бронирования не увидели один и тот же последний экземпляр.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки отсутствия записей. Сервисный слой транслирует их
// в бизнес-отказы NotFound без повторных запросов.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrLoanNotFound = errors.New("loan not found")
	ErrUserNotFound = errors.New("user not found")
)

// Ошибки нарушения уникальности. Ограничения проверяет база, сюда
// они попадают через pgerrcode.UniqueViolation.
var (
	ErrDuplicateISBN  = errors.New("book with this isbn already exists")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с книгами, выдачами и пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'loans'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table loans missing or query error: %w", err)
	}
	return nil
}
