// Package models содержит доменную модель пользователя библиотеки,
// включающую данные учётной записи, хэш пароля и роль.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

// Роли пользователей системы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного читателя или администратора.
type User struct {
	UUID         string // Уникальный идентификатор пользователя
	Email        string // Электронная почта (уникальная)
	Username     string // Имя пользователя
	PasswordHash string // Хэш пароля пользователя
	Role         string // Роль пользователя, admin или user
}

// DummyRegisterRequest используется для приёма данных регистрации из JSON-запроса.
type DummyRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// DummyLoginRequest используется для приёма данных входа из JSON-запроса.
type DummyLoginRequest struct {
	Email    string `json:"email" validate:"required,email"` // Электронная почта
	Password string `json:"password" validate:"required"`    // Пароль
}
