package bookread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/storage/repository"
)

// MockService реализует интерфейс bookread.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, id int) (*models.Book, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Book), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestBookReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		urlID          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "успешное чтение книги",
			urlID: "42",
			setupMock: func(m *MockService) {
				book := &models.Book{
					ID:              42,
					ISBN:            "9785171183665",
					Title:           "Мастер и Маргарита",
					Author:          "Михаил Булгаков",
					TotalCopies:     3,
					AvailableCopies: 2,
				}
				m.On("Read", mock.Anything, 42).Return(book, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"ISBN":"9785171183665"`,
		},
		{
			name:           "некорректный id в URL",
			urlID:          "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid book id"`,
		},
		{
			name:  "книга не найдена",
			urlID: "99",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 99).Return(nil, repository.ErrBookNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"book not found"`,
		},
		{
			name:  "ошибка сервиса",
			urlID: "42",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 42).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not read book"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/books/"+tt.urlID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.urlID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
