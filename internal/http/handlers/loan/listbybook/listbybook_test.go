package listbybook

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
)

// MockService реализует интерфейс listbybook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ListForBook(ctx context.Context, bookID int) ([]*models.Loan, error) {
	args := m.Called(ctx, bookID)
	if res := args.Get(0); res != nil {
		return res.([]*models.Loan), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestListByBookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		bookID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешный список выдач книги",
			bookID: "7",
			setupMock: func(m *MockService) {
				loans := []*models.Loan{
					{ID: 1, BookID: 7, Status: models.StatusOnLoan},
					{ID: 2, BookID: 7, Status: models.StatusOverdue, FineAmount: 3.0},
				}
				m.On("ListForBook", mock.Anything, 7).Return(loans, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "некорректный идентификатор книги",
			bookID:         "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid book id"`,
		},
		{
			name:   "ошибка сервиса",
			bookID: "7",
			setupMock: func(m *MockService) {
				m.On("ListForBook", mock.Anything, 7).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not list loans"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/books/"+tt.bookID+"/loans", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.bookID)
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
