// Package ledger отвечает за инварианты количества экземпляров книги:
// 0 <= AvailableCopies <= TotalCopies. Все изменения счётчиков книги
// проходят только через этот пакет. Функции чистые, без обращения к базе:
// вызывающая сторона загружает книгу с блокировкой строки, применяет
// операцию и сохраняет результат в той же транзакции.
package ledger

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/library-loans/internal/models"
)

// ErrUnavailable возвращается, когда свободных экземпляров нет.
// Это бизнес-отказ: состояние книги не меняется.
var ErrUnavailable = errors.New("no available copies")

// ErrInvalidResize возвращается, когда новое общее количество экземпляров
// отрицательно или меньше числа книг на руках.
var ErrInvalidResize = errors.New("invalid total copies")

// ErrCopiesExceedTotal сигнализирует о нарушении инварианта: возврат
// экземпляра увеличил бы AvailableCopies выше TotalCopies. Это не
// бизнес-отказ, а признак ошибки в другом месте (например, двойной возврат),
// поэтому ошибка не маскируется.
var ErrCopiesExceedTotal = errors.New("available copies would exceed total copies")

// Reserve занимает один экземпляр книги. При отсутствии свободных
// экземпляров возвращает ErrUnavailable, не меняя книгу.
func Reserve(b *models.Book) error {
	const op = "ledger.Reserve"
	if b.AvailableCopies <= 0 {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	b.AvailableCopies--
	return nil
}

// Release возвращает один экземпляр книги. Превышение TotalCopies —
// нарушение инварианта, ошибка возвращается без изменения книги.
func Release(b *models.Book) error {
	const op = "ledger.Release"
	if b.AvailableCopies+1 > b.TotalCopies {
		return fmt.Errorf("%s: %w", op, ErrCopiesExceedTotal)
	}
	b.AvailableCopies++
	return nil
}

// Resize меняет общее количество экземпляров. Новое значение не может быть
// отрицательным или меньше числа книг на руках; AvailableCopies
// пересчитывается так, чтобы число выданных экземпляров не изменилось.
func Resize(b *models.Book, newTotal int) error {
	const op = "ledger.Resize"
	outstanding := b.TotalCopies - b.AvailableCopies
	if newTotal < 0 || newTotal < outstanding {
		return fmt.Errorf("%s: %w", op, ErrInvalidResize)
	}
	b.TotalCopies = newTotal
	b.AvailableCopies = newTotal - outstanding
	return nil
}
