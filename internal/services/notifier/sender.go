package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
)

// SenderService отправляет почтовые уведомления о просроченных выдачах.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// Transport описывает отправку письма адресатам.
type Transport interface {
	Send(to []string, subject, body string) error
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendOverdueNotice отправляет читателю письмо о просроченной выдаче.
// Тело сообщения — models.OverdueNotice в JSON из очереди уведомлений.
func (s *SenderService) SendOverdueNotice(body []byte) error {
	var notice models.OverdueNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Уведомление о просроченной книге"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nСрок возврата книги «%s» истёк %s.\n\nПожалуйста, верните её в библиотеку: штраф растёт с каждым днём просрочки.",
		notice.Username, notice.BookTitle, notice.ExpirationDate.Format("02.01.2006"))

	if err := s.transport.Send([]string{notice.Email}, subject, text); err != nil {
		s.log.Error("failed to send overdue notice",
			slog.Int("loan_id", notice.LoanID), sl.Err(err))
		return err
	}

	s.log.Info("overdue notice sent",
		slog.Int("loan_id", notice.LoanID), slog.String("email", notice.Email))
	return nil
}
