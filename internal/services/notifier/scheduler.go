// Package services содержит уведомление читателей о просроченных выдачах:
// планировщик находит просрочки и публикует их в очередь, отправитель
// потребляет очередь и рассылает письма. Оба работают отдельными
// процессами — основной сервис фоновых задач не держит.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
	"github.com/magabrotheeeer/library-loans/internal/models"
	"github.com/magabrotheeeer/library-loans/internal/rabbitmq"
)

// LoanRepository описывает выборку просроченных выдач для уведомлений.
type LoanRepository interface {
	FindOverdueLoans(ctx context.Context) ([]*models.OverdueNotice, error)
}

// SchedulerService периодически находит просроченные выдачи
// и публикует уведомления в RabbitMQ.
type SchedulerService struct {
	repo LoanRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo LoanRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// FindOverdueLoans запускает поиск просрочек сразу и далее раз в сутки,
// пока не отменён контекст.
func (s *SchedulerService) FindOverdueLoans(ctx context.Context, channel *amqp.Channel) {
	s.runFindOverdueLoans(ctx, channel)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runFindOverdueLoans(ctx, channel)
		case <-ctx.Done():
			s.log.Info("overdue loans scheduler stopped")
			return
		}
	}
}

func (s *SchedulerService) runFindOverdueLoans(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find overdue loans")
	notices, err := s.repo.FindOverdueLoans(ctx)
	if err != nil {
		s.log.Error("failed to find overdue loans", sl.Err(err))
		return
	}
	if len(notices) == 0 {
		s.log.Info("no overdue loans found")
		return
	}
	s.log.Info("found overdue loans", "count", len(notices))
	for _, notice := range notices {
		err = rabbitmq.PublishMessage(channel, "notifications", "overdue", notice)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
