// Package sender собирает приложение отправки почтовых уведомлений
// о просроченных выдачах.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/library-loans/internal/config"
	"github.com/magabrotheeeer/library-loans/internal/lib/smtp"
	"github.com/magabrotheeeer/library-loans/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/library-loans/internal/services/notifier"
)

// App объединяет подключение к RabbitMQ и сервис отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает приложение: подключается к RabbitMQ и настраивает канал.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Количество параллельных обработчиков очереди уведомлений.
// Совпадает с prefetch-лимитом канала, выставляемым в SetupChannel.
const consumerWorkers = 10

// Run запускает потребителя очереди уведомлений и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.Consume(ctx, a.ch, "notifications.overdue", consumerWorkers, a.logger, a.senderService.SendOverdueNotice)
	if err != nil {
		a.logger.Error("failed to start notifications.overdue consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
