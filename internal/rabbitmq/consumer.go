package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/library-loans/internal/lib/sl"
)

// Consume запускает пул из workers обработчиков сообщений очереди.
// Сообщение подтверждается после успешной обработки, при ошибке обработчика —
// возвращается в очередь. Пул останавливается при отмене контекста
// или закрытии канала.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, workers int,
	log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.Consume"

	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for range workers {
		go func() {
			for {
				select {
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					if err := handler(d.Body); err != nil {
						log.Error("failed to handle message",
							slog.String("queue", queueName), sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						continue
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	return nil
}
