package messaging

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// subscribe binds a private, auto deleted queue to the topic exchange so
// every listening instance gets its own copy of each message.
func subscribe(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := exchangeName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // server named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue for %s: %w", name, err)
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue to %s: %w", name, err)
	}
	return ch.Consume(q.Name, "", false, true, false, false, nil)
}

// ListenToTopic consumes topic on ch until the channel closes. Deliveries the
// handler fails on are rejected without requeue so a bad message cannot loop.
func ListenToTopic(logger *zap.Logger, ch *amqp.Channel, prefix string, topic ChangeTopic, handler func(amqp.Delivery) error) error {
	if err := DefineTopic(ch, prefix, topic); err != nil {
		return err
	}
	deliveries, err := subscribe(ch, prefix, topic)
	if err != nil {
		return err
	}

	go func() {
		defer ch.Close()
		for d := range deliveries {
			if err := handler(d); err != nil {
				logger.Warn("error processing message", zap.String("topic", string(topic)), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
		logger.Info("stopped listening", zap.String("topic", string(topic)))
	}()
	return nil
}
