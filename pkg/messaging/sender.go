package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func exchangeName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// DefineTopic declares the durable topic exchange for topic.
func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	return ch.ExchangeDeclare(
		exchangeName(prefix, topic),
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // noWait
		nil,
	)
}

// Publisher sends json messages to topic exchanges. It keeps one channel and
// reopens it if the broker closed it.
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	prefix string
}

func NewPublisher(conn *amqp.Connection, prefix string, topics ...ChangeTopic) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	for _, topic := range topics {
		if err := DefineTopic(ch, prefix, topic); err != nil {
			ch.Close()
			return nil, fmt.Errorf("define topic %s: %w", topic, err)
		}
	}
	return &Publisher{conn: conn, ch: ch, prefix: prefix}, nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) Publish(ctx context.Context, topic ChangeTopic, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("reopen publish channel: %w", err)
	}
	name := exchangeName(p.prefix, topic)
	return ch.PublishWithContext(ctx, name, name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch.Close()
}
