package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, event CatalogEvent) error
	Close() error
}

type publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	// serializes publishes on the shared channel
	mu sync.Mutex
}

func NewPublisher(host string, port int, user, password string) (Publisher, error) {
	conn, channel, err := dial(host, port, user, password)
	if err != nil {
		return nil, err
	}
	return &publisher{conn: conn, channel: channel}, nil
}

// Publish sends event to the catalog exchange using its type as routing key.
func (p *publisher) Publish(ctx context.Context, event CatalogEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(
		ctx,
		catalogExchange, // exchange
		event.Type,      // routing key
		false,           // mandatory
		false,           // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

func (p *publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
