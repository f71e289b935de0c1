package rabbitmq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	catalogExchange   = "catalog_events"
	topRatedQueue     = "catalog_top_rated_refresh"
	productRoutingKey = "product.*"
	reviewRoutingKey  = "review.*"
	orderRoutingKey   = "order.created"
)

// CatalogEvent is published after a catalog or order write commits.
type CatalogEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id,omitempty"`
	OrderID    uint64    `json:"order_id,omitempty"`
	UserID     uint64    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func dial(host string, port int, user, password string) (*amqp091.Connection, *amqp091.Channel, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return nil, nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	// Declare the topic exchange every catalog event goes through
	err = channel.ExchangeDeclare(
		catalogExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-delete
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, err
	}

	return conn, channel, nil
}
