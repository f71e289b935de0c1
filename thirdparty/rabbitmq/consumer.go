package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/muhammadheryan/storefront/utils/logger"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrRefreshRejected marks a refresh the API refused outright, such as a bad
// internal key. Retrying the same delivery cannot succeed.
var ErrRefreshRejected = errors.New("refresh rejected")

// Consumer re-warms the top-rated cache whenever a catalog event arrives,
// by calling the service's internal refresh endpoint.
type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	apiURL  string
	apiKey  string
	client  *http.Client
}

func NewConsumer(host string, port int, user, password, apiURL, apiKey string) (*Consumer, error) {
	conn, channel, err := dial(host, port, user, password)
	if err != nil {
		return nil, err
	}

	// Declare the queue
	_, err = channel.QueueDeclare(
		topRatedQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	for _, key := range []string{productRoutingKey, reviewRoutingKey, orderRoutingKey} {
		if err := channel.QueueBind(topRatedQueue, key, catalogExchange, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, err
		}
	}

	return &Consumer{
		conn:    conn,
		channel: channel,
		apiURL:  apiURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	// Set QoS to 1 - process one message at a time
	err := c.channel.Qos(1, 0, false)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		topRatedQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				if err := c.handle(ctx, msg.Body); err != nil {
					logger.Error("[Consumer] refresh top rated failed", zap.String("error", err.Error()))
					// Requeue unless the API refused the call itself
					_ = msg.Nack(false, !errors.Is(err, ErrRefreshRejected))
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

// handle processes one delivery. Malformed bodies are dropped rather than
// requeued.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var event CatalogEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("[Consumer] dropping malformed event", zap.String("error", err.Error()))
		return nil
	}

	if err := c.callRefreshAPI(ctx); err != nil {
		return fmt.Errorf("event %s on product %s: %w", event.Type, event.ProductID, err)
	}

	logger.Debug("[Consumer] top rated refreshed", zap.String("event", event.Type), zap.String("product_id", event.ProductID))
	return nil
}

func (c *Consumer) callRefreshAPI(ctx context.Context) error {
	url := fmt.Sprintf("%s/internal/v1/products/top/refresh", c.apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	// Add authorization header using the API key (internal service key)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("X-Internal-Service", "catalog-cache-consumer")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: API returned status %d: %s", ErrRefreshRejected, resp.StatusCode, string(body))
	default:
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
