// Package amqp publishes ledger change events to RabbitMQ and reads them
// back for the watch command.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"jbudget/internal/log"
	"jbudget/internal/services"
)

const publishTimeout = 5 * time.Second

// Config describes the broker topology. Attempts is the number of dial
// attempts made before NewClient gives up.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Queue      string
	Attempts   uint64
}

// Client is a services.Notifier backed by a direct exchange.
type Client struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	cfg     Config
	logger  *log.Logger
}

var _ services.Notifier = (*Client)(nil)

// NewClient dials the broker, retrying connection failures with exponential
// backoff, and declares the exchange, queue and binding.
func NewClient(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAMQP)

	conn, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		logger:  logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func dial(ctx context.Context, cfg Config, logger *log.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	attempt := 0
	op := func() error {
		attempt++
		c, err := amqp091.Dial(cfg.URL)
		if err != nil {
			if !isConnectionError(err) {
				return backoff.Permanent(err)
			}
			logger.WarnContext(ctx, "AMQP dial failed", "attempt", attempt, log.FieldError, err.Error())
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx, cfg.Attempts)); err != nil {
		return nil, err
	}
	return conn, nil
}

// retryPolicy allows attempts tries in total, at least one.
func retryPolicy(ctx context.Context, attempts uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	var retries uint64
	if attempts > 1 {
		retries = attempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// isConnectionError reports whether err looks like a transient network
// failure worth retrying.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "connection closed", "broken pipe", "eof", "closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if c.cfg.Queue == "" {
		return nil
	}

	_, err = c.channel.QueueDeclare(
		c.cfg.Queue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.cfg.Queue,      // queue name
		c.cfg.RoutingKey, // routing key
		c.cfg.Exchange,   // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Notify implements services.Notifier
func (c *Client) Notify(ctx context.Context, e services.Event) error {
	msg, err := newPublishing(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	err = c.channel.PublishWithContext(
		ctx,
		c.cfg.Exchange,   // exchange
		c.cfg.RoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.DebugContext(ctx, "Published change event",
		"kind", e.Kind,
		"entity", e.Entity,
		"id", e.ID,
		"message_id", msg.MessageId,
		"exchange", c.cfg.Exchange)

	return nil
}

// Consume delivers events from the configured queue to handler until ctx is
// done. Undecodable messages are dropped; handler failures are requeued.
func (c *Client) Consume(ctx context.Context, handler func(services.Event) error) error {
	if c.cfg.Queue == "" {
		return errors.New("no queue configured")
	}
	msgs, err := c.channel.Consume(
		c.cfg.Queue, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming change events", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			e, err := DecodeEvent(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to decode event", log.FieldError, err.Error())
				delivery.Nack(false, false)
				continue
			}

			if err := handler(e); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle event",
					log.FieldError, err.Error(),
					"id", e.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
