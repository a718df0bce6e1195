// Package rabbitmq publishes JSON messages to a RabbitMQ broker over a
// connection that is re-established in the background when it drops.
package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Client owns one connection and one channel.
type Client struct {
	cfg Config
	log logrus.FieldLogger

	mu     sync.RWMutex // guards everything below
	conn   *amqp.Connection
	ch     *amqp.Channel
	ready  bool
	closed bool

	// The library closes each notify channel when its owner shuts down, so
	// connection and channel need one each.
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
}

// NewClient dials the broker, retrying up to cfg.MaxRetries times with
// backoff. After the first successful dial, lost connections are redialed
// until Close.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	c := newClient(cfg)

	err := retry.New(
		retry.Attempts(uint(cfg.MaxRetries+1)),
		retry.Delay(cfg.ReconnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("Dial attempt %d failed: %v", n+1, err)
		})).Do(c.dial)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: connect: %w", err)
	}

	go c.watch()
	return c, nil
}

func newClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		cfg: cfg,
		log: logger.WithField("component", "rabbitmq"),
	}
}

// Close closes the channel and connection. Publishing afterwards fails
// with ErrShutdown.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.ready = false
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}

// IsReady reports whether messages can be published right now.
func (c *Client) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// watch waits for the connection or channel to drop and redials.
func (c *Client) watch() {
	for {
		c.mu.RLock()
		connClose, chanClose, closed := c.notifyConnClose, c.notifyChanClose, c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		var amqpErr *amqp.Error
		select {
		case amqpErr = <-connClose:
		case amqpErr = <-chanClose:
		}

		c.mu.Lock()
		closed = c.closed
		c.ready = false
		c.mu.Unlock()
		if closed {
			return
		}
		c.log.Warnf("Connection lost: %v", amqpErr)

		if !c.redial() {
			return
		}
		c.log.Info("Reconnected")
	}
}

// redial retries dial until it works or the client is closed.
func (c *Client) redial() bool {
	for {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return false
		}

		err := c.dial()
		if err == nil {
			return true
		}
		c.log.Debugf("Redial failed: %v. Next try in %v", err, c.cfg.ReconnectDelay)
		time.Sleep(c.cfg.ReconnectDelay)
	}
}

func (c *Client) dial() error {
	conn, err := amqp.DialConfig(c.cfg.URL, amqp.Config{
		Properties: amqp.Table{"connection_name": c.cfg.AppName},
	})
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	// The library sends at most one error before closing; a buffer of one
	// keeps that send from blocking its shutdown.
	connClose := conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClose := ch.NotifyClose(make(chan *amqp.Error, 1))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ch.Close()
		return conn.Close()
	}
	prev := c.conn
	c.conn, c.ch = conn, ch
	c.notifyConnClose, c.notifyChanClose = connClose, chanClose
	c.ready = true
	c.mu.Unlock()

	// A channel-level drop leaves the old connection open.
	if prev != nil && !prev.IsClosed() {
		_ = prev.Close()
	}
	return nil
}
