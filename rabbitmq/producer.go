package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	retry "github.com/avast/retry-go/v5"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultRetryStart = 100 * time.Millisecond

// Publish sends payload once as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, payload any, p Publishing) error {
	if err := p.validate(); err != nil {
		return err
	}

	c.mu.RLock()
	ch, ready, closed := c.ch, c.ready, c.closed
	c.mu.RUnlock()
	switch {
	case closed:
		return ErrShutdown
	case !ready:
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &EncodeError{Err: err}
	}

	return ch.PublishWithContext(ctx, p.Exchange, p.RoutingKey, p.Mandatory, false, amqp.Publishing{
		AppId:        c.cfg.AppName,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// PublishWithRetry publishes payload, retrying transient failures with
// exponential backoff up to p.RetryMax times or until ctx is done.
func (c *Client) PublishWithRetry(ctx context.Context, payload any, p Publishing) error {
	if p.RetryStart <= 0 {
		p.RetryStart = defaultRetryStart
	}
	if p.RetryMax < 0 {
		p.RetryMax = 0
	}

	return retry.New(
		retry.Attempts(uint(p.RetryMax+1)),
		retry.Delay(p.RetryStart),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool { return !permanent(err) }),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("Publish attempt %d failed: %v", n+1, err)
		})).Do(func() error {
		return c.Publish(ctx, payload, p)
	})
}
