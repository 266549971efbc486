package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
)

const (
	DefaultExchange = "identity.events"

	RoutingKeyEmailRequested = "identity.email.send.requested"

	// Minimum window to wait for Return / Confirm.
	publishWait = 500 * time.Millisecond
	// Grace period for a Return frame that trails the Ack.
	returnGrace = 20 * time.Millisecond
)

// EmailRequested is the payload consumed by the email worker.
type EmailRequested struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	HTMLBody    string    `json:"html_body"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher hands account emails to the broker with publisher confirms.
type Publisher struct {
	url      string
	exchange string
	now      func() time.Time

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
		now:      time.Now,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetConn()
	return nil
}

// Send implements auth.Mailer.
func (p *Publisher) Send(ctx context.Context, msg auth.EmailMessage) error {
	return p.publishJSON(ctx, RoutingKeyEmailRequested, newEmailRequested(msg, p.now()))
}

func newEmailRequested(msg auth.EmailMessage, now time.Time) EmailRequested {
	return EmailRequested{
		To:          msg.To,
		Subject:     msg.Subject,
		HTMLBody:    msg.HTMLBody,
		RequestedAt: now.UTC(),
	}
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) ensureConnected() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	return p.connect()
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}

	// Drain stale confirms / returns from an earlier publish.
drain:
	for {
		select {
		case <-p.confirmCh:
		case <-p.returnCh:
		default:
			break drain
		}
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
			Body:         body,
		},
	); err != nil {
		p.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	return awaitConfirm(ctx, routingKey, p.confirmCh, p.returnCh, publishWait)
}

// awaitConfirm waits for the broker's verdict on a mandatory, confirmed publish.
func awaitConfirm(ctx context.Context, routingKey string, confirms <-chan amqp.Confirmation, returns <-chan amqp.Return, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ret := <-returns:
		return unroutable(routingKey, ret)

	case conf := <-confirms:
		// The Return frame, when present, is sent before the Ack but may be
		// dispatched on its own goroutine.
		grace := time.NewTimer(returnGrace)
		defer grace.Stop()
		select {
		case ret := <-returns:
			return unroutable(routingKey, ret)
		case <-grace.C:
		}

		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("rabbitmq publish timeout: key=%s", routingKey)

	case <-ctx.Done():
		return ctx.Err()
	}
}

func unroutable(routingKey string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)
}

func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
