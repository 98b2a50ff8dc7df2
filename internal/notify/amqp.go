package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"call-quality-go/internal/logger"
)

// AMQPPublisher publishes alerts as persistent JSON messages to a durable queue.
type AMQPPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *logger.Logger
}

func NewAMQPPublisher(url, queue string, log *logger.Logger) (*AMQPPublisher, error) {
	if log == nil {
		log = logger.Discard()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	log.Component("notify.amqp").WithField("queue", queue).Info("connected to amqp broker")
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, log: log.Component("notify.amqp")}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := alert.Encode()
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    alert.CallID,
		Timestamp:    alert.Timestamp,
		Type:         "call_quality.alert",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.CallID, err)
	}
	p.log.ForCall(alert.CallID).Debug("alert published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
