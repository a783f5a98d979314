package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/okravets/eventbooker/internal/domain"
)

const notificationsQueue = "notifications"

// Publisher hands notification records to the external delivery collaborator
// over RabbitMQ. Delivery itself is out of scope; messages are persistent so
// they survive broker restarts.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	const op = "rabbit.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if _, err := ch.QueueDeclare(
		notificationsQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

type notificationMsg struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	SentAt  int64  `json:"sent_at_unix"`
}

func (p *Publisher) PublishNotification(ctx context.Context, n domain.Notification) error {
	const op = "rabbit.Publisher.PublishNotification"

	body, err := json.Marshal(notificationMsg{
		UserID:  n.UserID,
		Message: n.Message,
		Kind:    n.Kind,
		SentAt:  n.SentAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx,
		"",                 // default exchange
		notificationsQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
