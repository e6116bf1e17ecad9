package collaborator

import (
	"context"
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
)

const routingKeyPrefix = "reservation.status."

var (
	ErrBrokerDial         = errors.New("dial rabbitmq")
	ErrBrokerChannel      = errors.New("open rabbitmq channel")
	ErrExchangeDeclare    = errors.New("declare rabbitmq exchange")
	ErrNotificationEncode = errors.New("encode status change notification")
	ErrNotificationSend   = errors.New("publish status change notification")
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes notifications as JSON to a durable topic exchange.
// The routing key is reservation.status.<new status in lower case>.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Join(ErrBrokerDial, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrBrokerChannel, err)
	}

	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Join(ErrExchangeDeclare, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishStatusChanged(ctx context.Context, message ReservationStatusChanged) error {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(message)
	if err != nil {
		return errors.Join(ErrNotificationEncode, err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(message), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    message.ReservationID + ":" + string(message.NewStatus),
		Timestamp:    message.OccurredAt,
		Type:         "ReservationStatusChanged",
		Body:         body,
	})
	if err != nil {
		return errors.Join(ErrNotificationSend, err)
	}

	return nil
}

// RoutingKey returns the topic routing key for the message.
func RoutingKey(message ReservationStatusChanged) string {
	return routingKeyPrefix + strings.ToLower(string(message.NewStatus))
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}

	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}
