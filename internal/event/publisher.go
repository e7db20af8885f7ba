package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

const publishTimeout = 5 * time.Second

// Publisher emits domain events. Implementations never block callers on a
// broker outage for longer than publishTimeout.
type Publisher interface {
	PublishResult(ctx context.Context, res *model.Result) error
	PublishExamSaved(ctx context.Context, e *model.Exam) error
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	log      zerolog.Logger
}

// NewAMQPPublisher connects to url and declares exchange. An empty url yields
// a disabled publisher that drops every event.
func NewAMQPPublisher(url, exchange string, log zerolog.Logger) (*AMQPPublisher, error) {
	log = log.With().Str("component", "event_publisher").Logger()
	if url == "" {
		log.Warn().Msg("AMQP_URL is empty, event publishing is disabled")
		return &AMQPPublisher{log: log}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ connected")

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		log:      log,
	}, nil
}

// Enabled reports whether events reach a broker.
func (p *AMQPPublisher) Enabled() bool { return p.enabled }

func (p *AMQPPublisher) publish(ctx context.Context, routingKey Type, event any) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,
		string(routingKey),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug().Str("routing_key", string(routingKey)).Msg("Published event")
	return nil
}

// PublishResult announces a stored result.
func (p *AMQPPublisher) PublishResult(ctx context.Context, res *model.Result) error {
	return p.publish(ctx, TypeResultRecorded, NewResultRecorded(res))
}

// PublishExamSaved announces a created or replaced exam.
func (p *AMQPPublisher) PublishExamSaved(ctx context.Context, e *model.Exam) error {
	return p.publish(ctx, TypeExamSaved, NewExamSaved(e))
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.log.Warn().Err(err).Msg("Error closing RabbitMQ channel")
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close RabbitMQ connection: %w", err)
	}
	return nil
}
