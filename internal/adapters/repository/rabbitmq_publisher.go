package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RabbitMQPublisher implements ReminderPublisher for handing reminders to the
// notification dispatcher over RabbitMQ
// Includes retry logic and circuit breaker for resilience
type RabbitMQPublisher struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	queueName     string
	cb            *gobreaker.CircuitBreaker
	logger        *zap.Logger
	maxRetries    int
	retryDelay    time.Duration
	connMutex     sync.RWMutex
	reconnectCh   chan bool
	stopReconnect chan bool
}

// NewRabbitMQPublisher creates a new RabbitMQ publisher with circuit breaker
func NewRabbitMQPublisher(rabbitMQURL string, queueName string, settings gobreaker.Settings, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if queueName == "" {
		queueName = "vaccination_reminders"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	publisher := &RabbitMQPublisher{
		queueName:     queueName,
		logger:        logger.With(zap.String("queue", queueName)),
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	settings.Name = "rabbitmq:" + queueName
	publisher.cb = gobreaker.NewCircuitBreaker(settings)

	// Connect to RabbitMQ
	if err := publisher.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// Start reconnection handler
	go publisher.handleReconnection(rabbitMQURL)

	return publisher, nil
}

// connect establishes connection to RabbitMQ
func (p *RabbitMQPublisher) connect(rabbitMQURL string) error {
	conn, channel, err := dialQueue(rabbitMQURL, p.queueName, p.maxRetries, p.retryDelay, p.logger)
	if err != nil {
		return err
	}

	p.connMutex.Lock()
	p.conn, p.channel = conn, channel
	p.connMutex.Unlock()

	p.logger.Info("Reminder publisher connected to RabbitMQ")
	return nil
}

// dialQueue dials the broker with retries, opens a channel and declares the
// durable queue
func dialQueue(rabbitMQURL, queueName string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp091.Connection, *amqp091.Channel, error) {
	var conn *amqp091.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	// Declare queue (idempotent)
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)

	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, err
	}

	return conn, channel, nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (p *RabbitMQPublisher) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-p.reconnectCh:
			p.logger.Info("Attempting to reconnect to RabbitMQ")
			p.connMutex.Lock()
			if p.channel != nil {
				p.channel.Close()
			}
			if p.conn != nil {
				p.conn.Close()
			}
			p.connMutex.Unlock()

			if err := p.connect(rabbitMQURL); err != nil {
				p.logger.Error("Reconnection failed", zap.Error(err))
			}
		case <-p.stopReconnect:
			return
		}
	}
}

// PublishReminder publishes a reminder event to RabbitMQ
// Implements ReminderPublisher interface
func (p *RabbitMQPublisher) PublishReminder(ctx context.Context, event *domain.ReminderEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.publishWithRetry(ctx, event)
	})
	return err
}

// reminderPublishing encodes a reminder event as a persistent JSON message
func reminderPublishing(event *domain.ReminderEvent) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal reminder event: %w", err)
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    event.Timestamp,
		Type:         string(event.ReminderType),
		MessageId:    fmt.Sprintf("%s:%s:%s", event.VaccinationID, event.ReminderType, event.Channel),
	}, nil
}

// publishWithRetry publishes with retry logic
func (p *RabbitMQPublisher) publishWithRetry(ctx context.Context, event *domain.ReminderEvent) error {
	msg, err := reminderPublishing(event)
	if err != nil {
		return err
	}

	p.logger.Debug("Publishing reminder",
		zap.String("child_id", event.ChildID.String()),
		zap.String("vaccination_id", event.VaccinationID.String()),
		zap.String("reminder_type", string(event.ReminderType)),
		zap.String("channel", string(event.Channel)),
	)

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		p.connMutex.RLock()
		ch := p.channel
		conn := p.conn
		p.connMutex.RUnlock()

		if ch == nil || conn == nil || conn.IsClosed() {
			// Trigger reconnection
			select {
			case p.reconnectCh <- true:
			default:
			}
			lastErr = fmt.Errorf("RabbitMQ connection is closed")
			time.Sleep(p.retryDelay)
			continue
		}

		err = ch.PublishWithContext(
			ctx,
			"",          // exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			msg,
		)

		if err == nil {
			return nil
		}

		lastErr = err
		p.logger.Warn("Failed to publish reminder",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", p.maxRetries),
			zap.Error(err),
		)

		if i < p.maxRetries-1 {
			// Trigger reconnection on error
			select {
			case p.reconnectCh <- true:
			default:
			}
			time.Sleep(p.retryDelay)
		}
	}

	return fmt.Errorf("failed to publish reminder after %d retries: %w", p.maxRetries, lastErr)
}

// Close closes the RabbitMQ connection
func (p *RabbitMQPublisher) Close() error {
	close(p.stopReconnect)
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Ensure RabbitMQPublisher implements the interface
var _ ports.ReminderPublisher = (*RabbitMQPublisher)(nil)
