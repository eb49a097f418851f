package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ChildCreationRequest is a message asking for a child profile to be created
// on behalf of a parent, e.g. after registration in the identity service
type ChildCreationRequest struct {
	UserID           string `json:"user_id"` // Parent user ID
	Name             string `json:"name"`
	DateOfBirth      string `json:"date_of_birth"` // YYYY-MM-DD
	Guideline        string `json:"guideline,omitempty"`
	Gender           string `json:"gender,omitempty"`
	ReceivedVaccines string `json:"received_vaccines,omitempty"`
}

// ChildConsumer consumes child creation requests from RabbitMQ
// Runs in background as a goroutine within the service pod
// (For multi-replica deployments, RabbitMQ distributes messages across replicas)
type ChildConsumer struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	queueName      string
	childService   ports.ChildService
	logger         *zap.Logger
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
}

// NewChildConsumer creates a new RabbitMQ consumer for child creation
func NewChildConsumer(rabbitMQURL string, queueName string, childService ports.ChildService, logger *zap.Logger) (*ChildConsumer, error) {
	consumer := newChildConsumer(queueName, childService, logger)

	// Connect to RabbitMQ
	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// Start reconnection handler
	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

func newChildConsumer(queueName string, childService ports.ChildService, logger *zap.Logger) *ChildConsumer {
	if queueName == "" {
		queueName = "children"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildConsumer{
		queueName:     queueName,
		childService:  childService,
		logger:        logger.With(zap.String("queue", queueName)),
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}
}

// connect establishes connection to RabbitMQ
func (c *ChildConsumer) connect(rabbitMQURL string) error {
	conn, channel, err := dialQueue(rabbitMQURL, c.queueName, c.maxRetries, c.retryDelay, c.logger)
	if err != nil {
		return err
	}

	c.connMutex.Lock()
	c.conn, c.channel = conn, channel
	c.connMutex.Unlock()

	c.logger.Info("Child consumer connected to RabbitMQ")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *ChildConsumer) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-c.reconnectCh:
			c.logger.Info("Attempting to reconnect to RabbitMQ")
			c.connMutex.Lock()
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(rabbitMQURL); err != nil {
				c.logger.Error("Reconnection failed", zap.Error(err))
				time.Sleep(5 * time.Second)
				c.reconnectCh <- true
			} else {
				// Restart consuming with the caller's context
				c.consumingMutex.Lock()
				if c.consumingCtx != nil && c.consumingCtx.Err() == nil && !c.isConsuming {
					go c.StartConsuming(c.consumingCtx)
				}
				c.consumingMutex.Unlock()
			}
		case <-c.stopReconnect:
			return
		}
	}
}

// StartConsuming starts consuming messages from the queue in a background goroutine
// Only one consumer runs per instance
func (c *ChildConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		c.logger.Info("Child consumer is already running, skipping duplicate start")
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	stopped := func() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
	}

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		stopped()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	// One unacknowledged message at a time
	if err := channel.Qos(1, 0, false); err != nil {
		stopped()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	consumerTag := fmt.Sprintf("child-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag
		false,       // auto-ack (ack only after the child is created)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		stopped()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Child consumer started", zap.String("consumer_tag", consumerTag))

	go func() {
		defer stopped()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Child consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("Child consumer channel closed, attempting reconnection")
					c.reconnectCh <- true
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage creates the requested child and acknowledges the message
// Malformed messages are dropped; service failures are requeued
func (c *ChildConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	var req ChildCreationRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		c.logger.Warn("Failed to unmarshal child creation request", zap.Error(err))
		c.nack(msg, false)
		return
	}

	parentUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.logger.Warn("Invalid child creation request: user_id is not a valid UUID",
			zap.String("user_id", req.UserID), zap.Error(err))
		c.nack(msg, false)
		return
	}

	child, received, err := c.childService.CreateChild(ctx, ports.CreateChildRequest{
		Name:             req.Name,
		DateOfBirth:      req.DateOfBirth,
		Guideline:        req.Guideline,
		Gender:           req.Gender,
		ReceivedVaccines: req.ReceivedVaccines,
	}, parentUserID, false)
	if err != nil {
		if isRejected(err) {
			c.logger.Warn("Rejected child creation request",
				zap.String("user_id", req.UserID), zap.Error(err))
			c.nack(msg, false)
			return
		}
		c.logger.Error("Failed to create child from message",
			zap.String("user_id", req.UserID), zap.Error(err))
		c.nack(msg, true)
		return
	}

	c.logger.Info("Created child from message",
		zap.String("child_id", child.ID.String()),
		zap.String("parent_user_id", parentUserID.String()),
		zap.String("guideline", child.Guideline),
		zap.Int("received", received),
	)

	// A failed ack means redelivery
	if err := msg.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge message", zap.Error(err))
	}
}

func (c *ChildConsumer) nack(msg amqp091.Delivery, requeue bool) {
	if err := msg.Nack(false, requeue); err != nil {
		c.logger.Error("Failed to nack message", zap.Bool("requeue", requeue), zap.Error(err))
	}
}

// isRejected reports whether a service error is caused by the message itself
func isRejected(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrInvalidDate) ||
		errors.Is(err, domain.ErrUnknownGuideline) ||
		errors.Is(err, domain.ErrForbidden)
}

// Close closes the RabbitMQ connection and stops consuming
// The consuming context is cancelled by the caller during shutdown
func (c *ChildConsumer) Close() error {
	close(c.stopReconnect)

	c.consumingMutex.Lock()
	c.isConsuming = false
	c.consumingMutex.Unlock()

	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("Error closing RabbitMQ channel", zap.Error(err))
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("Error closing RabbitMQ connection", zap.Error(err))
		}
	}

	c.logger.Info("Child consumer closed")
	return nil
}
