package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/golfmax/fitting-edge/internal/domain/model"
)

// NotificationTask carries one submission receipt to the delivery worker.
type NotificationTask struct {
	ID         uuid.UUID               `json:"id"`
	Receipt    model.SubmissionReceipt `json:"receipt"`
	RetryCount int                     `json:"retry_count"`
}

// MessageQueue defines the interface for the notification queue.
// Implementations are provided by the infrastructure layer (e.g. RabbitMQ).
type MessageQueue interface {
	// PublishNotification enqueues a notification task for async delivery.
	PublishNotification(ctx context.Context, task NotificationTask) error

	// ConsumeNotifications consumes notification tasks, calling handler for
	// each. Blocks until the context is cancelled or the channel closes.
	// Used by the worker service.
	ConsumeNotifications(ctx context.Context, handler func(task NotificationTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
