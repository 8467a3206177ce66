package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
)

// Dispatcher fans a submission receipt out to the configured side
// channels. Channels are independent and unordered: one failing never
// blocks the other. The returned error is informational: callers log
// it or use it to drive queue retries, never to fail the upload.
type Dispatcher struct {
	webhook *Webhook
	email   *Email
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over the given channels. Either
// channel may be disabled.
func NewDispatcher(webhook *Webhook, email *Email, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{webhook: webhook, email: email, logger: logger}
}

// Notify delivers the receipt over every enabled channel and joins any
// failures.
func (d *Dispatcher) Notify(ctx context.Context, receipt model.SubmissionReceipt) error {
	var errs []error

	if d.webhook != nil && d.webhook.Enabled() {
		if err := d.webhook.Send(ctx, receipt); err != nil {
			metrics.NotificationsTotal.WithLabelValues(metrics.ChannelWebhook, metrics.NotifyError).Inc()
			d.logger.Error("webhook notification failed",
				slog.String("object_key", receipt.ObjectKey),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		} else {
			metrics.NotificationsTotal.WithLabelValues(metrics.ChannelWebhook, metrics.NotifySuccess).Inc()
		}
	}

	if d.email != nil && d.email.Enabled() {
		if err := d.email.Send(receipt); err != nil {
			metrics.NotificationsTotal.WithLabelValues(metrics.ChannelEmail, metrics.NotifyError).Inc()
			d.logger.Error("email notification failed",
				slog.String("object_key", receipt.ObjectKey),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		} else {
			metrics.NotificationsTotal.WithLabelValues(metrics.ChannelEmail, metrics.NotifySuccess).Inc()
		}
	}

	return errors.Join(errs...)
}
