package kafka

import (
	"context"

	"github.com/garment-platform/production-service/internal/domain"
	"github.com/garment-platform/production-service/pkg/cloudevents"
	"github.com/garment-platform/production-service/pkg/kafka"
	"github.com/garment-platform/production-service/pkg/logging"
)

// Notifier publishes notification events to the notification topic. Delivery
// is fire-and-forget: failures are logged and never surfaced to the caller,
// so a broker outage cannot fail a claim or a damage-report transition.
type Notifier struct {
	publisher    kafka.EventPublisher
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

func NewNotifier(publisher kafka.EventPublisher, eventFactory *cloudevents.EventFactory, logger *logging.Logger) *Notifier {
	return &Notifier{
		publisher:    publisher,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) {
	payload := map[string]interface{}{}
	if notification.ReportID != "" {
		payload["reportId"] = notification.ReportID
	}
	if notification.WorkID != "" {
		payload["workId"] = notification.WorkID
	}
	if notification.BundleNumber != "" {
		payload["bundleNumber"] = notification.BundleNumber
	}

	event := n.eventFactory.CreateNotificationEvent(
		ctx,
		string(notification.Type),
		notification.RecipientID,
		notification.RecipientRole,
		notification.Title,
		notification.Message,
		priorityFor(notification.Urgency),
		payload,
	)
	if cid, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.WithCorrelation(cid)
	}

	if err := n.publisher.PublishEvent(ctx, kafka.Topics.NotificationEvents, event); err != nil {
		n.logger.Warn("notification dispatch failed",
			"type", notification.Type,
			"recipient", notification.RecipientID,
			"error", err)
	}
}

func priorityFor(urgency domain.Urgency) string {
	switch urgency {
	case domain.UrgencyUrgent:
		return "urgent"
	case domain.UrgencyHigh:
		return "high"
	case domain.UrgencyLow:
		return "low"
	default:
		return "normal"
	}
}
