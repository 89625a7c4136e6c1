package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for garment production domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new ProductionCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *ProductionCloudEvent {
	event := &ProductionCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateNotificationEvent creates a NotificationDispatched event
func (f *EventFactory) CreateNotificationEvent(
	ctx context.Context,
	notificationType string,
	recipientID string,
	recipientRole string,
	title string,
	message string,
	priority string,
	payload map[string]interface{},
) *ProductionCloudEvent {
	data := NotificationData{
		NotificationType: notificationType,
		RecipientID:      recipientID,
		RecipientRole:    recipientRole,
		Title:            title,
		Message:          message,
		Priority:         priority,
		Data:             payload,
	}
	return f.CreateEvent(ctx, NotificationDispatched, "notification/"+recipientID, data)
}
