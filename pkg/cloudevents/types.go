package cloudevents

import (
	"time"
)

// EventType constants for garment production domain events
const (
	// Work unit events
	WorkUnitCreated   = "production.work.created"
	WorkClaimed       = "production.work.claimed"
	WorkReleased      = "production.work.released"
	WorkStarted       = "production.work.started"
	WorkCompleted     = "production.work.completed"
	ReworkUnitCreated = "production.work.rework-created"

	// Damage report events
	DamageReported       = "production.damage.reported"
	DamageAcknowledged   = "production.damage.acknowledged"
	ReworkStarted        = "production.damage.rework-started"
	ReworkCompleted      = "production.damage.rework-completed"
	DamageReturned       = "production.damage.returned-to-operator"
	DamageFinalized      = "production.damage.finalized"
	DamageEscalated      = "production.damage.escalated"
	DamageCancelled      = "production.damage.cancelled"
	DamageRejected       = "production.damage.rejected"

	// Wallet events
	PaymentHeld      = "production.wallet.payment-held"
	PaymentReleased  = "production.wallet.payment-released"
	EarningsCredited = "production.wallet.earnings-credited"

	// Notification events
	NotificationDispatched = "production.notification.dispatched"
)

// Source constants for event sources
const (
	SourceProduction = "/garment/production-service"
)

// ProductionCloudEvent represents a CloudEvents v1.0 compliant event for the
// garment production platform
type ProductionCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Production-specific extensions
	CorrelationID string `json:"prodcorrelationid,omitempty"`
	BundleNumber  string `json:"prodbundlenumber,omitempty"`
	ReportID      string `json:"prodreportid,omitempty"`
}

// NotificationData represents the data payload for NotificationDispatched
// event. The other event types carry their originating domain event as the
// payload, so they need no separate contract struct here.
type NotificationData struct {
	NotificationType string                 `json:"notificationType"`
	RecipientID      string                 `json:"recipientId"`
	RecipientRole    string                 `json:"recipientRole"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	Priority         string                 `json:"priority"`
	Data             map[string]interface{} `json:"data,omitempty"`
}
