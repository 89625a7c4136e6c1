package domain

import (
	"context"
	"time"
)

// WorkUnitRepository defines the interface for work unit persistence
type WorkUnitRepository interface {
	Save(ctx context.Context, unit *WorkUnit) error
	FindByID(ctx context.Context, workID string) (*WorkUnit, error)
	FindByBundleNumber(ctx context.Context, bundleNumber string) (*WorkUnit, error)
	FindAvailable(ctx context.Context, machineType string, limit int) ([]*WorkUnit, error)
	FindByOperator(ctx context.Context, operatorID string) ([]*WorkUnit, error)
	FindAll(ctx context.Context, status WorkUnitStatus, limit, offset int) ([]*WorkUnit, error)

	// ClaimAtomically performs a compare-and-set claim: the unit is assigned to
	// the operator only if it is still available at write time. Returns
	// ErrWorkNotAvailable when another operator won the race.
	ClaimAtomically(ctx context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*WorkUnit, error)

	// ReleaseAtomically returns a unit to the pool only if it is currently
	// assigned to the given operator.
	ReleaseAtomically(ctx context.Context, workID, operatorID string) (*WorkUnit, error)
}

// DamageReportRepository defines the interface for damage report persistence
type DamageReportRepository interface {
	Save(ctx context.Context, report *DamageReport) error
	FindByID(ctx context.Context, reportID string) (*DamageReport, error)
	FindOpenByBundle(ctx context.Context, bundleNumber string) ([]*DamageReport, error)
	FindBySupervisor(ctx context.Context, supervisorID string, statuses []ReportStatus, limit, offset int) ([]*DamageReport, error)
	FindByOperator(ctx context.Context, operatorID string, statuses []ReportStatus, limit, offset int) ([]*DamageReport, error)
	FindOverdue(ctx context.Context, now time.Time) ([]*DamageReport, error)
}

// WalletRepository defines the interface for operator wallet persistence
type WalletRepository interface {
	Save(ctx context.Context, wallet *Wallet) error
	FindByOperator(ctx context.Context, operatorID string) (*Wallet, error)
}

// WageLedgerRepository records append-only wage movements
type WageLedgerRepository interface {
	Append(ctx context.Context, entry *WageLedgerEntry) error
	FindByOperator(ctx context.Context, operatorID string, limit, offset int) ([]*WageLedgerEntry, error)
}

// OperatorRepository maintains the operator -> current work pointers
type OperatorRepository interface {
	Upsert(ctx context.Context, operator *Operator) error
	FindByID(ctx context.Context, operatorID string) (*Operator, error)
	ClearCurrentWork(ctx context.Context, operatorID, workID string) error
}

// TransactionManager runs a function inside a single database transaction so
// that multi-aggregate updates commit or roll back together.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier dispatches fire-and-forget notifications to factory roles. Delivery
// failures must never fail the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotificationType classifies outbound notifications
type NotificationType string

const (
	NotificationWorkAssigned    NotificationType = "work_assigned"
	NotificationWorkUnavailable NotificationType = "work_unavailable"
	NotificationDamageReported  NotificationType = "damage_reported"
	NotificationReworkStarted   NotificationType = "rework_started"
	NotificationBundleReady     NotificationType = "bundle_ready"
	NotificationPaymentReleased NotificationType = "payment_released"
	NotificationDamageEscalated NotificationType = "damage_escalated"
	NotificationReportCancelled NotificationType = "report_cancelled"
	NotificationReportRejected  NotificationType = "report_rejected"
)

// Notification is a message for a specific recipient role and user
type Notification struct {
	Type          NotificationType
	RecipientID   string
	RecipientRole string
	Title         string
	Message       string
	ReportID      string
	WorkID        string
	BundleNumber  string
	Urgency       Urgency
}
