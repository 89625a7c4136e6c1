package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// WorkClaimedEvent is published when an operator claims a work unit
type WorkClaimedEvent struct {
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	OperatorName string    `json:"operatorName,omitempty"`
	SelfAssigned bool      `json:"selfAssigned"`
	ClaimedAt    time.Time `json:"claimedAt"`
}

func (e *WorkClaimedEvent) EventType() string     { return "production.work.claimed" }
func (e *WorkClaimedEvent) OccurredAt() time.Time { return e.ClaimedAt }

// WorkReleasedEvent is published when an operator releases a work unit
type WorkReleasedEvent struct {
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	ReleasedAt   time.Time `json:"releasedAt"`
}

func (e *WorkReleasedEvent) EventType() string     { return "production.work.released" }
func (e *WorkReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// WorkStartedEvent is published when an operator starts a work unit
type WorkStartedEvent struct {
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	StartedAt    time.Time `json:"startedAt"`
}

func (e *WorkStartedEvent) EventType() string     { return "production.work.started" }
func (e *WorkStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// WorkCompletedEvent is published when an operator completes a work unit
type WorkCompletedEvent struct {
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	Pieces       int       `json:"pieces"`
	EarnedAmount float64   `json:"earnedAmount"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (e *WorkCompletedEvent) EventType() string     { return "production.work.completed" }
func (e *WorkCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ReworkUnitCreatedEvent is published when a rework bundle is generated
type ReworkUnitCreatedEvent struct {
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	ReportID     string    `json:"reportId"`
	Pieces       int       `json:"pieces"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *ReworkUnitCreatedEvent) EventType() string     { return "production.work.rework-created" }
func (e *ReworkUnitCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// DamageReportedEvent is published when an operator submits a damage report
type DamageReportedEvent struct {
	ReportID     string    `json:"reportId"`
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	SupervisorID string    `json:"supervisorId"`
	DamageType   string    `json:"damageType"`
	PieceCount   int       `json:"pieceCount"`
	Urgency      string    `json:"urgency"`
	ReportedAt   time.Time `json:"reportedAt"`
}

func (e *DamageReportedEvent) EventType() string     { return "production.damage.reported" }
func (e *DamageReportedEvent) OccurredAt() time.Time { return e.ReportedAt }

// DamageAcknowledgedEvent is published when the supervisor acknowledges
type DamageAcknowledgedEvent struct {
	ReportID       string    `json:"reportId"`
	BundleNumber   string    `json:"bundleNumber"`
	SupervisorID   string    `json:"supervisorId"`
	AcknowledgedAt time.Time `json:"acknowledgedAt"`
}

func (e *DamageAcknowledgedEvent) EventType() string     { return "production.damage.acknowledged" }
func (e *DamageAcknowledgedEvent) OccurredAt() time.Time { return e.AcknowledgedAt }

// ReworkStartedEvent is published when the supervisor starts rework
type ReworkStartedEvent struct {
	ReportID     string    `json:"reportId"`
	BundleNumber string    `json:"bundleNumber"`
	SupervisorID string    `json:"supervisorId"`
	StartedAt    time.Time `json:"startedAt"`
}

func (e *ReworkStartedEvent) EventType() string     { return "production.damage.rework-started" }
func (e *ReworkStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// ReworkCompletedEvent is published when rework finishes
type ReworkCompletedEvent struct {
	ReportID        string    `json:"reportId"`
	BundleNumber    string    `json:"bundleNumber"`
	OperatorAtFault bool      `json:"operatorAtFault"`
	PenaltyAmount   float64   `json:"penaltyAmount"`
	CompletedAt     time.Time `json:"completedAt"`
}

func (e *ReworkCompletedEvent) EventType() string     { return "production.damage.rework-completed" }
func (e *ReworkCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// DamageReturnedEvent is published when repaired pieces go back to the operator
type DamageReturnedEvent struct {
	ReportID     string    `json:"reportId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	ReworkWorkID string    `json:"reworkWorkId"`
	ReturnedAt   time.Time `json:"returnedAt"`
}

func (e *DamageReturnedEvent) EventType() string     { return "production.damage.returned-to-operator" }
func (e *DamageReturnedEvent) OccurredAt() time.Time { return e.ReturnedAt }

// DamageFinalizedEvent is published when a report is closed
type DamageFinalizedEvent struct {
	ReportID     string    `json:"reportId"`
	BundleNumber string    `json:"bundleNumber"`
	OperatorID   string    `json:"operatorId"`
	ClosedAt     time.Time `json:"closedAt"`
}

func (e *DamageFinalizedEvent) EventType() string     { return "production.damage.finalized" }
func (e *DamageFinalizedEvent) OccurredAt() time.Time { return e.ClosedAt }

// DamageEscalatedEvent is published when an overdue report escalates to admin
type DamageEscalatedEvent struct {
	ReportID           string    `json:"reportId"`
	BundleNumber       string    `json:"bundleNumber"`
	OriginalSupervisor string    `json:"originalSupervisor"`
	Urgency            string    `json:"urgency"`
	Reason             string    `json:"reason"`
	EscalatedAt        time.Time `json:"escalatedAt"`
}

func (e *DamageEscalatedEvent) EventType() string     { return "production.damage.escalated" }
func (e *DamageEscalatedEvent) OccurredAt() time.Time { return e.EscalatedAt }

// PaymentHeldEvent is published when bundle pay moves into the held bucket
type PaymentHeldEvent struct {
	OperatorID   string    `json:"operatorId"`
	ReportID     string    `json:"reportId"`
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	Amount       float64   `json:"amount"`
	Pieces       int       `json:"pieces"`
	HeldAt       time.Time `json:"heldAt"`
}

func (e *PaymentHeldEvent) EventType() string     { return "production.wallet.payment-held" }
func (e *PaymentHeldEvent) OccurredAt() time.Time { return e.HeldAt }

// PaymentReleasedEvent is published when a hold is released to available funds
type PaymentReleasedEvent struct {
	OperatorID   string    `json:"operatorId"`
	ReportID     string    `json:"reportId"`
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	Amount       float64   `json:"amount"`
	ReleasedAt   time.Time `json:"releasedAt"`
}

func (e *PaymentReleasedEvent) EventType() string     { return "production.wallet.payment-released" }
func (e *PaymentReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// EarningsCreditedEvent is published when completed work is credited
type EarningsCreditedEvent struct {
	OperatorID   string    `json:"operatorId"`
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	Amount       float64   `json:"amount"`
	CreditedAt   time.Time `json:"creditedAt"`
}

func (e *EarningsCreditedEvent) EventType() string     { return "production.wallet.earnings-credited" }
func (e *EarningsCreditedEvent) OccurredAt() time.Time { return e.CreditedAt }
