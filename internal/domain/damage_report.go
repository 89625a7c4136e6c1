package domain

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrReportClosed         = errors.New("damage report is closed")
	ErrReportNotEscalatable = errors.New("damage report can no longer be escalated")
	ErrInvalidTransition    = errors.New("invalid damage report transition")
)

// ReportStatus represents the state of a damage report
type ReportStatus string

const (
	ReportStatusReported          ReportStatus = "reported_to_supervisor"
	ReportStatusAcknowledged      ReportStatus = "acknowledged"
	ReportStatusInSupervisorQueue ReportStatus = "in_supervisor_queue"
	ReportStatusReworkInProgress  ReportStatus = "rework_in_progress"
	ReportStatusReworkCompleted   ReportStatus = "rework_completed"
	ReportStatusReturned          ReportStatus = "returned_to_operator"
	ReportStatusClosed            ReportStatus = "closed"
	ReportStatusEscalated         ReportStatus = "escalated_to_admin"
	ReportStatusCancelled         ReportStatus = "cancelled"
	ReportStatusRejected          ReportStatus = "rejected"
)

// ReworkDetails records what the supervisor did to repair the pieces
type ReworkDetails struct {
	PartsReplaced    []string `bson:"partsReplaced,omitempty"`
	TimeSpentMinutes int      `bson:"timeSpentMinutes"`
	Quality          string   `bson:"quality,omitempty"`
	CostEstimate     float64  `bson:"costEstimate"`
	CompletedBy      string   `bson:"completedBy"`
}

// PaymentImpact is the assessed payment consequence of the damage. The
// penalty amount is analytics-only and never deducted from the held pay.
type PaymentImpact struct {
	OperatorAtFault bool    `bson:"operatorAtFault"`
	PenaltyAmount   float64 `bson:"penaltyAmount"`
	HeldAmount      float64 `bson:"heldAmount"`
}

// EscalationInfo records an SLA-breach escalation to admin
type EscalationInfo struct {
	EscalatedAt        time.Time `bson:"escalatedAt"`
	OriginalSupervisor string    `bson:"originalSupervisor"`
	Reason             string    `bson:"reason"`
}

// DamageReport is the aggregate root tracking a damaged-pieces incident from
// operator report through supervisor rework to payment release.
type DamageReport struct {
	ReportID     string `bson:"_id"`
	WorkID       string `bson:"workId"`
	BundleNumber string `bson:"bundleNumber"`
	OperatorID   string `bson:"operatorId"`
	OperatorName string `bson:"operatorName,omitempty"`
	SupervisorID string `bson:"supervisorId"`

	DamageTypeID string         `bson:"damageTypeId"`
	Category     DamageCategory `bson:"category"`
	Severity     Severity       `bson:"severity"`
	Urgency      Urgency        `bson:"urgency"`
	PieceNumbers []int          `bson:"pieceNumbers"`
	Description  string         `bson:"description,omitempty"`

	Status ReportStatus `bson:"status"`

	ReportedAt        time.Time  `bson:"reportedAt"`
	AcknowledgedAt    *time.Time `bson:"acknowledgedAt,omitempty"`
	QueuedAt          *time.Time `bson:"queuedAt,omitempty"`
	ReworkStartedAt   *time.Time `bson:"reworkStartedAt,omitempty"`
	ReworkCompletedAt *time.Time `bson:"reworkCompletedAt,omitempty"`
	ReturnedAt        *time.Time `bson:"returnedAt,omitempty"`
	ClosedAt          *time.Time `bson:"closedAt,omitempty"`

	ReworkWorkID   string          `bson:"reworkWorkId,omitempty"`
	Rework         *ReworkDetails  `bson:"rework,omitempty"`
	PaymentImpact  *PaymentImpact  `bson:"paymentImpact,omitempty"`
	Escalation     *EscalationInfo `bson:"escalation,omitempty"`
	ResolutionNote string          `bson:"resolutionNote,omitempty"`

	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
	DomainEvents []DomainEvent `bson:"-"`
}

// NewDamageReport creates a new report in reported_to_supervisor state
func NewDamageReport(reportID, workID, bundleNumber, operatorID, operatorName, supervisorID string, damageType DamageType, pieceNumbers []int, urgency Urgency, description string) *DamageReport {
	now := time.Now()
	report := &DamageReport{
		ReportID:     reportID,
		WorkID:       workID,
		BundleNumber: bundleNumber,
		OperatorID:   operatorID,
		OperatorName: operatorName,
		SupervisorID: supervisorID,
		DamageTypeID: damageType.ID,
		Category:     damageType.Category,
		Severity:     damageType.Severity,
		Urgency:      urgency,
		PieceNumbers: pieceNumbers,
		Description:  description,
		Status:       ReportStatusReported,
		ReportedAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	report.AddDomainEvent(&DamageReportedEvent{
		ReportID:     reportID,
		WorkID:       workID,
		BundleNumber: bundleNumber,
		OperatorID:   operatorID,
		SupervisorID: supervisorID,
		DamageType:   damageType.ID,
		PieceCount:   len(pieceNumbers),
		Urgency:      string(urgency),
		ReportedAt:   now,
	})

	return report
}

// PieceCount returns the number of damaged pieces on the report
func (r *DamageReport) PieceCount() int {
	return len(r.PieceNumbers)
}

// IsOpen reports whether the report still blocks new reports on its bundle
func (r *DamageReport) IsOpen() bool {
	switch r.Status {
	case ReportStatusClosed, ReportStatusCancelled, ReportStatusRejected:
		return false
	}
	return true
}

func (r *DamageReport) guard(allowed ...ReportStatus) error {
	for _, s := range allowed {
		if r.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, r.Status)
}

// Acknowledge records the supervisor seeing the report
func (r *DamageReport) Acknowledge(supervisorID string) error {
	if err := r.guard(ReportStatusReported); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusAcknowledged
	r.AcknowledgedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(&DamageAcknowledgedEvent{
		ReportID:       r.ReportID,
		BundleNumber:   r.BundleNumber,
		SupervisorID:   supervisorID,
		AcknowledgedAt: now,
	})

	return nil
}

// MoveToQueue places the report in the supervisor's rework queue
func (r *DamageReport) MoveToQueue() error {
	if err := r.guard(ReportStatusAcknowledged); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusInSupervisorQueue
	r.QueuedAt = &now
	r.UpdatedAt = now

	return nil
}

// StartRework records the supervisor beginning the repair
func (r *DamageReport) StartRework(supervisorID string) error {
	if err := r.guard(ReportStatusAcknowledged, ReportStatusInSupervisorQueue); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusReworkInProgress
	r.ReworkStartedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(&ReworkStartedEvent{
		ReportID:     r.ReportID,
		BundleNumber: r.BundleNumber,
		SupervisorID: supervisorID,
		StartedAt:    now,
	})

	return nil
}

// CompleteRework records repair details and derives the payment impact from
// the damage taxonomy: operator fault and penalty come from the damage type,
// the penalty being the type's rate applied to each damaged piece.
func (r *DamageReport) CompleteRework(details ReworkDetails, damageType DamageType, ratePerPiece, heldAmount float64) error {
	if err := r.guard(ReportStatusReworkInProgress); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusReworkCompleted
	r.ReworkCompletedAt = &now
	r.Rework = &details
	r.PaymentImpact = &PaymentImpact{
		OperatorAtFault: damageType.OperatorFault,
		PenaltyAmount:   damageType.PenaltyRate * ratePerPiece * float64(len(r.PieceNumbers)),
		HeldAmount:      heldAmount,
	}
	r.UpdatedAt = now

	r.AddDomainEvent(&ReworkCompletedEvent{
		ReportID:        r.ReportID,
		BundleNumber:    r.BundleNumber,
		OperatorAtFault: damageType.OperatorFault,
		PenaltyAmount:   r.PaymentImpact.PenaltyAmount,
		CompletedAt:     now,
	})

	return nil
}

// ReturnToOperator hands the repaired pieces back as a rework work unit
func (r *DamageReport) ReturnToOperator(reworkWorkID string) error {
	if err := r.guard(ReportStatusReworkCompleted); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusReturned
	r.ReturnedAt = &now
	r.ReworkWorkID = reworkWorkID
	r.UpdatedAt = now

	r.AddDomainEvent(&DamageReturnedEvent{
		ReportID:     r.ReportID,
		BundleNumber: r.BundleNumber,
		OperatorID:   r.OperatorID,
		ReworkWorkID: reworkWorkID,
		ReturnedAt:   now,
	})

	return nil
}

// MarkFinalCompletion closes the report once the operator finishes the
// returned pieces. This is the only transition that triggers a payment
// release. Calling it on a closed report is rejected so held funds can
// never be credited twice.
func (r *DamageReport) MarkFinalCompletion(note string) error {
	if !r.IsOpen() {
		return fmt.Errorf("%w: report %s is %s", ErrReportClosed, r.ReportID, r.Status)
	}
	if err := r.guard(ReportStatusReturned); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusClosed
	r.ClosedAt = &now
	r.ResolutionNote = note
	r.UpdatedAt = now

	r.AddDomainEvent(&DamageFinalizedEvent{
		ReportID:     r.ReportID,
		BundleNumber: r.BundleNumber,
		OperatorID:   r.OperatorID,
		ClosedAt:     now,
	})

	return nil
}

// CanEscalate reports whether the report is still waiting on the supervisor
func (r *DamageReport) CanEscalate() bool {
	switch r.Status {
	case ReportStatusReported, ReportStatusAcknowledged, ReportStatusInSupervisorQueue:
		return true
	}
	return false
}

// EscalationDeadline returns when the report breaches its urgency SLA
func (r *DamageReport) EscalationDeadline() time.Time {
	var sla time.Duration
	switch r.Urgency {
	case UrgencyUrgent:
		sla = 1 * time.Hour
	case UrgencyHigh:
		sla = 4 * time.Hour
	case UrgencyLow:
		sla = 72 * time.Hour
	default:
		sla = 24 * time.Hour
	}
	return r.ReportedAt.Add(sla)
}

// IsOverdue reports whether the SLA has been breached at the given time
func (r *DamageReport) IsOverdue(now time.Time) bool {
	return r.CanEscalate() && now.After(r.EscalationDeadline())
}

// Escalate moves an overdue report to admin, recording the original
// supervisor and the reason
func (r *DamageReport) Escalate(reason string) error {
	if !r.CanEscalate() {
		return ErrReportNotEscalatable
	}

	now := time.Now()
	r.Escalation = &EscalationInfo{
		EscalatedAt:        now,
		OriginalSupervisor: r.SupervisorID,
		Reason:             reason,
	}
	r.Status = ReportStatusEscalated
	r.UpdatedAt = now

	r.AddDomainEvent(&DamageEscalatedEvent{
		ReportID:           r.ReportID,
		BundleNumber:       r.BundleNumber,
		OriginalSupervisor: r.SupervisorID,
		Urgency:            string(r.Urgency),
		Reason:             reason,
		EscalatedAt:        now,
	})

	return nil
}

// Cancel terminates the report without releasing any payment hold
func (r *DamageReport) Cancel(reason string) error {
	if !r.IsOpen() {
		return fmt.Errorf("%w: report %s is %s", ErrReportClosed, r.ReportID, r.Status)
	}

	now := time.Now()
	r.Status = ReportStatusCancelled
	r.ResolutionNote = reason
	r.ClosedAt = &now
	r.UpdatedAt = now

	return nil
}

// Reject terminates the report as invalid without releasing any hold
func (r *DamageReport) Reject(reason string) error {
	if err := r.guard(ReportStatusReported, ReportStatusAcknowledged); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReportStatusRejected
	r.ResolutionNote = reason
	r.ClosedAt = &now
	r.UpdatedAt = now

	return nil
}

// AddDomainEvent adds a domain event
func (r *DamageReport) AddDomainEvent(event DomainEvent) {
	r.DomainEvents = append(r.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (r *DamageReport) ClearDomainEvents() {
	r.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (r *DamageReport) GetDomainEvents() []DomainEvent {
	return r.DomainEvents
}
