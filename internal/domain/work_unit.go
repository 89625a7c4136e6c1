package domain

import (
	"errors"
	"time"
)

// Errors
var (
	ErrWorkNotAvailable     = errors.New("work already assigned to another operator")
	ErrWorkNotAssigned      = errors.New("work is not assigned")
	ErrWorkAssignedToOther  = errors.New("work is assigned to a different operator")
	ErrWorkNotInProgress    = errors.New("work is not in progress")
	ErrWorkAlreadyCompleted = errors.New("work has already been completed")
	ErrPaymentAlreadyHeld   = errors.New("payment is already held for this work")
	ErrPaymentNotHeld       = errors.New("payment is not held for this work")
	ErrInvalidPieceCount    = errors.New("invalid piece count")
)

// WorkUnitStatus represents the lifecycle status of a work unit
type WorkUnitStatus string

const (
	WorkUnitStatusAvailable  WorkUnitStatus = "available"
	WorkUnitStatusAssigned   WorkUnitStatus = "assigned"
	WorkUnitStatusInProgress WorkUnitStatus = "in_progress"
	WorkUnitStatusCompleted  WorkUnitStatus = "completed"
	WorkUnitStatusCancelled  WorkUnitStatus = "cancelled"
)

// PaymentStatus represents the payment state of a work unit
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusHeldForDamage PaymentStatus = "held_for_damage"
	PaymentStatusReleased      PaymentStatus = "released"
)

// WorkUnit is the aggregate root for a sewing bundle: a stack of cut pieces
// for one operation, claimed and worked by a single operator at a time.
type WorkUnit struct {
	WorkID       string  `bson:"_id"`
	BundleNumber string  `bson:"bundleNumber"`
	Article      string  `bson:"article"`
	ArticleName  string  `bson:"articleName,omitempty"`
	Operation    string  `bson:"operation"`
	Color        string  `bson:"color,omitempty"`
	Size         string  `bson:"size,omitempty"`
	Pieces       int     `bson:"pieces"`
	RatePerPiece float64 `bson:"ratePerPiece"`
	MachineType  string  `bson:"machineType,omitempty"`

	Status          WorkUnitStatus `bson:"status"`
	Assigned        bool           `bson:"assigned"`
	AssignedTo      string         `bson:"assignedTo,omitempty"`
	OperatorName    string         `bson:"operatorName,omitempty"`
	OperatorMachine string         `bson:"operatorMachine,omitempty"`
	SelfAssigned    bool           `bson:"selfAssigned"`
	AssignedAt      *time.Time     `bson:"assignedAt,omitempty"`
	StartedAt       *time.Time     `bson:"startedAt,omitempty"`
	CompletedAt     *time.Time     `bson:"completedAt,omitempty"`
	CompletedPieces int            `bson:"completedPieces"`
	EarnedAmount    float64        `bson:"earnedAmount"`

	PaymentStatus PaymentStatus `bson:"paymentStatus"`
	HeldAmount    float64       `bson:"heldAmount"`
	HeldForReport string        `bson:"heldForReport,omitempty"`
	CanWithdraw   bool          `bson:"canWithdraw"`

	Priority               int    `bson:"priority"` // lower value = more urgent
	IsRework               bool   `bson:"isRework"`
	OriginalDamageReportID string `bson:"originalDamageReportId,omitempty"`

	// Version backs the conditional-write concurrency control on claims
	Version int64 `bson:"version"`

	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
	DomainEvents []DomainEvent `bson:"-"`
}

// NewWorkUnit creates a new available WorkUnit aggregate
func NewWorkUnit(workID, bundleNumber, article, operation string, pieces int, ratePerPiece float64) *WorkUnit {
	now := time.Now()
	return &WorkUnit{
		WorkID:        workID,
		BundleNumber:  bundleNumber,
		Article:       article,
		Operation:     operation,
		Pieces:        pieces,
		RatePerPiece:  ratePerPiece,
		Status:        WorkUnitStatusAvailable,
		PaymentStatus: PaymentStatusPending,
		Priority:      100,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
		DomainEvents:  make([]DomainEvent, 0),
	}
}

// NewReworkUnit creates a high-priority rework WorkUnit pre-assigned to the
// operator whose bundle was damaged
func NewReworkUnit(workID string, original *WorkUnit, reportID string, pieces int) *WorkUnit {
	now := time.Now()
	unit := &WorkUnit{
		WorkID:                 workID,
		BundleNumber:           original.BundleNumber,
		Article:                original.Article,
		ArticleName:            original.ArticleName,
		Operation:              original.Operation,
		Color:                  original.Color,
		Size:                   original.Size,
		Pieces:                 pieces,
		RatePerPiece:           original.RatePerPiece,
		MachineType:            original.MachineType,
		Status:                 WorkUnitStatusAssigned,
		Assigned:               true,
		AssignedTo:             original.AssignedTo,
		OperatorName:           original.OperatorName,
		OperatorMachine:        original.OperatorMachine,
		AssignedAt:             &now,
		PaymentStatus:          PaymentStatusPending,
		Priority:               1,
		IsRework:               true,
		OriginalDamageReportID: reportID,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
		DomainEvents:           make([]DomainEvent, 0),
	}

	unit.AddDomainEvent(&ReworkUnitCreatedEvent{
		WorkID:       workID,
		BundleNumber: original.BundleNumber,
		OperatorID:   original.AssignedTo,
		ReportID:     reportID,
		Pieces:       pieces,
		CreatedAt:    now,
	})

	return unit
}

// Claim assigns the work unit to an operator. Only an unassigned available
// unit can be claimed; the repository re-checks the same condition in its
// conditional write so a lost race surfaces as ErrWorkNotAvailable.
func (w *WorkUnit) Claim(operatorID, operatorName, operatorMachine string, selfAssigned bool) error {
	if w.Status != WorkUnitStatusAvailable || w.Assigned {
		return ErrWorkNotAvailable
	}

	now := time.Now()
	w.Status = WorkUnitStatusAssigned
	w.Assigned = true
	w.AssignedTo = operatorID
	w.OperatorName = operatorName
	w.OperatorMachine = operatorMachine
	w.SelfAssigned = selfAssigned
	w.AssignedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WorkClaimedEvent{
		WorkID:       w.WorkID,
		BundleNumber: w.BundleNumber,
		OperatorID:   operatorID,
		OperatorName: operatorName,
		SelfAssigned: selfAssigned,
		ClaimedAt:    now,
	})

	return nil
}

// Release returns the work unit to the available pool. Only the assigned
// operator can release it.
func (w *WorkUnit) Release(operatorID string) error {
	if !w.Assigned {
		return ErrWorkNotAssigned
	}
	if w.AssignedTo != operatorID {
		return ErrWorkAssignedToOther
	}
	if w.Status == WorkUnitStatusCompleted {
		return ErrWorkAlreadyCompleted
	}

	now := time.Now()
	released := w.AssignedTo
	w.Status = WorkUnitStatusAvailable
	w.Assigned = false
	w.AssignedTo = ""
	w.OperatorName = ""
	w.OperatorMachine = ""
	w.SelfAssigned = false
	w.AssignedAt = nil
	w.StartedAt = nil
	w.UpdatedAt = now

	w.AddDomainEvent(&WorkReleasedEvent{
		WorkID:       w.WorkID,
		BundleNumber: w.BundleNumber,
		OperatorID:   released,
		ReleasedAt:   now,
	})

	return nil
}

// StartWork moves an assigned work unit into progress
func (w *WorkUnit) StartWork(operatorID string) error {
	if !w.Assigned {
		return ErrWorkNotAssigned
	}
	if w.AssignedTo != operatorID {
		return ErrWorkAssignedToOther
	}
	if w.Status != WorkUnitStatusAssigned {
		return errors.New("work cannot be started from its current status")
	}

	now := time.Now()
	w.Status = WorkUnitStatusInProgress
	w.StartedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WorkStartedEvent{
		WorkID:       w.WorkID,
		BundleNumber: w.BundleNumber,
		OperatorID:   operatorID,
		StartedAt:    now,
	})

	return nil
}

// Complete records the operator finishing the bundle and computes the piece
// rate earnings. Earnings become withdrawable unless a damage hold is active.
func (w *WorkUnit) Complete(operatorID string, completedPieces int) error {
	if !w.Assigned {
		return ErrWorkNotAssigned
	}
	if w.AssignedTo != operatorID {
		return ErrWorkAssignedToOther
	}
	if w.Status != WorkUnitStatusInProgress {
		return ErrWorkNotInProgress
	}
	if completedPieces <= 0 || completedPieces > w.Pieces {
		return ErrInvalidPieceCount
	}

	now := time.Now()
	w.Status = WorkUnitStatusCompleted
	w.CompletedAt = &now
	w.CompletedPieces = completedPieces
	w.EarnedAmount = float64(completedPieces) * w.RatePerPiece
	if w.PaymentStatus == PaymentStatusPending {
		w.CanWithdraw = true
	}
	w.UpdatedAt = now

	w.AddDomainEvent(&WorkCompletedEvent{
		WorkID:       w.WorkID,
		BundleNumber: w.BundleNumber,
		OperatorID:   operatorID,
		Pieces:       completedPieces,
		EarnedAmount: w.EarnedAmount,
		CompletedAt:  now,
	})

	return nil
}

// HoldPayment marks the work unit's payment as held for a damage report.
// The held amount is pieces damaged times the piece rate.
func (w *WorkUnit) HoldPayment(reportID string, damagedPieces int) (float64, error) {
	if w.PaymentStatus == PaymentStatusHeldForDamage {
		return 0, ErrPaymentAlreadyHeld
	}
	if damagedPieces <= 0 || damagedPieces > w.Pieces {
		return 0, ErrInvalidPieceCount
	}

	amount := float64(damagedPieces) * w.RatePerPiece
	now := time.Now()
	w.PaymentStatus = PaymentStatusHeldForDamage
	w.HeldAmount = amount
	w.HeldForReport = reportID
	w.CanWithdraw = false
	w.UpdatedAt = now

	return amount, nil
}

// ReleasePayment releases a damage hold after final completion. The full
// held amount is released; any at-fault penalty stays analytics-only.
func (w *WorkUnit) ReleasePayment(reportID string) (float64, error) {
	if w.PaymentStatus != PaymentStatusHeldForDamage {
		return 0, ErrPaymentNotHeld
	}
	if w.HeldForReport != reportID {
		return 0, errors.New("payment is held for a different report")
	}

	amount := w.HeldAmount
	now := time.Now()
	w.PaymentStatus = PaymentStatusReleased
	w.HeldAmount = 0
	w.HeldForReport = ""
	w.CanWithdraw = true
	w.UpdatedAt = now

	return amount, nil
}

// Cancel takes the work unit out of circulation
func (w *WorkUnit) Cancel() error {
	if w.Status == WorkUnitStatusCompleted {
		return ErrWorkAlreadyCompleted
	}
	w.Status = WorkUnitStatusCancelled
	w.Assigned = false
	w.UpdatedAt = time.Now()
	return nil
}

// AddDomainEvent adds a domain event
func (w *WorkUnit) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *WorkUnit) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (w *WorkUnit) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

// Operator is a denormalized record of an operator's current work pointer,
// kept for display and maintained best-effort after claims and releases.
type Operator struct {
	OperatorID          string     `bson:"_id"`
	Name                string     `bson:"name"`
	Machine             string     `bson:"machine,omitempty"`
	CurrentWorkID       string     `bson:"currentWorkId,omitempty"`
	CurrentBundleNumber string     `bson:"currentBundleNumber,omitempty"`
	AssignedAt          *time.Time `bson:"assignedAt,omitempty"`
	UpdatedAt           time.Time  `bson:"updatedAt"`
}
