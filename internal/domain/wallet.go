package domain

import (
	"errors"
	"time"
)

// Errors
var (
	ErrHoldAlreadyExists = errors.New("a hold already exists for this report")
	ErrHoldNotFound      = errors.New("no hold found for this report")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// HeldBundle is one payment hold inside a wallet, keyed by the damage report
// that caused it
type HeldBundle struct {
	ReportID     string    `bson:"reportId"`
	WorkID       string    `bson:"workId"`
	BundleNumber string    `bson:"bundleNumber"`
	Pieces       int       `bson:"pieces"`
	HeldAmount   float64   `bson:"heldAmount"`
	Reason       string    `bson:"reason,omitempty"`
	HeldAt       time.Time `bson:"heldAt"`
}

// Wallet is the aggregate root for an operator's piece-rate earnings.
// Invariant: HeldAmount always equals the sum of HeldBundles amounts.
type Wallet struct {
	OperatorID      string       `bson:"_id"`
	AvailableAmount float64      `bson:"availableAmount"`
	HeldAmount      float64      `bson:"heldAmount"`
	TotalEarned     float64      `bson:"totalEarned"`
	CanWithdraw     bool         `bson:"canWithdraw"`
	HeldBundles     []HeldBundle `bson:"heldBundles"`

	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
	DomainEvents []DomainEvent `bson:"-"`
}

// NewWallet creates an empty wallet for an operator
func NewWallet(operatorID string) *Wallet {
	now := time.Now()
	return &Wallet{
		OperatorID:   operatorID,
		HeldBundles:  make([]HeldBundle, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}
}

// CreditEarnings adds completed-work earnings as available funds
func (w *Wallet) CreditEarnings(workID, bundleNumber string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	now := time.Now()
	w.AvailableAmount += amount
	w.TotalEarned += amount
	w.CanWithdraw = w.AvailableAmount > 0
	w.UpdatedAt = now

	w.AddDomainEvent(&EarningsCreditedEvent{
		OperatorID:   w.OperatorID,
		WorkID:       workID,
		BundleNumber: bundleNumber,
		Amount:       amount,
		CreditedAt:   now,
	})

	return nil
}

// Hold moves a bundle's pay into the held bucket for a damage report
func (w *Wallet) Hold(reportID, workID, bundleNumber string, pieces int, amount float64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	for _, hb := range w.HeldBundles {
		if hb.ReportID == reportID {
			return ErrHoldAlreadyExists
		}
	}

	now := time.Now()
	w.HeldBundles = append(w.HeldBundles, HeldBundle{
		ReportID:     reportID,
		WorkID:       workID,
		BundleNumber: bundleNumber,
		Pieces:       pieces,
		HeldAmount:   amount,
		Reason:       reason,
		HeldAt:       now,
	})
	w.HeldAmount += amount
	w.UpdatedAt = now

	w.AddDomainEvent(&PaymentHeldEvent{
		OperatorID:   w.OperatorID,
		ReportID:     reportID,
		WorkID:       workID,
		BundleNumber: bundleNumber,
		Amount:       amount,
		Pieces:       pieces,
		HeldAt:       now,
	})

	return nil
}

// Release moves a hold back to available funds and counts it as earned.
// The full held amount is released; penalties are never deducted here.
func (w *Wallet) Release(reportID string) (float64, error) {
	idx := -1
	for i, hb := range w.HeldBundles {
		if hb.ReportID == reportID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrHoldNotFound
	}

	hb := w.HeldBundles[idx]
	now := time.Now()
	w.HeldBundles = append(w.HeldBundles[:idx], w.HeldBundles[idx+1:]...)
	w.HeldAmount -= hb.HeldAmount
	w.AvailableAmount += hb.HeldAmount
	w.TotalEarned += hb.HeldAmount
	w.CanWithdraw = w.AvailableAmount > 0
	w.UpdatedAt = now

	w.AddDomainEvent(&PaymentReleasedEvent{
		OperatorID:   w.OperatorID,
		ReportID:     reportID,
		WorkID:       hb.WorkID,
		BundleNumber: hb.BundleNumber,
		Amount:       hb.HeldAmount,
		ReleasedAt:   now,
	})

	return hb.HeldAmount, nil
}

// HeldFor returns the hold for a report, if present
func (w *Wallet) HeldFor(reportID string) (HeldBundle, bool) {
	for _, hb := range w.HeldBundles {
		if hb.ReportID == reportID {
			return hb, true
		}
	}
	return HeldBundle{}, false
}

// CheckInvariant verifies HeldAmount equals the sum of held bundle amounts
func (w *Wallet) CheckInvariant() bool {
	var sum float64
	for _, hb := range w.HeldBundles {
		sum += hb.HeldAmount
	}
	const epsilon = 1e-9
	diff := w.HeldAmount - sum
	return diff < epsilon && diff > -epsilon
}

// AddDomainEvent adds a domain event
func (w *Wallet) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *Wallet) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (w *Wallet) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

// LedgerEntryType classifies wage ledger entries
type LedgerEntryType string

const (
	LedgerEntryEarnings    LedgerEntryType = "earnings"
	LedgerEntryHoldRelease LedgerEntryType = "hold_release"
)

// WageLedgerEntry is an append-only record of money movements into a wallet
type WageLedgerEntry struct {
	EntryID      string          `bson:"_id"`
	OperatorID   string          `bson:"operatorId"`
	WorkID       string          `bson:"workId,omitempty"`
	BundleNumber string          `bson:"bundleNumber,omitempty"`
	ReportID     string          `bson:"reportId,omitempty"`
	Type         LedgerEntryType `bson:"type"`
	Amount       float64         `bson:"amount"`
	Description  string          `bson:"description,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt"`
}
