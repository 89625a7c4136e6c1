package application

import "time"

// WorkUnitDTO represents a work unit in responses
type WorkUnitDTO struct {
	WorkID          string     `json:"workId"`
	BundleNumber    string     `json:"bundleNumber"`
	Article         string     `json:"article"`
	ArticleName     string     `json:"articleName,omitempty"`
	Operation       string     `json:"operation"`
	Color           string     `json:"color,omitempty"`
	Size            string     `json:"size,omitempty"`
	Pieces          int        `json:"pieces"`
	RatePerPiece    float64    `json:"ratePerPiece"`
	MachineType     string     `json:"machineType,omitempty"`
	Status          string     `json:"status"`
	Assigned        bool       `json:"assigned"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
	OperatorName    string     `json:"operatorName,omitempty"`
	SelfAssigned    bool       `json:"selfAssigned"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CompletedPieces int        `json:"completedPieces"`
	EarnedAmount    float64    `json:"earnedAmount"`
	PaymentStatus   string     `json:"paymentStatus"`
	HeldAmount      float64    `json:"heldAmount"`
	CanWithdraw     bool       `json:"canWithdraw"`
	Priority        int        `json:"priority"`
	IsRework        bool       `json:"isRework"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// DamageReportDTO represents a damage report in responses
type DamageReportDTO struct {
	ReportID       string              `json:"reportId"`
	WorkID         string              `json:"workId"`
	BundleNumber   string              `json:"bundleNumber"`
	OperatorID     string              `json:"operatorId"`
	OperatorName   string              `json:"operatorName,omitempty"`
	SupervisorID   string              `json:"supervisorId"`
	DamageType     string              `json:"damageType"`
	Category       string              `json:"category"`
	Severity       string              `json:"severity"`
	Urgency        string              `json:"urgency"`
	PieceNumbers   []int               `json:"pieceNumbers"`
	PieceCount     int                 `json:"pieceCount"`
	Description    string              `json:"description,omitempty"`
	Status         string              `json:"status"`
	ReportedAt     time.Time           `json:"reportedAt"`
	AcknowledgedAt *time.Time          `json:"acknowledgedAt,omitempty"`
	ReturnedAt     *time.Time          `json:"returnedAt,omitempty"`
	ClosedAt       *time.Time          `json:"closedAt,omitempty"`
	ReworkWorkID   string              `json:"reworkWorkId,omitempty"`
	Rework         *ReworkDetailsDTO   `json:"rework,omitempty"`
	PaymentImpact  *PaymentImpactDTO   `json:"paymentImpact,omitempty"`
	Escalation     *EscalationInfoDTO  `json:"escalation,omitempty"`
	ResolutionNote string              `json:"resolutionNote,omitempty"`
}

// ReworkDetailsDTO represents supervisor rework details
type ReworkDetailsDTO struct {
	PartsReplaced    []string `json:"partsReplaced,omitempty"`
	TimeSpentMinutes int      `json:"timeSpentMinutes"`
	Quality          string   `json:"quality,omitempty"`
	CostEstimate     float64  `json:"costEstimate"`
	CompletedBy      string   `json:"completedBy"`
}

// PaymentImpactDTO represents the assessed payment consequence
type PaymentImpactDTO struct {
	OperatorAtFault bool    `json:"operatorAtFault"`
	PenaltyAmount   float64 `json:"penaltyAmount"`
	HeldAmount      float64 `json:"heldAmount"`
}

// EscalationInfoDTO represents an escalation record
type EscalationInfoDTO struct {
	EscalatedAt        time.Time `json:"escalatedAt"`
	OriginalSupervisor string    `json:"originalSupervisor"`
	Reason             string    `json:"reason"`
}

// WalletDTO represents an operator's wallet balance
type WalletDTO struct {
	OperatorID      string  `json:"operatorId"`
	AvailableAmount float64 `json:"availableAmount"`
	HeldAmount      float64 `json:"heldAmount"`
	TotalEarned     float64 `json:"totalEarned"`
	CanWithdraw     bool    `json:"canWithdraw"`
	HeldBundleCount int     `json:"heldBundleCount"`
}

// HeldBundleDTO represents one payment hold in a wallet
type HeldBundleDTO struct {
	ReportID     string    `json:"reportId"`
	WorkID       string    `json:"workId"`
	BundleNumber string    `json:"bundleNumber"`
	Pieces       int       `json:"pieces"`
	HeldAmount   float64   `json:"heldAmount"`
	Reason       string    `json:"reason,omitempty"`
	HeldAt       time.Time `json:"heldAt"`
}

// WageLedgerEntryDTO represents one wage ledger entry
type WageLedgerEntryDTO struct {
	EntryID      string    `json:"entryId"`
	OperatorID   string    `json:"operatorId"`
	WorkID       string    `json:"workId,omitempty"`
	BundleNumber string    `json:"bundleNumber,omitempty"`
	ReportID     string    `json:"reportId,omitempty"`
	Type         string    `json:"type"`
	Amount       float64   `json:"amount"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DamageTypeDTO represents one damage taxonomy entry
type DamageTypeDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Severity      string  `json:"severity"`
	OperatorFault bool    `json:"operatorFault"`
	PenaltyRate   float64 `json:"penaltyRate"`
}
