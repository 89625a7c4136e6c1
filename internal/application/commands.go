package application

import "github.com/garment-platform/production-service/internal/domain"

// CreateWorkUnitCommand creates a new available work unit
type CreateWorkUnitCommand struct {
	WorkID       string
	BundleNumber string
	Article      string
	ArticleName  string
	Operation    string
	Color        string
	Size         string
	Pieces       int
	RatePerPiece float64
	MachineType  string
	Priority     int
}

// ClaimWorkCommand claims a work unit for an operator
type ClaimWorkCommand struct {
	WorkID          string
	OperatorID      string
	OperatorName    string
	OperatorMachine string
	SelfAssigned    bool
	Priority        int
}

// ReleaseWorkCommand releases a claimed work unit back to the pool
type ReleaseWorkCommand struct {
	WorkID     string
	OperatorID string
}

// StartWorkCommand moves an assigned work unit into progress
type StartWorkCommand struct {
	WorkID     string
	OperatorID string
}

// CompleteWorkCommand completes a work unit and credits earnings
type CompleteWorkCommand struct {
	WorkID          string
	OperatorID      string
	CompletedPieces int
}

// GetWorkUnitQuery retrieves a work unit by ID
type GetWorkUnitQuery struct {
	WorkID string
}

// ListAvailableWorkQuery lists claimable work units
type ListAvailableWorkQuery struct {
	MachineType string
	Limit       int
}

// ListOperatorWorkQuery lists work units assigned to an operator
type ListOperatorWorkQuery struct {
	OperatorID string
}

// ListWorkUnitsQuery lists work units across all operators, newest first
type ListWorkUnitsQuery struct {
	Status domain.WorkUnitStatus
	Limit  int
	Offset int
}

// SubmitDamageReportCommand reports damaged pieces on a claimed bundle
type SubmitDamageReportCommand struct {
	WorkID       string
	OperatorID   string
	SupervisorID string
	DamageTypeID string
	PieceNumbers []int
	Urgency      domain.Urgency
	Description  string
}

// AcknowledgeReportCommand records the supervisor seeing the report
type AcknowledgeReportCommand struct {
	ReportID     string
	SupervisorID string
}

// StartReworkCommand begins the supervisor repair
type StartReworkCommand struct {
	ReportID     string
	SupervisorID string
}

// CompleteReworkCommand records the repair and its payment impact
type CompleteReworkCommand struct {
	ReportID         string
	SupervisorID     string
	PartsReplaced    []string
	TimeSpentMinutes int
	Quality          string
	CostEstimate     float64
}

// ReturnToOperatorCommand hands repaired pieces back as a rework unit
type ReturnToOperatorCommand struct {
	ReportID     string
	SupervisorID string
}

// FinalizeReportCommand closes the report and releases the payment hold
type FinalizeReportCommand struct {
	ReportID       string
	OperatorID     string
	ResolutionNote string
}

// CancelReportCommand terminates a report without releasing held pay
type CancelReportCommand struct {
	ReportID    string
	CancelledBy string
	Reason      string
}

// RejectReportCommand rejects an invalid report without releasing held pay
type RejectReportCommand struct {
	ReportID     string
	SupervisorID string
	Reason       string
}

// GetReportQuery retrieves a damage report by ID
type GetReportQuery struct {
	ReportID string
}

// ListReportsQuery lists damage reports for a supervisor or operator
type ListReportsQuery struct {
	SupervisorID string
	OperatorID   string
	Statuses     []domain.ReportStatus
	Limit        int
	Offset       int
}

// GetWalletQuery retrieves an operator's wallet balance
type GetWalletQuery struct {
	OperatorID string
}

// GetHeldBundlesQuery retrieves the held-bundle breakdown for an operator
type GetHeldBundlesQuery struct {
	OperatorID string
}

// GetLedgerQuery retrieves an operator's wage ledger entries
type GetLedgerQuery struct {
	OperatorID string
	Limit      int
	Offset     int
}
