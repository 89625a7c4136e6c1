package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garment-platform/production-service/pkg/errors"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"

	"github.com/garment-platform/production-service/internal/domain"
)

// DefaultMaxDamagedPieces caps how many pieces one report may cover
const DefaultMaxDamagedPieces = 3

// DamageService handles the damage report lifecycle: submission, supervisor
// rework, return to operator and final payment release. Every transition
// that touches money runs inside a single transaction with its payment-hold
// counterpart, so a report can never disagree with the wallet.
type DamageService struct {
	reportRepo domain.DamageReportRepository
	workRepo   domain.WorkUnitRepository
	walletRepo domain.WalletRepository
	ledgerRepo domain.WageLedgerRepository
	tx         domain.TransactionManager
	notifier   domain.Notifier
	taxonomy   domain.Taxonomy
	logger     *logging.Logger
	metrics    *metrics.Metrics

	maxDamagedPieces int
}

// NewDamageService creates a new DamageService. maxDamagedPieces caps the
// pieces one report may cover; values <= 0 fall back to
// DefaultMaxDamagedPieces.
func NewDamageService(
	reportRepo domain.DamageReportRepository,
	workRepo domain.WorkUnitRepository,
	walletRepo domain.WalletRepository,
	ledgerRepo domain.WageLedgerRepository,
	tx domain.TransactionManager,
	notifier domain.Notifier,
	taxonomy domain.Taxonomy,
	maxDamagedPieces int,
	logger *logging.Logger,
	m *metrics.Metrics,
) *DamageService {
	if maxDamagedPieces <= 0 {
		maxDamagedPieces = DefaultMaxDamagedPieces
	}
	return &DamageService{
		reportRepo:       reportRepo,
		workRepo:         workRepo,
		walletRepo:       walletRepo,
		ledgerRepo:       ledgerRepo,
		tx:               tx,
		notifier:         notifier,
		taxonomy:         taxonomy,
		logger:           logger,
		metrics:          m,
		maxDamagedPieces: maxDamagedPieces,
	}
}

// SubmitReport creates a damage report and places the payment hold for the
// damaged pieces in the same transaction
func (s *DamageService) SubmitReport(ctx context.Context, cmd SubmitDamageReportCommand) (*DamageReportDTO, error) {
	damageType, ok := s.taxonomy.Lookup(cmd.DamageTypeID)
	if !ok {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown damage type: %s", cmd.DamageTypeID))
	}
	if !domain.IsValidUrgency(cmd.Urgency) {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown urgency: %s", cmd.Urgency))
	}
	if len(cmd.PieceNumbers) == 0 {
		return nil, errors.ErrValidation("at least one damaged piece is required")
	}
	if len(cmd.PieceNumbers) > s.maxDamagedPieces {
		return nil, errors.ErrValidation(fmt.Sprintf("a report may cover at most %d pieces", s.maxDamagedPieces))
	}

	var (
		report     *domain.DamageReport
		heldAmount float64
	)

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		unit, err := s.workRepo.FindByID(txCtx, cmd.WorkID)
		if err != nil {
			return fmt.Errorf("failed to get work unit: %w", err)
		}
		if unit == nil {
			return errors.ErrNotFoundWithID("work unit", cmd.WorkID)
		}
		if unit.AssignedTo != cmd.OperatorID {
			return errors.ErrForbidden("work unit is not assigned to this operator")
		}

		open, err := s.reportRepo.FindOpenByBundle(txCtx, unit.BundleNumber)
		if err != nil {
			return fmt.Errorf("failed to check open reports: %w", err)
		}
		if len(open) > 0 {
			return errors.ErrConflict(fmt.Sprintf("bundle %s already has an open damage report", unit.BundleNumber))
		}

		reportID := uuid.New().String()
		report = domain.NewDamageReport(reportID, unit.WorkID, unit.BundleNumber,
			cmd.OperatorID, unit.OperatorName, cmd.SupervisorID,
			damageType, cmd.PieceNumbers, cmd.Urgency, cmd.Description)

		heldAmount, err = unit.HoldPayment(reportID, len(cmd.PieceNumbers))
		if err != nil {
			return errors.ErrValidation(err.Error())
		}

		wallet, err := s.walletRepo.FindByOperator(txCtx, cmd.OperatorID)
		if err != nil {
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if wallet == nil {
			wallet = domain.NewWallet(cmd.OperatorID)
		}
		if err := wallet.Hold(reportID, unit.WorkID, unit.BundleNumber,
			len(cmd.PieceNumbers), heldAmount, damageType.Name); err != nil {
			return errors.ErrConsistency(err.Error())
		}

		if err := s.reportRepo.Save(txCtx, report); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		if err := s.workRepo.Save(txCtx, unit); err != nil {
			return fmt.Errorf("failed to save work unit: %w", err)
		}
		return s.walletRepo.Save(txCtx, wallet)
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		s.logger.WithError(err).Error("Failed to submit damage report", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
		return nil, err
	}

	s.metrics.RecordDamageReport(string(damageType.Severity), string(cmd.Urgency))
	s.metrics.RecordPaymentHold(heldAmount)

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationDamageReported,
		RecipientID:   cmd.SupervisorID,
		RecipientRole: "supervisor",
		Title:         "Damage reported",
		Message:       fmt.Sprintf("%d damaged pieces on bundle %s (%s)", report.PieceCount(), report.BundleNumber, damageType.Name),
		ReportID:      report.ReportID,
		WorkID:        report.WorkID,
		BundleNumber:  report.BundleNumber,
		Urgency:       cmd.Urgency,
	})

	s.logger.Info("Submitted damage report", "reportId", report.ReportID,
		"bundleNumber", report.BundleNumber, "damageType", cmd.DamageTypeID, "urgency", cmd.Urgency)
	return ToDamageReportDTO(report), nil
}

// AcknowledgeReport records the supervisor seeing the report and moves it
// into the supervisor queue
func (s *DamageService) AcknowledgeReport(ctx context.Context, cmd AcknowledgeReportCommand) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}

	if err := report.Acknowledge(cmd.SupervisorID); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}
	if err := report.MoveToQueue(); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to save report", "reportId", cmd.ReportID)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info("Acknowledged damage report", "reportId", cmd.ReportID, "supervisorId", cmd.SupervisorID)
	return ToDamageReportDTO(report), nil
}

// StartRework begins the supervisor repair
func (s *DamageService) StartRework(ctx context.Context, cmd StartReworkCommand) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}

	if err := report.StartRework(cmd.SupervisorID); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to save report", "reportId", cmd.ReportID)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationReworkStarted,
		RecipientID:   report.OperatorID,
		RecipientRole: "operator",
		Title:         "Rework started",
		Message:       fmt.Sprintf("Supervisor is repairing bundle %s", report.BundleNumber),
		ReportID:      report.ReportID,
		BundleNumber:  report.BundleNumber,
	})

	s.logger.Info("Started rework", "reportId", cmd.ReportID, "supervisorId", cmd.SupervisorID)
	return ToDamageReportDTO(report), nil
}

// CompleteRework records the repair details and assesses the payment impact
// from the damage taxonomy
func (s *DamageService) CompleteRework(ctx context.Context, cmd CompleteReworkCommand) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}

	damageType, ok := s.taxonomy.Lookup(report.DamageTypeID)
	if !ok {
		return nil, errors.ErrConsistency(fmt.Sprintf("report references unknown damage type: %s", report.DamageTypeID))
	}

	unit, err := s.workRepo.FindByID(ctx, report.WorkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work unit: %w", err)
	}
	if unit == nil {
		return nil, errors.ErrNotFoundWithID("work unit", report.WorkID)
	}

	details := domain.ReworkDetails{
		PartsReplaced:    cmd.PartsReplaced,
		TimeSpentMinutes: cmd.TimeSpentMinutes,
		Quality:          cmd.Quality,
		CostEstimate:     cmd.CostEstimate,
		CompletedBy:      cmd.SupervisorID,
	}
	if err := report.CompleteRework(details, damageType, unit.RatePerPiece, unit.HeldAmount); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to save report", "reportId", cmd.ReportID)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info("Completed rework", "reportId", cmd.ReportID,
		"operatorAtFault", report.PaymentImpact.OperatorAtFault,
		"penaltyAmount", report.PaymentImpact.PenaltyAmount)
	return ToDamageReportDTO(report), nil
}

// ReturnToOperator hands the repaired pieces back as a high-priority rework
// work unit pre-assigned to the original operator
func (s *DamageService) ReturnToOperator(ctx context.Context, cmd ReturnToOperatorCommand) (*DamageReportDTO, error) {
	var report *domain.DamageReport

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		report, err = s.reportRepo.FindByID(txCtx, cmd.ReportID)
		if err != nil {
			return fmt.Errorf("failed to get report: %w", err)
		}
		if report == nil {
			return errors.ErrNotFoundWithID("damage report", cmd.ReportID)
		}

		unit, err := s.workRepo.FindByID(txCtx, report.WorkID)
		if err != nil {
			return fmt.Errorf("failed to get work unit: %w", err)
		}
		if unit == nil {
			return errors.ErrNotFoundWithID("work unit", report.WorkID)
		}

		reworkID := uuid.New().String()
		rework := domain.NewReworkUnit(reworkID, unit, report.ReportID, report.PieceCount())

		if err := report.ReturnToOperator(reworkID); err != nil {
			return errors.ErrConflict(err.Error())
		}

		if err := s.workRepo.Save(txCtx, rework); err != nil {
			return fmt.Errorf("failed to save rework unit: %w", err)
		}
		return s.reportRepo.Save(txCtx, report)
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		s.logger.WithError(err).Error("Failed to return report to operator", "reportId", cmd.ReportID)
		return nil, err
	}

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationBundleReady,
		RecipientID:   report.OperatorID,
		RecipientRole: "operator",
		Title:         "Repaired pieces ready",
		Message:       fmt.Sprintf("Bundle %s is repaired and back in your queue", report.BundleNumber),
		ReportID:      report.ReportID,
		WorkID:        report.ReworkWorkID,
		BundleNumber:  report.BundleNumber,
	})

	s.logger.Info("Returned report to operator", "reportId", cmd.ReportID,
		"reworkWorkId", report.ReworkWorkID, "operatorId", report.OperatorID)
	return ToDamageReportDTO(report), nil
}

// FinalizeReport closes the report and releases the payment hold. This is
// the only path that releases held pay, and a report can pass through it
// exactly once.
func (s *DamageService) FinalizeReport(ctx context.Context, cmd FinalizeReportCommand) (*DamageReportDTO, error) {
	var (
		report   *domain.DamageReport
		released float64
	)

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		report, err = s.reportRepo.FindByID(txCtx, cmd.ReportID)
		if err != nil {
			return fmt.Errorf("failed to get report: %w", err)
		}
		if report == nil {
			return errors.ErrNotFoundWithID("damage report", cmd.ReportID)
		}

		if err := report.MarkFinalCompletion(cmd.ResolutionNote); err != nil {
			return errors.ErrConsistency(err.Error())
		}

		unit, err := s.workRepo.FindByID(txCtx, report.WorkID)
		if err != nil {
			return fmt.Errorf("failed to get work unit: %w", err)
		}
		if unit == nil {
			return errors.ErrNotFoundWithID("work unit", report.WorkID)
		}
		if _, err := unit.ReleasePayment(report.ReportID); err != nil {
			return errors.ErrConsistency(err.Error())
		}

		wallet, err := s.walletRepo.FindByOperator(txCtx, report.OperatorID)
		if err != nil {
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if wallet == nil {
			return errors.ErrConsistency(fmt.Sprintf("no wallet for operator %s with held pay", report.OperatorID))
		}
		released, err = wallet.Release(report.ReportID)
		if err != nil {
			return errors.ErrConsistency(err.Error())
		}

		if err := s.reportRepo.Save(txCtx, report); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		if err := s.workRepo.Save(txCtx, unit); err != nil {
			return fmt.Errorf("failed to save work unit: %w", err)
		}
		if err := s.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}

		entry := &domain.WageLedgerEntry{
			EntryID:      uuid.New().String(),
			OperatorID:   report.OperatorID,
			WorkID:       report.WorkID,
			BundleNumber: report.BundleNumber,
			ReportID:     report.ReportID,
			Type:         domain.LedgerEntryHoldRelease,
			Amount:       released,
			Description:  "Damage hold released after final completion",
			CreatedAt:    time.Now(),
		}
		return s.ledgerRepo.Append(txCtx, entry)
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		s.logger.WithError(err).Error("Failed to finalize report", "reportId", cmd.ReportID)
		return nil, err
	}

	s.metrics.RecordPaymentRelease(released)

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationPaymentReleased,
		RecipientID:   report.OperatorID,
		RecipientRole: "operator",
		Title:         "Payment released",
		Message:       fmt.Sprintf("Held pay for bundle %s is available again", report.BundleNumber),
		ReportID:      report.ReportID,
		BundleNumber:  report.BundleNumber,
	})

	s.logger.Info("Finalized damage report", "reportId", cmd.ReportID,
		"operatorId", report.OperatorID, "releasedAmount", released)
	return ToDamageReportDTO(report), nil
}

// CancelReport terminates a report. The payment hold stays in place for
// manual review, it is not released.
func (s *DamageService) CancelReport(ctx context.Context, cmd CancelReportCommand) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}

	if err := report.Cancel(cmd.Reason); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to save report", "reportId", cmd.ReportID)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationReportCancelled,
		RecipientID:   report.OperatorID,
		RecipientRole: "operator",
		Title:         "Report cancelled",
		Message:       fmt.Sprintf("Damage report on bundle %s was cancelled: %s", report.BundleNumber, cmd.Reason),
		ReportID:      report.ReportID,
		BundleNumber:  report.BundleNumber,
	})

	s.logger.Info("Cancelled damage report", "reportId", cmd.ReportID, "cancelledBy", cmd.CancelledBy)
	return ToDamageReportDTO(report), nil
}

// RejectReport rejects an invalid report. As with cancellation the hold is
// kept for manual review.
func (s *DamageService) RejectReport(ctx context.Context, cmd RejectReportCommand) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}

	if err := report.Reject(cmd.Reason); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to save report", "reportId", cmd.ReportID)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.notifier.Notify(ctx, domain.Notification{
		Type:          domain.NotificationReportRejected,
		RecipientID:   report.OperatorID,
		RecipientRole: "operator",
		Title:         "Report rejected",
		Message:       fmt.Sprintf("Damage report on bundle %s was rejected: %s", report.BundleNumber, cmd.Reason),
		ReportID:      report.ReportID,
		BundleNumber:  report.BundleNumber,
	})

	s.logger.Info("Rejected damage report", "reportId", cmd.ReportID, "supervisorId", cmd.SupervisorID)
	return ToDamageReportDTO(report), nil
}

// GetReport retrieves a damage report by ID
func (s *DamageService) GetReport(ctx context.Context, query GetReportQuery) (*DamageReportDTO, error) {
	report, err := s.loadReport(ctx, query.ReportID)
	if err != nil {
		return nil, err
	}
	return ToDamageReportDTO(report), nil
}

// ListReports lists damage reports for a supervisor or an operator
func (s *DamageService) ListReports(ctx context.Context, query ListReportsQuery) ([]DamageReportDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		reports []*domain.DamageReport
		err     error
	)
	switch {
	case query.SupervisorID != "":
		reports, err = s.reportRepo.FindBySupervisor(ctx, query.SupervisorID, query.Statuses, limit, query.Offset)
	case query.OperatorID != "":
		reports, err = s.reportRepo.FindByOperator(ctx, query.OperatorID, query.Statuses, limit, query.Offset)
	default:
		return nil, errors.ErrValidation("either supervisorId or operatorId is required")
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reports")
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return ToDamageReportDTOs(reports), nil
}

// ListDamageTypes returns the damage taxonomy
func (s *DamageService) ListDamageTypes() []DamageTypeDTO {
	return ToDamageTypeDTOs(s.taxonomy)
}

// EscalateOverdue escalates every report that has breached its urgency SLA
// while still waiting on the supervisor. Returns the number escalated.
func (s *DamageService) EscalateOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.reportRepo.FindOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue reports: %w", err)
	}

	escalated := 0
	for _, report := range overdue {
		reason := fmt.Sprintf("no supervisor response within %s SLA", report.Urgency)
		if err := report.Escalate(reason); err != nil {
			continue
		}
		if err := s.reportRepo.Save(ctx, report); err != nil {
			s.logger.WithError(err).Error("Failed to save escalated report", "reportId", report.ReportID)
			continue
		}

		escalated++
		s.metrics.RecordDamageEscalation(string(report.Urgency))
		s.notifier.Notify(ctx, domain.Notification{
			Type:          domain.NotificationDamageEscalated,
			RecipientRole: "admin",
			Title:         "Damage report escalated",
			Message:       fmt.Sprintf("Report on bundle %s breached its %s SLA (supervisor %s)", report.BundleNumber, report.Urgency, report.SupervisorID),
			ReportID:      report.ReportID,
			BundleNumber:  report.BundleNumber,
			Urgency:       report.Urgency,
		})
		s.notifier.Notify(ctx, domain.Notification{
			Type:          domain.NotificationDamageEscalated,
			RecipientID:   report.SupervisorID,
			RecipientRole: "supervisor",
			Title:         "Damage report escalated",
			Message:       fmt.Sprintf("Report on bundle %s breached its %s SLA and was moved to an admin", report.BundleNumber, report.Urgency),
			ReportID:      report.ReportID,
			BundleNumber:  report.BundleNumber,
			Urgency:       report.Urgency,
		})
		s.notifier.Notify(ctx, domain.Notification{
			Type:          domain.NotificationDamageEscalated,
			RecipientID:   report.OperatorID,
			RecipientRole: "operator",
			Title:         "Damage report escalated",
			Message:       fmt.Sprintf("Your report on bundle %s is now with an admin", report.BundleNumber),
			ReportID:      report.ReportID,
			BundleNumber:  report.BundleNumber,
			Urgency:       report.Urgency,
		})
		s.logger.Warn("Escalated overdue damage report", "reportId", report.ReportID,
			"urgency", report.Urgency, "supervisorId", report.SupervisorID)
	}
	return escalated, nil
}

// RunEscalationSweeper periodically escalates overdue reports until the
// context is cancelled
func (s *DamageService) RunEscalationSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.EscalateOverdue(ctx, time.Now()); err != nil {
				s.logger.WithError(err).Error("Escalation sweep failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *DamageService) loadReport(ctx context.Context, reportID string) (*domain.DamageReport, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get report", "reportId", reportID)
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil {
		return nil, errors.ErrNotFoundWithID("damage report", reportID)
	}
	return report, nil
}
