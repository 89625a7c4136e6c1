package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garment-platform/production-service/pkg/errors"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"

	"github.com/garment-platform/production-service/internal/domain"
)

// AssignmentService handles work unit lifecycle use cases: creation, atomic
// claims, releases, starting and completing work.
type AssignmentService struct {
	workRepo     domain.WorkUnitRepository
	walletRepo   domain.WalletRepository
	ledgerRepo   domain.WageLedgerRepository
	operatorRepo domain.OperatorRepository
	tx           domain.TransactionManager
	notifier     domain.Notifier
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	workRepo domain.WorkUnitRepository,
	walletRepo domain.WalletRepository,
	ledgerRepo domain.WageLedgerRepository,
	operatorRepo domain.OperatorRepository,
	tx domain.TransactionManager,
	notifier domain.Notifier,
	logger *logging.Logger,
	m *metrics.Metrics,
) *AssignmentService {
	return &AssignmentService{
		workRepo:     workRepo,
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		operatorRepo: operatorRepo,
		tx:           tx,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
	}
}

// CreateWorkUnit creates a new available work unit
func (s *AssignmentService) CreateWorkUnit(ctx context.Context, cmd CreateWorkUnitCommand) (*WorkUnitDTO, error) {
	workID := cmd.WorkID
	if workID == "" {
		workID = uuid.New().String()
	}

	unit := domain.NewWorkUnit(workID, cmd.BundleNumber, cmd.Article, cmd.Operation, cmd.Pieces, cmd.RatePerPiece)
	unit.ArticleName = cmd.ArticleName
	unit.Color = cmd.Color
	unit.Size = cmd.Size
	unit.MachineType = cmd.MachineType
	if cmd.Priority > 0 {
		unit.Priority = cmd.Priority
	}

	if err := s.workRepo.Save(ctx, unit); err != nil {
		s.logger.WithError(err).Error("Failed to save work unit", "workId", unit.WorkID)
		return nil, fmt.Errorf("failed to save work unit: %w", err)
	}

	s.logger.Info("Created work unit", "workId", unit.WorkID, "bundleNumber", unit.BundleNumber)
	return ToWorkUnitDTO(unit), nil
}

// ClaimWork atomically assigns a work unit to an operator. Exactly one of
// any set of concurrent claimers succeeds; the rest get a conflict error.
func (s *AssignmentService) ClaimWork(ctx context.Context, cmd ClaimWorkCommand) (*WorkUnitDTO, error) {
	return s.claim(ctx, cmd, "direct")
}

func (s *AssignmentService) claim(ctx context.Context, cmd ClaimWorkCommand, method string) (*WorkUnitDTO, error) {
	unit, err := s.workRepo.ClaimAtomically(ctx, cmd.WorkID, cmd.OperatorID, cmd.OperatorName, cmd.OperatorMachine, cmd.SelfAssigned)
	if err != nil {
		if stderrors.Is(err, domain.ErrWorkNotAvailable) {
			s.metrics.RecordWorkClaim(method, "conflict")
			s.notifier.Notify(ctx, domain.Notification{
				Type:        domain.NotificationWorkUnavailable,
				RecipientID: cmd.OperatorID,
				Title:       "Work unavailable",
				Message:     "This bundle was just assigned to another operator",
				WorkID:      cmd.WorkID,
			})
			return nil, errors.ErrConflict(domain.ErrWorkNotAvailable.Error())
		}
		s.metrics.RecordWorkClaim(method, "error")
		s.logger.WithError(err).Error("Failed to claim work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
		return nil, fmt.Errorf("failed to claim work: %w", err)
	}
	if unit == nil {
		s.metrics.RecordWorkClaim(method, "not_found")
		return nil, errors.ErrNotFoundWithID("work unit", cmd.WorkID)
	}

	s.metrics.RecordWorkClaim(method, "success")
	s.updateOperatorPointer(ctx, unit)

	s.notifier.Notify(ctx, domain.Notification{
		Type:         domain.NotificationWorkAssigned,
		RecipientID:  cmd.OperatorID,
		Title:        "Work assigned",
		Message:      fmt.Sprintf("Bundle %s assigned to you", unit.BundleNumber),
		WorkID:       unit.WorkID,
		BundleNumber: unit.BundleNumber,
	})

	s.logger.Info("Claimed work", "workId", unit.WorkID, "operatorId", cmd.OperatorID, "selfAssigned", cmd.SelfAssigned)
	return ToWorkUnitDTO(unit), nil
}

// ReleaseWork returns a claimed work unit to the available pool
func (s *AssignmentService) ReleaseWork(ctx context.Context, cmd ReleaseWorkCommand) (*WorkUnitDTO, error) {
	unit, err := s.workRepo.ReleaseAtomically(ctx, cmd.WorkID, cmd.OperatorID)
	if err != nil {
		switch {
		case stderrors.Is(err, domain.ErrWorkNotAssigned), stderrors.Is(err, domain.ErrWorkAssignedToOther):
			s.metrics.RecordWorkRelease("conflict")
			return nil, errors.ErrConflict(err.Error())
		default:
			s.metrics.RecordWorkRelease("error")
			s.logger.WithError(err).Error("Failed to release work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
			return nil, fmt.Errorf("failed to release work: %w", err)
		}
	}
	if unit == nil {
		s.metrics.RecordWorkRelease("not_found")
		return nil, errors.ErrNotFoundWithID("work unit", cmd.WorkID)
	}

	s.metrics.RecordWorkRelease("success")
	s.clearOperatorPointer(ctx, cmd.OperatorID, cmd.WorkID)

	s.logger.Info("Released work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
	return ToWorkUnitDTO(unit), nil
}

// StartWork moves an assigned work unit into progress
func (s *AssignmentService) StartWork(ctx context.Context, cmd StartWorkCommand) (*WorkUnitDTO, error) {
	unit, err := s.workRepo.FindByID(ctx, cmd.WorkID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get work unit", "workId", cmd.WorkID)
		return nil, fmt.Errorf("failed to get work unit: %w", err)
	}
	if unit == nil {
		return nil, errors.ErrNotFoundWithID("work unit", cmd.WorkID)
	}

	if err := unit.StartWork(cmd.OperatorID); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.workRepo.Save(ctx, unit); err != nil {
		s.logger.WithError(err).Error("Failed to save work unit", "workId", cmd.WorkID)
		return nil, fmt.Errorf("failed to save work unit: %w", err)
	}

	s.logger.Info("Started work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
	return ToWorkUnitDTO(unit), nil
}

// CompleteWork completes a work unit and credits piece-rate earnings to the
// operator's wallet and wage ledger in one transaction
func (s *AssignmentService) CompleteWork(ctx context.Context, cmd CompleteWorkCommand) (*WorkUnitDTO, error) {
	var unit *domain.WorkUnit

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		unit, err = s.workRepo.FindByID(txCtx, cmd.WorkID)
		if err != nil {
			return fmt.Errorf("failed to get work unit: %w", err)
		}
		if unit == nil {
			return errors.ErrNotFoundWithID("work unit", cmd.WorkID)
		}

		if err := unit.Complete(cmd.OperatorID, cmd.CompletedPieces); err != nil {
			return errors.ErrValidation(err.Error())
		}

		wallet, err := s.walletRepo.FindByOperator(txCtx, cmd.OperatorID)
		if err != nil {
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if wallet == nil {
			wallet = domain.NewWallet(cmd.OperatorID)
		}
		if err := wallet.CreditEarnings(unit.WorkID, unit.BundleNumber, unit.EarnedAmount); err != nil {
			return errors.ErrValidation(err.Error())
		}

		if err := s.workRepo.Save(txCtx, unit); err != nil {
			return fmt.Errorf("failed to save work unit: %w", err)
		}
		if err := s.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}

		entry := &domain.WageLedgerEntry{
			EntryID:      uuid.New().String(),
			OperatorID:   cmd.OperatorID,
			WorkID:       unit.WorkID,
			BundleNumber: unit.BundleNumber,
			Type:         domain.LedgerEntryEarnings,
			Amount:       unit.EarnedAmount,
			Description:  fmt.Sprintf("%d pieces @ %.2f", cmd.CompletedPieces, unit.RatePerPiece),
			CreatedAt:    time.Now(),
		}
		return s.ledgerRepo.Append(txCtx, entry)
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		s.logger.WithError(err).Error("Failed to complete work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID)
		return nil, err
	}

	s.clearOperatorPointer(ctx, cmd.OperatorID, cmd.WorkID)

	s.logger.Info("Completed work", "workId", cmd.WorkID, "operatorId", cmd.OperatorID,
		"pieces", cmd.CompletedPieces, "earned", unit.EarnedAmount)
	return ToWorkUnitDTO(unit), nil
}

// GetWorkUnit retrieves a work unit by ID
func (s *AssignmentService) GetWorkUnit(ctx context.Context, query GetWorkUnitQuery) (*WorkUnitDTO, error) {
	unit, err := s.workRepo.FindByID(ctx, query.WorkID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get work unit", "workId", query.WorkID)
		return nil, fmt.Errorf("failed to get work unit: %w", err)
	}
	if unit == nil {
		return nil, errors.ErrNotFoundWithID("work unit", query.WorkID)
	}
	return ToWorkUnitDTO(unit), nil
}

// ListAvailableWork lists claimable work units, most urgent first
func (s *AssignmentService) ListAvailableWork(ctx context.Context, query ListAvailableWorkQuery) ([]WorkUnitDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	units, err := s.workRepo.FindAvailable(ctx, query.MachineType, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list available work")
		return nil, fmt.Errorf("failed to list available work: %w", err)
	}
	return ToWorkUnitDTOs(units), nil
}

// ListWorkUnits lists work units across operators with optional status filter
func (s *AssignmentService) ListWorkUnits(ctx context.Context, query ListWorkUnitsQuery) ([]WorkUnitDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	units, err := s.workRepo.FindAll(ctx, query.Status, limit, query.Offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list work units")
		return nil, fmt.Errorf("failed to list work units: %w", err)
	}
	return ToWorkUnitDTOs(units), nil
}

// ListOperatorWork lists work units assigned to an operator
func (s *AssignmentService) ListOperatorWork(ctx context.Context, query ListOperatorWorkQuery) ([]WorkUnitDTO, error) {
	units, err := s.workRepo.FindByOperator(ctx, query.OperatorID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list operator work", "operatorId", query.OperatorID)
		return nil, fmt.Errorf("failed to list operator work: %w", err)
	}
	return ToWorkUnitDTOs(units), nil
}

// updateOperatorPointer maintains the denormalized operator record after a
// claim. Best effort: the claim has already committed, so failures here are
// logged and absorbed.
func (s *AssignmentService) updateOperatorPointer(ctx context.Context, unit *domain.WorkUnit) {
	op := &domain.Operator{
		OperatorID:          unit.AssignedTo,
		Name:                unit.OperatorName,
		Machine:             unit.OperatorMachine,
		CurrentWorkID:       unit.WorkID,
		CurrentBundleNumber: unit.BundleNumber,
		AssignedAt:          unit.AssignedAt,
		UpdatedAt:           time.Now(),
	}
	if err := s.operatorRepo.Upsert(ctx, op); err != nil {
		s.logger.WithError(err).Warn("Failed to update operator pointer", "operatorId", unit.AssignedTo)
	}
}

func (s *AssignmentService) clearOperatorPointer(ctx context.Context, operatorID, workID string) {
	if err := s.operatorRepo.ClearCurrentWork(ctx, operatorID, workID); err != nil {
		s.logger.WithError(err).Warn("Failed to clear operator pointer", "operatorId", operatorID)
	}
}
