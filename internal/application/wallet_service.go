package application

import (
	"context"
	"fmt"

	"github.com/garment-platform/production-service/pkg/logging"

	"github.com/garment-platform/production-service/internal/domain"
)

// WalletService handles read-side wallet use cases. All money movements go
// through the assignment and damage services inside their transactions; this
// service only answers balance and ledger queries.
type WalletService struct {
	walletRepo domain.WalletRepository
	ledgerRepo domain.WageLedgerRepository
	logger     *logging.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(walletRepo domain.WalletRepository, ledgerRepo domain.WageLedgerRepository, logger *logging.Logger) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// GetBalance retrieves an operator's wallet balance. Operators with no
// wallet yet get a zeroed balance rather than an error.
func (s *WalletService) GetBalance(ctx context.Context, query GetWalletQuery) (*WalletDTO, error) {
	wallet, err := s.walletRepo.FindByOperator(ctx, query.OperatorID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wallet", "operatorId", query.OperatorID)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return ToWalletDTO(domain.NewWallet(query.OperatorID)), nil
	}

	if !wallet.CheckInvariant() {
		s.logger.Error("Wallet held amount does not match held bundles",
			"operatorId", wallet.OperatorID, "heldAmount", wallet.HeldAmount)
	}

	return ToWalletDTO(wallet), nil
}

// GetHeldBundles retrieves the per-bundle breakdown of an operator's held pay
func (s *WalletService) GetHeldBundles(ctx context.Context, query GetHeldBundlesQuery) ([]HeldBundleDTO, error) {
	wallet, err := s.walletRepo.FindByOperator(ctx, query.OperatorID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wallet", "operatorId", query.OperatorID)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return []HeldBundleDTO{}, nil
	}
	return ToHeldBundleDTOs(wallet.HeldBundles), nil
}

// GetLedger retrieves an operator's wage ledger entries, newest first
func (s *WalletService) GetLedger(ctx context.Context, query GetLedgerQuery) ([]WageLedgerEntryDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	entries, err := s.ledgerRepo.FindByOperator(ctx, query.OperatorID, limit, query.Offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wage ledger", "operatorId", query.OperatorID)
		return nil, fmt.Errorf("failed to get wage ledger: %w", err)
	}
	return ToWageLedgerEntryDTOs(entries), nil
}
