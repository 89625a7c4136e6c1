package application

import (
	"context"
	"testing"
	"time"

	"github.com/garment-platform/production-service/pkg/logging"

	"github.com/garment-platform/production-service/internal/domain"
)

func newWalletFixture() (*WalletService, *fakeWalletRepo, *fakeLedgerRepo) {
	wallets := newFakeWalletRepo()
	ledger := &fakeLedgerRepo{}
	logger := logging.New(logging.DefaultConfig("test"))
	return NewWalletService(wallets, ledger, logger), wallets, ledger
}

// TestWalletService_GetBalance_NoWallet returns a zeroed balance for
// operators who have never earned anything
func TestWalletService_GetBalance_NoWallet(t *testing.T) {
	service, _, _ := newWalletFixture()

	dto, err := service.GetBalance(context.Background(), GetWalletQuery{OperatorID: "op-new"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if dto.OperatorID != "op-new" || dto.AvailableAmount != 0 || dto.HeldAmount != 0 || dto.CanWithdraw {
		t.Fatalf("expected zeroed balance: %+v", dto)
	}
}

func TestWalletService_GetBalance(t *testing.T) {
	service, wallets, _ := newWalletFixture()
	ctx := context.Background()

	wallet := domain.NewWallet("op-1")
	wallet.CreditEarnings("work-1", "B-1", 100.0)
	wallet.Hold("dr-1", "work-2", "B-2", 2, 5.0, "broken_stitch")
	wallets.Save(ctx, wallet)

	dto, err := service.GetBalance(ctx, GetWalletQuery{OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if dto.AvailableAmount != 100.0 || dto.HeldAmount != 5.0 || dto.HeldBundleCount != 1 || !dto.CanWithdraw {
		t.Fatalf("unexpected balance: %+v", dto)
	}
}

func TestWalletService_GetHeldBundles(t *testing.T) {
	service, wallets, _ := newWalletFixture()
	ctx := context.Background()

	// No wallet means no held bundles, not an error
	bundles, err := service.GetHeldBundles(ctx, GetHeldBundlesQuery{OperatorID: "op-new"})
	if err != nil || len(bundles) != 0 {
		t.Fatalf("expected empty list, got %v / %v", bundles, err)
	}

	wallet := domain.NewWallet("op-1")
	wallet.Hold("dr-1", "work-1", "B-1", 2, 5.0, "broken_stitch")
	wallet.Hold("dr-2", "work-2", "B-2", 1, 2.5, "oil_stain")
	wallets.Save(ctx, wallet)

	bundles, err = service.GetHeldBundles(ctx, GetHeldBundlesQuery{OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(bundles) != 2 {
		t.Fatalf("expected 2 held bundles, got %d", len(bundles))
	}
}

func TestWalletService_GetLedger(t *testing.T) {
	service, _, ledger := newWalletFixture()
	ctx := context.Background()

	ledger.Append(ctx, &domain.WageLedgerEntry{
		EntryID: "e-1", OperatorID: "op-1", WorkID: "work-1",
		Type: domain.LedgerEntryEarnings, Amount: 75.0, CreatedAt: time.Now(),
	})
	ledger.Append(ctx, &domain.WageLedgerEntry{
		EntryID: "e-2", OperatorID: "op-1", ReportID: "dr-1",
		Type: domain.LedgerEntryHoldRelease, Amount: 5.0, CreatedAt: time.Now(),
	})
	ledger.Append(ctx, &domain.WageLedgerEntry{
		EntryID: "e-3", OperatorID: "op-2",
		Type: domain.LedgerEntryEarnings, Amount: 10.0, CreatedAt: time.Now(),
	})

	entries, err := service.GetLedger(ctx, GetLedgerQuery{OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for op-1, got %d", len(entries))
	}
}
