package application

import (
	"context"
	"sync"
	"testing"

	"github.com/garment-platform/production-service/pkg/errors"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"

	"github.com/garment-platform/production-service/internal/domain"
)

type assignmentFixture struct {
	service  *AssignmentService
	workRepo *fakeWorkRepo
	wallets  *fakeWalletRepo
	ledger   *fakeLedgerRepo
	notifier *fakeNotifier
}

func newAssignmentFixture() *assignmentFixture {
	workRepo := newFakeWorkRepo()
	wallets := newFakeWalletRepo()
	ledger := &fakeLedgerRepo{}
	notifier := &fakeNotifier{}
	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig("test"))

	service := NewAssignmentService(workRepo, wallets, ledger, newFakeOperatorRepo(), fakeTx{}, notifier, logger, m)
	return &assignmentFixture{
		service:  service,
		workRepo: workRepo,
		wallets:  wallets,
		ledger:   ledger,
		notifier: notifier,
	}
}

func seedWorkUnit(t *testing.T, repo *fakeWorkRepo, workID string) *domain.WorkUnit {
	t.Helper()
	unit := domain.NewWorkUnit(workID, "B-"+workID, "8085", "sleeve_attach", 30, 2.50)
	if err := repo.Save(context.Background(), unit); err != nil {
		t.Fatalf("unexpected seed err: %v", err)
	}
	return unit
}

func TestAssignmentService_ClaimWork(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")

	dto, err := f.service.ClaimWork(context.Background(), ClaimWorkCommand{
		WorkID:       "work-1",
		OperatorID:   "op-1",
		OperatorName: "Maya",
		SelfAssigned: true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if dto.AssignedTo != "op-1" || dto.Status != string(domain.WorkUnitStatusAssigned) {
		t.Fatalf("unexpected claim result: %+v", dto)
	}
	if got := f.notifier.byType(domain.NotificationWorkAssigned); len(got) != 1 {
		t.Fatalf("expected one work_assigned notification, got %d", len(got))
	}
}

func TestAssignmentService_ClaimWork_Conflict(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")

	if _, err := f.service.ClaimWork(context.Background(), ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-1"}); err != nil {
		t.Fatalf("first claim should succeed, got %v", err)
	}

	_, err := f.service.ClaimWork(context.Background(), ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-2"})
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if got := f.notifier.byType(domain.NotificationWorkUnavailable); len(got) != 1 {
		t.Fatalf("expected one work_unavailable notification, got %d", len(got))
	}
}

func TestAssignmentService_ClaimWork_NotFound(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.service.ClaimWork(context.Background(), ClaimWorkCommand{WorkID: "missing", OperatorID: "op-1"})
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

// TestAssignmentService_ConcurrentClaims races many operators for the same
// unit and requires exactly one winner
func TestAssignmentService_ConcurrentClaims(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")

	const claimers = 20
	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.service.ClaimWork(context.Background(), ClaimWorkCommand{
				WorkID:     "work-1",
				OperatorID: string(rune('a' + n)),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.CodeConflict {
			t.Fatalf("loser should get conflict, got %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestAssignmentService_ListWorkUnits(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")
	seedWorkUnit(t, f.workRepo, "work-2")
	ctx := context.Background()

	if _, err := f.service.ClaimWork(ctx, ClaimWorkCommand{WorkID: "work-2", OperatorID: "op-1"}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	all, err := f.service.ListWorkUnits(ctx, ListWorkUnitsQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 units, got %d", len(all))
	}

	assigned, err := f.service.ListWorkUnits(ctx, ListWorkUnitsQuery{Status: domain.WorkUnitStatusAssigned})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(assigned) != 1 || assigned[0].WorkID != "work-2" {
		t.Fatalf("expected only work-2 assigned, got %+v", assigned)
	}
}

func TestAssignmentService_ReleaseWork(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")
	ctx := context.Background()

	if _, err := f.service.ClaimWork(ctx, ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-1"}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// Wrong operator gets a conflict
	if _, err := f.service.ReleaseWork(ctx, ReleaseWorkCommand{WorkID: "work-1", OperatorID: "op-2"}); err == nil {
		t.Fatal("expected conflict for wrong operator")
	}

	dto, err := f.service.ReleaseWork(ctx, ReleaseWorkCommand{WorkID: "work-1", OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if dto.Status != string(domain.WorkUnitStatusAvailable) || dto.Assigned {
		t.Fatalf("unit should be back in the pool: %+v", dto)
	}

	// Released unit is claimable again
	if _, err := f.service.ClaimWork(ctx, ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-2"}); err != nil {
		t.Fatalf("reclaim after release failed: %v", err)
	}
}

func TestAssignmentService_CompleteWork(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")
	ctx := context.Background()

	if _, err := f.service.ClaimWork(ctx, ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-1"}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := f.service.StartWork(ctx, StartWorkCommand{WorkID: "work-1", OperatorID: "op-1"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	dto, err := f.service.CompleteWork(ctx, CompleteWorkCommand{WorkID: "work-1", OperatorID: "op-1", CompletedPieces: 30})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if dto.EarnedAmount != 75.0 {
		t.Fatalf("expected 75.0 earned, got %v", dto.EarnedAmount)
	}

	wallet, _ := f.wallets.FindByOperator(ctx, "op-1")
	if wallet == nil || wallet.AvailableAmount != 75.0 || wallet.TotalEarned != 75.0 {
		t.Fatalf("wallet not credited: %+v", wallet)
	}

	entries, _ := f.ledger.FindByOperator(ctx, "op-1", 10, 0)
	if len(entries) != 1 || entries[0].Type != domain.LedgerEntryEarnings || entries[0].Amount != 75.0 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestAssignmentService_CompleteWork_InvalidPieces(t *testing.T) {
	f := newAssignmentFixture()
	seedWorkUnit(t, f.workRepo, "work-1")
	ctx := context.Background()

	f.service.ClaimWork(ctx, ClaimWorkCommand{WorkID: "work-1", OperatorID: "op-1"})
	f.service.StartWork(ctx, StartWorkCommand{WorkID: "work-1", OperatorID: "op-1"})

	if _, err := f.service.CompleteWork(ctx, CompleteWorkCommand{WorkID: "work-1", OperatorID: "op-1", CompletedPieces: 99}); err == nil {
		t.Fatal("expected validation error for too many pieces")
	}

	// Nothing was credited
	if wallet, _ := f.wallets.FindByOperator(ctx, "op-1"); wallet != nil {
		t.Fatalf("wallet should not exist after failed completion: %+v", wallet)
	}
	if entries, _ := f.ledger.FindByOperator(ctx, "op-1", 10, 0); len(entries) != 0 {
		t.Fatalf("ledger should be empty: %+v", entries)
	}
}
