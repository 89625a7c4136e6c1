package application

import (
	"context"
	"sync"
	"time"

	"github.com/garment-platform/production-service/internal/domain"
)

// In-memory fakes backing the service tests. The work repo implements the
// same compare-and-set semantics as the real one so claim races behave
// identically.

type fakeWorkRepo struct {
	mu    sync.Mutex
	units map[string]*domain.WorkUnit
}

func newFakeWorkRepo() *fakeWorkRepo {
	return &fakeWorkRepo{units: make(map[string]*domain.WorkUnit)}
}

func (r *fakeWorkRepo) Save(_ context.Context, unit *domain.WorkUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit.ClearDomainEvents()
	r.units[unit.WorkID] = unit
	return nil
}

func (r *fakeWorkRepo) FindByID(_ context.Context, workID string) (*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.units[workID], nil
}

func (r *fakeWorkRepo) FindByBundleNumber(_ context.Context, bundleNumber string) (*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, unit := range r.units {
		if unit.BundleNumber == bundleNumber {
			return unit, nil
		}
	}
	return nil, nil
}

func (r *fakeWorkRepo) FindAvailable(_ context.Context, machineType string, limit int) ([]*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkUnit
	for _, unit := range r.units {
		if unit.Status != domain.WorkUnitStatusAvailable {
			continue
		}
		if machineType != "" && unit.MachineType != machineType {
			continue
		}
		out = append(out, unit)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeWorkRepo) FindByOperator(_ context.Context, operatorID string) ([]*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkUnit
	for _, unit := range r.units {
		if unit.AssignedTo == operatorID {
			out = append(out, unit)
		}
	}
	return out, nil
}

func (r *fakeWorkRepo) FindAll(_ context.Context, status domain.WorkUnitStatus, limit, offset int) ([]*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkUnit
	for _, unit := range r.units {
		if status == "" || unit.Status == status {
			out = append(out, unit)
		}
	}
	return out, nil
}

func (r *fakeWorkRepo) ClaimAtomically(_ context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[workID]
	if !ok {
		return nil, nil
	}
	if err := unit.Claim(operatorID, operatorName, machine, selfAssigned); err != nil {
		return nil, err
	}
	unit.Version++
	unit.ClearDomainEvents()
	return unit, nil
}

func (r *fakeWorkRepo) ReleaseAtomically(_ context.Context, workID, operatorID string) (*domain.WorkUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[workID]
	if !ok {
		return nil, nil
	}
	if err := unit.Release(operatorID); err != nil {
		return nil, err
	}
	unit.Version++
	unit.ClearDomainEvents()
	return unit, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*domain.DamageReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*domain.DamageReport)}
}

func (r *fakeReportRepo) Save(_ context.Context, report *domain.DamageReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ClearDomainEvents()
	r.reports[report.ReportID] = report
	return nil
}

func (r *fakeReportRepo) FindByID(_ context.Context, reportID string) (*domain.DamageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[reportID], nil
}

func (r *fakeReportRepo) FindOpenByBundle(_ context.Context, bundleNumber string) ([]*domain.DamageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DamageReport
	for _, report := range r.reports {
		if report.BundleNumber == bundleNumber && report.IsOpen() {
			out = append(out, report)
		}
	}
	return out, nil
}

func (r *fakeReportRepo) FindBySupervisor(_ context.Context, supervisorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DamageReport
	for _, report := range r.reports {
		if report.SupervisorID != supervisorID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if report.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, report)
	}
	return out, nil
}

func (r *fakeReportRepo) FindByOperator(_ context.Context, operatorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DamageReport
	for _, report := range r.reports {
		if report.OperatorID != operatorID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if report.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, report)
	}
	return out, nil
}

func (r *fakeReportRepo) FindOverdue(_ context.Context, now time.Time) ([]*domain.DamageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DamageReport
	for _, report := range r.reports {
		if report.IsOverdue(now) {
			out = append(out, report)
		}
	}
	return out, nil
}

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]*domain.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (r *fakeWalletRepo) Save(_ context.Context, wallet *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet.ClearDomainEvents()
	r.wallets[wallet.OperatorID] = wallet
	return nil
}

func (r *fakeWalletRepo) FindByOperator(_ context.Context, operatorID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallets[operatorID], nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []*domain.WageLedgerEntry
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *domain.WageLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) FindByOperator(_ context.Context, operatorID string, limit, offset int) ([]*domain.WageLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WageLedgerEntry
	for _, entry := range r.entries {
		if entry.OperatorID == operatorID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeOperatorRepo struct {
	mu        sync.Mutex
	operators map[string]*domain.Operator
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{operators: make(map[string]*domain.Operator)}
}

func (r *fakeOperatorRepo) Upsert(_ context.Context, operator *domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[operator.OperatorID] = operator
	return nil
}

func (r *fakeOperatorRepo) FindByID(_ context.Context, operatorID string) (*domain.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operators[operatorID], nil
}

func (r *fakeOperatorRepo) ClearCurrentWork(_ context.Context, operatorID, workID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op, ok := r.operators[operatorID]; ok && op.CurrentWorkID == workID {
		op.CurrentWorkID = ""
		op.CurrentBundleNumber = ""
		op.AssignedAt = nil
	}
	return nil
}

// fakeTx runs the function directly; the in-memory fakes have no rollback,
// tests assert instead that failing paths abort before any write.
type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *fakeNotifier) byType(t domain.NotificationType) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, msg := range n.sent {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}
