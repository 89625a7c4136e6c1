package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/metrics"
	"github.com/garment-platform/production-service/pkg/middleware"

	"github.com/garment-platform/production-service/internal/application"
	"github.com/garment-platform/production-service/internal/domain"
)

type stubWorkRepo struct {
	SaveFn              func(ctx context.Context, unit *domain.WorkUnit) error
	FindByIDFn          func(ctx context.Context, workID string) (*domain.WorkUnit, error)
	FindAvailableFn     func(ctx context.Context, machineType string, limit int) ([]*domain.WorkUnit, error)
	ClaimAtomicallyFn   func(ctx context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*domain.WorkUnit, error)
	ReleaseAtomicallyFn func(ctx context.Context, workID, operatorID string) (*domain.WorkUnit, error)
}

func (s *stubWorkRepo) Save(ctx context.Context, unit *domain.WorkUnit) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, unit)
	}
	return nil
}

func (s *stubWorkRepo) FindByID(ctx context.Context, workID string) (*domain.WorkUnit, error) {
	if s.FindByIDFn != nil {
		return s.FindByIDFn(ctx, workID)
	}
	return nil, nil
}

func (s *stubWorkRepo) FindByBundleNumber(ctx context.Context, bundleNumber string) (*domain.WorkUnit, error) {
	return nil, nil
}

func (s *stubWorkRepo) FindAvailable(ctx context.Context, machineType string, limit int) ([]*domain.WorkUnit, error) {
	if s.FindAvailableFn != nil {
		return s.FindAvailableFn(ctx, machineType, limit)
	}
	return nil, nil
}

func (s *stubWorkRepo) FindByOperator(ctx context.Context, operatorID string) ([]*domain.WorkUnit, error) {
	return nil, nil
}

func (s *stubWorkRepo) FindAll(ctx context.Context, status domain.WorkUnitStatus, limit, offset int) ([]*domain.WorkUnit, error) {
	return nil, nil
}

func (s *stubWorkRepo) ClaimAtomically(ctx context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*domain.WorkUnit, error) {
	if s.ClaimAtomicallyFn != nil {
		return s.ClaimAtomicallyFn(ctx, workID, operatorID, operatorName, machine, selfAssigned)
	}
	return nil, nil
}

func (s *stubWorkRepo) ReleaseAtomically(ctx context.Context, workID, operatorID string) (*domain.WorkUnit, error) {
	if s.ReleaseAtomicallyFn != nil {
		return s.ReleaseAtomicallyFn(ctx, workID, operatorID)
	}
	return nil, nil
}

type stubReportRepo struct {
	SaveFn     func(ctx context.Context, report *domain.DamageReport) error
	FindByIDFn func(ctx context.Context, reportID string) (*domain.DamageReport, error)
}

func (s *stubReportRepo) Save(ctx context.Context, report *domain.DamageReport) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, report)
	}
	return nil
}

func (s *stubReportRepo) FindByID(ctx context.Context, reportID string) (*domain.DamageReport, error) {
	if s.FindByIDFn != nil {
		return s.FindByIDFn(ctx, reportID)
	}
	return nil, nil
}

func (s *stubReportRepo) FindOpenByBundle(ctx context.Context, bundleNumber string) ([]*domain.DamageReport, error) {
	return nil, nil
}

func (s *stubReportRepo) FindBySupervisor(ctx context.Context, supervisorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	return nil, nil
}

func (s *stubReportRepo) FindByOperator(ctx context.Context, operatorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	return nil, nil
}

func (s *stubReportRepo) FindOverdue(ctx context.Context, now time.Time) ([]*domain.DamageReport, error) {
	return nil, nil
}

type stubWalletRepo struct {
	FindByOperatorFn func(ctx context.Context, operatorID string) (*domain.Wallet, error)
}

func (s *stubWalletRepo) Save(ctx context.Context, wallet *domain.Wallet) error { return nil }

func (s *stubWalletRepo) FindByOperator(ctx context.Context, operatorID string) (*domain.Wallet, error) {
	if s.FindByOperatorFn != nil {
		return s.FindByOperatorFn(ctx, operatorID)
	}
	return nil, nil
}

type stubLedgerRepo struct{}

func (s *stubLedgerRepo) Append(ctx context.Context, entry *domain.WageLedgerEntry) error {
	return nil
}

func (s *stubLedgerRepo) FindByOperator(ctx context.Context, operatorID string, limit, offset int) ([]*domain.WageLedgerEntry, error) {
	return nil, nil
}

type stubOperatorRepo struct{}

func (s *stubOperatorRepo) Upsert(ctx context.Context, operator *domain.Operator) error { return nil }

func (s *stubOperatorRepo) FindByID(ctx context.Context, operatorID string) (*domain.Operator, error) {
	return nil, nil
}

func (s *stubOperatorRepo) ClearCurrentWork(ctx context.Context, operatorID, workID string) error {
	return nil
}

type stubTx struct{}

func (s *stubTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubNotifier struct{}

func (s *stubNotifier) Notify(ctx context.Context, n domain.Notification) {}

type testEnv struct {
	workRepo   *stubWorkRepo
	reportRepo *stubReportRepo
	walletRepo *stubWalletRepo
	assignment *application.AssignmentService
	damage     *application.DamageService
	wallet     *application.WalletService
	logger     *logging.Logger
}

func newTestEnv(name string) *testEnv {
	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig(name))
	workRepo := &stubWorkRepo{}
	reportRepo := &stubReportRepo{}
	walletRepo := &stubWalletRepo{}
	ledgerRepo := &stubLedgerRepo{}
	operatorRepo := &stubOperatorRepo{}
	tx := &stubTx{}
	notifier := &stubNotifier{}

	return &testEnv{
		workRepo:   workRepo,
		reportRepo: reportRepo,
		walletRepo: walletRepo,
		assignment: application.NewAssignmentService(workRepo, walletRepo, ledgerRepo, operatorRepo, tx, notifier, logger, m),
		damage:     application.NewDamageService(reportRepo, workRepo, walletRepo, ledgerRepo, tx, notifier, domain.DefaultTaxonomy(), application.DefaultMaxDamagedPieces, logger, m),
		wallet:     application.NewWalletService(walletRepo, ledgerRepo, logger),
		logger:     logger,
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()
	return gin.New()
}

func claimedUnit(t *testing.T, operatorID string) *domain.WorkUnit {
	t.Helper()
	unit := domain.NewWorkUnit("work-1", "B-1001", "8085", "sleeve_attach", 30, 2.50)
	if err := unit.Claim(operatorID, "Maya Tamang", "overlock-3", true); err != nil {
		t.Fatalf("claim: %v", err)
	}
	return unit
}

func requestJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "value")
	if got := getEnv("TEST_ENV_KEY", "default"); got != "value" {
		t.Fatalf("expected env value, got %q", got)
	}
	if got := getEnv("MISSING_KEY", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("MONGODB_URI", "mongodb://example:27017")
	t.Setenv("MONGODB_DATABASE", "production_test")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("ESCALATION_SWEEP_INTERVAL", "30s")
	t.Setenv("MAX_DAMAGED_PIECES", "5")

	cfg := loadConfig()
	if cfg.ServerAddr != ":9000" {
		t.Fatalf("unexpected server addr: %q", cfg.ServerAddr)
	}
	if cfg.MongoDB.URI != "mongodb://example:27017" || cfg.MongoDB.Database != "production_test" {
		t.Fatalf("unexpected mongo config: %#v", cfg.MongoDB)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "broker-1:9092" {
		t.Fatalf("unexpected kafka brokers: %#v", cfg.Kafka.Brokers)
	}
	if cfg.EscalationInterval != 30*time.Second {
		t.Fatalf("unexpected escalation interval: %v", cfg.EscalationInterval)
	}
	if cfg.MaxDamagedPieces != 5 {
		t.Fatalf("unexpected max damaged pieces: %d", cfg.MaxDamagedPieces)
	}
}

func TestCreateWorkUnitHandler_Success(t *testing.T) {
	env := newTestEnv("test-create")
	router := newTestRouter()
	router.POST("/work-units", createWorkUnitHandler(env.assignment, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/work-units", map[string]any{
		"bundleNumber": "B-1001",
		"article":      "8085",
		"operation":    "sleeve_attach",
		"pieces":       30,
		"ratePerPiece": 2.50,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateWorkUnitHandler_BadRequest(t *testing.T) {
	env := newTestEnv("test-create-bad")
	router := newTestRouter()
	router.POST("/work-units", createWorkUnitHandler(env.assignment, env.logger))

	// lowercase bundle numbers fail the bundle_number validator
	resp := requestJSON(t, router, http.MethodPost, "/work-units", map[string]any{
		"bundleNumber": "b-1001",
		"article":      "8085",
		"operation":    "sleeve_attach",
		"pieces":       30,
		"ratePerPiece": 2.50,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestClaimWorkHandler_Success(t *testing.T) {
	env := newTestEnv("test-claim")
	env.workRepo.ClaimAtomicallyFn = func(_ context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*domain.WorkUnit, error) {
		unit := domain.NewWorkUnit(workID, "B-1001", "8085", "sleeve_attach", 30, 2.50)
		if err := unit.Claim(operatorID, operatorName, machine, selfAssigned); err != nil {
			return nil, err
		}
		return unit, nil
	}
	router := newTestRouter()
	router.POST("/work-units/:workId/claim", claimWorkHandler(env.assignment, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/work-units/work-1/claim", map[string]any{
		"operatorId":   "op-1",
		"operatorName": "Maya Tamang",
		"selfAssigned": true,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var dto application.WorkUnitDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &dto); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if dto.AssignedTo != "op-1" {
		t.Fatalf("expected assignment to op-1, got %+v", dto)
	}
}

func TestClaimWorkHandler_Conflict(t *testing.T) {
	env := newTestEnv("test-claim-conflict")
	env.workRepo.ClaimAtomicallyFn = func(_ context.Context, _, _, _, _ string, _ bool) (*domain.WorkUnit, error) {
		return nil, domain.ErrWorkNotAvailable
	}
	router := newTestRouter()
	router.POST("/work-units/:workId/claim", claimWorkHandler(env.assignment, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/work-units/work-1/claim", map[string]any{
		"operatorId": "op-2",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestClaimWorkHandler_NotFound(t *testing.T) {
	env := newTestEnv("test-claim-missing")
	router := newTestRouter()
	router.POST("/work-units/:workId/claim", claimWorkHandler(env.assignment, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/work-units/missing/claim", map[string]any{
		"operatorId": "op-1",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCompleteWorkHandler_Success(t *testing.T) {
	env := newTestEnv("test-complete")
	unit := claimedUnit(t, "op-1")
	if err := unit.StartWork("op-1"); err != nil {
		t.Fatalf("start work: %v", err)
	}
	env.workRepo.FindByIDFn = func(_ context.Context, _ string) (*domain.WorkUnit, error) {
		return unit, nil
	}
	router := newTestRouter()
	router.POST("/work-units/:workId/complete", completeWorkHandler(env.assignment, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/work-units/work-1/complete", map[string]any{
		"operatorId":      "op-1",
		"completedPieces": 30,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSubmitDamageReportHandler_Success(t *testing.T) {
	env := newTestEnv("test-submit")
	unit := claimedUnit(t, "op-1")
	env.workRepo.FindByIDFn = func(_ context.Context, _ string) (*domain.WorkUnit, error) {
		return unit, nil
	}
	router := newTestRouter()
	router.POST("/damage-reports", submitDamageReportHandler(env.damage, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/damage-reports", map[string]any{
		"workId":       "work-1",
		"operatorId":   "op-1",
		"supervisorId": "sup-1",
		"damageTypeId": "broken_stitch",
		"pieceNumbers": []int{5, 12},
		"urgency":      "normal",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSubmitDamageReportHandler_InvalidUrgency(t *testing.T) {
	env := newTestEnv("test-submit-bad")
	router := newTestRouter()
	router.POST("/damage-reports", submitDamageReportHandler(env.damage, env.logger))

	resp := requestJSON(t, router, http.MethodPost, "/damage-reports", map[string]any{
		"workId":       "work-1",
		"operatorId":   "op-1",
		"supervisorId": "sup-1",
		"damageTypeId": "broken_stitch",
		"pieceNumbers": []int{5},
		"urgency":      "asap",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetDamageReportHandler_NotFound(t *testing.T) {
	env := newTestEnv("test-get-report")
	router := newTestRouter()
	router.GET("/damage-reports/:reportId", getDamageReportHandler(env.damage, env.logger))

	resp := requestJSON(t, router, http.MethodGet, "/damage-reports/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListDamageTypesHandler(t *testing.T) {
	env := newTestEnv("test-types")
	router := newTestRouter()
	router.GET("/damage-types", listDamageTypesHandler(env.damage))

	resp := requestJSON(t, router, http.MethodGet, "/damage-types", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var types []application.DamageTypeDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &types); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(types) == 0 {
		t.Fatal("expected a non-empty damage taxonomy")
	}
}

func TestWalletHandlers_Success(t *testing.T) {
	env := newTestEnv("test-wallet")
	env.walletRepo.FindByOperatorFn = func(_ context.Context, operatorID string) (*domain.Wallet, error) {
		wallet := domain.NewWallet(operatorID)
		wallet.CreditEarnings("work-1", "B-1001", 75.0)
		wallet.Hold("dr-1", "work-2", "B-1002", 2, 5.0, "broken_stitch")
		return wallet, nil
	}
	router := newTestRouter()
	router.GET("/operators/:operatorId/wallet", getWalletHandler(env.wallet, env.logger))
	router.GET("/operators/:operatorId/wallet/held-bundles", getHeldBundlesHandler(env.wallet, env.logger))
	router.GET("/operators/:operatorId/wallet/ledger", getLedgerHandler(env.wallet, env.logger))

	walletResp := requestJSON(t, router, http.MethodGet, "/operators/op-1/wallet", nil)
	if walletResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", walletResp.Code)
	}
	var dto application.WalletDTO
	if err := json.Unmarshal(walletResp.Body.Bytes(), &dto); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if dto.AvailableAmount != 75.0 || dto.HeldAmount != 5.0 {
		t.Fatalf("unexpected balance: %+v", dto)
	}

	heldResp := requestJSON(t, router, http.MethodGet, "/operators/op-1/wallet/held-bundles", nil)
	if heldResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", heldResp.Code)
	}

	ledgerResp := requestJSON(t, router, http.MethodGet, "/operators/op-1/wallet/ledger?limit=10", nil)
	if ledgerResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", ledgerResp.Code)
	}
}
