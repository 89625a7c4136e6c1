package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/garment-platform/production-service/internal/domain"
	"github.com/garment-platform/production-service/pkg/cloudevents"
	outboxMongo "github.com/garment-platform/production-service/pkg/outbox/mongodb"
)

// The application layer depends on the domain ports, so every repository must
// keep satisfying them.
var (
	_ domain.WorkUnitRepository     = (*WorkUnitRepository)(nil)
	_ domain.DamageReportRepository = (*DamageReportRepository)(nil)
	_ domain.WalletRepository       = (*WalletRepository)(nil)
	_ domain.WageLedgerRepository   = (*WageLedgerRepository)(nil)
	_ domain.OperatorRepository     = (*OperatorRepository)(nil)
	_ domain.TransactionManager     = (*TransactionManager)(nil)
)

func TestRepositoryConstructors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	factory := cloudevents.NewEventFactory(cloudevents.SourceProduction)

	mt.Run("work unit repository", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo := NewWorkUnitRepository(mt.DB, factory)
		require.NotNil(t, repo)
		require.NotNil(t, repo.GetOutboxRepository())
	})

	mt.Run("damage report repository", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewDamageReportRepository(mt.DB, factory)
		require.NotNil(t, repo)
	})

	mt.Run("wallet repository", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewWalletRepository(mt.DB, factory)
		require.NotNil(t, repo)
	})

	mt.Run("wage ledger repository", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewWageLedgerRepository(mt.DB)
		require.NotNil(t, repo)
	})

	mt.Run("operator repository", func(mt *mtest.T) {
		repo := NewOperatorRepository(mt.DB)
		require.NotNil(t, repo)
	})
}

func TestWorkUnitRepository_MockReads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reads", func(mt *mtest.T) {
		coll := mt.DB.Collection("work_units")
		repo := &WorkUnitRepository{
			collection:   coll,
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourceProduction),
		}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "work-1"},
			{Key: "bundleNumber", Value: "B-1001"},
			{Key: "status", Value: string(domain.WorkUnitStatusAvailable)},
		}))
		unit, err := repo.FindByID(ctx, "work-1")
		require.NoError(t, err)
		require.NotNil(t, unit)
		assert.Equal(t, "B-1001", unit.BundleNumber)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		unit, err = repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, unit)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "work-1"},
			{Key: "bundleNumber", Value: "B-1001"},
		}))
		unit, err = repo.FindByBundleNumber(ctx, "B-1001")
		require.NoError(t, err)
		require.NotNil(t, unit)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "work-2"},
			{Key: "status", Value: string(domain.WorkUnitStatusAvailable)},
			{Key: "machineType", Value: "overlock"},
		}))
		units, err := repo.FindAvailable(ctx, "overlock", 10)
		require.NoError(t, err)
		require.Len(t, units, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "work-3"},
			{Key: "assignedTo", Value: "op-1"},
			{Key: "status", Value: string(domain.WorkUnitStatusAssigned)},
		}))
		units, err = repo.FindByOperator(ctx, "op-1")
		require.NoError(t, err)
		require.Len(t, units, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		units, err = repo.FindAll(ctx, domain.WorkUnitStatusCompleted, 10, 0)
		require.NoError(t, err)
		require.Len(t, units, 0)
	})
}

func TestDamageReportRepository_MockReads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reads", func(mt *mtest.T) {
		coll := mt.DB.Collection("damage_reports")
		repo := &DamageReportRepository{
			collection:   coll,
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourceProduction),
		}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "dr-1"},
			{Key: "bundleNumber", Value: "B-1001"},
			{Key: "status", Value: string(domain.ReportStatusReported)},
		}))
		report, err := repo.FindByID(ctx, "dr-1")
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, domain.ReportStatusReported, report.Status)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		report, err = repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, report)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "dr-1"},
			{Key: "bundleNumber", Value: "B-1001"},
			{Key: "status", Value: string(domain.ReportStatusAcknowledged)},
		}))
		reports, err := repo.FindOpenByBundle(ctx, "B-1001")
		require.NoError(t, err)
		require.Len(t, reports, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "dr-2"},
			{Key: "supervisorId", Value: "sup-1"},
		}))
		reports, err = repo.FindBySupervisor(ctx, "sup-1", []domain.ReportStatus{domain.ReportStatusReported}, 10, 0)
		require.NoError(t, err)
		require.Len(t, reports, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "dr-3"},
			{Key: "operatorId", Value: "op-1"},
		}))
		reports, err = repo.FindByOperator(ctx, "op-1", nil, 10, 0)
		require.NoError(t, err)
		require.Len(t, reports, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "dr-4"},
			{Key: "urgency", Value: string(domain.UrgencyUrgent)},
			{Key: "status", Value: string(domain.ReportStatusReported)},
			{Key: "reportedAt", Value: time.Now().Add(-2 * time.Hour)},
		}))
		reports, err = repo.FindOverdue(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, reports, 1)
	})
}

func TestWalletRepository_MockReads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reads", func(mt *mtest.T) {
		coll := mt.DB.Collection("operator_wallets")
		repo := &WalletRepository{
			collection:   coll,
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourceProduction),
		}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "op-1"},
			{Key: "availableAmount", Value: 75.0},
			{Key: "heldAmount", Value: 5.0},
		}))
		wallet, err := repo.FindByOperator(ctx, "op-1")
		require.NoError(t, err)
		require.NotNil(t, wallet)
		assert.Equal(t, 75.0, wallet.AvailableAmount)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		wallet, err = repo.FindByOperator(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, wallet)
	})
}

func TestWageLedgerRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("operations", func(mt *mtest.T) {
		coll := mt.DB.Collection("wage_ledger")
		repo := &WageLedgerRepository{collection: coll}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		err := repo.Append(ctx, &domain.WageLedgerEntry{
			EntryID:    "e-1",
			OperatorID: "op-1",
			Type:       domain.LedgerEntryEarnings,
			Amount:     75.0,
			CreatedAt:  time.Now(),
		})
		require.NoError(t, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "e-1"},
			{Key: "operatorId", Value: "op-1"},
			{Key: "amount", Value: 75.0},
		}))
		entries, err := repo.FindByOperator(ctx, "op-1", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestOperatorRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("operations", func(mt *mtest.T) {
		coll := mt.DB.Collection("operators")
		repo := &OperatorRepository{collection: coll}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		err := repo.Upsert(ctx, &domain.Operator{OperatorID: "op-1", Name: "Maya Tamang"})
		require.NoError(t, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "op-1"},
			{Key: "name", Value: "Maya Tamang"},
		}))
		operator, err := repo.FindByID(ctx, "op-1")
		require.NoError(t, err)
		require.NotNil(t, operator)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		operator, err = repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, operator)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		err = repo.ClearCurrentWork(ctx, "op-1", "work-1")
		require.NoError(t, err)
	})
}
