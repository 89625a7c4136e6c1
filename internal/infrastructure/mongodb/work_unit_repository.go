package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garment-platform/production-service/internal/domain"
	"github.com/garment-platform/production-service/pkg/cloudevents"
	"github.com/garment-platform/production-service/pkg/kafka"
	pkgMongo "github.com/garment-platform/production-service/pkg/mongodb"
	"github.com/garment-platform/production-service/pkg/outbox"
	outboxMongo "github.com/garment-platform/production-service/pkg/outbox/mongodb"
)

type WorkUnitRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewWorkUnitRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *WorkUnitRepository {
	collection := db.Collection("work_units")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &WorkUnitRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = outboxRepo.EnsureIndexes(ctx)

	return repo
}

func (r *WorkUnitRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bundleNumber", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "machineType", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "originalDamageReportId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts the aggregate and writes its pending domain events to the
// outbox in the same transaction. When the context already carries a
// session the caller's transaction is reused.
func (r *WorkUnitRepository) Save(ctx context.Context, unit *domain.WorkUnit) error {
	unit.UpdatedAt = pkgMongo.Now()

	return inTransaction(ctx, r.db, func(sessCtx context.Context) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"_id": unit.WorkID}
		update := bson.M{"$set": unit}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save work unit: %w", err)
		}

		if err := r.saveEventsToOutbox(sessCtx, unit); err != nil {
			return err
		}

		unit.ClearDomainEvents()
		return nil
	})
}

// ClaimAtomically performs the compare-and-set claim. The status recheck in
// the filter means at most one concurrent claimer can match; everyone else
// gets ErrWorkNotAvailable.
func (r *WorkUnitRepository) ClaimAtomically(ctx context.Context, workID, operatorID, operatorName, machine string, selfAssigned bool) (*domain.WorkUnit, error) {
	now := time.Now()
	var unit domain.WorkUnit

	err := inTransaction(ctx, r.db, func(sessCtx context.Context) error {
		filter := bson.M{
			"_id":      workID,
			"status":   domain.WorkUnitStatusAvailable,
			"assigned": false,
		}
		update := bson.M{
			"$set": bson.M{
				"status":          domain.WorkUnitStatusAssigned,
				"assigned":        true,
				"assignedTo":      operatorID,
				"operatorName":    operatorName,
				"operatorMachine": machine,
				"selfAssigned":    selfAssigned,
				"assignedAt":      now,
				"updatedAt":       now,
			},
			"$inc": bson.M{"version": 1},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&unit)
		if err == mongo.ErrNoDocuments {
			// Either the unit does not exist or someone else holds it
			exists, countErr := r.collection.CountDocuments(sessCtx, bson.M{"_id": workID})
			if countErr != nil {
				return countErr
			}
			if exists == 0 {
				return errNotFound
			}
			return domain.ErrWorkNotAvailable
		}
		if err != nil {
			return fmt.Errorf("failed to claim work unit: %w", err)
		}

		event := r.eventFactory.CreateEvent(sessCtx, cloudevents.WorkClaimed, "work-unit/"+workID, &domain.WorkClaimedEvent{
			WorkID:       workID,
			BundleNumber: unit.BundleNumber,
			OperatorID:   operatorID,
			OperatorName: operatorName,
			SelfAssigned: selfAssigned,
			ClaimedAt:    now,
		}).WithBundle(unit.BundleNumber)
		return r.appendOutbox(sessCtx, workID, event)
	})
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// ReleaseAtomically returns the unit to the pool only if the operator still
// holds it. A version check guards against a concurrent writer between the
// read and the write.
func (r *WorkUnitRepository) ReleaseAtomically(ctx context.Context, workID, operatorID string) (*domain.WorkUnit, error) {
	var unit *domain.WorkUnit

	err := inTransaction(ctx, r.db, func(sessCtx context.Context) error {
		found, err := r.FindByID(sessCtx, workID)
		if err != nil {
			return err
		}
		if found == nil {
			return errNotFound
		}
		unit = found

		loadedVersion := unit.Version
		if err := unit.Release(operatorID); err != nil {
			return err
		}
		unit.Version = loadedVersion + 1

		result, err := r.collection.ReplaceOne(sessCtx, bson.M{"_id": workID, "version": loadedVersion}, unit)
		if err != nil {
			return fmt.Errorf("failed to release work unit: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrWorkNotAvailable
		}

		if err := r.saveEventsToOutbox(sessCtx, unit); err != nil {
			return err
		}
		unit.ClearDomainEvents()
		return nil
	})
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *WorkUnitRepository) FindByID(ctx context.Context, workID string) (*domain.WorkUnit, error) {
	var unit domain.WorkUnit
	err := r.collection.FindOne(ctx, bson.M{"_id": workID}).Decode(&unit)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &unit, err
}

func (r *WorkUnitRepository) FindByBundleNumber(ctx context.Context, bundleNumber string) (*domain.WorkUnit, error) {
	var unit domain.WorkUnit
	err := r.collection.FindOne(ctx, bson.M{"bundleNumber": bundleNumber}).Decode(&unit)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &unit, err
}

func (r *WorkUnitRepository) FindAvailable(ctx context.Context, machineType string, limit int) ([]*domain.WorkUnit, error) {
	filter := bson.M{"status": domain.WorkUnitStatusAvailable}
	if machineType != "" {
		filter["machineType"] = machineType
	}
	opts := options.Find().
		SetSort(pkgMongo.SortMultiple(
			pkgMongo.SortField{Field: "priority"},
			pkgMongo.SortField{Field: "createdAt"},
		)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var units []*domain.WorkUnit
	err = cursor.All(ctx, &units)
	return units, err
}

func (r *WorkUnitRepository) FindByOperator(ctx context.Context, operatorID string) ([]*domain.WorkUnit, error) {
	filter := bson.M{
		"assignedTo": operatorID,
		"status":     bson.M{"$in": []domain.WorkUnitStatus{domain.WorkUnitStatusAssigned, domain.WorkUnitStatusInProgress}},
	}
	opts := options.Find().SetSort(pkgMongo.SortMultiple(
		pkgMongo.SortField{Field: "priority"},
		pkgMongo.SortField{Field: "assignedAt"},
	))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var units []*domain.WorkUnit
	err = cursor.All(ctx, &units)
	return units, err
}

func (r *WorkUnitRepository) FindAll(ctx context.Context, status domain.WorkUnitStatus, limit, offset int) ([]*domain.WorkUnit, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(pkgMongo.SortDescending("createdAt")).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var units []*domain.WorkUnit
	err = cursor.All(ctx, &units)
	return units, err
}

func (r *WorkUnitRepository) saveEventsToOutbox(ctx context.Context, unit *domain.WorkUnit) error {
	for _, event := range unit.GetDomainEvents() {
		var cloudEvent *cloudevents.ProductionCloudEvent
		switch e := event.(type) {
		case *domain.WorkClaimedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "work-unit/"+e.WorkID, e)
		case *domain.WorkReleasedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "work-unit/"+e.WorkID, e)
		case *domain.WorkStartedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "work-unit/"+e.WorkID, e)
		case *domain.WorkCompletedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "work-unit/"+e.WorkID, e)
		case *domain.ReworkUnitCreatedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "work-unit/"+e.WorkID, e).WithReport(e.ReportID)
		default:
			continue
		}
		cloudEvent.WithBundle(unit.BundleNumber)

		if err := r.appendOutbox(ctx, unit.WorkID, cloudEvent); err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkUnitRepository) appendOutbox(ctx context.Context, workID string, event *cloudevents.ProductionCloudEvent) error {
	outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(workID, "WorkUnit", kafka.Topics.WorkEvents, event)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return r.outboxRepo.SaveAll(ctx, []*outbox.OutboxEvent{outboxEvent})
}

// GetOutboxRepository returns the outbox repository backing this service
func (r *WorkUnitRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
