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

// waitingStatuses are the states in which a report still counts against the
// supervisor's response SLA.
var waitingStatuses = []domain.ReportStatus{
	domain.ReportStatusReported,
	domain.ReportStatusAcknowledged,
	domain.ReportStatusInSupervisorQueue,
}

// terminalStatuses are states that no longer block a new report on the same
// bundle.
var terminalStatuses = []domain.ReportStatus{
	domain.ReportStatusClosed,
	domain.ReportStatusCancelled,
	domain.ReportStatusRejected,
}

type DamageReportRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewDamageReportRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *DamageReportRepository {
	collection := db.Collection("damage_reports")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &DamageReportRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *DamageReportRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bundleNumber", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "supervisorId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "operatorId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "urgency", Value: 1}, {Key: "reportedAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *DamageReportRepository) Save(ctx context.Context, report *domain.DamageReport) error {
	report.UpdatedAt = pkgMongo.Now()

	return inTransaction(ctx, r.db, func(sessCtx context.Context) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"_id": report.ReportID}
		update := bson.M{"$set": report}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save damage report: %w", err)
		}

		if err := r.saveEventsToOutbox(sessCtx, report); err != nil {
			return err
		}

		report.ClearDomainEvents()
		return nil
	})
}

func (r *DamageReportRepository) FindByID(ctx context.Context, reportID string) (*domain.DamageReport, error) {
	var report domain.DamageReport
	err := r.collection.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &report, err
}

// FindOpenByBundle returns reports on the bundle that have not reached a
// terminal state. The one-open-report-per-bundle rule is enforced on top of
// this query.
func (r *DamageReportRepository) FindOpenByBundle(ctx context.Context, bundleNumber string) ([]*domain.DamageReport, error) {
	filter := bson.M{
		"bundleNumber": bundleNumber,
		"status":       bson.M{"$nin": terminalStatuses},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var reports []*domain.DamageReport
	err = cursor.All(ctx, &reports)
	return reports, err
}

func (r *DamageReportRepository) FindBySupervisor(ctx context.Context, supervisorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	filter := bson.M{"supervisorId": supervisorID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter, limit, offset)
}

func (r *DamageReportRepository) FindByOperator(ctx context.Context, operatorID string, statuses []domain.ReportStatus, limit, offset int) ([]*domain.DamageReport, error) {
	filter := bson.M{"operatorId": operatorID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter, limit, offset)
}

// FindOverdue returns reports still waiting on the supervisor past their
// urgency SLA. The cutoffs mirror DamageReport.EscalationDeadline.
func (r *DamageReportRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.DamageReport, error) {
	cutoffs := []bson.M{
		{"urgency": domain.UrgencyUrgent, "reportedAt": bson.M{"$lt": now.Add(-1 * time.Hour)}},
		{"urgency": domain.UrgencyHigh, "reportedAt": bson.M{"$lt": now.Add(-4 * time.Hour)}},
		{"urgency": domain.UrgencyNormal, "reportedAt": bson.M{"$lt": now.Add(-24 * time.Hour)}},
		{"urgency": domain.UrgencyLow, "reportedAt": bson.M{"$lt": now.Add(-72 * time.Hour)}},
	}
	filter := bson.M{
		"status": bson.M{"$in": waitingStatuses},
		"$or":    cutoffs,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(pkgMongo.SortAscending("reportedAt")))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var reports []*domain.DamageReport
	err = cursor.All(ctx, &reports)
	return reports, err
}

func (r *DamageReportRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*domain.DamageReport, error) {
	opts := options.Find().
		SetSort(pkgMongo.SortDescending("reportedAt")).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var reports []*domain.DamageReport
	err = cursor.All(ctx, &reports)
	return reports, err
}

func (r *DamageReportRepository) saveEventsToOutbox(ctx context.Context, report *domain.DamageReport) error {
	for _, event := range report.GetDomainEvents() {
		var cloudEvent *cloudevents.ProductionCloudEvent
		switch e := event.(type) {
		case *domain.DamageReportedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.DamageAcknowledgedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.ReworkStartedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.ReworkCompletedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.DamageReturnedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.DamageFinalizedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		case *domain.DamageEscalatedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "damage-report/"+e.ReportID, e)
		default:
			continue
		}
		cloudEvent.WithReport(report.ReportID).WithBundle(report.BundleNumber)

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(report.ReportID, "DamageReport", kafka.Topics.DamageEvents, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := r.outboxRepo.SaveAll(ctx, []*outbox.OutboxEvent{outboxEvent}); err != nil {
			return err
		}
	}
	return nil
}

// GetOutboxRepository returns the outbox repository backing this service
func (r *DamageReportRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
