package mongodb

import (
	"context"
	"fmt"

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

type WalletRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewWalletRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *WalletRepository {
	collection := db.Collection("operator_wallets")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &WalletRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WalletRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "heldBundles.reportId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *WalletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	wallet.UpdatedAt = pkgMongo.Now()

	return inTransaction(ctx, r.db, func(sessCtx context.Context) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"_id": wallet.OperatorID}
		update := bson.M{"$set": wallet}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}

		if err := r.saveEventsToOutbox(sessCtx, wallet); err != nil {
			return err
		}

		wallet.ClearDomainEvents()
		return nil
	})
}

func (r *WalletRepository) FindByOperator(ctx context.Context, operatorID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.collection.FindOne(ctx, bson.M{"_id": operatorID}).Decode(&wallet)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &wallet, err
}

func (r *WalletRepository) saveEventsToOutbox(ctx context.Context, wallet *domain.Wallet) error {
	for _, event := range wallet.GetDomainEvents() {
		var cloudEvent *cloudevents.ProductionCloudEvent
		switch e := event.(type) {
		case *domain.PaymentHeldEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "wallet/"+e.OperatorID, e).
				WithReport(e.ReportID).WithBundle(e.BundleNumber)
		case *domain.PaymentReleasedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "wallet/"+e.OperatorID, e).
				WithReport(e.ReportID).WithBundle(e.BundleNumber)
		case *domain.EarningsCreditedEvent:
			cloudEvent = r.eventFactory.CreateEvent(ctx, e.EventType(), "wallet/"+e.OperatorID, e).
				WithBundle(e.BundleNumber)
		default:
			continue
		}

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(wallet.OperatorID, "Wallet", kafka.Topics.WalletEvents, cloudEvent)
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
func (r *WalletRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
