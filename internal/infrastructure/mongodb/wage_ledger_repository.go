package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garment-platform/production-service/internal/domain"
	pkgMongo "github.com/garment-platform/production-service/pkg/mongodb"
)

// WageLedgerRepository stores the append-only wage history. Entries are never
// updated after insert.
type WageLedgerRepository struct {
	collection *mongo.Collection
}

func NewWageLedgerRepository(db *mongo.Database) *WageLedgerRepository {
	repo := &WageLedgerRepository{collection: db.Collection("wage_ledger")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WageLedgerRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "operatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *WageLedgerRepository) Append(ctx context.Context, entry *domain.WageLedgerEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *WageLedgerRepository) FindByOperator(ctx context.Context, operatorID string, limit, offset int) ([]*domain.WageLedgerEntry, error) {
	opts := options.Find().
		SetSort(pkgMongo.SortDescending("createdAt")).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, bson.M{"operatorId": operatorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []*domain.WageLedgerEntry
	err = cursor.All(ctx, &entries)
	return entries, err
}
