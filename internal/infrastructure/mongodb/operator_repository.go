package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garment-platform/production-service/internal/domain"
)

// OperatorRepository maintains the operator lookup projection, including the
// current-work pointer shown on the floor dashboard.
type OperatorRepository struct {
	collection *mongo.Collection
}

func NewOperatorRepository(db *mongo.Database) *OperatorRepository {
	return &OperatorRepository{collection: db.Collection("operators")}
}

func (r *OperatorRepository) Upsert(ctx context.Context, operator *domain.Operator) error {
	operator.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": operator.OperatorID}
	update := bson.M{"$set": operator}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert operator: %w", err)
	}
	return nil
}

func (r *OperatorRepository) FindByID(ctx context.Context, operatorID string) (*domain.Operator, error) {
	var operator domain.Operator
	err := r.collection.FindOne(ctx, bson.M{"_id": operatorID}).Decode(&operator)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &operator, err
}

// ClearCurrentWork drops the pointer only if it still references the given
// work unit, so a stale release cannot clobber a newer assignment.
func (r *OperatorRepository) ClearCurrentWork(ctx context.Context, operatorID, workID string) error {
	filter := bson.M{"_id": operatorID, "currentWorkId": workID}
	update := bson.M{
		"$unset": bson.M{"currentWorkId": "", "currentBundleNumber": "", "assignedAt": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to clear current work: %w", err)
	}
	return nil
}
