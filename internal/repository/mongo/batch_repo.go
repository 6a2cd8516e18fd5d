package mongo

import (
	"context"
	"errors"
	"time"

	"sharebyte/internal/domain"
	"sharebyte/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const batchCollectionName = "batches"

// mongoBatchRepository implements repository.BatchRepository
type mongoBatchRepository struct {
	collection *mongo.Collection
}

// NewMongoBatchRepository creates a new batch repository backed by MongoDB.
func NewMongoBatchRepository(db *mongo.Database) repository.BatchRepository {
	return &mongoBatchRepository{
		collection: db.Collection(batchCollectionName),
	}
}

// Create inserts a new batch record. The files slice is stored as given; its
// order is the delivery order.
func (r *mongoBatchRepository) Create(ctx context.Context, batch *domain.BatchRecord) error {
	if batch.Token == "" || len(batch.Files) == 0 {
		return errors.New("batch record requires token and at least one file")
	}

	batch.ID = primitive.NewObjectID()
	batch.Active = true
	batch.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, batch)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateToken
	}
	return err
}

// GetByToken retrieves an active batch. Deactivated batches are NotFound.
func (r *mongoBatchRepository) GetByToken(ctx context.Context, token string) (*domain.BatchRecord, error) {
	var batch domain.BatchRecord
	filter := bson.M{"token": token, "is_active": true}

	err := r.collection.FindOne(ctx, filter).Decode(&batch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// ListByAdmin returns the active batches created by an admin, newest first.
func (r *mongoBatchRepository) ListByAdmin(ctx context.Context, adminID int64) ([]domain.BatchRecord, error) {
	filter := bson.M{"admin_id": adminID, "is_active": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []domain.BatchRecord
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// Deactivate soft-deletes a batch. The underlying file messages stay in the
// storage channel; only the batch stops resolving.
func (r *mongoBatchRepository) Deactivate(ctx context.Context, token string) error {
	update := bson.M{"$set": bson.M{"is_active": false}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token, "is_active": true}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddDeliveredCopy appends a delivered-copy entry for a batch delivery.
func (r *mongoBatchRepository) AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error {
	update := bson.M{"$push": bson.M{"active_messages": copy}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveDeliveredCopy drops a delivered-copy entry.
func (r *mongoBatchRepository) RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error {
	update := bson.M{
		"$pull": bson.M{
			"active_messages": bson.M{
				"chat_id":    chatID,
				"message_id": messageID,
			},
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	return err
}

// Count returns the number of active batches.
func (r *mongoBatchRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"is_active": true})
}

// EnsureBatchIndexes creates necessary indexes for the batches collection.
func EnsureBatchIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "admin_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
