package mongo

import (
	"context"
	"time"

	"sharebyte/internal/domain"
	"sharebyte/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements repository.UserRepository
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new user repository backed by MongoDB.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Upsert records a user interaction. First-seen is only written on insert,
// last-active on every call.
func (r *mongoUserRepository) Upsert(ctx context.Context, user *domain.UserRecord) error {
	now := time.Now().UTC()
	filter := bson.M{"user_id": user.TelegramID}
	update := bson.M{
		"$set": bson.M{
			"username":    user.Username,
			"last_active": now,
		},
		"$setOnInsert": bson.M{
			"joined_date": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// All returns every known user. Used by broadcasts; the result set is the
// bot's audience, not expected to be huge.
func (r *mongoUserRepository) All(ctx context.Context) ([]domain.UserRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.UserRecord
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of known users.
func (r *mongoUserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
