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

const fileCollectionName = "files"

// mongoFileRepository implements repository.FileRepository
type mongoFileRepository struct {
	collection *mongo.Collection
}

// NewMongoFileRepository creates a new file repository backed by MongoDB.
func NewMongoFileRepository(db *mongo.Database) repository.FileRepository {
	return &mongoFileRepository{
		collection: db.Collection(fileCollectionName),
	}
}

// Create inserts a new file record. The caller only learns the token after
// the insert succeeds, which keeps registration all-or-nothing.
func (r *mongoFileRepository) Create(ctx context.Context, file *domain.FileRecord) error {
	if file.Token == "" || file.MessageID == 0 {
		return errors.New("file record requires token and message_id")
	}

	file.ID = primitive.NewObjectID()
	file.Downloads = 0
	file.UploadedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, file)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateToken
	}
	return err
}

// GetByToken retrieves a file record by its share token.
func (r *mongoFileRepository) GetByToken(ctx context.Context, token string) (*domain.FileRecord, error) {
	var file domain.FileRecord
	filter := bson.M{"token": token}

	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// IncrementDownloads atomically bumps the download counter and stamps the
// last-download time. $inc keeps concurrent downloads from losing updates.
func (r *mongoFileRepository) IncrementDownloads(ctx context.Context, token string) error {
	update := bson.M{
		"$inc": bson.M{"downloads": 1},
		"$set": bson.M{"last_download": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetAutoDelete flips the auto-delete flag and delay in a single update so
// the flag/delay invariant can never be observed half-set.
func (r *mongoFileRepository) SetAutoDelete(ctx context.Context, token string, minutes int) error {
	update := bson.M{
		"$set": bson.M{
			"auto_delete":      true,
			"auto_delete_time": minutes,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddDeliveredCopy appends a delivered-copy entry to the record's active list.
func (r *mongoFileRepository) AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error {
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

// RemoveDeliveredCopy drops a delivered-copy entry without touching the file
// record itself. Removing an entry that is already gone is not an error.
func (r *mongoFileRepository) RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error {
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

// Totals aggregates file count, stored bytes, downloads and the number of
// records with auto-delete enabled.
func (r *mongoFileRepository) Totals(ctx context.Context) (files, bytes, downloads, autoDelete int64, err error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "files", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "bytes", Value: bson.D{{Key: "$sum", Value: "$file_size"}}},
			{Key: "downloads", Value: bson.D{{Key: "$sum", Value: "$downloads"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	defer cursor.Close(ctx)

	var row struct {
		Files     int64 `bson:"files"`
		Bytes     int64 `bson:"bytes"`
		Downloads int64 `bson:"downloads"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return 0, 0, 0, 0, err
		}
	}

	autoDelete, err = r.collection.CountDocuments(ctx, bson.M{"auto_delete": true})
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return row.Files, row.Bytes, row.Downloads, autoDelete, nil
}

// EnsureFileIndexes creates necessary indexes for the files collection.
func EnsureFileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Tokens are globally unique; the unique index backs that up.
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "uploader_id", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "auto_delete", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
