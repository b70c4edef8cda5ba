package queue

import (
	"context"
	"stridehub-webhook-svc/src/clients"
	"stridehub-webhook-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Enqueue(ctx context.Context, userID string, activityID int64) error
	FetchDue(ctx context.Context) ([]*Entry, error)
	Remove(ctx context.Context, userID string, activityID int64) error
	Stats(ctx context.Context) (*Stats, error)
}

type queueRepository struct {
	collection *mongo.Collection
}

func NewQueueRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &queueRepository{collection: collection}
}

// EnsureIndexes creates the unique (user_id, activity_id) index that makes
// Enqueue idempotent under concurrent writers.
func EnsureIndexes(ctx context.Context, mongoClient *clients.MongoDB, collectionName string) error {
	collection := mongoClient.Database.Collection(collectionName)

	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "activity_id", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("uniq_user_activity"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
		logrus.WithError(err).Error("Failed to create activity queue index")
		return err
	}

	return nil
}

// Enqueue inserts a queue entry unless one already exists for the pair.
// The upsert with $setOnInsert keeps the original enqueued_at on duplicates.
func (r *queueRepository) Enqueue(ctx context.Context, userID string, activityID int64) error {
	filter := bson.M{"user_id": userID, "activity_id": activityID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":     userID,
			"activity_id": activityID,
			"enqueued_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Concurrent enqueue of the same pair lost the upsert race.
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"activity_id": activityID,
		}).Error("Failed to enqueue activity")
		return models.ErrDatabaseInsert
	}

	return nil
}

// FetchDue returns the current backlog snapshot, oldest first. Entries
// enqueued while a sweep runs are picked up by the next sweep.
func (r *queueRepository) FetchDue(ctx context.Context) ([]*Entry, error) {
	opts := options.Find().SetSort(bson.M{"enqueued_at": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch due queue entries")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var entries []*Entry
	for cursor.Next(ctx) {
		var entry Entry
		if err := cursor.Decode(&entry); err != nil {
			logrus.WithError(err).Error("Failed to decode queue entry")
			continue
		}
		entries = append(entries, &entry)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return entries, nil
}

// Remove deletes one entry. Removing an entry another sweep already deleted
// is a no-op.
func (r *queueRepository) Remove(ctx context.Context, userID string, activityID int64) error {
	filter := bson.M{"user_id": userID, "activity_id": activityID}

	_, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"activity_id": activityID,
		}).Error("Failed to remove queue entry")
		return models.ErrDatabaseDelete
	}

	return nil
}

func (r *queueRepository) Stats(ctx context.Context) (*Stats, error) {
	depth, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to count queue entries")
		return nil, models.ErrDatabaseQuery
	}

	stats := &Stats{Depth: depth, PerUser: map[string]int64{}}
	if depth == 0 {
		return stats, nil
	}

	opts := options.FindOne().SetSort(bson.M{"enqueued_at": 1})
	var oldest Entry
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&oldest); err == nil {
		age := time.Since(oldest.EnqueuedAt).Seconds()
		stats.OldestEntryAge = &age
	}

	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$user_id", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		logrus.WithError(err).Error("Failed to aggregate queue stats")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		stats.PerUser[row.ID] = row.Count
	}

	return stats, nil
}
