package registry

import (
	"context"
	"errors"
	"stridehub-webhook-svc/src/clients"
	"stridehub-webhook-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The ignored-user set is backed by a single document in the system
// collection, keyed "users", with an ignored array of user ids.
const usersRecordID = "users"

type RecordStore interface {
	LoadIgnoredUsers(ctx context.Context) ([]string, error)
	AddIgnoredUser(ctx context.Context, userID string) error
}

type usersRecord struct {
	ID      string   `bson:"_id"`
	Ignored []string `bson:"ignored"`
}

type recordStore struct {
	collection *mongo.Collection
}

func NewRecordStore(mongoClient *clients.MongoDB, collectionName string) RecordStore {
	collection := mongoClient.Database.Collection(collectionName)
	return &recordStore{collection: collection}
}

func (r *recordStore) LoadIgnoredUsers(ctx context.Context) ([]string, error) {
	var record usersRecord
	filter := bson.M{"_id": usersRecordID}

	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to load ignored users record")
		return nil, models.ErrDatabaseQuery
	}

	return record.Ignored, nil
}

func (r *recordStore) AddIgnoredUser(ctx context.Context, userID string) error {
	filter := bson.M{"_id": usersRecordID}
	update := bson.M{"$addToSet": bson.M{"ignored": userID}}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to persist ignored user")
		return models.ErrDatabaseUpdate
	}

	return nil
}
