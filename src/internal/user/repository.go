package user

import (
	"context"
	"errors"
	"stridehub-webhook-svc/src/clients"
	"stridehub-webhook-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repository interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	TouchLastActivity(ctx context.Context, userID string, ts time.Time) error
	MarkProcessed(ctx context.Context, userID string, ts time.Time) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &userRepository{
		collection: collection,
	}
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	var user User
	filter := bson.M{"_id": userID, "deleted_at": bson.M{"$exists": false}}

	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get user")
		return nil, models.ErrDatabaseQuery
	}

	return &user, nil
}

// TouchLastActivity advances date_last_activity. $max keeps the field
// monotonic when duplicate events for the same activity race each other.
func (r *userRepository) TouchLastActivity(ctx context.Context, userID string, ts time.Time) error {
	update := bson.M{
		"$max": bson.M{"date_last_activity": ts},
		"$set": bson.M{"updated_at": ts},
	}
	return r.updateByID(ctx, userID, update)
}

// MarkProcessed advances both activity timestamps after a successful
// processing attempt. A stale success can never move them backwards.
func (r *userRepository) MarkProcessed(ctx context.Context, userID string, ts time.Time) error {
	update := bson.M{
		"$max": bson.M{
			"date_last_activity":           ts,
			"date_last_processed_activity": ts,
		},
		"$set": bson.M{"updated_at": ts},
	}
	return r.updateByID(ctx, userID, update)
}

func (r *userRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	filter := bson.M{"_id": userID}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to update user activity state")
		return models.ErrDatabaseUpdate
	}

	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
