package repository

import (
	"context"
	"fmt"
	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	GuardCollectionName = "Slot_hold_guards"
)

// GuardRepository serializes writers of one doctor's day. Touching the guard
// inside a transaction makes any concurrent transaction touching the same
// guard fail with a write conflict, which the driver retries after the first
// one commits.
type GuardRepository interface {
	Touch(ctx context.Context, doctorID, date string) error
}

type mongoGuardRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoGuardRepository(cfg *config.Config) GuardRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoGuardRepository{
		cfg:        cfg,
		collection: db.Collection(GuardCollectionName),
	}
}

func GuardID(doctorID, date string) string {
	return doctorID + "|" + date
}

func (r *mongoGuardRepository) Touch(ctx context.Context, doctorID, date string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": GuardID(doctorID, date)}
	update := bson.M{
		"$inc":         bson.M{"version": 1},
		"$set":         bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"doctor_id": doctorID, "date": date},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to touch slot guard: %w", err)
	}
	return nil
}
