package repository

import (
	"context"
	"errors"
	"fmt"
	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Doctors"
)

var ErrInvalidID = errors.New("invalid doctor ID format")

type DoctorRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type mongoDoctorRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDoctorRepository(cfg *config.Config) DoctorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDoctorRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Exists reports whether an active doctor with this id is on record.
func (r *mongoDoctorRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID, "active": true}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up doctor: %w", err)
	}
	return count > 0, nil
}
