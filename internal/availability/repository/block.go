package repository

import (
	"context"
	"fmt"
	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"
	"slotkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Availability_blocks"
)

type BlockRepository interface {
	ListCovering(ctx context.Context, doctorID, date string) ([]*model.AvailabilityBlock, error)
}

type mongoBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBlockRepository(cfg *config.Config) BlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// ListCovering returns active blocks whose inclusive date range contains date.
func (r *mongoBlockRepository) ListCovering(ctx context.Context, doctorID, date string) ([]*model.AvailabilityBlock, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id":  doctorID,
		"active":     true,
		"start_date": bson.M{"$lte": date},
		"end_date":   bson.M{"$gte": date},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.AvailabilityBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode availability blocks: %w", err)
	}
	return blocks, nil
}
