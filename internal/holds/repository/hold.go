package repository

import (
	"context"
	"errors"
	"fmt"
	holdserrors "slotkeeper/internal/holds/errors"
	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"
	"slotkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slot_holds"
)

type HoldRepository interface {
	Create(ctx context.Context, hold *model.Hold) error
	FindByID(ctx context.Context, id string) (*model.Hold, error)
	FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string, now time.Time) ([]*model.Hold, error)
	ListActive(ctx context.Context, doctorID, date string, now time.Time) ([]model.ActiveHold, error)
	MarkConfirmed(ctx context.Context, id, appointmentID string, now time.Time) error
	UpdateExpiry(ctx context.Context, id string, expiresAt, now time.Time) error
	DeleteHeld(ctx context.Context, id string) (bool, error)
	DeleteExpiredByID(ctx context.Context, id string, now time.Time) (bool, error)
	DeleteExpiredForDoctorDate(ctx context.Context, doctorID, date string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, hold)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s %s %s", holdserrors.ErrDuplicateSlot, hold.DoctorID, hold.Date, hold.StartTime)
		}
		return fmt.Errorf("failed to create hold: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		hold.ID = oid.Hex()
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	var hold model.Hold
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string, now time.Time) ([]*model.Hold, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_min", Value: 1}})
	cursor, err := r.collection.Find(ctx, activeFilter(doctorID, date, now), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.Hold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode holds: %w", err)
	}
	return holds, nil
}

func (r *mongoHoldRepository) ListActive(ctx context.Context, doctorID, date string, now time.Time) ([]model.ActiveHold, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_min", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "start_time": 1, "end_time": 1, "expires_at": 1})

	cursor, err := r.collection.Find(ctx, activeFilter(doctorID, date, now), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active holds: %w", err)
	}
	defer cursor.Close(ctx)

	holds := []model.ActiveHold{}
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode active holds: %w", err)
	}
	return holds, nil
}

func (r *mongoHoldRepository) MarkConfirmed(ctx context.Context, id, appointmentID string, now time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":        objectID,
		"status":     model.HoldStatusHeld,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":         model.HoldStatusConfirmed,
			"appointment_id": appointmentID,
			"confirmed_at":   now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to confirm hold: %w", err)
	}
	if result.MatchedCount == 0 {
		return holdserrors.ErrNotHeld
	}
	return nil
}

// UpdateExpiry moves the deadline of a live hold. The filter refuses to move it backwards.
func (r *mongoHoldRepository) UpdateExpiry(ctx context.Context, id string, expiresAt, now time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": model.HoldStatusHeld,
		"expires_at": bson.M{
			"$gt":  now,
			"$lte": expiresAt,
		},
	}
	update := bson.M{"$set": bson.M{"expires_at": expiresAt}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to extend hold: %w", err)
	}
	if result.MatchedCount == 0 {
		return holdserrors.ErrNotHeld
	}
	return nil
}

func (r *mongoHoldRepository) DeleteHeld(ctx context.Context, id string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "status": model.HoldStatusHeld})
	if err != nil {
		return false, fmt.Errorf("failed to delete hold: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoHoldRepository) DeleteExpiredByID(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":        objectID,
		"status":     model.HoldStatusHeld,
		"expires_at": bson.M{"$lte": now},
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete expired hold: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoHoldRepository) DeleteExpiredForDoctorDate(ctx context.Context, doctorID, date string, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id":  doctorID,
		"date":       date,
		"status":     model.HoldStatusHeld,
		"expires_at": bson.M{"$lte": now},
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired holds: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoHoldRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.HoldStatusHeld,
		"expires_at": bson.M{"$lte": now},
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired holds: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func activeFilter(doctorID, date string, now time.Time) bson.M {
	return bson.M{
		"doctor_id":  doctorID,
		"date":       date,
		"status":     model.HoldStatusHeld,
		"expires_at": bson.M{"$gt": now},
	}
}
