package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appointmentsrepo "slotkeeper/internal/appointments/repository"
	availabilityrepo "slotkeeper/internal/availability/repository"
	doctorsrepo "slotkeeper/internal/doctors/repository"
	holdsrepo "slotkeeper/internal/holds/repository"
	"slotkeeper/internal/migrations/mongo/validators"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

const ActiveSlotIndexName = "uniq_active_slot"

var (
	// A doctor/date/start can carry at most one HELD row. Confirmed rows
	// fall out of the partial filter so history never blocks a new hold.
	HoldsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "doctor_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().
				SetName(ActiveSlotIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": model.HoldStatusHeld}),
		},
		{Keys: bson.D{
			{Key: "doctor_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "expires_at", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expires_at", Value: 1},
		}},
	}

	AppointmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "doctor_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "hold_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	AvailabilityBlocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "doctor_id", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "end_date", Value: 1},
		}},
	}

	DoctorsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		holdsrepo.CollectionName: {
			Indexes:   HoldsIndexes,
			Validator: validators.HoldValidator,
		},
		holdsrepo.GuardCollectionName: {
			Validator: validators.HoldGuardValidator,
		},
		appointmentsrepo.CollectionName: {
			Indexes:   AppointmentsIndexes,
			Validator: validators.AppointmentValidator,
		},
		availabilityrepo.CollectionName: {
			Indexes:   AvailabilityBlocksIndexes,
			Validator: validators.AvailabilityBlockValidator,
		},
		doctorsrepo.CollectionName: {
			Indexes:   DoctorsIndexes,
			Validator: validators.DoctorValidator,
		},
	}
}

// RunMigration creates every collection up front: multi-document
// transactions cannot create collections on older servers.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
