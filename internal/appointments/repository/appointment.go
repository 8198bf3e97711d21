package repository

import (
	"context"
	"errors"
	"fmt"
	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"

	// codeDocumentValidationFailure is returned when an insert breaks the
	// collection's $jsonSchema validator.
	codeDocumentValidationFailure = 121
)

// AppointmentRepository is both a conflict source and the sink that turns a
// confirmed hold into a permanent appointment. It lives in the same database
// as the holds so both writes share one transaction.
type AppointmentRepository interface {
	ListBlockingByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error)
	Create(ctx context.Context, appointment *model.Appointment) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAppointmentRepository) ListBlockingByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"date":      date,
		"status": bson.M{"$nin": []string{
			model.AppointmentCancelled,
			model.AppointmentNoShow,
		}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		return insertError(err, appointment.HoldID)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

// insertError turns storage rejections of the payload into errors the caller
// can act on. Anything else stays an internal failure.
func insertError(err error, holdID string) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict("Hold already has an appointment").WithDetails(map[string]any{
			"hold_id": holdID,
		})
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeDocumentValidationFailure) {
		return apperrors.Validation("Appointment rejected by schema validation", map[string]any{
			"hold_id": holdID,
		})
	}

	return fmt.Errorf("failed to create appointment: %w", err)
}
