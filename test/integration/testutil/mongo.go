//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultDatabaseName = "slotkeeper"
	ConnectionTimeout   = 10 * time.Second

	HoldsCollection        = "Slot_holds"
	GuardsCollection       = "Slot_hold_guards"
	AppointmentsCollection = "Appointments"
	BlocksCollection       = "Availability_blocks"
	DoctorsCollection      = "Doctors"
)

type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

func (m *MongoHelper) CleanAll(t *testing.T) {
	t.Helper()
	for _, name := range []string{HoldsCollection, GuardsCollection, AppointmentsCollection, BlocksCollection, DoctorsCollection} {
		m.CleanCollection(t, name)
	}
}

func (m *MongoHelper) CleanCollection(t *testing.T, collectionName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", collectionName, err)
	}
}

func (m *MongoHelper) Count(t *testing.T, collectionName string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

// Insert stores doc and returns its generated id as a hex string.
func (m *MongoHelper) Insert(t *testing.T, collectionName string, doc any) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := m.Database.Collection(collectionName).InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", collectionName, err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		t.Fatalf("unexpected id type %T in %s", result.InsertedID, collectionName)
	}
	return oid.Hex()
}

// ExpireHold moves a hold's deadline into the past without waiting for the lease.
func (m *MongoHelper) ExpireHold(t *testing.T, holdID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(holdID)
	if err != nil {
		t.Fatalf("invalid hold id %s: %v", holdID, err)
	}
	update := bson.M{"$set": bson.M{"expires_at": time.Now().UTC().Add(-time.Second)}}
	if _, err := m.Database.Collection(HoldsCollection).UpdateByID(ctx, oid, update); err != nil {
		t.Fatalf("failed to expire hold %s: %v", holdID, err)
	}
}
