// ============================================================================
// internal/shared/database.go
// MongoDB connection and helper utilities
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig(uri, database string) *MongoConfig {
	return &MongoConfig{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 20 * time.Second,
		MaxPoolSize:    50,
		MinPoolSize:    10,
		MaxIdleTime:    30 * time.Second,
	}
}

// ConnectMongoDB establishes connection to MongoDB Atlas/Local with proper configuration
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout).
		SetSocketTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping MongoDB to verify connection
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB (Database: %s)", config.Database)

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes MongoDB connection
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Successfully disconnected from MongoDB")
	return nil
}

// ============================================================================
// Index Bootstrap
// ============================================================================

// EnsureIndexes creates the indexes the application relies on. The email and
// roll_number uniqueness is sparse so that the role which omits the field is
// not constrained by it.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "roll_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(idxCtx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	resultIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "exam_date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection("results").Indexes().CreateMany(idxCtx, resultIndexes); err != nil {
		return fmt.Errorf("failed to create result indexes: %w", err)
	}

	log.Println("Database indexes ensured")
	return nil
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with prefix and timestamp
func GenerateID(prefix string) string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("%s_%d", prefix, timestamp)
}

// GenerateUserID generates a user document ID
func GenerateUserID() string {
	return GenerateID("usr")
}

// GenerateResultID generates a result document ID
func GenerateResultID() string {
	return GenerateID("res")
}
