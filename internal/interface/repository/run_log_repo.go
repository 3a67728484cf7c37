package repository

import (
	"context"
	"fmt"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRunLogRepository implements the RunLogRepository interface
type MongoRunLogRepository struct {
	collection *mongo.Collection
}

// NewMongoRunLogRepository creates a new MongoDB run log repository
func NewMongoRunLogRepository(ctx context.Context, db *mongo.Database) (repository.RunLogRepository, error) {
	collection := db.Collection("run_logs")

	// Index on runId for uniqueness
	runIDIndex := mongo.IndexModel{
		Keys:    bson.M{"runId": 1},
		Options: options.Index().SetUnique(true),
	}

	// Compound index for listing recent runs of a kind
	recentIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "kind", Value: 1},
			{Key: "startedAt", Value: -1},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{runIDIndex, recentIndex}); err != nil {
		return nil, fmt.Errorf("failed to create run log indexes: %w", err)
	}

	return &MongoRunLogRepository{
		collection: collection,
	}, nil
}

// Save upserts a run by its id
func (r *MongoRunLogRepository) Save(ctx context.Context, run *entity.RunLog) error {
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"runId": run.RunID},
		run,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}
	return nil
}

// FindRecent returns the latest runs, newest first
func (r *MongoRunLogRepository) FindRecent(ctx context.Context, kind string, limit int) ([]*entity.RunLog, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []*entity.RunLog{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// NopRunLogRepository discards runs. Used when no MongoDB is configured.
type NopRunLogRepository struct{}

func (NopRunLogRepository) Save(ctx context.Context, run *entity.RunLog) error {
	return nil
}

func (NopRunLogRepository) FindRecent(ctx context.Context, kind string, limit int) ([]*entity.RunLog, error) {
	return []*entity.RunLog{}, nil
}
