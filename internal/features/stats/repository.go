package stats

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/database"
)

type Repository interface {
	ListStats(ctx context.Context, workflowID string) ([]models.StatusStats, error)
	ListActivities(ctx context.Context, workflowID, cardID string, limit int64) ([]models.ActivityLog, error)
	EnsureIndexes(ctx context.Context) error
}

type RepositoryImpl struct {
	stats      *mongo.Collection
	activities *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{
		stats:      db.DB.Collection(StatusStatsCollection),
		activities: db.DB.Collection(ActivityLogCollection),
	}
}

func (r *RepositoryImpl) ListStats(ctx context.Context, workflowID string) ([]models.StatusStats, error) {
	cursor, err := r.stats.Find(ctx, bson.M{"workflow_id": workflowID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.StatusStats
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActivities returns the newest entries first. cardID narrows the feed to
// a single card when non-empty.
func (r *RepositoryImpl) ListActivities(ctx context.Context, workflowID, cardID string, limit int64) ([]models.ActivityLog, error) {
	filter := bson.M{"workflow_id": workflowID}
	if cardID != "" {
		filter["card_id"] = cardID
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cursor, err := r.activities.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.ActivityLog
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.stats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workflow_id", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.activities.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workflow_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}
