package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, cfg *Configuration) error
	Update(ctx context.Context, workflowID string, cfg *Configuration) error
	FindByWorkflowID(ctx context.Context, workflowID string) (*Configuration, error)
	List(ctx context.Context) ([]Configuration, error)
	EnsureIndexes(ctx context.Context) error
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("workflow_configurations"),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, cfg *Configuration) error {
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, cfg)
	return err
}

func (r *RepositoryImpl) Update(ctx context.Context, workflowID string, cfg *Configuration) error {
	cfg.UpdatedAt = time.Now()
	res, err := r.Collection.ReplaceOne(ctx, bson.M{"workflow_id": workflowID}, cfg)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("workflow %q not found", workflowID)
	}
	return nil
}

func (r *RepositoryImpl) FindByWorkflowID(ctx context.Context, workflowID string) (*Configuration, error) {
	var cfg Configuration
	err := r.Collection.FindOne(ctx, bson.M{"workflow_id": workflowID}).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("unknown workflow %q", workflowID)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Configuration, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []Configuration
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *RepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workflow_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
