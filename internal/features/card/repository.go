package card

import (
	"context"
	"fmt"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the requested card does not exist.
var ErrNotFound = fmt.Errorf("card not found")

type Repository interface {
	Create(ctx context.Context, card *models.CardEntry) error
	Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error)
	List(ctx context.Context, workflowID string, status string, limit, offset int64) ([]models.CardEntry, error)
	Merge(ctx context.Context, workflowID, cardID string, fields map[string]interface{}) error
	Delete(ctx context.Context, workflowID, cardID string) error
	EnsureIndexes(ctx context.Context) error
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("workflow_cards"),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, card *models.CardEntry) error {
	_, err := r.Collection.InsertOne(ctx, card)
	return err
}

func (r *RepositoryImpl) Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error) {
	var card models.CardEntry
	err := r.Collection.FindOne(ctx, bson.M{
		"workflow_id":      workflowID,
		"workflow_card_id": cardID,
	}).Decode(&card)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *RepositoryImpl) List(ctx context.Context, workflowID string, status string, limit, offset int64) ([]models.CardEntry, error) {
	filter := bson.M{"workflow_id": workflowID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cards []models.CardEntry
	if err := cursor.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Merge applies a partial $set update; untouched fields keep their values.
func (r *RepositoryImpl) Merge(ctx context.Context, workflowID, cardID string, fields map[string]interface{}) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{
		"workflow_id":      workflowID,
		"workflow_card_id": cardID,
	}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, workflowID, cardID string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{
		"workflow_id":      workflowID,
		"workflow_card_id": cardID,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workflow_id", Value: 1}, {Key: "workflow_card_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
