package lov

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peatiscoding/cadence-sub000/internal/database"
)

const CacheCollection = "lov_cache"

var ErrCacheMiss = errors.New("lov cache miss")

type Repository interface {
	Get(ctx context.Context, cacheKey string) (*CachedData, error)
	Put(ctx context.Context, data *CachedData) error
	Delete(ctx context.Context, cacheKey string) error
}

type RepositoryImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{collection: db.DB.Collection(CacheCollection)}
}

func (r *RepositoryImpl) Get(ctx context.Context, cacheKey string) (*CachedData, error) {
	var data CachedData
	err := r.collection.FindOne(ctx, bson.M{"cache_key": cacheKey}).Decode(&data)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *RepositoryImpl) Put(ctx context.Context, data *CachedData) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"cache_key": data.CacheKey}, data, options.Replace().SetUpsert(true))
	return err
}

func (r *RepositoryImpl) Delete(ctx context.Context, cacheKey string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"cache_key": cacheKey})
	return err
}
