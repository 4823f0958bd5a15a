package repository

import (
	"context"
	"fmt"
	"time"

	"rideshare/pkg/config"
	"rideshare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "FaceEncodings"

type EncodingRepository interface {
	Insert(ctx context.Context, encoding *model.FaceEncoding) error
	FindAll(ctx context.Context) ([]*model.FaceEncoding, error)
}

type mongoEncodingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEncodingRepository(cfg *config.Config) EncodingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEncodingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoEncodingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoEncodingRepository) Insert(ctx context.Context, encoding *model.FaceEncoding) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	encoding.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, encoding)
	if err != nil {
		return fmt.Errorf("failed to insert face encoding: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		encoding.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEncodingRepository) FindAll(ctx context.Context) ([]*model.FaceEncoding, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find face encodings: %w", err)
	}
	defer cursor.Close(ctx)

	var encodings []*model.FaceEncoding
	if err = cursor.All(ctx, &encodings); err != nil {
		return nil, fmt.Errorf("failed to decode face encodings: %w", err)
	}

	return encodings, nil
}
