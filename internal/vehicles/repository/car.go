package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	vehicleserrors "rideshare/internal/vehicles/errors"
	"rideshare/pkg/config"
	"rideshare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Cars"

type CarRepository interface {
	FindByID(ctx context.Context, carID int) (*model.Car, error)
	SetLocked(ctx context.Context, carID int, locked bool) error
	SetLocation(ctx context.Context, carID int, location string) error
}

type mongoCarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCarRepository(cfg *config.Config) CarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCarRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCarRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCarRepository) FindByID(ctx context.Context, carID int) (*model.Car, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var car model.Car
	err := r.collection.FindOne(ctx, bson.M{"_id": carID}).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, vehicleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find car: %w", err)
	}

	return &car, nil
}

func (r *mongoCarRepository) SetLocked(ctx context.Context, carID int, locked bool) error {
	return r.update(ctx, carID, bson.M{"is_locked": locked})
}

func (r *mongoCarRepository) SetLocation(ctx context.Context, carID int, location string) error {
	return r.update(ctx, carID, bson.M{"location": location})
}

func (r *mongoCarRepository) update(ctx context.Context, carID int, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": carID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}

	if result.MatchedCount == 0 {
		return vehicleserrors.ErrNotFound
	}

	return nil
}
