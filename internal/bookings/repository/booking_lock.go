package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "rideshare/internal/bookings/errors"
	"rideshare/pkg/config"
	"rideshare/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingLockRepository provides per-car advisory locks so concurrent
// booking creation for the same car serializes around the conflict check.
type BookingLockRepository interface {
	Acquire(ctx context.Context, carID int, ttl time.Duration) (*model.BookingLock, error)
	Release(ctx context.Context, lock *model.BookingLock) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection("Booking_locks"),
	}
}

// Acquire inserts a lock document keyed by car id. A duplicate key error
// means another creation for the same car is in flight.
func (r *mongoBookingLockRepository) Acquire(ctx context.Context, carID int, ttl time.Duration) (*model.BookingLock, error) {
	now := time.Now().UTC()
	lock := &model.BookingLock{
		ID:        fmt.Sprintf("car-%d", carID),
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	return lock, nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lock *model.BookingLock) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "token": lock.Token})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
