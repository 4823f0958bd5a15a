package service

import (
	"context"
	"sync"
	"time"

	vehicleserrors "rideshare/internal/vehicles/errors"
	"rideshare/internal/vehicles/repository"
	"rideshare/pkg/config"
	"rideshare/pkg/model"
	"rideshare/pkg/sanitizer"
)

// BookingLedger is the slice of the booking service the lock state machine
// consults for authorization.
type BookingLedger interface {
	CurrentHolder(ctx context.Context, carID int, at time.Time) (string, error)
	MostRecentHolder(ctx context.Context, carID int) (string, error)
}

type VehicleService interface {
	// Unlock transitions Locked -> Unlocked for the user whose booking
	// covers now.
	Unlock(ctx context.Context, carID int, username string, now time.Time) error
	// Return transitions Unlocked -> Locked for the most recent booking's
	// user. There is no time-window check: a car may be returned early.
	Return(ctx context.Context, carID int, username string) error
	SetLocation(ctx context.Context, carID int, location string) error
	Get(ctx context.Context, carID int) (*model.Car, error)
}

type vehicleService struct {
	repo      repository.CarRepository
	ledger    BookingLedger
	publisher EventPublisher
	cfg       *config.Config

	// carLocks serializes read-check-write per vehicle so transitions on
	// the same car never interleave across connections.
	mu       sync.Mutex
	carLocks map[int]*sync.Mutex
}

func NewVehicleService(
	repo repository.CarRepository,
	ledger BookingLedger,
	publisher EventPublisher,
	cfg *config.Config,
) VehicleService {
	return &vehicleService{
		repo:      repo,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		carLocks:  make(map[int]*sync.Mutex),
	}
}

func (s *vehicleService) lockCar(carID int) func() {
	s.mu.Lock()
	l, ok := s.carLocks[carID]
	if !ok {
		l = &sync.Mutex{}
		s.carLocks[carID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *vehicleService) Unlock(ctx context.Context, carID int, username string, now time.Time) error {
	unlock := s.lockCar(carID)
	defer unlock()

	holder, err := s.ledger.CurrentHolder(ctx, carID, now)
	if err != nil {
		return err
	}
	if holder == "" || holder != username {
		s.cfg.Log.Warn("Unlock refused",
			"car_id", carID,
			"username", username,
			"holder", holder,
		)
		return vehicleserrors.ErrNotAuthorized
	}

	car, err := s.repo.FindByID(ctx, carID)
	if err != nil {
		return err
	}
	if !car.Locked {
		return vehicleserrors.ErrAlreadyUnlocked
	}

	if err := s.repo.SetLocked(ctx, carID, false); err != nil {
		return err
	}

	s.cfg.Log.Info("Car unlocked", "car_id", carID, "username", username)
	s.publish(ctx, VehicleEvent{
		Type:     EventUnlocked,
		CarID:    carID,
		Username: username,
		At:       now,
	})
	return nil
}

func (s *vehicleService) Return(ctx context.Context, carID int, username string) error {
	unlock := s.lockCar(carID)
	defer unlock()

	holder, err := s.ledger.MostRecentHolder(ctx, carID)
	if err != nil {
		return err
	}
	if holder == "" || holder != username {
		s.cfg.Log.Warn("Return refused",
			"car_id", carID,
			"username", username,
			"holder", holder,
		)
		return vehicleserrors.ErrNotAuthorized
	}

	car, err := s.repo.FindByID(ctx, carID)
	if err != nil {
		return err
	}
	if car.Locked {
		return vehicleserrors.ErrAlreadyLocked
	}

	if err := s.repo.SetLocked(ctx, carID, true); err != nil {
		return err
	}

	s.cfg.Log.Info("Car returned", "car_id", carID, "username", username)
	s.publish(ctx, VehicleEvent{
		Type:     EventReturned,
		CarID:    carID,
		Username: username,
		At:       time.Now().UTC(),
	})
	return nil
}

func (s *vehicleService) SetLocation(ctx context.Context, carID int, location string) error {
	location = sanitizer.NormalizeLocation(location)
	if err := s.repo.SetLocation(ctx, carID, location); err != nil {
		return err
	}

	s.cfg.Log.Info("Car location updated", "car_id", carID, "location", location)
	s.publish(ctx, VehicleEvent{
		Type:     EventLocationChanged,
		CarID:    carID,
		Location: location,
		At:       time.Now().UTC(),
	})
	return nil
}

func (s *vehicleService) Get(ctx context.Context, carID int) (*model.Car, error) {
	return s.repo.FindByID(ctx, carID)
}

func (s *vehicleService) publish(ctx context.Context, event VehicleEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVehicleEvent(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish vehicle event",
			"type", event.Type,
			"car_id", event.CarID,
			"error", err,
		)
	}
}
