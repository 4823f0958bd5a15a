package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	bookingserrors "rideshare/internal/bookings/errors"
	"rideshare/internal/bookings/repository"
	"rideshare/pkg/config"
	apperrors "rideshare/pkg/errors"
	"rideshare/pkg/model"

	"github.com/go-playground/validator/v10"
)

const lockTTL = 30 * time.Second

// currentlyBooked carries the domain sentinel so callers can test for the
// condition with errors.Is while agents still see the historical message.
func currentlyBooked() *apperrors.AppError {
	return apperrors.Wrap(bookingserrors.ErrCurrentlyBooked,
		apperrors.CodeConflict, "Car is currently booked.", http.StatusConflict)
}

// CalendarDeleter releases the external calendar entry a booking may hold.
// The calendar integration itself lives outside this module.
type CalendarDeleter interface {
	DeleteEvent(ctx context.Context, ref string) error
}

// NopCalendar is the default when no calendar integration is configured.
type NopCalendar struct{}

func (NopCalendar) DeleteEvent(ctx context.Context, ref string) error { return nil }

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	// CurrentHolder returns the user whose most recent booking for the car
	// covers the given instant, or "" when no booking does.
	CurrentHolder(ctx context.Context, carID int, at time.Time) (string, error)
	// MostRecentHolder returns the user of the car's most recent booking
	// regardless of its time window, or "" when the car has none.
	MostRecentHolder(ctx context.Context, carID int) (string, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo     repository.BookingRepository
	lockRepo repository.BookingLockRepository
	calendar CalendarDeleter
	validate *validator.Validate
	cfg      *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	calendar CalendarDeleter,
	cfg *config.Config,
) BookingService {
	if calendar == nil {
		calendar = NopCalendar{}
	}
	return &bookingService{
		repo:     repo,
		lockRepo: lockRepo,
		calendar: calendar,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// Create accepts the booking unless the car's most recent booking window
// is still open at the requested start time. Only the most recent booking
// is inspected; callers are expected to create bookings in non-decreasing
// start-time order.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	if err := s.validate.Struct(booking); err != nil {
		return apperrors.Validation("Invalid booking", map[string]any{"error": err.Error()})
	}

	lock, err := s.lockRepo.Acquire(ctx, booking.CarID, lockTTL)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return currentlyBooked()
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lock); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lock.ID, "error", releaseErr)
		}
	}()

	prev, err := s.repo.FindMostRecentByCar(ctx, booking.CarID)
	if err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if prev != nil && booking.StartTime.Before(prev.EndTime()) {
		s.cfg.Log.Info("Booking rejected, window still open",
			"car_id", booking.CarID,
			"requested_start", booking.StartTime,
			"open_until", prev.EndTime(),
		)
		return currentlyBooked()
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"car_id", booking.CarID,
		"username", booking.Username,
		"start_time", booking.StartTime,
		"duration_hours", booking.DurationHours,
	)
	return nil
}

func (s *bookingService) CurrentHolder(ctx context.Context, carID int, at time.Time) (string, error) {
	booking, err := s.repo.FindMostRecentByCar(ctx, carID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return "", nil
		}
		return "", apperrors.Internal("Failed to look up bookings", err)
	}

	if !booking.Covers(at) {
		return "", nil
	}
	return booking.Username, nil
}

func (s *bookingService) MostRecentHolder(ctx context.Context, carID int) (string, error) {
	booking, err := s.repo.FindMostRecentByCar(ctx, carID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return "", nil
		}
		return "", apperrors.Internal("Failed to look up bookings", err)
	}
	return booking.Username, nil
}

// Delete removes the booking unconditionally and releases its external
// calendar entry when one is referenced.
func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFound("Booking")
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to look up booking", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal("Failed to delete booking", err)
	}

	if booking.CalendarRef != "" {
		if err := s.calendar.DeleteEvent(ctx, booking.CalendarRef); err != nil {
			s.cfg.Log.Warn("Failed to release calendar entry",
				"booking_id", id,
				"calendar_ref", booking.CalendarRef,
				"error", err,
			)
		}
	}

	s.cfg.Log.Info("Booking deleted", "id", id)
	return nil
}
