package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	bookingserrors "rideshare/internal/bookings/errors"
	"rideshare/pkg/config"
	apperrors "rideshare/pkg/errors"
	"rideshare/pkg/logger"
	"rideshare/pkg/model"
)

type mockBookingRepository struct {
	CreateFunc              func(ctx context.Context, booking *model.Booking) error
	FindByIDFunc            func(ctx context.Context, id string) (*model.Booking, error)
	FindMostRecentByCarFunc func(ctx context.Context, carID int) (*model.Booking, error)
	DeleteFunc              func(ctx context.Context, id string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return m.CreateFunc(ctx, booking)
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockBookingRepository) FindMostRecentByCar(ctx context.Context, carID int) (*model.Booking, error) {
	return m.FindMostRecentByCarFunc(ctx, carID)
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type mockLockRepository struct {
	AcquireFunc func(ctx context.Context, carID int, ttl time.Duration) (*model.BookingLock, error)
	ReleaseFunc func(ctx context.Context, lock *model.BookingLock) error
}

func (m *mockLockRepository) Acquire(ctx context.Context, carID int, ttl time.Duration) (*model.BookingLock, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, carID, ttl)
	}
	return &model.BookingLock{ID: "car-1", Token: "token"}, nil
}

func (m *mockLockRepository) Release(ctx context.Context, lock *model.BookingLock) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, lock)
	}
	return nil
}

type mockCalendar struct {
	deleted []string
	err     error
}

func (m *mockCalendar) DeleteEvent(ctx context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	return m.err
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

func validBooking(start time.Time) *model.Booking {
	return &model.Booking{
		CarID:         1,
		Username:      "alice",
		StartTime:     start,
		DurationHours: 2,
	}
}

func TestCreateBookingNoExistingBookings(t *testing.T) {
	created := false
	repo := &mockBookingRepository{
		FindMostRecentByCarFunc: func(ctx context.Context, carID int) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, booking *model.Booking) error {
			created = true
			return nil
		},
	}

	svc := NewBookingService(repo, &mockLockRepository{}, nil, testConfig())
	if err := svc.Create(context.Background(), validBooking(time.Now())); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !created {
		t.Error("booking was not persisted")
	}
}

func TestCreateBookingConflicts(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := &model.Booking{
		CarID:         1,
		Username:      "bob",
		StartTime:     base,
		DurationHours: 3, // open until 13:00
	}

	tests := []struct {
		name     string
		start    time.Time
		wantCode string
	}{
		{"start inside open window", base.Add(1 * time.Hour), apperrors.CodeConflict},
		{"start just before window closes", base.Add(3*time.Hour - time.Second), apperrors.CodeConflict},
		{"start exactly at window close", base.Add(3 * time.Hour), ""},
		{"start after window", base.Add(5 * time.Hour), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				FindMostRecentByCarFunc: func(ctx context.Context, carID int) (*model.Booking, error) {
					return existing, nil
				},
				CreateFunc: func(ctx context.Context, booking *model.Booking) error {
					return nil
				},
			}

			svc := NewBookingService(repo, &mockLockRepository{}, nil, testConfig())
			err := svc.Create(context.Background(), validBooking(tt.start))

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.Code != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if !errors.Is(err, bookingserrors.ErrCurrentlyBooked) {
				t.Errorf("conflict does not wrap ErrCurrentlyBooked: %v", err)
			}
		})
	}
}

func TestCreateBookingLockHeld(t *testing.T) {
	lockRepo := &mockLockRepository{
		AcquireFunc: func(ctx context.Context, carID int, ttl time.Duration) (*model.BookingLock, error) {
			return nil, bookingserrors.ErrLockHeld
		},
	}

	svc := NewBookingService(&mockBookingRepository{}, lockRepo, nil, testConfig())
	err := svc.Create(context.Background(), validBooking(time.Now()))

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict while lock is held, got %v", err)
	}
	if !errors.Is(err, bookingserrors.ErrCurrentlyBooked) {
		t.Errorf("conflict does not wrap ErrCurrentlyBooked: %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := NewBookingService(&mockBookingRepository{}, &mockLockRepository{}, nil, testConfig())

	bad := validBooking(time.Now())
	bad.Username = "x" // below minimum length

	err := svc.Create(context.Background(), bad)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCurrentHolder(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	booking := &model.Booking{
		CarID:         1,
		Username:      "alice",
		StartTime:     base,
		DurationHours: 2,
	}

	repo := &mockBookingRepository{
		FindMostRecentByCarFunc: func(ctx context.Context, carID int) (*model.Booking, error) {
			return booking, nil
		},
	}
	svc := NewBookingService(repo, &mockLockRepository{}, nil, testConfig())

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"before window", base.Add(-time.Minute), ""},
		{"at start", base, "alice"},
		{"inside window", base.Add(time.Hour), "alice"},
		{"after window", base.Add(2*time.Hour + time.Minute), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holder, err := svc.CurrentHolder(context.Background(), 1, tt.at)
			if err != nil {
				t.Fatalf("CurrentHolder failed: %v", err)
			}
			if holder != tt.want {
				t.Errorf("holder = %q, want %q", holder, tt.want)
			}
		})
	}
}

func TestCurrentHolderNoBookings(t *testing.T) {
	repo := &mockBookingRepository{
		FindMostRecentByCarFunc: func(ctx context.Context, carID int) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
	}
	svc := NewBookingService(repo, &mockLockRepository{}, nil, testConfig())

	holder, err := svc.CurrentHolder(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("CurrentHolder failed: %v", err)
	}
	if holder != "" {
		t.Errorf("holder = %q, want empty", holder)
	}
}

func TestDeleteBookingReleasesCalendarEntry(t *testing.T) {
	booking := &model.Booking{
		ID:          "665f0a8e9d3b4a2f1c000001",
		CarID:       1,
		Username:    "alice",
		CalendarRef: "cal-ref-42",
	}

	repo := &mockBookingRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	calendar := &mockCalendar{}

	svc := NewBookingService(repo, &mockLockRepository{}, calendar, testConfig())
	if err := svc.Delete(context.Background(), booking.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(calendar.deleted) != 1 || calendar.deleted[0] != "cal-ref-42" {
		t.Errorf("calendar entries released: %v", calendar.deleted)
	}
}

func TestDeleteBookingCalendarFailureIsNonFatal(t *testing.T) {
	repo := &mockBookingRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, CalendarRef: "cal-ref"}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	calendar := &mockCalendar{err: errors.New("calendar unreachable")}

	svc := NewBookingService(repo, &mockLockRepository{}, calendar, testConfig())
	if err := svc.Delete(context.Background(), "665f0a8e9d3b4a2f1c000001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestDeleteBookingNotFound(t *testing.T) {
	repo := &mockBookingRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
	}

	svc := NewBookingService(repo, &mockLockRepository{}, nil, testConfig())
	err := svc.Delete(context.Background(), "665f0a8e9d3b4a2f1c000001")

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
