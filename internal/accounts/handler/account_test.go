package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	vehicleserrors "rideshare/internal/vehicles/errors"
	apperrors "rideshare/pkg/errors"
	"rideshare/pkg/logger"
	"rideshare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockUserService struct {
	AuthenticateFunc      func(ctx context.Context, username, password string) (*model.PublicUser, error)
	AuthenticateByMACFunc func(ctx context.Context, macAddress string) (*model.PublicUser, error)
	RegisterMACFunc       func(ctx context.Context, username, macAddress string) error
}

func (m *mockUserService) Authenticate(ctx context.Context, username, password string) (*model.PublicUser, error) {
	return m.AuthenticateFunc(ctx, username, password)
}

func (m *mockUserService) AuthenticateByMAC(ctx context.Context, macAddress string) (*model.PublicUser, error) {
	return m.AuthenticateByMACFunc(ctx, macAddress)
}

func (m *mockUserService) RegisterMAC(ctx context.Context, username, macAddress string) error {
	return m.RegisterMACFunc(ctx, username, macAddress)
}

type mockBookingService struct {
	CreateFunc func(ctx context.Context, booking *model.Booking) error
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	return m.CreateFunc(ctx, booking)
}

func (m *mockBookingService) CurrentHolder(ctx context.Context, carID int, at time.Time) (string, error) {
	return "", nil
}

func (m *mockBookingService) MostRecentHolder(ctx context.Context, carID int) (string, error) {
	return "", nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type mockVehicleService struct {
	UnlockFunc      func(ctx context.Context, carID int, username string, now time.Time) error
	ReturnFunc      func(ctx context.Context, carID int, username string) error
	SetLocationFunc func(ctx context.Context, carID int, location string) error
}

func (m *mockVehicleService) Unlock(ctx context.Context, carID int, username string, now time.Time) error {
	return m.UnlockFunc(ctx, carID, username, now)
}

func (m *mockVehicleService) Return(ctx context.Context, carID int, username string) error {
	return m.ReturnFunc(ctx, carID, username)
}

func (m *mockVehicleService) SetLocation(ctx context.Context, carID int, location string) error {
	return m.SetLocationFunc(ctx, carID, location)
}

func (m *mockVehicleService) Get(ctx context.Context, carID int) (*model.Car, error) {
	return nil, vehicleserrors.ErrNotFound
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard})
}

func newTestRouter(users *mockUserService, bookings *mockBookingService, vehicles *mockVehicleService) *httprouter.Router {
	h := NewAccountHandler(users, bookings, vehicles, testLogger())
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *httprouter.Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestLoginResponses(t *testing.T) {
	users := &mockUserService{
		AuthenticateFunc: func(ctx context.Context, username, password string) (*model.PublicUser, error) {
			switch {
			case username != "alice":
				return nil, apperrors.NotFound("User")
			case password != "hunter2-plus":
				return nil, apperrors.Unauthorized("Incorrect password.")
			default:
				return &model.PublicUser{Username: "alice", Role: model.RoleUser}, nil
			}
		},
	}
	router := newTestRouter(users, &mockBookingService{}, &mockVehicleService{})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			"success",
			`{"username":"alice","password":"hunter2-plus"}`,
			http.StatusOK,
			"Logged in successfully",
		},
		{
			"wrong password",
			`{"username":"alice","password":"nope-nope"}`,
			http.StatusUnauthorized,
			"Incorrect password.",
		},
		{
			"unknown user",
			`{"username":"carol","password":"whatever1"}`,
			http.StatusNotFound,
			"User does not exist.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/api/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantMessage) {
				t.Errorf("body %s does not mention %q", rec.Body.String(), tt.wantMessage)
			}
			if _, ok := body["user"]; !ok {
				t.Error("login response has no user field")
			}
		})
	}
}

func TestLoginFieldValidation(t *testing.T) {
	router := newTestRouter(&mockUserService{}, &mockBookingService{}, &mockVehicleService{})

	rec, body := doJSON(t, router, http.MethodPost, "/api/login", `{"username":"a","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// The message must be a field -> errors map, not a plain string.
	if _, ok := body["message"].(map[string]any); !ok {
		t.Errorf("message is not a field error map: %s", rec.Body.String())
	}
}

func TestCreateBookingConflict(t *testing.T) {
	bookings := &mockBookingService{
		CreateFunc: func(ctx context.Context, booking *model.Booking) error {
			return apperrors.Conflict("Car is currently booked.")
		},
	}
	router := newTestRouter(&mockUserService{}, bookings, &mockVehicleService{})

	rec, body := doJSON(t, router, http.MethodPost, "/api/booking",
		`{"car_id":1,"username":"alice","duration":2}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
	if body["message"] != "Car is currently booked." {
		t.Errorf("message = %v", body["message"])
	}
}

func TestCreateBookingDefaultsStartTime(t *testing.T) {
	var captured *model.Booking
	bookings := &mockBookingService{
		CreateFunc: func(ctx context.Context, booking *model.Booking) error {
			captured = booking
			return nil
		},
	}
	router := newTestRouter(&mockUserService{}, bookings, &mockVehicleService{})

	before := time.Now().UTC()
	rec, _ := doJSON(t, router, http.MethodPost, "/api/booking",
		`{"car_id":1,"username":"alice","duration":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	if captured == nil {
		t.Fatal("booking never reached the service")
	}
	if captured.StartTime.Before(before) || captured.StartTime.After(time.Now().UTC()) {
		t.Errorf("start time %v not defaulted to now", captured.StartTime)
	}
}

func TestUnlockResponses(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"success", nil, http.StatusOK, "Car has been unlocked"},
		{"not authorized", vehicleserrors.ErrNotAuthorized, http.StatusForbidden, "ERROR: You are not authorized to operate this car"},
		{"already unlocked", vehicleserrors.ErrAlreadyUnlocked, http.StatusConflict, "ERROR: The car is already unlocked"},
		{"unknown car", vehicleserrors.ErrNotFound, http.StatusNotFound, "ERROR: Car does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles := &mockVehicleService{
				UnlockFunc: func(ctx context.Context, carID int, username string, now time.Time) error {
					return tt.err
				},
			}
			router := newTestRouter(&mockUserService{}, &mockBookingService{}, vehicles)

			rec, body := doJSON(t, router, http.MethodPost, "/api/unlock",
				`{"username":"alice","car_id":7}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

func TestReturnResponses(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"success", nil, http.StatusOK, "Car has been returned"},
		{"already returned", vehicleserrors.ErrAlreadyLocked, http.StatusConflict, "ERROR: The car has already been returned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles := &mockVehicleService{
				ReturnFunc: func(ctx context.Context, carID int, username string) error {
					return tt.err
				},
			}
			router := newTestRouter(&mockUserService{}, &mockBookingService{}, vehicles)

			rec, body := doJSON(t, router, http.MethodPost, "/api/return",
				`{"username":"alice","car_id":7}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

func TestBluetoothLoginUnregisteredDevice(t *testing.T) {
	users := &mockUserService{
		AuthenticateByMACFunc: func(ctx context.Context, macAddress string) (*model.PublicUser, error) {
			return nil, apperrors.Unauthorized("ERROR: Bluetooth device is not registered to a user")
		},
	}
	router := newTestRouter(users, &mockBookingService{}, &mockVehicleService{})

	rec, _ := doJSON(t, router, http.MethodPost, "/api/login-bluetooth",
		`{"mac_address":"aa:bb:cc:dd:ee:ff"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Bluetooth device is not registered") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSetLocation(t *testing.T) {
	var gotCarID int
	var gotLocation string
	vehicles := &mockVehicleService{
		SetLocationFunc: func(ctx context.Context, carID int, location string) error {
			gotCarID, gotLocation = carID, location
			return nil
		},
	}
	router := newTestRouter(&mockUserService{}, &mockBookingService{}, vehicles)

	rec, body := doJSON(t, router, http.MethodPost, "/api/setlocation",
		`{"car_id":3,"location":"Building 14 car park"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if gotCarID != 3 || gotLocation != "Building 14 car park" {
		t.Errorf("forwarded %d/%q", gotCarID, gotLocation)
	}
	if body["message"] != "Location updated" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestDeleteBooking(t *testing.T) {
	var deletedID string
	bookings := &mockBookingService{
		DeleteFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	router := newTestRouter(&mockUserService{}, bookings, &mockVehicleService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/booking/665f0a8e9d3b4a2f1c000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if deletedID != "665f0a8e9d3b4a2f1c000001" {
		t.Errorf("deleted id = %q", deletedID)
	}
}
