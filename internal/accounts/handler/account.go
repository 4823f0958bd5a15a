package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	bookingsservice "rideshare/internal/bookings/service"
	usersservice "rideshare/internal/users/service"
	vehicleserrors "rideshare/internal/vehicles/errors"
	vehiclesservice "rideshare/internal/vehicles/service"
	apperrors "rideshare/pkg/errors"
	httputil "rideshare/pkg/http"
	"rideshare/pkg/logger"
	"rideshare/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

// AccountHandler exposes the collaborator endpoints the coordinator
// forwards protocol operations to. Response bodies keep the shapes the
// deployed agents already parse: a "message" that is either a string or a
// map of field errors, and a "user" object on login-shaped responses.
type AccountHandler struct {
	users    usersservice.UserService
	bookings bookingsservice.BookingService
	vehicles vehiclesservice.VehicleService
	validate *validator.Validate
	log      *logger.Logger
}

func NewAccountHandler(
	users usersservice.UserService,
	bookings bookingsservice.BookingService,
	vehicles vehiclesservice.VehicleService,
	log *logger.Logger,
) *AccountHandler {
	return &AccountHandler{
		users:    users,
		bookings: bookings,
		vehicles: vehicles,
		validate: validator.New(),
		log:      log,
	}
}

func (h *AccountHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/login", h.Login)
	router.POST("/api/login-bluetooth", h.LoginBluetooth)
	router.POST("/api/register-bluetooth", h.RegisterBluetooth)
	router.POST("/api/booking", h.CreateBooking)
	router.DELETE("/api/booking/:id", h.DeleteBooking)
	router.POST("/api/unlock", h.Unlock)
	router.POST("/api/return", h.Return)
	router.POST("/api/setlocation", h.SetLocation)
}

type loginResponse struct {
	Message any               `json:"message"`
	User    *model.PublicUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AccountHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "error", err)
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Password string `json:"password" validate:"required"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{
			Message: map[string][]string{"request": {"Malformed request body."}},
		})
		return
	}

	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch apperrors.AsAppError(err).Code {
		case apperrors.CodeNotFound:
			h.writeJSON(w, http.StatusNotFound, loginResponse{
				Message: map[string][]string{"user": {"User does not exist."}},
			})
		case apperrors.CodeUnauthorized:
			h.writeJSON(w, http.StatusUnauthorized, loginResponse{
				Message: map[string][]string{"user": {"Incorrect password."}},
			})
		default:
			h.log.Error("Login failed", "username", req.Username, "error", err)
			h.writeJSON(w, http.StatusInternalServerError, loginResponse{
				Message: map[string][]string{"server": {"A server error occured."}},
			})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{
		Message: "Logged in successfully",
		User:    user,
	})
}

type bluetoothLoginRequest struct {
	MACAddress string `json:"mac_address" validate:"required,mac"`
}

func (h *AccountHandler) LoginBluetooth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req bluetoothLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{
			Message: map[string][]string{"request": {"Malformed request body."}},
		})
		return
	}

	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return
	}

	user, err := h.users.AuthenticateByMAC(r.Context(), req.MACAddress)
	if err != nil {
		if apperrors.AsAppError(err).Code == apperrors.CodeUnauthorized {
			h.writeJSON(w, http.StatusUnauthorized, loginResponse{
				Message: "ERROR: Bluetooth device is not registered to a user",
			})
			return
		}
		h.log.Error("Bluetooth login failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, loginResponse{
			Message: map[string][]string{"server": {"A server error occured."}},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{
		Message: "Logged in successfully",
		User:    user,
	})
}

type registerBluetoothRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=20"`
	MACAddress string `json:"mac_address" validate:"required,mac"`
}

func (h *AccountHandler) RegisterBluetooth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerBluetoothRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Malformed request body."})
		return
	}

	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return
	}

	if err := h.users.RegisterMAC(r.Context(), req.Username, req.MACAddress); err != nil {
		if apperrors.AsAppError(err).Code == apperrors.CodeNotFound {
			h.writeJSON(w, http.StatusNotFound, messageResponse{Message: "ERROR: User does not exist."})
			return
		}
		h.log.Error("Bluetooth registration failed", "username", req.Username, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "A server error occured."})
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Bluetooth device registered"})
}

type bookingRequest struct {
	CarID         int        `json:"car_id" validate:"required,min=1"`
	Username      string     `json:"username" validate:"required,min=2,max=20"`
	DurationHours int        `json:"duration" validate:"required,min=1,max=168"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	CalendarRef   string     `json:"calendar_ref,omitempty"`
}

func (h *AccountHandler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Malformed request body."})
		return
	}

	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return
	}

	start := time.Now().UTC()
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}

	booking := &model.Booking{
		CarID:         req.CarID,
		Username:      req.Username,
		StartTime:     start,
		DurationHours: req.DurationHours,
		CalendarRef:   req.CalendarRef,
	}

	if err := h.bookings.Create(r.Context(), booking); err != nil {
		switch apperrors.AsAppError(err).Code {
		case apperrors.CodeConflict:
			h.writeJSON(w, http.StatusConflict, messageResponse{Message: "Car is currently booked."})
		case apperrors.CodeValidation:
			h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Invalid booking."})
		default:
			h.log.Error("Booking creation failed", "car_id", req.CarID, "error", err)
			h.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "A server error occured."})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Success"})
}

func (h *AccountHandler) DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.bookings.Delete(r.Context(), id); err != nil {
		switch apperrors.AsAppError(err).Code {
		case apperrors.CodeNotFound:
			h.writeJSON(w, http.StatusNotFound, messageResponse{Message: "ERROR: Booking does not exist."})
		case apperrors.CodeInvalidInput:
			h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Invalid booking ID."})
		default:
			h.log.Error("Booking deletion failed", "id", id, "error", err)
			h.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "A server error occured."})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
}

type lockRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	CarID    int    `json:"car_id" validate:"required,min=1"`
}

func (h *AccountHandler) Unlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := h.decodeLockRequest(w, r)
	if !ok {
		return
	}

	err := h.vehicles.Unlock(r.Context(), req.CarID, req.Username, time.Now().UTC())
	if err != nil {
		h.writeLockError(w, err, "ERROR: The car is already unlocked")
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Car has been unlocked"})
}

func (h *AccountHandler) Return(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := h.decodeLockRequest(w, r)
	if !ok {
		return
	}

	err := h.vehicles.Return(r.Context(), req.CarID, req.Username)
	if err != nil {
		h.writeLockError(w, err, "ERROR: The car has already been returned")
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Car has been returned"})
}

func (h *AccountHandler) decodeLockRequest(w http.ResponseWriter, r *http.Request) (lockRequest, bool) {
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Malformed request body."})
		return req, false
	}
	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return req, false
	}
	return req, true
}

func (h *AccountHandler) writeLockError(w http.ResponseWriter, err error, alreadyMessage string) {
	switch {
	case errors.Is(err, vehicleserrors.ErrNotAuthorized):
		h.writeJSON(w, http.StatusForbidden, messageResponse{Message: "ERROR: You are not authorized to operate this car"})
	case errors.Is(err, vehicleserrors.ErrAlreadyUnlocked), errors.Is(err, vehicleserrors.ErrAlreadyLocked):
		h.writeJSON(w, http.StatusConflict, messageResponse{Message: alreadyMessage})
	case errors.Is(err, vehicleserrors.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, messageResponse{Message: "ERROR: Car does not exist"})
	default:
		h.log.Error("Lock transition failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "A server error occured."})
	}
}

type locationRequest struct {
	CarID    int    `json:"car_id" validate:"required,min=1"`
	Location string `json:"location" validate:"required,min=1,max=128"`
}

func (h *AccountHandler) SetLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "ERROR: Malformed request body."})
		return
	}

	if fieldErrs := h.fieldErrors(req); fieldErrs != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: fieldErrs})
		return
	}

	if err := h.vehicles.SetLocation(r.Context(), req.CarID, req.Location); err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, messageResponse{Message: "ERROR: Car does not exist"})
			return
		}
		h.log.Error("Location update failed", "car_id", req.CarID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "A server error occured."})
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Location updated"})
}

// fieldErrors validates the request struct and converts failures into the
// field -> messages map the agents expect, or nil when valid.
func (h *AccountHandler) fieldErrors(req any) map[string][]string {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"request": {"Invalid request."}}
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		fields[field] = append(fields[field], "This field is required or invalid.")
	}
	return fields
}
