package protocol

import (
	"encoding/json"

	"rideshare/pkg/model"
)

// LoginRequest carries credential verification.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Password string `json:"password" validate:"required"`
}

// BluetoothLoginRequest identifies a user by a short-range radio address.
type BluetoothLoginRequest struct {
	MACAddress string `json:"mac_address" validate:"required,mac"`
}

// RegisterBluetoothRequest binds a radio address to a user.
type RegisterBluetoothRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=20"`
	MACAddress string `json:"mac_address" validate:"required,mac"`
}

// LockStatusRequest asks for an unlock or return transition.
type LockStatusRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	CarID    int    `json:"car_id" validate:"required,min=1"`
	Method   string `json:"method" validate:"required,oneof=unlock return"`
}

// LocationRequest updates a car's last known location.
type LocationRequest struct {
	CarID    int    `json:"car_id" validate:"required,min=1"`
	Location string `json:"location" validate:"required,min=1,max=128"`
}

// FacePayload is the blob body for the image-carrying operations. JSON
// base64-encodes the image bytes; the blob codec does not care.
type FacePayload struct {
	Username string `json:"username,omitempty"`
	Image    []byte `json:"image" validate:"required"`
}

// LoginResult is the body of login-shaped responses. Message is either a
// human-readable string or a map of field names to error lists, so it stays
// raw until the caller inspects it.
type LoginResult struct {
	User    *model.PublicUser `json:"user"`
	Message json.RawMessage   `json:"message"`
}

// MessageResult is the body of lock-status and location responses.
type MessageResult struct {
	Message string `json:"message"`
}

// FaceMatchResult is the body of a Login With Face response. Username is
// empty when no enrolled identity passed the match threshold.
type FaceMatchResult struct {
	Username string `json:"username"`
}

// ServerErrorLogin is the generic body relayed when the account service is
// unreachable during a login-shaped operation.
func ServerErrorLogin() []byte {
	body, _ := json.Marshal(map[string]any{
		"user": nil,
		"message": map[string][]string{
			"server": {"A server error occured."},
		},
	})
	return body
}

// ServerErrorMessage is the generic body for the remaining forwarded
// operations.
func ServerErrorMessage() []byte {
	body, _ := json.Marshal(MessageResult{Message: "A server error occured."})
	return body
}
