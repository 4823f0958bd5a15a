// Package protocol implements the framed wire exchange between in-vehicle
// agents and the coordinator: whole-frame UTF-8 command/JSON messages and
// sentinel-terminated chunked blobs for payloads larger than one read.
package protocol

// Operation names as they appear on the wire. The vocabulary is fixed; the
// deployed hardware agents send these exact strings.
const (
	OpLogin              = "Login"
	OpLoginWithFace      = "Login With Face"
	OpLoginWithBluetooth = "Login With Bluetooth"
	OpAddFace            = "Add Face"
	OpAddBluetooth       = "Add Bluetooth"
	OpChangeLockStatus   = "Change Lock Status"
	OpChangeCarLocation  = "Change Car Location"
)

// Ack is sent by the coordinator to signal that an operation's payload
// exchange may begin, and by Add Face to signal enrollment completion.
const Ack = "OK"

// Lock transition methods carried in a Change Lock Status request. They
// double as the collaborator endpoint names.
const (
	MethodUnlock = "unlock"
	MethodReturn = "return"
)
