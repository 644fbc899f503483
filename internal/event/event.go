// Package event holds the semantic event shapes a handler's decode step
// produces. Each is JSON-serializable and carries a timestamp; these are
// the values the worker hands to vehiclemgmt.Client.
package event

import "time"

// DriveState enumerates the driver's tachograph state.
type DriveState string

const (
	DriveStateRest            DriveState = "Rest"
	DriveStateDriverAvailable DriveState = "DriverAvailable"
	DriveStateWork            DriveState = "Work"
	DriveStateDrive           DriveState = "Drive"
	DriveStateError           DriveState = "Error"
	DriveStateNotAvailable    DriveState = "NotAvailable"
)

// SourceType is the trackable kind a reading originated from.
type SourceType string

const (
	SourceTruck   SourceType = "Truck"
	SourceTowable SourceType = "Towable"
)

// TruckLocation is the implicit per-record location event.
type TruckLocation struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Heading   float64
}

// TruckSpeed is the speed handler's output.
type TruckSpeed struct {
	Timestamp time.Time
	Speed     float64
}

// TruckDriverCard is the driver-card handler's output, for both create and
// delete. ID is empty on delete; the server resolves the truck's current
// card. RemovedAt is only set on delete.
type TruckDriverCard struct {
	Timestamp time.Time
	ID        string
	RemovedAt *time.Time
}

// TruckDriveState is the drive-state handler's output.
type TruckDriveState struct {
	Timestamp    time.Time
	State        DriveState
	DriverCardID *string
}

// TruckOdometerReading is the odometer handler's output.
type TruckOdometerReading struct {
	Timestamp time.Time
	Km        float64
}

// TemperatureReading is the temperature-sensors handler's output; one per
// populated sensor slot.
type TemperatureReading struct {
	SourceIMEI       string
	HardwareSensorID string
	ValueCelsius     float64
	Timestamp        time.Time
	SourceType       SourceType
}
