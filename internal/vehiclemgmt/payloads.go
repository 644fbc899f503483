package vehiclemgmt

// Payload types mirror the JSON bodies the Vehicle Management API expects.
// They are distinct from internal/event's semantic event types: event
// types are the handler's decode output (carrying everything a
// failed_event row needs to retry later); payload types are exactly the
// wire shape the API wants, which is sometimes a subset.

type LocationPayload struct {
	Timestamp int64   `json:"timestamp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"`
}

type SpeedPayload struct {
	Timestamp int64   `json:"timestamp"`
	Speed     float64 `json:"speed"`
}

type DriveStatePayload struct {
	Timestamp    int64   `json:"timestamp"`
	State        string  `json:"state"`
	DriverCardID *string `json:"driverCardId,omitempty"`
}

type DriverCardCreatePayload struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

type OdometerPayload struct {
	Timestamp int64   `json:"timestamp"`
	Km        float64 `json:"km"`
}

type TemperaturePayload struct {
	HardwareSensorID string  `json:"hardwareSensorId"`
	Value            float64 `json:"value"`
	Timestamp        int64   `json:"timestamp"`
	SourceType       string  `json:"sourceType"`
	SourceIMEI       string  `json:"sourceImei"`
}
