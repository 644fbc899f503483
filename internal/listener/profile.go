// Package listener holds the two enumerated Teltonika device profiles:
// their listening port and their mapping from logical sensor slots to wire
// event ids. A Profile is immutable and looked up once per accepted
// connection by listening port.
package listener

// TempPair is one (sensor-id-wire-id, reading-wire-id) pair in a listener's
// temperature sensor table.
type TempPair struct {
	SensorIDEvent  uint16
	ReadingIDEvent uint16
}

// Profile is an immutable, enumerated device variant.
type Profile struct {
	Name string
	Port int

	SpeedEvent        uint16
	OdometerEvent     uint16
	CardPresenceEvent uint16
	DriveStateEvent   uint16
	CardMSBEvent      uint16
	CardLSBEvent      uint16
	VINEvents         [3]uint16
	TemperaturePairs  []TempPair
}

// FMC650 is the FMC-650 listener profile: port 6500, six temperature sensor
// slots.
var FMC650 = Profile{
	Name:              "FMC-650",
	Port:              6500,
	SpeedEvent:        191,
	OdometerEvent:     192,
	CardPresenceEvent: 187,
	DriveStateEvent:   184,
	CardMSBEvent:      195,
	CardLSBEvent:      196,
	VINEvents:         [3]uint16{233, 234, 235},
	TemperaturePairs: []TempPair{
		{SensorIDEvent: 62, ReadingIDEvent: 72},
		{SensorIDEvent: 63, ReadingIDEvent: 73},
		{SensorIDEvent: 64, ReadingIDEvent: 74},
		{SensorIDEvent: 65, ReadingIDEvent: 75},
		{SensorIDEvent: 5, ReadingIDEvent: 6},
		{SensorIDEvent: 7, ReadingIDEvent: 8},
	},
}

// FMC234 is the FMC-234 listener profile: port 2340, four temperature
// sensor slots.
var FMC234 = Profile{
	Name:              "FMC-234",
	Port:              2340,
	SpeedEvent:        191,
	OdometerEvent:     192,
	CardPresenceEvent: 187,
	DriveStateEvent:   184,
	CardMSBEvent:      195,
	CardLSBEvent:      196,
	VINEvents:         [3]uint16{233, 234, 235},
	TemperaturePairs: []TempPair{
		{SensorIDEvent: 76, ReadingIDEvent: 72},
		{SensorIDEvent: 77, ReadingIDEvent: 73},
		{SensorIDEvent: 79, ReadingIDEvent: 74},
		{SensorIDEvent: 71, ReadingIDEvent: 75},
	},
}

// All is the registry consulted at startup to bind one listening socket per
// profile.
var All = []Profile{FMC650, FMC234}
