package handler

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

type temperatureHandler struct{}

func (temperatureHandler) Name() string { return "temperature_sensors" }

func (temperatureHandler) EventIDs(p listener.Profile) []uint16 {
	ids := make([]uint16, 0, len(p.TemperaturePairs)*2)
	for _, pair := range p.TemperaturePairs {
		ids = append(ids, pair.SensorIDEvent, pair.ReadingIDEvent)
	}
	return ids
}

func (temperatureHandler) TriggerEventIDs() []uint16 { return nil }

// RequireAllEvents is false: this handler aggregates optional sensors.
func (temperatureHandler) RequireAllEvents() bool { return false }

func (temperatureHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool {
	return true
}

func sourceTypeOf(t vehiclemgmt.TrackableType) event.SourceType {
	if t == vehiclemgmt.TrackableTowable {
		return event.SourceTowable
	}
	return event.SourceTruck
}

// Decode emits one TemperatureReading per populated sensor slot, skipping
// pairs whose hardware id is zero. Source type comes from the trackable
// type resolved by the connection's trackable resolver.
func (temperatureHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	var out []any
	for _, pair := range p.TemperaturePairs {
		sensor, ok := r.Element(pair.SensorIDEvent)
		if !ok || sensor.Value == 0 {
			continue
		}
		reading, ok := r.Element(pair.ReadingIDEvent)
		if !ok {
			continue
		}
		out = append(out, event.TemperatureReading{
			SourceIMEI:       imei,
			HardwareSensorID: strconv.FormatUint(sensor.Value, 10),
			ValueCelsius:     float64(uint16(reading.Value)) * 0.1,
			Timestamp:        rfc3339(r.Timestamp),
			SourceType:       sourceTypeOf(trackableType),
		})
	}
	return out
}

func (temperatureHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TemperatureReading)
	return c.PostTemperatureReading(ctx, vehiclemgmt.TemperaturePayload{
		HardwareSensorID: e.HardwareSensorID,
		Value:            e.ValueCelsius,
		Timestamp:        e.Timestamp.Unix(),
		SourceType:       string(e.SourceType),
		SourceIMEI:       e.SourceIMEI,
	})
}

func (temperatureHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TemperatureReading
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
