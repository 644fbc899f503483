package handler

import (
	"context"
	"encoding/json"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

// locationHandler backs the exported Location value.
type locationHandler struct{}

func (locationHandler) Name() string { return "location" }

func (locationHandler) EventIDs(p listener.Profile) []uint16 { return nil }

func (locationHandler) TriggerEventIDs() []uint16 { return nil }

func (locationHandler) RequireAllEvents() bool { return true }

func (locationHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool { return true }

// DecodeRecord builds the location event directly from the record's GPS
// fields, bypassing the gating rules every other handler goes through.
func (locationHandler) DecodeRecord(r avl.Record) event.TruckLocation {
	return event.TruckLocation{
		Timestamp: rfc3339(r.Timestamp),
		Latitude:  r.Position.Latitude,
		Longitude: r.Position.Longitude,
		Heading:   float64(r.Position.Heading),
	}
}

func (h locationHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	return []any{h.DecodeRecord(r)}
}

func (locationHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TruckLocation)
	return c.PostLocation(ctx, truckID, vehiclemgmt.LocationPayload{
		Timestamp: e.Timestamp.Unix(),
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		Heading:   e.Heading,
	})
}

func (locationHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TruckLocation
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
