package handler

import (
	"context"
	"encoding/json"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

type odometerHandler struct{}

func (odometerHandler) Name() string { return "odometer" }

func (odometerHandler) EventIDs(p listener.Profile) []uint16 { return []uint16{p.OdometerEvent} }

func (odometerHandler) TriggerEventIDs() []uint16 { return nil }

func (odometerHandler) RequireAllEvents() bool { return true }

func (odometerHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool {
	return t != vehiclemgmt.TrackableTowable
}

func (odometerHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	el, ok := r.Element(p.OdometerEvent)
	if !ok {
		return nil
	}
	return []any{event.TruckOdometerReading{
		Timestamp: rfc3339(r.Timestamp),
		Km:        float64(uint32(el.Value)),
	}}
}

func (odometerHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TruckOdometerReading)
	return c.PostOdometerReading(ctx, truckID, vehiclemgmt.OdometerPayload{
		Timestamp: e.Timestamp.Unix(),
		Km:        e.Km,
	})
}

func (odometerHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TruckOdometerReading
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
