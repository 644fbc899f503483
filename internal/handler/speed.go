package handler

import (
	"context"
	"encoding/json"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

type speedHandler struct{}

func (speedHandler) Name() string { return "speed" }

func (speedHandler) EventIDs(p listener.Profile) []uint16 { return []uint16{p.SpeedEvent} }

func (speedHandler) TriggerEventIDs() []uint16 { return nil }

func (speedHandler) RequireAllEvents() bool { return true }

func (speedHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool {
	return t != vehiclemgmt.TrackableTowable
}

func (speedHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	el, ok := r.Element(p.SpeedEvent)
	if !ok {
		return nil
	}
	return []any{event.TruckSpeed{
		Timestamp: rfc3339(r.Timestamp),
		Speed:     float64(el.Value),
	}}
}

func (speedHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TruckSpeed)
	return c.PostSpeed(ctx, truckID, vehiclemgmt.SpeedPayload{
		Timestamp: e.Timestamp.Unix(),
		Speed:     e.Speed,
	})
}

func (speedHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TruckSpeed
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
