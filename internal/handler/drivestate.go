package handler

import (
	"context"
	"encoding/json"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

type driveStateHandler struct{}

func (driveStateHandler) Name() string { return "driver_one_drive_state" }

func (driveStateHandler) EventIDs(p listener.Profile) []uint16 {
	return []uint16{p.DriveStateEvent, p.CardMSBEvent, p.CardLSBEvent}
}

func (driveStateHandler) TriggerEventIDs() []uint16 { return nil }

func (driveStateHandler) RequireAllEvents() bool { return true }

func (driveStateHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool {
	return true
}

// driveStates maps the wire's raw drive-state code to the semantic enum, in
// declaration order: 0 Rest, 1 DriverAvailable, 2 Work, 3 Drive, 4 Error,
// 5 NotAvailable.
var driveStates = []event.DriveState{
	event.DriveStateRest,
	event.DriveStateDriverAvailable,
	event.DriveStateWork,
	event.DriveStateDrive,
	event.DriveStateError,
	event.DriveStateNotAvailable,
}

func (driveStateHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	// Drops the record if the driver-card id is null.
	cardID, ok := decodeCardID(r, p)
	if !ok {
		return nil
	}

	el, ok := r.Element(p.DriveStateEvent)
	if !ok {
		return nil
	}
	state := event.DriveStateNotAvailable
	if int(el.Value) < len(driveStates) {
		state = driveStates[el.Value]
	}

	return []any{event.TruckDriveState{
		Timestamp:    rfc3339(r.Timestamp),
		State:        state,
		DriverCardID: &cardID,
	}}
}

func (driveStateHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TruckDriveState)
	return c.PostDriveState(ctx, truckID, vehiclemgmt.DriveStatePayload{
		Timestamp:    e.Timestamp.Unix(),
		State:        string(e.State),
		DriverCardID: e.DriverCardID,
	})
}

func (driveStateHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TruckDriveState
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
