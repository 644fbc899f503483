package handler

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

type driverCardHandler struct{}

func (driverCardHandler) Name() string { return "driver_one_card" }

// EventIDs only requires the presence bit. The MSB/LSB halves are read
// opportunistically by decodeCardID and may be absent on a removal frame,
// where the wire record carries nothing but presence=0.
func (driverCardHandler) EventIDs(p listener.Profile) []uint16 {
	return []uint16{p.CardPresenceEvent}
}

func (driverCardHandler) TriggerEventIDs() []uint16 {
	return []uint16{195, 187}
}

func (driverCardHandler) RequireAllEvents() bool { return true }

func (driverCardHandler) GateByTrackableType(t vehiclemgmt.TrackableType) bool {
	return true
}

// decodeCardID reassembles the 16-character ASCII card identifier from the
// MSB/LSB wire halves. Returns ok=false when either half is zero (no card
// present).
func decodeCardID(r avl.Record, p listener.Profile) (id string, ok bool) {
	msb, hasMSB := r.Element(p.CardMSBEvent)
	lsb, hasLSB := r.Element(p.CardLSBEvent)
	if !hasMSB || !hasLSB || msb.Value == 0 || lsb.Value == 0 {
		return "", false
	}

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], msb.Value)
	binary.BigEndian.PutUint64(buf[8:16], lsb.Value)
	return string(buf[:]), true
}

// decodeInserted builds a create event when trigger 195 fires with presence
// 1 and a non-null card id.
func decodeInserted(r avl.Record, p listener.Profile) (event.TruckDriverCard, bool) {
	if r.TriggerEventID != p.CardMSBEvent {
		return event.TruckDriverCard{}, false
	}
	presence, ok := r.Element(p.CardPresenceEvent)
	if !ok || presence.Value != 1 {
		return event.TruckDriverCard{}, false
	}
	id, ok := decodeCardID(r, p)
	if !ok {
		return event.TruckDriverCard{}, false
	}
	return event.TruckDriverCard{Timestamp: rfc3339(r.Timestamp), ID: id}, true
}

// decodeRemoved builds a delete event when trigger 187 fires with presence
// 0; the id is left empty, the server resolves the truck's current card.
func decodeRemoved(r avl.Record, p listener.Profile) (event.TruckDriverCard, bool) {
	if r.TriggerEventID != p.CardPresenceEvent {
		return event.TruckDriverCard{}, false
	}
	presence, ok := r.Element(p.CardPresenceEvent)
	if !ok || presence.Value != 0 {
		return event.TruckDriverCard{}, false
	}
	removedAt := rfc3339(r.Timestamp)
	return event.TruckDriverCard{Timestamp: removedAt, ID: "", RemovedAt: &removedAt}, true
}

func (driverCardHandler) Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any {
	if ev, ok := decodeInserted(r, p); ok {
		return []any{ev}
	}
	if ev, ok := decodeRemoved(r, p); ok {
		return []any{ev}
	}
	return nil
}

func (driverCardHandler) Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error {
	e := ev.(event.TruckDriverCard)
	if e.RemovedAt != nil {
		return c.DeleteDriverCard(ctx, truckID, e.ID, *e.RemovedAt)
	}
	return c.CreateDriverCard(ctx, truckID, vehiclemgmt.DriverCardCreatePayload{
		ID:        e.ID,
		Timestamp: e.Timestamp.Unix(),
	})
}

func (driverCardHandler) Unmarshal(data json.RawMessage) (any, error) {
	var e event.TruckDriverCard
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
