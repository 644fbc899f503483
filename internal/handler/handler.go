// Package handler implements the event-handler abstraction: stateless,
// pure decoders keyed by a stable handler name, gated by trigger and
// required-event-id rules, paired with a send step against the downstream
// Vehicle Management API.
package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

// Handler is the per-event-kind decode/send pair.
type Handler interface {
	// Name is the stable key used in the failed-event store and for the
	// legacy on-disk cache file.
	Name() string

	// EventIDs reports the wire ids this handler needs present in a record,
	// for the given listener profile.
	EventIDs(p listener.Profile) []uint16

	// TriggerEventIDs restricts which trigger_event_id values gate this
	// handler in. An empty slice means any trigger is accepted.
	TriggerEventIDs() []uint16

	// RequireAllEvents reports whether every id from EventIDs must be
	// present (true, the default policy) or whether any one suffices.
	RequireAllEvents() bool

	// GateByTrackableType reports whether this handler applies to the given
	// trackable type. Handlers that only make sense for trucks return false
	// for vehiclemgmt.TrackableTowable.
	GateByTrackableType(t vehiclemgmt.TrackableType) bool

	// Decode turns a gated record into zero or more semantic events. A nil
	// slice means the payload was semantically empty (e.g. a driver card
	// whose MSB or LSB half is zero).
	Decode(r avl.Record, p listener.Profile, imei string, trackableType vehiclemgmt.TrackableType) []any

	// Send delivers one decoded event to the Vehicle Management API.
	Send(ctx context.Context, c *vehiclemgmt.Client, truckID string, ev any) error

	// Unmarshal decodes a JSON-serialized event previously produced by this
	// handler's Decode, for replay from the failed-event store.
	Unmarshal(data json.RawMessage) (any, error)
}

// Location is the handler-less per-record event. It is not part of
// Registry (every record gets one regardless of gating) but shares the
// Handler shape so the store and replay path can treat it uniformly.
var Location Handler = locationHandler{}

// byName indexes Registry plus Location by handler name, for replaying a
// failed-event row back to the handler that produced it.
var byName = func() map[string]Handler {
	m := map[string]Handler{Location.Name(): Location}
	for _, h := range Registry {
		m[h.Name()] = h
	}
	return m
}()

// ByName looks up a handler by its stable store name.
func ByName(name string) (Handler, bool) {
	h, ok := byName[name]
	return h, ok
}

// Registry is the fixed, ordered set of handlers consulted for every
// record: handlers run in this sequence and a failure in one never
// suppresses the others.
var Registry = []Handler{
	speedHandler{},
	odometerHandler{},
	driverCardHandler{},
	driveStateHandler{},
	temperatureHandler{},
}

// gateEvents reports whether r satisfies h's trigger and required-event-id
// rules for profile p.
func gateEvents(h Handler, r avl.Record, p listener.Profile) bool {
	if triggers := h.TriggerEventIDs(); len(triggers) > 0 {
		match := false
		for _, t := range triggers {
			if r.TriggerEventID == t {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	ids := h.EventIDs(p)
	if len(ids) == 0 {
		return true
	}
	if h.RequireAllEvents() {
		return r.HasAll(ids)
	}
	return r.HasAny(ids)
}

// Dispatch runs every handler in Registry against r in order, invoking
// emit for each decoded event alongside the handler that produced it.
func Dispatch(r avl.Record, p listener.Profile, trackableType vehiclemgmt.TrackableType, imei string, emit func(h Handler, ev any)) {
	for _, h := range Registry {
		if !h.GateByTrackableType(trackableType) {
			continue
		}
		if !gateEvents(h, r, p) {
			continue
		}
		for _, ev := range h.Decode(r, p, imei, trackableType) {
			emit(h, ev)
		}
	}
}

// rfc3339 truncates t to second resolution, matching the wire record's
// timestamp precision.
func rfc3339(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
