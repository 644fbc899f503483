// Package records implements per-frame record processing: emit a location
// event for every record, then run the fixed handler registry in order,
// persisting to the failed-event store whatever couldn't be sent
// immediately.
package records

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/handler"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/metrics"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
	"github.com/vp-kuljetus/telematics-gateway/internal/vin"
)

// Processor ties the handler registry to a Vehicle Management client and a
// failed-event store.
type Processor struct {
	Client      *vehiclemgmt.Client
	FailedStore store.Store
}

// ProcessFrame runs every record of frame through the pipeline, in order.
func (p *Processor) ProcessFrame(ctx context.Context, frame *avl.Frame, profile listener.Profile, trackable *vehiclemgmt.Trackable, imei string) {
	for _, r := range frame.Records {
		p.processRecord(ctx, r, profile, trackable, imei)
	}
}

func (p *Processor) processRecord(ctx context.Context, r avl.Record, profile listener.Profile, trackable *vehiclemgmt.Trackable, imei string) {
	if v := vin.Decode(r, profile); v != "" {
		zap.L().Debug("vin parts decoded", zap.String("imei", imei), zap.String("vin", v))
	}

	// Step 1: the implicit, handler-less location event.
	p.dispatch(ctx, handler.Location, handler.Location.DecodeRecord(r), trackable, imei)

	// Step 2: the fixed handler registry, in order.
	trackableType := vehiclemgmt.TrackableTruck
	if trackable != nil {
		trackableType = trackable.Type
	}
	handler.Dispatch(r, profile, trackableType, imei, func(h handler.Handler, ev any) {
		p.dispatch(ctx, h, ev, trackable, imei)
	})
}

// dispatch sends ev via h, falling back to the failed-event store either
// because the trackable isn't known yet or because the send itself failed.
func (p *Processor) dispatch(ctx context.Context, h handler.Handler, ev any, trackable *vehiclemgmt.Trackable, imei string) {
	if trackable == nil {
		p.persist(h, ev, imei)
		return
	}

	if err := h.Send(ctx, p.Client, trackable.ID, ev); err != nil {
		zap.L().Debug("handler send failed, persisting for replay",
			zap.String("handler", h.Name()), zap.String("imei", imei), zap.Error(err))
		p.persist(h, ev, imei)
		return
	}
	metrics.EventsSent.WithLabelValues(h.Name()).Inc()
}

func (p *Processor) persist(h handler.Handler, ev any, imei string) {
	data, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("failed to marshal event for persistence",
			zap.String("handler", h.Name()), zap.String("imei", imei), zap.Error(err))
		return
	}
	if _, err := p.FailedStore.Persist(imei, h.Name(), json.RawMessage(data), eventTimestamp(ev)); err != nil {
		zap.L().Error("failed to persist failed event",
			zap.String("handler", h.Name()), zap.String("imei", imei), zap.Error(err))
		return
	}
	metrics.EventsFailed.WithLabelValues(h.Name()).Inc()
}

// eventTimestamp extracts the Timestamp field every concrete event in
// package event carries, for the store's Timestamp column.
func eventTimestamp(ev any) time.Time {
	switch e := ev.(type) {
	case event.TruckLocation:
		return e.Timestamp
	case event.TruckSpeed:
		return e.Timestamp
	case event.TruckDriverCard:
		return e.Timestamp
	case event.TruckDriveState:
		return e.Timestamp
	case event.TruckOdometerReading:
		return e.Timestamp
	case event.TemperatureReading:
		return e.Timestamp
	default:
		return time.Now()
	}
}
