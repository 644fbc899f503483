// Package replay implements the shared failed-event replay logic, used
// both by the per-connection worker's opportunistic purge step and by the
// optional background sweep. Both callers share this code so 409/404
// idempotency and the location-entries-first ordering apply identically.
package replay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vp-kuljetus/telematics-gateway/internal/handler"
	"github.com/vp-kuljetus/telematics-gateway/internal/metrics"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

// Batch replays up to limit failed events for imei. It resolves the
// trackable itself (a background sweep has no live connection to ask), and
// does nothing if the IMEI is still unknown to the Vehicle Management API.
// Location-handler rows are replayed first, then every other row in the
// order the store returned them.
func Batch(ctx context.Context, client *vehiclemgmt.Client, failedStore store.Store, imei string, limit int) (replayed int, err error) {
	trackable, err := client.GetTrackable(ctx, imei)
	if err != nil {
		zap.L().Warn("replay: trackable resolve failed", zap.String("imei", imei), zap.Error(err))
		return 0, nil
	}
	if trackable == nil {
		return 0, nil
	}

	rows, err := failedStore.List(imei, limit)
	if err != nil {
		return 0, err
	}

	var locationRows, otherRows []store.FailedEvent
	for _, r := range rows {
		if r.HandlerName == handler.Location.Name() {
			locationRows = append(locationRows, r)
		} else {
			otherRows = append(otherRows, r)
		}
	}

	n := 0
	for _, r := range append(locationRows, otherRows...) {
		replayOne(ctx, client, failedStore, trackable, r)
		n++
	}
	if n > 0 {
		metrics.PurgeBatchesReplayed.Inc()
	}
	return n, nil
}

func replayOne(ctx context.Context, client *vehiclemgmt.Client, failedStore store.Store, trackable *vehiclemgmt.Trackable, row store.FailedEvent) {
	h, ok := handler.ByName(row.HandlerName)
	if !ok {
		zap.L().Error("replay: unknown handler name, dropping row",
			zap.String("handler", row.HandlerName), zap.Uint64("id", row.ID))
		_ = failedStore.Delete(row.ID)
		return
	}

	ev, err := h.Unmarshal(row.EventData)
	if err != nil {
		zap.L().Error("replay: corrupt event payload, dropping row",
			zap.String("handler", row.HandlerName), zap.Uint64("id", row.ID), zap.Error(err))
		_ = failedStore.Delete(row.ID)
		return
	}

	if err := h.Send(ctx, client, trackable.ID, ev); err != nil {
		zap.L().Debug("replay: send failed, will retry later",
			zap.String("handler", row.HandlerName), zap.String("imei", row.IMEI), zap.Error(err))
		_ = failedStore.UpdateAttemptedAt(row.ID, time.Now())
		return
	}

	_ = failedStore.Delete(row.ID)
}
