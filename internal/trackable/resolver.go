// Package trackable implements a connection-scoped trackable resolver: a
// mutex-guarded single-value cache, scoped to one connection rather than
// shared globally, since each TCP connection owns exactly one Resolver.
package trackable

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

// Resolver caches a connection's resolved Trackable. The zero value is
// ready to use.
type Resolver struct {
	mu       sync.Mutex
	resolved bool
	value    *vehiclemgmt.Trackable
}

// Get returns the cached trackable for imei, resolving it via client on the
// first call. A nil, nil result means the IMEI is not yet known to the
// Vehicle Management API (missing or 4xx); resolution is retried only on
// the next call, not on a timer.
func (r *Resolver) Get(ctx context.Context, client *vehiclemgmt.Client, imei string) (*vehiclemgmt.Trackable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.value, nil
	}

	t, err := client.GetTrackable(ctx, imei)
	if err != nil {
		zap.L().Warn("trackable resolve failed, will retry next frame",
			zap.String("imei", imei), zap.Error(err))
		return nil, err
	}
	if t == nil {
		zap.L().Debug("trackable unknown, caching events for later replay", zap.String("imei", imei))
		return nil, nil
	}

	r.resolved = true
	r.value = t
	return r.value, nil
}
