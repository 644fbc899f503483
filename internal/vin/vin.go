// Package vin recovers the vehicle identification number from wire events
// 233/234/235. It is kept debug-only: identity is resolved via IMEI
// (GET /trackables/{imei}), so no API call depends on this decode.
package vin

import (
	"strconv"
	"strings"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
)

// Decode concatenates the three VIN-part wire elements into a best-effort
// VIN string for logging. Byte-valued elements are taken as raw ASCII;
// numeric elements are formatted as decimal, since the wire encoding of
// this legacy field is not otherwise pinned down. Returns "" if none of
// the three parts are present.
func Decode(r avl.Record, p listener.Profile) string {
	var b strings.Builder
	found := false
	for _, id := range p.VINEvents {
		el, ok := r.Element(id)
		if !ok {
			continue
		}
		found = true
		if el.Kind == avl.KindBytes {
			b.Write(el.Bytes)
		} else {
			b.WriteString(strconv.FormatUint(el.Value, 10))
		}
	}
	if !found {
		return ""
	}
	return b.String()
}
