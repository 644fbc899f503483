package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

func TestDriverCardInsertedOnPresenceOne(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp:      time.Unix(1700000000, 0),
		TriggerEventID: p.CardMSBEvent,
		IOElements: map[uint16]avl.IOElement{
			p.CardMSBEvent:      elementU64(p.CardMSBEvent, 0x3132333435363738),
			p.CardLSBEvent:      elementU64(p.CardLSBEvent, 0x3930414243444546),
			p.CardPresenceEvent: elementU16(p.CardPresenceEvent, 1),
		},
	}

	h := driverCardHandler{}
	evs := h.Decode(r, p, "490154203237518", vehiclemgmt.TrackableTruck)
	require.Len(t, evs, 1)
	card := evs[0].(event.TruckDriverCard)
	require.Equal(t, "1234567890ABCDEF", card.ID)
	require.Nil(t, card.RemovedAt)
}

func TestDriverCardRemovedOnPresenceZero(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp:      time.Unix(1700000000, 0),
		TriggerEventID: p.CardPresenceEvent,
		IOElements: map[uint16]avl.IOElement{
			p.CardPresenceEvent: elementU16(p.CardPresenceEvent, 0),
		},
	}

	h := driverCardHandler{}
	evs := h.Decode(r, p, "490154203237518", vehiclemgmt.TrackableTruck)
	require.Len(t, evs, 1)
	card := evs[0].(event.TruckDriverCard)
	require.Equal(t, "", card.ID)
	require.NotNil(t, card.RemovedAt)
}

func TestDriverCardNoEventWithoutMatchingTrigger(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp:      time.Unix(1700000000, 0),
		TriggerEventID: p.SpeedEvent,
		IOElements: map[uint16]avl.IOElement{
			p.CardMSBEvent:      elementU64(p.CardMSBEvent, 0x3132333435363738),
			p.CardLSBEvent:      elementU64(p.CardLSBEvent, 0x3930414243444546),
			p.CardPresenceEvent: elementU16(p.CardPresenceEvent, 1),
		},
	}

	h := driverCardHandler{}
	evs := h.Decode(r, p, "490154203237518", vehiclemgmt.TrackableTruck)
	require.Empty(t, evs)
}

// TestDispatch_DriverCardLifecycle drives the insert-then-remove sequence
// through Dispatch/gateEvents rather than calling Decode directly, so it
// would have caught the EventIDs gate previously requiring all of
// {CardMSBEvent, CardLSBEvent, CardPresenceEvent}: a removal frame carries
// only the presence element, and RequireAllEvents()=true made gateEvents
// reject it before Decode ever ran.
func TestDispatch_DriverCardLifecycle(t *testing.T) {
	p := listener.FMC650
	imei := "490154203237518"

	insert := avl.Record{
		Timestamp:      time.Unix(1700000000, 0),
		TriggerEventID: p.CardMSBEvent,
		IOElements: map[uint16]avl.IOElement{
			p.CardMSBEvent:      elementU64(p.CardMSBEvent, 0x3132333435363738),
			p.CardLSBEvent:      elementU64(p.CardLSBEvent, 0x3930414243444546),
			p.CardPresenceEvent: elementU16(p.CardPresenceEvent, 1),
		},
	}
	var inserted []any
	Dispatch(insert, p, vehiclemgmt.TrackableTruck, imei, func(h Handler, ev any) {
		if h.Name() == "driver_one_card" {
			inserted = append(inserted, ev)
		}
	})
	require.Len(t, inserted, 1)
	card := inserted[0].(event.TruckDriverCard)
	require.Equal(t, "1234567890ABCDEF", card.ID)
	require.Nil(t, card.RemovedAt)

	remove := avl.Record{
		Timestamp:      time.Unix(1700000100, 0),
		TriggerEventID: p.CardPresenceEvent,
		IOElements: map[uint16]avl.IOElement{
			p.CardPresenceEvent: elementU16(p.CardPresenceEvent, 0),
		},
	}
	var removed []any
	Dispatch(remove, p, vehiclemgmt.TrackableTruck, imei, func(h Handler, ev any) {
		if h.Name() == "driver_one_card" {
			removed = append(removed, ev)
		}
	})
	require.Len(t, removed, 1, "removal frame carrying only the presence element must still reach Decode")
	removedCard := removed[0].(event.TruckDriverCard)
	require.Equal(t, "", removedCard.ID)
	require.NotNil(t, removedCard.RemovedAt)
}

func TestDriverCardSendDispatchesCreateOrDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := vehiclemgmt.New(srv.URL, "key", false)
	h := driverCardHandler{}
	removedAt := time.Unix(1700000000, 0)

	err := h.Send(context.Background(), client, "truck-1", event.TruckDriverCard{
		Timestamp: removedAt,
		ID:        "1234567890ABCDEF",
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/v1/trucks/truck-1/driverCards", gotPath)

	err = h.Send(context.Background(), client, "truck-1", event.TruckDriverCard{
		Timestamp: removedAt,
		ID:        "",
		RemovedAt: &removedAt,
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/v1/trucks/truck-1/driverCards/", gotPath)
}
