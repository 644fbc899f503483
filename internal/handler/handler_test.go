package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

func elementU16(id uint16, v uint16) avl.IOElement {
	return avl.IOElement{ID: id, Kind: avl.KindU16, Value: uint64(v)}
}

func elementU64(id uint16, v uint64) avl.IOElement {
	return avl.IOElement{ID: id, Kind: avl.KindU64, Value: v}
}

func TestDispatchSkipsTowableForSpeedAndOdometer(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp: time.Unix(1700000000, 0),
		IOElements: map[uint16]avl.IOElement{
			p.SpeedEvent:    elementU16(p.SpeedEvent, 80),
			p.OdometerEvent: elementU16(p.OdometerEvent, 1234),
		},
	}

	var got []any
	Dispatch(r, p, vehiclemgmt.TrackableTowable, "490154203237518", func(h Handler, ev any) {
		got = append(got, ev)
	})
	require.Empty(t, got, "speed and odometer must not fire for a towable")

	got = nil
	Dispatch(r, p, vehiclemgmt.TrackableTruck, "490154203237518", func(h Handler, ev any) {
		got = append(got, ev)
	})
	require.Len(t, got, 2)
	require.Equal(t, event.TruckSpeed{Timestamp: r.Timestamp, Speed: 80}, got[0])
	require.Equal(t, event.TruckOdometerReading{Timestamp: r.Timestamp, Km: 1234}, got[1])
}

func TestDispatchTemperatureSkipsZeroHardwareID(t *testing.T) {
	p := listener.FMC650
	pair := p.TemperaturePairs[0]
	r := avl.Record{
		Timestamp: time.Unix(1700000000, 0),
		IOElements: map[uint16]avl.IOElement{
			pair.SensorIDEvent:  elementU64(pair.SensorIDEvent, 0),
			pair.ReadingIDEvent: elementU16(pair.ReadingIDEvent, 215),
		},
	}

	var got []any
	Dispatch(r, p, vehiclemgmt.TrackableTruck, "490154203237518", func(h Handler, ev any) {
		got = append(got, ev)
	})
	require.Empty(t, got, "a zero hardware sensor id must be skipped")
}

func TestDispatchTemperatureScalesReading(t *testing.T) {
	p := listener.FMC650
	pair := p.TemperaturePairs[0]
	r := avl.Record{
		Timestamp: time.Unix(1700000000, 0),
		IOElements: map[uint16]avl.IOElement{
			pair.SensorIDEvent:  elementU64(pair.SensorIDEvent, 1),
			pair.ReadingIDEvent: elementU16(pair.ReadingIDEvent, 215),
		},
	}

	var got []event.TemperatureReading
	Dispatch(r, p, vehiclemgmt.TrackableTruck, "490154203237518", func(h Handler, ev any) {
		if te, ok := ev.(event.TemperatureReading); ok {
			got = append(got, te)
		}
	})
	require.Len(t, got, 1)
	require.InDelta(t, 21.5, got[0].ValueCelsius, 0.001)
	require.Equal(t, "1", got[0].HardwareSensorID)
	require.Equal(t, event.SourceTruck, got[0].SourceType)
}

func TestDriveStateDropsWithoutCardID(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp: time.Unix(1700000000, 0),
		IOElements: map[uint16]avl.IOElement{
			p.DriveStateEvent: elementU16(p.DriveStateEvent, 3),
		},
	}

	var got []any
	Dispatch(r, p, vehiclemgmt.TrackableTruck, "490154203237518", func(h Handler, ev any) {
		got = append(got, ev)
	})
	require.Empty(t, got)
}

func TestDriveStateWithCardID(t *testing.T) {
	p := listener.FMC650
	r := avl.Record{
		Timestamp: time.Unix(1700000000, 0),
		IOElements: map[uint16]avl.IOElement{
			p.DriveStateEvent: elementU16(p.DriveStateEvent, 3),
			p.CardMSBEvent:    elementU64(p.CardMSBEvent, 0x3132333435363738),
			p.CardLSBEvent:    elementU64(p.CardLSBEvent, 0x3930414243444546),
		},
	}

	var got []event.TruckDriveState
	Dispatch(r, p, vehiclemgmt.TrackableTruck, "490154203237518", func(h Handler, ev any) {
		if ds, ok := ev.(event.TruckDriveState); ok {
			got = append(got, ds)
		}
	})
	require.Len(t, got, 1)
	require.Equal(t, event.DriveStateDrive, got[0].State)
	require.NotNil(t, got[0].DriverCardID)
	require.Equal(t, "1234567890ABCDEF", *got[0].DriverCardID)
}

func TestByNameCoversRegistryAndLocation(t *testing.T) {
	for _, h := range Registry {
		got, ok := ByName(h.Name())
		require.True(t, ok, h.Name())
		require.Equal(t, h.Name(), got.Name())
	}
	got, ok := ByName(Location.Name())
	require.True(t, ok)
	require.Equal(t, Location.Name(), got.Name())

	_, ok = ByName("not-a-real-handler")
	require.False(t, ok)
}
