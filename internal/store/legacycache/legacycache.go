// Package legacycache is a read-only migration tool, not a hot-path
// dependency: it reads the pre-SQL on-disk cache format described by
// original_source/src/telematics_cache/cache_handler.rs and
// cacheable_truck_speed.rs (one JSON array file per handler, one directory
// per IMEI) and converts each entry into a store.FailedEvent row so it can
// be seeded into the bbolt failed-event store during a one-time migration.
package legacycache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/vp-kuljetus/telematics-gateway/internal/event"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
)

// fileHandlers maps the legacy per-handler cache file name to the modern
// handler name it corresponds to.
var fileHandlers = map[string]string{
	"truck_location.json":         "location",
	"truck_speed.json":            "speed",
	"truck_odometer_reading.json": "odometer",
	"truck_driver_card.json":      "driver_one_card",
	"truck_drive_state.json":      "driver_one_drive_state",
	"temperature_reading.json":    "temperature_sensors",
}

type cacheableLocation struct {
	Timestamp int64   `json:"timestamp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"`
}

type cacheableSpeed struct {
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

type cacheableOdometer struct {
	Km        float64 `json:"km"`
	Timestamp int64   `json:"timestamp"`
}

type cacheableDriverCard struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	RemovedAt *int64 `json:"removedAt"`
}

type cacheableDriveState struct {
	Timestamp    int64   `json:"timestamp"`
	State        string  `json:"state"`
	DriverCardID *string `json:"driverCardId"`
}

type cacheableTemperature struct {
	SourceIMEI       string  `json:"sourceImei"`
	HardwareSensorID string  `json:"hardwareSensorId"`
	Value            float64 `json:"value"`
	Timestamp        int64   `json:"timestamp"`
	SourceType       string  `json:"sourceType"`
}

// ImportLegacyCache reads every recognized legacy cache file under dir
// (which is named for the IMEI it belongs to, per the original's
// one-directory-per-truck layout) and returns the equivalent
// store.FailedEvent rows, ready to be handed to Store.Persist. Missing
// files are skipped; this is expected since most trucks won't have used
// every handler.
func ImportLegacyCache(dir string) ([]store.FailedEvent, error) {
	imei := filepath.Base(dir)
	var out []store.FailedEvent

	for fileName, handlerName := range fileHandlers {
		rows, err := importFile(dir, fileName, handlerName, imei)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func importFile(dir, fileName, handlerName, imei string) ([]store.FailedEvent, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	switch handlerName {
	case "location":
		var cached []cacheableLocation
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, event.TruckLocation{
				Timestamp: time.Unix(c.Timestamp, 0),
				Latitude:  c.Latitude,
				Longitude: c.Longitude,
				Heading:   c.Heading,
			}))
		}
		return rows, nil

	case "speed":
		var cached []cacheableSpeed
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, event.TruckSpeed{
				Timestamp: time.Unix(c.Timestamp, 0),
				Speed:     c.Speed,
			}))
		}
		return rows, nil

	case "odometer":
		var cached []cacheableOdometer
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, event.TruckOdometerReading{
				Timestamp: time.Unix(c.Timestamp, 0),
				Km:        c.Km,
			}))
		}
		return rows, nil

	case "driver_one_card":
		var cached []cacheableDriverCard
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			ev := event.TruckDriverCard{Timestamp: time.Unix(c.Timestamp, 0), ID: c.ID}
			if c.RemovedAt != nil {
				t := time.Unix(*c.RemovedAt, 0)
				ev.RemovedAt = &t
			}
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, ev))
		}
		return rows, nil

	case "driver_one_drive_state":
		var cached []cacheableDriveState
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, event.TruckDriveState{
				Timestamp:    time.Unix(c.Timestamp, 0),
				State:        event.DriveState(c.State),
				DriverCardID: c.DriverCardID,
			}))
		}
		return rows, nil

	case "temperature_sensors":
		var cached []cacheableTemperature
		if err := json.Unmarshal(data, &cached); err != nil {
			return nil, err
		}
		var rows []store.FailedEvent
		for _, c := range cached {
			rows = append(rows, rowFor(imei, handlerName, c.Timestamp, event.TemperatureReading{
				SourceIMEI:       c.SourceIMEI,
				HardwareSensorID: c.HardwareSensorID,
				ValueCelsius:     c.Value,
				Timestamp:        time.Unix(c.Timestamp, 0),
				SourceType:       event.SourceType(c.SourceType),
			}))
		}
		return rows, nil
	}
	return nil, nil
}

func rowFor(imei, handlerName string, timestamp int64, ev any) store.FailedEvent {
	data, _ := json.Marshal(ev)
	return store.FailedEvent{
		Timestamp:   timestamp,
		AttemptedAt: time.Now().Unix(),
		IMEI:        imei,
		HandlerName: handlerName,
		EventData:   data,
	}
}
