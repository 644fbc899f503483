package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "failed_events.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStorePersistAndList(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1696161600, 0)

	id, err := s.Persist("490154203237518", "temperature_sensors", json.RawMessage(`{"a":1}`), now)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if id == 0 {
		t.Fatalf("want nonzero id")
	}

	rows, err := s.List("490154203237518", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("want 1 row with id %d, got %+v", id, rows)
	}
	if rows[0].HandlerName != "temperature_sensors" {
		t.Fatalf("want handler name preserved, got %q", rows[0].HandlerName)
	}
}

func TestBoltStoreNextFailedImei(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1696161600, 0)

	if _, ok, err := s.NextFailedImei(); err != nil || ok {
		t.Fatalf("want empty store, got ok=%v err=%v", ok, err)
	}

	if _, err := s.Persist("111111111111111", "speed", json.RawMessage(`{}`), now); err != nil {
		t.Fatalf("persist: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Persist("222222222222222", "odometer", json.RawMessage(`{}`), now); err != nil {
		t.Fatalf("persist: %v", err)
	}

	imei, ok, err := s.NextFailedImei()
	if err != nil || !ok {
		t.Fatalf("want a result, got ok=%v err=%v", ok, err)
	}
	if imei != "222222222222222" {
		t.Fatalf("want most recently attempted imei, got %q", imei)
	}
}

func TestBoltStoreUpdateAttemptedAtAndDelete(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1696161600, 0)

	id, err := s.Persist("333333333333333", "speed", json.RawMessage(`{}`), now)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	later := now.Add(time.Hour)
	if err := s.UpdateAttemptedAt(id, later); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, err := s.List("333333333333333", 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("list after update: rows=%v err=%v", rows, err)
	}
	if rows[0].AttemptedAt != later.Unix() {
		t.Fatalf("want attempted_at advanced, got %d", rows[0].AttemptedAt)
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err = s.List("333333333333333", 10)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("want no rows after delete, got %+v", rows)
	}
}
