package trackable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

func TestResolverCachesOnSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(vehiclemgmt.Trackable{ID: "t-1", IMEI: "490154203237518", Type: vehiclemgmt.TrackableTruck})
	}))
	defer srv.Close()

	c := vehiclemgmt.New(srv.URL, "key", false)
	var r Resolver

	for i := 0; i < 3; i++ {
		got, err := r.Get(context.Background(), c, "490154203237518")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != "t-1" {
			t.Fatalf("want resolved trackable, got %v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("want 1 upstream call, got %d", calls)
	}
}

func TestResolverRetriesOnUnknown(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := vehiclemgmt.New(srv.URL, "key", false)
	var r Resolver

	for i := 0; i < 2; i++ {
		got, err := r.Get(context.Background(), c, "490154203237518")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Fatalf("want nil trackable, got %v", got)
		}
	}
	if calls != 2 {
		t.Fatalf("want 2 upstream calls (retried each time), got %d", calls)
	}
}
