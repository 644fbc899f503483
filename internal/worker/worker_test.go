package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/records"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

func TestWorkerProcessesSubmittedFrame(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := store.Open(t.TempDir() + "/failed.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	client := vehiclemgmt.New(srv.URL, "key", false)
	proc := &records.Processor{Client: client, FailedStore: s}

	w := New("490154203237518", proc, 500)
	w.frameInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	trackable := &vehiclemgmt.Trackable{ID: "t-1", IMEI: "490154203237518", Type: vehiclemgmt.TrackableTruck}
	frame := &avl.Frame{Records: []avl.Record{{
		Timestamp:  time.Unix(1696161600, 0),
		IOElements: map[uint16]avl.IOElement{191: {ID: 191, Kind: avl.KindU16, Value: 80}},
	}}}

	w.Submit(IncomingFrame{Frame: frame, Trackable: trackable, IMEI: "490154203237518", Listener: listener.FMC650})
	w.Close()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for worker to process frame")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
