package frontend

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/records"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

func tempStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/failed.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func encodeIMEI(imei string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(imei)))
	buf.WriteString(imei)
	return buf.Bytes()
}

func TestHandleConnRejectsBadIMEIChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := vehiclemgmt.New(srv.URL, "key", false)
	proc := &records.Processor{Client: client, FailedStore: tempStore(t)}

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		handleConn(ctx, serverConn, listener.FMC650, proc, 500)
		close(done)
	}()

	// "490154203237519" fails the Luhn checksum (see internal/imei tests).
	_, err := clientConn.Write(encodeIMEI("490154203237519"))
	require.NoError(t, err)

	ack := make([]byte, 1)
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = clientConn.Read(ack)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), ack[0])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConn did not return after rejecting the handshake")
	}
}

func TestHandleConnAcceptsValidIMEI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := vehiclemgmt.New(srv.URL, "key", false)
	proc := &records.Processor{Client: client, FailedStore: tempStore(t)}

	clientConn, serverConn := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		handleConn(ctx, serverConn, listener.FMC650, proc, 500)
		close(done)
	}()

	_, err := clientConn.Write(encodeIMEI("490154203237518"))
	require.NoError(t, err)

	ack := make([]byte, 1)
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = clientConn.Read(ack)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), ack[0])

	clientConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConn did not return after the client closed the connection")
	}
}
