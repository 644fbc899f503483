package avl

import "errors"

// ErrInvalidIMEI is returned by ReadIMEI when the handshake bytes do not
// decode to a well-formed IMEI.
var ErrInvalidIMEI = errors.New("avl: invalid imei handshake")

// ErrInvalidData is returned by ReadFrame when the bytes read do not form a
// valid AVL frame (bad preamble, length mismatch, or a CRC failure reported
// by the underlying codec library). The caller replies with a zero ACK and
// keeps reading.
var ErrInvalidData = errors.New("avl: invalid frame data")

// ErrConnectionReset signals that the peer closed the socket or the
// transport returned a non-recoverable I/O error while reading a frame.
var ErrConnectionReset = errors.New("avl: connection reset")

// errPing is an internal sentinel: the first byte read was 0xFF, a
// heartbeat ping. ReadFrame consumes it and the front end loops without
// replying; it never escapes this package as a frame.
var errPing = errors.New("avl: heartbeat ping")
