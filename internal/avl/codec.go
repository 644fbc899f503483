package avl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Codec is a per-connection wire adapter. It owns no state beyond the
// buffered reader needed to peek the first byte of a read (to distinguish a
// heartbeat ping from a frame preamble) and the transport itself.
type Codec struct {
	rw io.ReadWriter
	r  *bufio.Reader
}

// NewCodec wraps a byte transport (typically a net.Conn) in the AVL codec
// adapter.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{rw: rw, r: bufio.NewReader(rw)}
}

// ReadIMEI performs the handshake read: a 2-byte big-endian ASCII length
// followed by that many IMEI digit bytes.
func (c *Codec) ReadIMEI() (string, error) {
	var length uint16
	if err := binary.Read(c.r, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("avl: read imei length: %w", err)
	}
	if length == 0 || length > 32 {
		return "", ErrInvalidIMEI
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return "", fmt.Errorf("avl: read imei digits: %w", err)
	}
	for _, b := range buf {
		if b < '0' || b > '9' {
			return "", ErrInvalidIMEI
		}
	}
	return string(buf), nil
}

// WriteIMEIAck replies to the handshake with the single accept/reject byte.
func (c *Codec) WriteIMEIAck(accepted bool) error {
	var b byte
	if accepted {
		b = 0x01
	}
	_, err := c.rw.Write([]byte{b})
	return err
}

// ReadFrame reads the next AVL frame: a 4-byte zero preamble, a 4-byte
// big-endian payload length, the payload itself (codec id, record count,
// records, repeated record count), and the 4-byte CRC-16 field after it.
//
// A lone 0xFF first byte is a heartbeat ping: it is consumed and reported
// via errPing so the front end loop can continue without replying.
func (c *Codec) ReadFrame() (*Frame, error) {
	b0, err := c.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}
	if b0 == 0xFF {
		return nil, errPing
	}
	if b0 != 0x00 {
		return nil, ErrInvalidData
	}

	preambleRest := make([]byte, 3)
	if _, err := io.ReadFull(c.r, preambleRest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}
	for _, b := range preambleRest {
		if b != 0x00 {
			return nil, ErrInvalidData
		}
	}

	var dataLen uint32
	if err := binary.Read(c.r, binary.BigEndian, &dataLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}
	if dataLen == 0 || dataLen > 16*1024 {
		return nil, ErrInvalidData
	}

	payload := make([]byte, dataLen)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}

	crc := make([]byte, 4)
	if _, err := io.ReadFull(c.r, crc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}

	frame, err := decodePayload(payload, binary.BigEndian.Uint32(crc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return frame, nil
}

// IsPing reports whether err is the heartbeat-ping sentinel ReadFrame can
// return.
func IsPing(err error) bool {
	return err == errPing
}

// WriteFrameAck replies with the accepted record count as a 4-byte
// big-endian integer. Callers pass 0 on parse failure to request a resend.
func (c *Codec) WriteFrameAck(recordCount int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(recordCount))
	_, err := c.rw.Write(buf[:])
	return err
}
