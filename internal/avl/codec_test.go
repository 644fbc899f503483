package avl

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestCodecReadIMEI(t *testing.T) {
	var buf bytes.Buffer
	imei := "490154203237518"
	binary.Write(&buf, binary.BigEndian, uint16(len(imei)))
	buf.WriteString(imei)

	c := NewCodec(&buf)
	got, err := c.ReadIMEI()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != imei {
		t.Fatalf("want %q, got %q", imei, got)
	}
}

func TestCodecReadIMEINonDigit(t *testing.T) {
	var buf bytes.Buffer
	bad := "49015420323751X"
	binary.Write(&buf, binary.BigEndian, uint16(len(bad)))
	buf.WriteString(bad)

	c := NewCodec(&buf)
	if _, err := c.ReadIMEI(); err != ErrInvalidIMEI {
		t.Fatalf("want ErrInvalidIMEI, got %v", err)
	}
}

func TestCodecWriteIMEIAck(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf)

	if err := c.WriteIMEIAck(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.Bytes(); len(got) != 1 || got[0] != 0x01 {
		t.Fatalf("want [0x01], got %v", got)
	}

	buf.Reset()
	if err := c.WriteIMEIAck(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.Bytes(); len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("want [0x00], got %v", got)
	}
}

func TestCodecReadFrameHeartbeatPing(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xFF})
	c := NewCodec(buf)

	_, err := c.ReadFrame()
	if !IsPing(err) {
		t.Fatalf("want heartbeat ping sentinel, got %v", err)
	}
}

func TestCodecReadFrameBadPreamble(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x05})
	c := NewCodec(buf)

	_, err := c.ReadFrame()
	if err != ErrInvalidData {
		t.Fatalf("want ErrInvalidData, got %v", err)
	}
}

func TestCodecWriteFrameAck(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf)

	if err := c.WriteFrameAck(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x03}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("want %v, got %v", want, buf.Bytes())
	}
}
