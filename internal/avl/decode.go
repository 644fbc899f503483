package avl

import (
	"fmt"
	"time"

	"github.com/filipkroca/teltonika"
)

// decodePayload is the single point of contact with the third-party Codec
// 8/8-extended parser. It owns the CRC check and the translation from the
// library's wire-level decode result into this package's Frame/Record/
// IOElement types; nothing outside this file touches the teltonika package.
func decodePayload(payload []byte, crc uint32) (*Frame, error) {
	decoded, err := teltonika.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("decode codec8 payload: %w", err)
	}
	if decoded.Crc32 != 0 && decoded.Crc32 != crc {
		return nil, fmt.Errorf("crc mismatch: frame %08x payload %08x", crc, decoded.Crc32)
	}

	frame := &Frame{
		CodecID: byte(decoded.Codec),
		Records: make([]Record, 0, len(decoded.Data)),
	}
	for _, d := range decoded.Data {
		frame.Records = append(frame.Records, convertRecord(d))
	}
	return frame, nil
}

// convertRecord maps one library-decoded AVL element into a repo-owned
// Record, flattening the library's separate IOElements{N,OneByte,...} maps
// into a single wire-id-keyed map.
func convertRecord(d teltonika.AvlData) Record {
	r := Record{
		Timestamp:      time.UnixMilli(int64(d.UtimeMs)),
		Priority:       uint8(d.Priority),
		TriggerEventID: uint16(d.Event.EventID),
		Position: Position{
			Latitude:   float64(d.Lat),
			Longitude:  float64(d.Long),
			Altitude:   int16(d.Altitude),
			Heading:    uint16(d.Angle),
			Speed:      uint16(d.Speed),
			Satellites: uint8(d.Satt),
		},
		IOElements: make(map[uint16]IOElement),
	}

	for id, v := range d.Elements.OneByteElements {
		r.IOElements[uint16(id)] = IOElement{ID: uint16(id), Kind: KindU8, Value: uint64(v)}
	}
	for id, v := range d.Elements.TwoByteElements {
		r.IOElements[uint16(id)] = IOElement{ID: uint16(id), Kind: KindU16, Value: uint64(v)}
	}
	for id, v := range d.Elements.FourByteElements {
		r.IOElements[uint16(id)] = IOElement{ID: uint16(id), Kind: KindU32, Value: uint64(v)}
	}
	for id, v := range d.Elements.EightByteElements {
		r.IOElements[uint16(id)] = IOElement{ID: uint16(id), Kind: KindU64, Value: v}
	}
	for id, v := range d.Elements.NByteElements {
		r.IOElements[uint16(id)] = IOElement{ID: uint16(id), Kind: KindBytes, Bytes: v}
	}

	return r
}
