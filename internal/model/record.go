package model

import (
	"encoding/binary"
	"time"
)

const (
	// HeaderSize is the packed size of the per-datagram header:
	// id(1) tid(2) tv_sec(4) tv_nsec(4).
	HeaderSize = 11

	// MaxPayload is the largest payload a single record may carry.
	MaxPayload = 4068

	// MaxDeliveredPayload bounds the payload length handed downstream.
	MaxDeliveredPayload = 1<<16 - 1
)

// Well-known uids and gids.
const (
	AIDRoot   uint32 = 0
	AIDSystem uint32 = 1000
	AIDLog    uint32 = 1007
	AIDLogd   uint32 = 1036
)

// LogTime is the writer-asserted wall clock time of a record.
type LogTime struct {
	Sec  uint32
	Nsec uint32
}

func LogTimeOf(t time.Time) LogTime {
	return LogTime{Sec: uint32(t.Unix()), Nsec: uint32(t.Nanosecond())}
}

func (t LogTime) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nsec))
}

// Header is the fixed prefix of every datagram sent to the write socket.
type Header struct {
	ID       LogID
	TID      uint16
	Realtime LogTime
}

// DecodeHeader reads the header from the front of b. The caller guarantees
// len(b) >= HeaderSize.
func DecodeHeader(b []byte) Header {
	_ = b[HeaderSize-1]
	return Header{
		ID:  LogID(b[0]),
		TID: binary.LittleEndian.Uint16(b[1:3]),
		Realtime: LogTime{
			Sec:  binary.LittleEndian.Uint32(b[3:7]),
			Nsec: binary.LittleEndian.Uint32(b[7:11]),
		},
	}
}

// AppendHeader appends the wire form of h to b.
func AppendHeader(b []byte, h Header) []byte {
	b = append(b, byte(h.ID))
	b = binary.LittleEndian.AppendUint16(b, h.TID)
	b = binary.LittleEndian.AppendUint32(b, h.Realtime.Sec)
	return binary.LittleEndian.AppendUint32(b, h.Realtime.Nsec)
}

// Record is one admitted datagram. UID and PID come from the kernel, never
// from the payload. Payload aliases the receive buffer and is only valid
// for the duration of the sink call.
type Record struct {
	ID       LogID
	Realtime LogTime
	UID      uint32
	PID      uint32
	TID      uint16
	Payload  []byte
}
