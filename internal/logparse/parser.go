// Package logparse decodes record payloads for storage and display. The
// write path never calls it; payloads stay opaque until a record is admitted.
package logparse

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/emresahna/logd/internal/model"
)

// Priorities carried in the first byte of a text payload.
const (
	PriorityUnknown uint8 = 0
	PriorityVerbose uint8 = 2
	PriorityDebug   uint8 = 3
	PriorityInfo    uint8 = 4
	PriorityWarn    uint8 = 5
	PriorityError   uint8 = 6
	PriorityFatal   uint8 = 7
)

type Message struct {
	Priority uint8
	Tag      string
	Text     string
}

// Parse decodes payload according to the channel it arrived on.
func Parse(id model.LogID, payload []byte) (Message, bool) {
	if id.Binary() {
		return ParseEvent(payload)
	}
	return ParseText(payload)
}

// ParseText splits prio(1) tag\0 message\0. A missing message terminator
// is tolerated; trailing newlines are trimmed.
func ParseText(payload []byte) (Message, bool) {
	if len(payload) < 2 {
		return Message{}, false
	}
	prio := payload[0]
	rest := payload[1:]

	idx := bytes.IndexByte(rest, 0)
	if idx < 0 {
		return Message{}, false
	}
	tag := rest[:idx]
	msg := rest[idx+1:]
	if end := bytes.IndexByte(msg, 0); end >= 0 {
		msg = msg[:end]
	}

	return Message{
		Priority: prio,
		Tag:      string(tag),
		Text:     string(bytes.TrimRight(msg, "\n")),
	}, true
}

const (
	eventTypeInt    = 0
	eventTypeLong   = 1
	eventTypeString = 2
	eventTypeList   = 3
	eventTypeFloat  = 4
)

// ParseEvent decodes a binary event: a 4-byte tag followed by one typed
// value. The tag is rendered numerically.
func ParseEvent(payload []byte) (Message, bool) {
	if len(payload) < 4 {
		return Message{}, false
	}
	tag := binary.LittleEndian.Uint32(payload)
	msg := Message{
		Priority: PriorityInfo,
		Tag:      strconv.FormatUint(uint64(tag), 10),
	}
	if len(payload) == 4 {
		return msg, true
	}

	var sb strings.Builder
	if _, ok := formatEventValue(&sb, payload[4:], 0); !ok {
		return Message{}, false
	}
	msg.Text = sb.String()
	return msg, true
}

const maxEventDepth = 8

func formatEventValue(sb *strings.Builder, b []byte, depth int) (int, bool) {
	if len(b) < 1 || depth > maxEventDepth {
		return 0, false
	}
	switch b[0] {
	case eventTypeInt:
		if len(b) < 5 {
			return 0, false
		}
		sb.WriteString(strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b[1:]))), 10))
		return 5, true
	case eventTypeLong:
		if len(b) < 9 {
			return 0, false
		}
		sb.WriteString(strconv.FormatInt(int64(binary.LittleEndian.Uint64(b[1:])), 10))
		return 9, true
	case eventTypeFloat:
		if len(b) < 5 {
			return 0, false
		}
		f := math.Float32frombits(binary.LittleEndian.Uint32(b[1:]))
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
		return 5, true
	case eventTypeString:
		if len(b) < 5 {
			return 0, false
		}
		n := int(binary.LittleEndian.Uint32(b[1:]))
		if n < 0 || len(b)-5 < n {
			return 0, false
		}
		sb.Write(b[5 : 5+n])
		return 5 + n, true
	case eventTypeList:
		if len(b) < 2 {
			return 0, false
		}
		count := int(b[1])
		off := 2
		sb.WriteByte('[')
		for i := 0; i < count; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			n, ok := formatEventValue(sb, b[off:], depth+1)
			if !ok {
				return 0, false
			}
			off += n
		}
		sb.WriteByte(']')
		return off, true
	default:
		return 0, false
	}
}
