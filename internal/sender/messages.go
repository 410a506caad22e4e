// Package sender defines the LogService wire contract shared by the logd
// forwarder and the collector.
//
//	service LogService {
//	  rpc SendLogs(LogBatch) returns (Response);
//	}
package sender

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type LogEntry struct {
	Timestamp   *timestamppb.Timestamp
	LogId       uint32
	Uid         uint32
	Pid         uint32
	Tid         uint32
	Priority    uint32
	Tag         string
	Message     string
	Node        string
	Namespace   string
	Pod         string
	Container   string
	ContainerId string
}

type LogBatch struct {
	Entries []*LogEntry
	BatchId string
}

type Response struct {
	Success bool
	Message string
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (m *LogEntry) marshal(b []byte) ([]byte, error) {
	if m.Timestamp != nil {
		ts, err := proto.Marshal(m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("timestamp: %w", err)
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, ts)
	}
	b = appendVarint(b, 2, uint64(m.LogId))
	b = appendVarint(b, 3, uint64(m.Uid))
	b = appendVarint(b, 4, uint64(m.Pid))
	b = appendVarint(b, 5, uint64(m.Tid))
	b = appendVarint(b, 6, uint64(m.Priority))
	b = appendString(b, 7, m.Tag)
	b = appendString(b, 8, m.Message)
	b = appendString(b, 9, m.Node)
	b = appendString(b, 10, m.Namespace)
	b = appendString(b, 11, m.Pod)
	b = appendString(b, 12, m.Container)
	b = appendString(b, 13, m.ContainerId)
	return b, nil
}

func (m *LogEntry) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m.Timestamp = &timestamppb.Timestamp{}
			if err := proto.Unmarshal(v, m.Timestamp); err != nil {
				return 0, fmt.Errorf("timestamp: %w", err)
			}
			return n, nil
		case num >= 2 && num <= 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case 2:
				m.LogId = uint32(v)
			case 3:
				m.Uid = uint32(v)
			case 4:
				m.Pid = uint32(v)
			case 5:
				m.Tid = uint32(v)
			case 6:
				m.Priority = uint32(v)
			}
			return n, nil
		case num >= 7 && num <= 13 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			switch num {
			case 7:
				m.Tag = v
			case 8:
				m.Message = v
			case 9:
				m.Node = v
			case 10:
				m.Namespace = v
			case 11:
				m.Pod = v
			case 12:
				m.Container = v
			case 13:
				m.ContainerId = v
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *LogBatch) Marshal() ([]byte, error) {
	var b []byte
	for _, entry := range m.Entries {
		if entry == nil {
			continue
		}
		inner, err := entry.marshal(nil)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return appendString(b, 2, m.BatchId), nil
}

func (m *LogBatch) Unmarshal(b []byte) error {
	*m = LogBatch{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			entry := &LogEntry{}
			if err := entry.unmarshal(v); err != nil {
				return 0, fmt.Errorf("entry %d: %w", len(m.Entries), err)
			}
			m.Entries = append(m.Entries, entry)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.BatchId = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *Response) Marshal() ([]byte, error) {
	var b []byte
	if m.Success {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return appendString(b, 2, m.Message), nil
}

func (m *Response) Unmarshal(b []byte) error {
	*m = Response{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Success = protowire.DecodeBool(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Message = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// walk iterates over the fields of b. field consumes one value and returns
// its length, or a negative protowire error code.
func walk(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
