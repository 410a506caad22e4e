package sender

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype LogService calls are made with.
const CodecName = "logd-proto"

type message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("sender codec: cannot marshal %T", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("sender codec: cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
