package transport

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/emresahna/logd/internal/model"
)

// WriterSender writes each entry as one JSON line. It is used when no
// collector is configured.
type WriterSender struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriterSender(w io.Writer) *WriterSender {
	return &WriterSender{enc: json.NewEncoder(w)}
}

func (s *WriterSender) Send(_ context.Context, batch []model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range batch {
		if err := s.enc.Encode(&batch[i]); err != nil {
			return err
		}
	}
	return nil
}
