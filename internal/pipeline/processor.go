package pipeline

import (
	"context"
	"strings"

	"github.com/emresahna/logd/internal/enrichment"
	"github.com/emresahna/logd/internal/logparse"
	"github.com/emresahna/logd/internal/model"
)

// Processor is the sink behind the listener. It copies each admitted
// record out of the receive buffer, decodes it, attaches host context and
// queues it for forwarding.
type Processor struct {
	ctx      context.Context
	enricher enrichment.Enricher
	batcher  *Batcher
}

func NewProcessor(ctx context.Context, enricher enrichment.Enricher, batcher *Batcher) *Processor {
	return &Processor{
		ctx:      ctx,
		enricher: enricher,
		batcher:  batcher,
	}
}

func (p *Processor) Ingest(rec model.Record) error {
	entry := model.LogEntry{
		Timestamp: rec.Realtime.Time(),
		LogID:     rec.ID,
		UID:       rec.UID,
		Pid:       rec.PID,
		Tid:       uint32(rec.TID),
	}

	if msg, ok := logparse.Parse(rec.ID, rec.Payload); ok {
		entry.Priority = msg.Priority
		entry.Tag = msg.Tag
		entry.Message = msg.Text
	} else {
		entry.Message = rawMessage(rec.Payload)
	}

	p.enricher.Enrich(p.ctx, rec.UID, rec.PID, &entry)
	return p.batcher.Enqueue(entry)
}

// rawMessage keeps undecodable payloads readable by dropping invalid UTF-8
// and trailing terminators.
func rawMessage(payload []byte) string {
	return strings.TrimRight(strings.ToValidUTF8(string(payload), ""), "\x00")
}
