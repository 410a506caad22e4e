package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/emresahna/logd/internal/diagnostics"
	"github.com/emresahna/logd/internal/model"
	"github.com/emresahna/logd/internal/transport"
)

const (
	defaultBatchSize     = 200
	defaultMaxQueue      = 1000
	defaultFlushInterval = 2 * time.Second
	initialRetryBackoff  = 200 * time.Millisecond
	sendAttempts         = 3
)

// ErrQueueFull is returned by Enqueue when the batch queue has no room.
var ErrQueueFull = errors.New("batch queue full")

type Batcher struct {
	in            chan model.LogEntry
	batchSize     int
	flushInterval time.Duration
	sender        transport.Sender
	diagnostics   *diagnostics.Diagnostics
}

func NewBatcher(
	batchSize int,
	flushInterval time.Duration,
	maxQueue int,
	sender transport.Sender,
	diag *diagnostics.Diagnostics,
) *Batcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxQueue <= 0 {
		maxQueue = defaultMaxQueue
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	return &Batcher{
		in:            make(chan model.LogEntry, maxQueue),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		sender:        sender,
		diagnostics:   diag,
	}
}

// Enqueue never blocks; writers see a full queue as loss.
func (b *Batcher) Enqueue(entry model.LogEntry) error {
	select {
	case b.in <- entry:
		return nil
	default:
		b.diagnostics.IncEnqueueDrops()
		return ErrQueueFull
	}
}

func (b *Batcher) Run(ctx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]model.LogEntry, 0, b.batchSize)

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := b.sendWithRetry(ctx, batch); err != nil {
			b.diagnostics.IncSendFailures()
			log.Printf("failed to send batch of %d: %v", len(batch), err)
		} else {
			b.diagnostics.IncBatchesSent()
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			b.drain(&batch)
			// The run context is gone; give the final flush its own deadline.
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.flushInterval)
			flush(finalCtx)
			cancel()
			return
		case entry := <-b.in:
			batch = append(batch, entry)
			if len(batch) >= b.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (b *Batcher) drain(batch *[]model.LogEntry) {
	for {
		select {
		case entry := <-b.in:
			*batch = append(*batch, entry)
		default:
			return
		}
	}
}

func (b *Batcher) sendWithRetry(ctx context.Context, batch []model.LogEntry) error {
	var err error
	backoff := initialRetryBackoff

	for attempt := 0; attempt < sendAttempts; attempt++ {
		err = b.sender.Send(ctx, batch)
		if err == nil {
			return nil
		}
		if attempt == sendAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return err
}
