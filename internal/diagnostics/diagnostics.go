package diagnostics

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

type Snapshot struct {
	DatagramsRead     uint64
	ReceiveErrors     uint64
	ShortDrops        uint64
	NoCredentialDrops uint64
	SelfDrops         uint64
	InvalidIDDrops    uint64
	SecurityDrops     uint64
	Truncated         uint64
	Dispatched        uint64
	SinkFailures      uint64
	EnqueueDrops      uint64
	BatchesSent       uint64
	SendFailures      uint64
}

// Diagnostics counts what the write path did with each datagram. All
// methods are safe on a nil receiver so components may run without it.
type Diagnostics struct {
	datagramsRead     atomic.Uint64
	receiveErrors     atomic.Uint64
	shortDrops        atomic.Uint64
	noCredentialDrops atomic.Uint64
	selfDrops         atomic.Uint64
	invalidIDDrops    atomic.Uint64
	securityDrops     atomic.Uint64
	truncated         atomic.Uint64
	dispatched        atomic.Uint64
	sinkFailures      atomic.Uint64
	enqueueDrops      atomic.Uint64
	batchesSent       atomic.Uint64
	sendFailures      atomic.Uint64
}

func New() *Diagnostics {
	return &Diagnostics{}
}

func inc(c *atomic.Uint64) {
	c.Add(1)
}

func (d *Diagnostics) IncDatagramsRead() {
	if d != nil {
		inc(&d.datagramsRead)
	}
}

func (d *Diagnostics) IncReceiveErrors() {
	if d != nil {
		inc(&d.receiveErrors)
	}
}

func (d *Diagnostics) IncShortDrops() {
	if d != nil {
		inc(&d.shortDrops)
	}
}

func (d *Diagnostics) IncNoCredentialDrops() {
	if d != nil {
		inc(&d.noCredentialDrops)
	}
}

func (d *Diagnostics) IncSelfDrops() {
	if d != nil {
		inc(&d.selfDrops)
	}
}

func (d *Diagnostics) IncInvalidIDDrops() {
	if d != nil {
		inc(&d.invalidIDDrops)
	}
}

func (d *Diagnostics) IncSecurityDrops() {
	if d != nil {
		inc(&d.securityDrops)
	}
}

func (d *Diagnostics) IncTruncated() {
	if d != nil {
		inc(&d.truncated)
	}
}

func (d *Diagnostics) IncDispatched() {
	if d != nil {
		inc(&d.dispatched)
	}
}

func (d *Diagnostics) IncSinkFailures() {
	if d != nil {
		inc(&d.sinkFailures)
	}
}

func (d *Diagnostics) IncEnqueueDrops() {
	if d != nil {
		inc(&d.enqueueDrops)
	}
}

func (d *Diagnostics) IncBatchesSent() {
	if d != nil {
		inc(&d.batchesSent)
	}
}

func (d *Diagnostics) IncSendFailures() {
	if d != nil {
		inc(&d.sendFailures)
	}
}

func (d *Diagnostics) Snapshot() Snapshot {
	if d == nil {
		return Snapshot{}
	}
	return Snapshot{
		DatagramsRead:     d.datagramsRead.Load(),
		ReceiveErrors:     d.receiveErrors.Load(),
		ShortDrops:        d.shortDrops.Load(),
		NoCredentialDrops: d.noCredentialDrops.Load(),
		SelfDrops:         d.selfDrops.Load(),
		InvalidIDDrops:    d.invalidIDDrops.Load(),
		SecurityDrops:     d.securityDrops.Load(),
		Truncated:         d.truncated.Load(),
		Dispatched:        d.dispatched.Load(),
		SinkFailures:      d.sinkFailures.Load(),
		EnqueueDrops:      d.enqueueDrops.Load(),
		BatchesSent:       d.batchesSent.Load(),
		SendFailures:      d.sendFailures.Load(),
	}
}

// Sub returns the per-counter difference s - prev.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{
		DatagramsRead:     s.DatagramsRead - prev.DatagramsRead,
		ReceiveErrors:     s.ReceiveErrors - prev.ReceiveErrors,
		ShortDrops:        s.ShortDrops - prev.ShortDrops,
		NoCredentialDrops: s.NoCredentialDrops - prev.NoCredentialDrops,
		SelfDrops:         s.SelfDrops - prev.SelfDrops,
		InvalidIDDrops:    s.InvalidIDDrops - prev.InvalidIDDrops,
		SecurityDrops:     s.SecurityDrops - prev.SecurityDrops,
		Truncated:         s.Truncated - prev.Truncated,
		Dispatched:        s.Dispatched - prev.Dispatched,
		SinkFailures:      s.SinkFailures - prev.SinkFailures,
		EnqueueDrops:      s.EnqueueDrops - prev.EnqueueDrops,
		BatchesSent:       s.BatchesSent - prev.BatchesSent,
		SendFailures:      s.SendFailures - prev.SendFailures,
	}
}

func (s Snapshot) summary() []any {
	return []any{
		s.DatagramsRead,
		s.ReceiveErrors,
		s.ShortDrops,
		s.NoCredentialDrops,
		s.SelfDrops,
		s.InvalidIDDrops,
		s.SecurityDrops,
		s.Truncated,
		s.Dispatched,
		s.SinkFailures,
		s.EnqueueDrops,
		s.BatchesSent,
		s.SendFailures,
	}
}

const summaryFormat = "read=%d recv_errors=%d short=%d no_creds=%d self=%d bad_id=%d security=%d truncated=%d dispatched=%d sink_failures=%d enqueue_drops=%d batches=%d send_failures=%d"

func StartReporter(ctx context.Context, diagnostics *Diagnostics, interval time.Duration) {
	if diagnostics == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := diagnostics.Snapshot()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := diagnostics.Snapshot()
			args := append(current.summary(), current.Sub(last).summary()...)
			log.Printf("logd diagnostics total("+summaryFormat+") delta("+summaryFormat+")", args...)
			last = current
		}
	}
}
