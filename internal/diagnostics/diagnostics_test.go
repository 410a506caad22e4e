package diagnostics

import "testing"

func TestSnapshotCounts(t *testing.T) {
	d := New()
	d.IncDatagramsRead()
	d.IncDatagramsRead()
	d.IncSelfDrops()
	d.IncDispatched()

	snap := d.Snapshot()
	if snap.DatagramsRead != 2 || snap.SelfDrops != 1 || snap.Dispatched != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSnapshotSub(t *testing.T) {
	d := New()
	d.IncBatchesSent()
	first := d.Snapshot()
	d.IncBatchesSent()
	d.IncSendFailures()

	delta := d.Snapshot().Sub(first)
	if delta.BatchesSent != 1 || delta.SendFailures != 1 {
		t.Fatalf("unexpected delta: %+v", delta)
	}
}

func TestNilDiagnostics(t *testing.T) {
	var d *Diagnostics
	d.IncDispatched()
	if snap := d.Snapshot(); snap != (Snapshot{}) {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
