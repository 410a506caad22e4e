package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/emresahna/logd/internal/model"
)

func TestBuildQueryDefaults(t *testing.T) {
	from := time.Unix(100, 0)
	to := time.Unix(200, 0)
	query, args := buildQuery(QueryFilter{From: from, To: to, Limit: 50})

	if !strings.Contains(query, "WHERE timestamp >= ? AND timestamp <= ? ORDER BY") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.HasSuffix(query, "LIMIT 50 OFFSET 0") {
		t.Fatalf("unexpected paging: %s", query)
	}
	if len(args) != 2 || args[0] != from || args[1] != to {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildQueryFilters(t *testing.T) {
	id := model.LogIDSystem
	uid := uint32(10001)
	prio := uint8(5)
	query, args := buildQuery(QueryFilter{
		LogID:    &id,
		UID:      &uid,
		Priority: &prio,
		Tag:      "ActivityManager",
		Search:   "anr",
		Limit:    10,
		Offset:   20,
	})

	for _, cond := range []string{"log_id = ?", "uid = ?", "priority >= ?", "tag = ?", "positionCaseInsensitive(message, ?) > 0"} {
		if !strings.Contains(query, cond) {
			t.Fatalf("expected %q in query: %s", cond, query)
		}
	}
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	if args[2] != uint8(model.LogIDSystem) || args[3] != uid || args[6] != "anr" {
		t.Fatalf("unexpected args: %v", args)
	}
}
