package main

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emresahna/logd/internal/config"
	"github.com/emresahna/logd/internal/model"
	pb "github.com/emresahna/logd/internal/sender"
	"github.com/emresahna/logd/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type memStore struct {
	mu   sync.Mutex
	logs []model.LogEntry
}

func (s *memStore) InsertBatch(_ context.Context, logs []model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *memStore) QueryLogs(context.Context, storage.QueryFilter) ([]storage.Row, error) {
	return nil, nil
}

func (s *memStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func TestCollectorServesLogsAndHealth(t *testing.T) {
	store := &memStore{}
	srv, hs := newGRPCServer(store)
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	healthClient := healthpb.NewHealthClient(conn)
	check := &healthpb.HealthCheckRequest{Service: pb.LogService_ServiceDesc.ServiceName}
	resp, err := healthClient.Check(ctx, check)
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}

	sent, err := pb.NewLogServiceClient(conn).SendLogs(ctx, &pb.LogBatch{
		BatchId: "b-1",
		Entries: []*pb.LogEntry{{LogId: uint32(model.LogIDMain), Tag: "app", Message: "hello"}},
	})
	if err != nil || !sent.Success {
		t.Fatalf("send: %v %+v", err, sent)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored entry, got %d", store.Len())
	}

	hs.Shutdown()
	resp, err = healthClient.Check(ctx, check)
	if err != nil {
		t.Fatalf("health check after shutdown: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", resp.GetStatus())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Config{Port: "0", HTTPPort: "0", HTTPShutdownTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, &memStore{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}
