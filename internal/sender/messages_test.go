package sender

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestLogBatchEncoding(t *testing.T) {
	ts := time.Unix(1700000000, 42)
	batch := &LogBatch{
		BatchId: "b-1",
		Entries: []*LogEntry{
			{Timestamp: timestamppb.New(ts), LogId: 3, Uid: 10001, Pid: 99, Tid: 42, Priority: 4, Tag: "tag", Message: "hello", Pod: "web-0"},
			{LogId: 0, Message: "no timestamp"},
		},
	}
	data, err := batch.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got LogBatch
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.BatchId != "b-1" || len(got.Entries) != 2 {
		t.Fatalf("unexpected batch: %+v", got)
	}
	first := got.Entries[0]
	if !first.Timestamp.AsTime().Equal(ts) || first.LogId != 3 || first.Uid != 10001 || first.Tid != 42 {
		t.Fatalf("unexpected entry: %+v", first)
	}
	if first.Tag != "tag" || first.Message != "hello" || first.Pod != "web-0" {
		t.Fatalf("unexpected entry strings: %+v", first)
	}
	if got.Entries[1].Timestamp != nil || got.Entries[1].Message != "no timestamp" {
		t.Fatalf("unexpected second entry: %+v", got.Entries[1])
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	b := protowire.AppendTag(nil, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, "ok")

	var resp Response
	if err := resp.Unmarshal(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Message != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTruncatedInput(t *testing.T) {
	data, _ := (&Response{Success: true, Message: "hello"}).Marshal()
	var resp Response
	if err := resp.Unmarshal(data[:len(data)-2]); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

type echoServer struct {
	UnimplementedLogServiceServer
	got chan *LogBatch
}

func (s *echoServer) SendLogs(_ context.Context, req *LogBatch) (*Response, error) {
	s.got <- req
	return &Response{Success: true, Message: "OK"}, nil
}

func TestSendLogsOverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	echo := &echoServer{got: make(chan *LogBatch, 1)}
	RegisterLogServiceServer(srv, echo)
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

	resp, err := NewLogServiceClient(conn).SendLogs(ctx, &LogBatch{
		BatchId: "b-2",
		Entries: []*LogEntry{{LogId: 1, Tag: "radio"}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !resp.Success || resp.Message != "OK" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	got := <-echo.got
	if got.BatchId != "b-2" || len(got.Entries) != 1 || got.Entries[0].Tag != "radio" {
		t.Fatalf("unexpected batch on server: %+v", got)
	}
}
