package server

import (
	"context"
	"log"

	"github.com/emresahna/logd/internal/model"
	pb "github.com/emresahna/logd/internal/sender"
	"github.com/emresahna/logd/internal/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store interface {
	InsertBatch(ctx context.Context, logs []model.LogEntry) error
	QueryLogs(ctx context.Context, filter storage.QueryFilter) ([]storage.Row, error)
}

type GrpcServer struct {
	pb.UnimplementedLogServiceServer

	DB Store
}

func NewGrpcServer(db Store) *GrpcServer {
	return &GrpcServer{DB: db}
}

func (s *GrpcServer) SendLogs(ctx context.Context, req *pb.LogBatch) (*pb.Response, error) {
	logs := make([]model.LogEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		id := model.LogID(entry.LogId)
		if entry.LogId > 0xff || !id.Valid() {
			return nil, status.Errorf(codes.InvalidArgument, "batch %s: invalid log id %d", req.BatchId, entry.LogId)
		}
		logs = append(logs, model.LogEntry{
			Timestamp:   entry.Timestamp.AsTime(),
			LogID:       id,
			UID:         entry.Uid,
			Pid:         entry.Pid,
			Tid:         entry.Tid,
			Priority:    uint8(entry.Priority),
			Tag:         entry.Tag,
			Message:     entry.Message,
			Node:        entry.Node,
			Namespace:   entry.Namespace,
			Pod:         entry.Pod,
			Container:   entry.Container,
			ContainerID: entry.ContainerId,
		})
	}

	if err := s.DB.InsertBatch(ctx, logs); err != nil {
		log.Printf("batch %s: failed to write to DB: %v", req.BatchId, err)
		return &pb.Response{Success: false, Message: "insert failed"}, nil
	}

	return &pb.Response{Success: true, Message: "OK"}, nil
}
