package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/emresahna/logd/internal/model"
	pb "github.com/emresahna/logd/internal/sender"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const sendTimeout = 3 * time.Second

type Sender interface {
	Send(ctx context.Context, batch []model.LogEntry) error
}

type GRPCSender struct {
	client pb.LogServiceClient
}

func NewGRPCSender(client pb.LogServiceClient) *GRPCSender {
	return &GRPCSender{client: client}
}

func (s *GRPCSender) Send(ctx context.Context, batch []model.LogEntry) error {
	entries := make([]*pb.LogEntry, 0, len(batch))
	for _, entry := range batch {
		entries = append(entries, &pb.LogEntry{
			Timestamp:   timestamppb.New(entry.Timestamp),
			LogId:       uint32(entry.LogID),
			Uid:         entry.UID,
			Pid:         entry.Pid,
			Tid:         entry.Tid,
			Priority:    uint32(entry.Priority),
			Tag:         entry.Tag,
			Message:     entry.Message,
			Node:        entry.Node,
			Namespace:   entry.Namespace,
			Pod:         entry.Pod,
			Container:   entry.Container,
			ContainerId: entry.ContainerID,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendLogs(ctx, &pb.LogBatch{
		Entries: entries,
		BatchId: uuid.NewString(),
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("collector rejected batch: %s", resp.Message)
	}
	return nil
}
