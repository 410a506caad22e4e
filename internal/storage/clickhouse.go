package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/emresahna/logd/internal/model"
)

const table = "logd_records"

// Row is the stored form of a forwarded record.
type Row struct {
	Timestamp   time.Time `ch:"timestamp" json:"timestamp"`
	LogID       uint8     `ch:"log_id" json:"log_id"`
	UID         uint32    `ch:"uid" json:"uid"`
	Pid         uint32    `ch:"pid" json:"pid"`
	Tid         uint32    `ch:"tid" json:"tid"`
	Priority    uint8     `ch:"priority" json:"priority"`
	Tag         string    `ch:"tag" json:"tag"`
	Message     string    `ch:"message" json:"message"`
	Node        string    `ch:"node" json:"node"`
	Namespace   string    `ch:"namespace" json:"namespace"`
	Pod         string    `ch:"pod" json:"pod"`
	Container   string    `ch:"container" json:"container"`
	ContainerID string    `ch:"container_id" json:"container_id"`
}

type Config struct {
	Addr     string
	Database string
	User     string
	Password string
}

type QueryFilter struct {
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
	LogID     *model.LogID
	UID       *uint32
	Pid       *uint32
	Priority  *uint8
	Tag       string
	Namespace string
	Pod       string
	Search    string
}

type DB struct {
	conn driver.Conn
}

func NewClickHouse(cfg Config) (*DB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		timestamp DateTime64(9),
		log_id UInt8,
		uid UInt32,
		pid UInt32,
		tid UInt32,
		priority UInt8,
		tag String,
		message String,
		node LowCardinality(String),
		namespace LowCardinality(String),
		pod String,
		container String,
		container_id String
	) ENGINE = MergeTree()
	ORDER BY (log_id, timestamp)
	`
	return db.conn.Exec(ctx, schema)
}

func (db *DB) InsertBatch(ctx context.Context, logs []model.LogEntry) error {
	if len(logs) == 0 {
		return nil
	}

	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, entry := range logs {
		err := batch.Append(
			entry.Timestamp,
			uint8(entry.LogID),
			entry.UID,
			entry.Pid,
			entry.Tid,
			entry.Priority,
			entry.Tag,
			entry.Message,
			entry.Node,
			entry.Namespace,
			entry.Pod,
			entry.Container,
			entry.ContainerID,
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append row: %w", err)
		}
	}

	return batch.Send()
}

func (db *DB) QueryLogs(ctx context.Context, filter QueryFilter) ([]Row, error) {
	query, args := buildQuery(filter)
	var rows []Row
	if err := db.conn.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	return rows, nil
}

func buildQuery(filter QueryFilter) (string, []any) {
	conds := []string{"timestamp >= ?", "timestamp <= ?"}
	args := []any{filter.From, filter.To}

	if filter.LogID != nil {
		conds = append(conds, "log_id = ?")
		args = append(args, uint8(*filter.LogID))
	}
	if filter.UID != nil {
		conds = append(conds, "uid = ?")
		args = append(args, *filter.UID)
	}
	if filter.Pid != nil {
		conds = append(conds, "pid = ?")
		args = append(args, *filter.Pid)
	}
	if filter.Priority != nil {
		conds = append(conds, "priority >= ?")
		args = append(args, *filter.Priority)
	}
	if filter.Tag != "" {
		conds = append(conds, "tag = ?")
		args = append(args, filter.Tag)
	}
	if filter.Namespace != "" {
		conds = append(conds, "namespace = ?")
		args = append(args, filter.Namespace)
	}
	if filter.Pod != "" {
		conds = append(conds, "pod = ?")
		args = append(args, filter.Pod)
	}
	if filter.Search != "" {
		conds = append(conds, "positionCaseInsensitive(message, ?) > 0")
		args = append(args, filter.Search)
	}

	query := fmt.Sprintf(
		"SELECT timestamp, log_id, uid, pid, tid, priority, tag, message, node, namespace, pod, container, container_id FROM %s WHERE %s ORDER BY timestamp DESC LIMIT %d OFFSET %d",
		table,
		strings.Join(conds, " AND "),
		filter.Limit,
		filter.Offset,
	)
	return query, args
}
