package model

import "time"

type LogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	LogID       LogID     `json:"log_id"`
	UID         uint32    `json:"uid"`
	Pid         uint32    `json:"pid"`
	Tid         uint32    `json:"tid"`
	Priority    uint8     `json:"priority"`
	Tag         string    `json:"tag"`
	Message     string    `json:"message"`
	Node        string    `json:"node"`
	Namespace   string    `json:"namespace"`
	Pod         string    `json:"pod"`
	Container   string    `json:"container"`
	ContainerID string    `json:"container_id"`
}
