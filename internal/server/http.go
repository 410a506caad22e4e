package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/emresahna/logd/internal/model"
	"github.com/emresahna/logd/internal/storage"
)

const (
	defaultQueryWindow = 15 * time.Minute
	defaultQueryLimit  = 200
	maxQueryLimit      = 1000
)

type HttpServer struct {
	db Store
}

func NewHttpServer(db Store) *HttpServer {
	return &HttpServer{db: db}
}

func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	return mux
}

func (s *HttpServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HttpServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	now := time.Now()
	from := parseTime(query.Get("from"), now.Add(-defaultQueryWindow))
	to := parseTime(query.Get("to"), now)
	if from.After(to) {
		from, to = to, from
	}

	limit := parseInt(query.Get("limit"), defaultQueryLimit)
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	filter := storage.QueryFilter{
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    parseInt(query.Get("offset"), 0),
		Tag:       query.Get("tag"),
		Namespace: query.Get("namespace"),
		Pod:       query.Get("pod"),
		Search:    query.Get("q"),
	}

	if raw := query.Get("log_id"); raw != "" {
		id, ok := model.ParseLogID(raw)
		if !ok {
			http.Error(w, "invalid log_id", http.StatusBadRequest)
			return
		}
		filter.LogID = &id
	}
	if raw := query.Get("uid"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			val := uint32(parsed)
			filter.UID = &val
		}
	}
	if raw := query.Get("pid"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			val := uint32(parsed)
			filter.Pid = &val
		}
	}
	if raw := query.Get("priority"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 8); err == nil {
			val := uint8(parsed)
			filter.Priority = &val
		}
	}

	entries, err := s.db.QueryLogs(r.Context(), filter)
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []storage.Row{}
	}

	response := struct {
		Entries []storage.Row `json:"entries"`
	}{
		Entries: entries,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if num, err := strconv.ParseInt(value, 10, 64); err == nil {
		if num > 1e12 {
			return time.UnixMilli(num)
		}
		return time.Unix(num, 0)
	}
	return fallback
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
