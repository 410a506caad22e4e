package config

import (
	"testing"
	"time"

	"github.com/emresahna/logd/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("LOGD_SELF_UID", "")
	t.Setenv("LOGD_SOCKET_DIR", "")

	cfg := Load()
	if cfg.Port == "" || cfg.HTTPPort == "" {
		t.Fatalf("expected defaults for ports")
	}
	if cfg.Agent.BatchSize <= 0 {
		t.Fatalf("expected default batch size")
	}
	if cfg.Logd.SelfUID != model.AIDLogd {
		t.Fatalf("expected AID_LOGD as self uid, got %d", cfg.Logd.SelfUID)
	}
	if cfg.Logd.SocketDir != "/dev/socket" || cfg.Logd.SocketName != "logdw" {
		t.Fatalf("unexpected socket defaults: %+v", cfg.Logd)
	}
	if cfg.Logd.SecurityEnabled {
		t.Fatalf("expected security logging off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("AGENT_BATCH_SIZE", "10")
	t.Setenv("AGENT_FLUSH_INTERVAL", "250ms")
	t.Setenv("LOGD_SELF_UID", "2000")
	t.Setenv("LOGD_SECURITY_ENABLED", "true")
	t.Setenv("LOGD_SOCKET_DIR", "/tmp/sockets")

	cfg := Load()
	if cfg.Port != "6000" {
		t.Fatalf("expected PORT override")
	}
	if cfg.HTTPPort != "9000" {
		t.Fatalf("expected HTTP_PORT override")
	}
	if cfg.Agent.BatchSize != 10 {
		t.Fatalf("expected AGENT_BATCH_SIZE override")
	}
	if cfg.Agent.FlushInterval != 250*time.Millisecond {
		t.Fatalf("expected AGENT_FLUSH_INTERVAL override")
	}
	if cfg.Logd.SelfUID != 2000 || !cfg.Logd.SecurityEnabled || cfg.Logd.SocketDir != "/tmp/sockets" {
		t.Fatalf("unexpected logd overrides: %+v", cfg.Logd)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("AGENT_BATCH_SIZE", "-3")
	t.Setenv("LOGD_SELF_UID", "not-a-uid")
	t.Setenv("AGENT_FLUSH_INTERVAL", "soon")

	cfg := Load()
	if cfg.Agent.BatchSize != 200 || cfg.Logd.SelfUID != model.AIDLogd || cfg.Agent.FlushInterval != 2*time.Second {
		t.Fatalf("expected fallbacks, got %+v %+v", cfg.Agent, cfg.Logd)
	}
}

func TestNodeNameFallback(t *testing.T) {
	t.Setenv("NODE_NAME", "")
	cfg := Load()
	if cfg.Agent.NodeName == "" {
		t.Fatalf("expected node name fallback")
	}
}

func TestServerAddrOptional(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	cfg := Load()
	if cfg.ServerAddr != "" {
		t.Fatalf("expected empty server addr when not set")
	}
}
