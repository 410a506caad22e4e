package config

import (
	"os"
	"strconv"
	"time"

	"github.com/emresahna/logd/internal/model"
)

type Config struct {
	ServerAddr          string
	Port                string
	HTTPPort            string
	HTTPShutdownTimeout time.Duration
	ClickHouseConfig    ClickHouseConfig
	Logd                LogdConfig
	Agent               AgentConfig
}

type ClickHouseConfig struct {
	Addr     string
	User     string
	Password string
	DB       string
}

// LogdConfig configures the write socket. The listener itself reads no
// environment; these values are passed to it as options.
type LogdConfig struct {
	SocketDir       string
	SocketName      string
	SelfUID         uint32
	SecurityEnabled bool
}

type AgentConfig struct {
	NodeName            string
	K8sEnrich           bool
	BatchSize           int
	FlushInterval       time.Duration
	MaxQueue            int
	DiagnosticsInterval time.Duration
}

func Load() Config {
	return Config{
		ServerAddr:          os.Getenv("SERVER_ADDR"),
		Port:                getString("PORT", "50051"),
		HTTPPort:            getString("HTTP_PORT", "8080"),
		HTTPShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
		ClickHouseConfig: ClickHouseConfig{
			Addr:     getString("CLICKHOUSE_ADDR", "localhost:9000"),
			User:     getString("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
			DB:       getString("CLICKHOUSE_DB", "default"),
		},
		Logd: LogdConfig{
			SocketDir:       getString("LOGD_SOCKET_DIR", "/dev/socket"),
			SocketName:      getString("LOGD_SOCKET_NAME", "logdw"),
			SelfUID:         uint32(getUint("LOGD_SELF_UID", uint64(model.AIDLogd), 32)),
			SecurityEnabled: getBool("LOGD_SECURITY_ENABLED", false),
		},
		Agent: AgentConfig{
			NodeName:            nodeName(),
			K8sEnrich:           getBool("K8S_ENRICH", false),
			BatchSize:           getInt("AGENT_BATCH_SIZE", 200),
			FlushInterval:       getDuration("AGENT_FLUSH_INTERVAL", 2*time.Second),
			MaxQueue:            getInt("AGENT_MAX_QUEUE", 1000),
			DiagnosticsInterval: getDuration("AGENT_DIAGNOSTICS_INTERVAL", time.Minute),
		},
	}
}

func nodeName() string {
	if name := os.Getenv("NODE_NAME"); name != "" {
		return name
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown"
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getUint(key string, fallback uint64, bits int) uint64 {
	v, err := strconv.ParseUint(os.Getenv(key), 10, bits)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
