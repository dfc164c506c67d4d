package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"
)

type Config struct {
	AccessToken           string
	Port                  string
	LogLevel              string
	ArchiveRoot           string
	CommandTimeout        time.Duration
	SpoolDir              string
	OperationHistoryLimit int
	AuditLogEnabled       bool
	AuditLogFilePath      string
	AuditLogSizeLimitMB   int
	RequestLogEnabled     bool
	RequestLogFilePath    string
	RequestLogSizeLimitMB int
	TLSEnabled            bool
	TLSCertDir            string
}

func NewConfig() *Config {
	return &Config{
		AccessToken:           getEnv("ACCESS_TOKEN", ""),
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ArchiveRoot:           getEnv("ARCHIVE_ROOT", ""),
		CommandTimeout:        getEnvDuration("COMMAND_TIMEOUT", 0),
		SpoolDir:              getEnv("SPOOL_DIR", "/var/lib/berth-archiver/spool"),
		OperationHistoryLimit: getEnvInt("OPERATION_HISTORY_LIMIT", 100),
		AuditLogEnabled:       getEnvBool("AUDIT_LOG_ENABLED", false),
		AuditLogFilePath:      getEnv("AUDIT_LOG_FILE_PATH", "/var/log/berth-archiver/audit.jsonl"),
		AuditLogSizeLimitMB:   getEnvInt("AUDIT_LOG_SIZE_LIMIT_MB", 100),
		RequestLogEnabled:     getEnvBool("REQUEST_LOG_ENABLED", false),
		RequestLogFilePath:    getEnv("REQUEST_LOG_FILE_PATH", "/var/log/berth-archiver/requests.jsonl"),
		RequestLogSizeLimitMB: getEnvInt("REQUEST_LOG_SIZE_LIMIT_MB", 100),
		TLSEnabled:            getEnvBool("TLS_ENABLED", false),
		TLSCertDir:            getEnv("TLS_CERT_DIR", "./ssl"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "5m") or a bare number
// of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

var Module = fx.Options(
	fx.Provide(NewConfig),
)
