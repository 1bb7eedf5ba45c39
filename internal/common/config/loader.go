// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile looks for a .env next to the binary, in a parent directory, or
// at the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string and list values.
// Unset variables expand to "" so defaults and validation see them as empty.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		switch val := v.Get(key).(type) {
		case string:
			if hasPlaceholder(val) {
				v.Set(key, os.ExpandEnv(val))
			}
		case []interface{}:
			out := make([]string, 0, len(val))
			for _, item := range val {
				s := fmt.Sprint(item)
				if hasPlaceholder(s) {
					s = os.ExpandEnv(s)
				}
				if s != "" {
					out = append(out, s)
				}
			}
			v.Set(key, out)
		}
	}
}

func hasPlaceholder(s string) bool {
	return strings.Contains(s, "${") || (strings.HasPrefix(s, "$") && len(s) > 1)
}

// overrideEmptyConfig fills secrets that were left blank in YAML from the
// conventional environment variable names.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Integrations.SMTP.Username, "SMTP_USERNAME")
	setIfEmpty(&cfg.Integrations.SMTP.Password, "SMTP_PASSWORD")
	setIfEmpty(&cfg.Integrations.AWS.Region, "AWS_REGION")
	setIfEmpty(&cfg.Messaging.URL, "AMQP_URL")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "order-notifications"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.HistoryIndex == "" {
		cfg.Database.Elasticsearch.HistoryIndex = "notification-history"
	}

	n := &cfg.Notifications
	if n.Locale == "" {
		n.Locale = "en-IN"
	}
	if n.DateLayout == "" {
		n.DateLayout = "1/2/2006"
	}
	if n.Preferences.Backend == "" {
		n.Preferences.Backend = BackendMemory
	}
	if n.History.Backend == "" {
		n.History.Backend = BackendMemory
	}
	if n.History.Capacity <= 0 {
		n.History.Capacity = 100
	}
	if n.History.Key == "" {
		n.History.Key = "notification_history"
	}
	if n.Email.Transport == "" {
		n.Email.Transport = TransportLog
	}
	if n.SMS.Transport == "" {
		n.SMS.Transport = TransportLog
	}
	if n.Email.RequestTimeout == 0 {
		n.Email.RequestTimeout = 10000
	}
	if n.SMS.RequestTimeout == 0 {
		n.SMS.RequestTimeout = 10000
	}
	if n.Lifecycle.StepDelay == 0 {
		n.Lifecycle.StepDelay = 2000
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "ap-south-1"
	}
	if cfg.Integrations.SMTP.Port == 0 {
		cfg.Integrations.SMTP.Port = 587
	}

	if cfg.Messaging.Exchange == "" {
		cfg.Messaging.Exchange = "notifications"
	}
	if cfg.Messaging.RoutingKey == "" {
		cfg.Messaging.RoutingKey = "notification.dispatched"
	}
	if cfg.Messaging.AppID == "" {
		cfg.Messaging.AppID = cfg.App.Name
	}

	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.Mode == "" {
		cfg.HTTP.Mode = "release"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig only demands the infrastructure that the selected backends
// and transports actually use.
func validateConfig(cfg *Config) error {
	n := cfg.Notifications

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	for name, backend := range map[string]string{
		"notifications.preferences.backend": n.Preferences.Backend,
		"notifications.history.backend":     n.History.Backend,
	} {
		switch backend {
		case BackendMemory, BackendRedis:
		case BackendPostgres:
			if name == "notifications.history.backend" {
				return fmt.Errorf("%s: postgres is not supported", name)
			}
		default:
			return fmt.Errorf("%s: unknown backend %q", name, backend)
		}
	}

	if UsesRedis(cfg) && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if UsesPostgres(cfg) {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}
	if n.History.Mirror && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when history mirroring is enabled")
	}

	for name, ch := range map[string]ChannelConfig{"email": n.Email, "sms": n.SMS} {
		switch ch.Transport {
		case TransportLog, TransportSES, TransportSNS, TransportSMTP:
		default:
			return fmt.Errorf("notifications.%s.transport: unknown transport %q", name, ch.Transport)
		}
	}
	if n.Email.Transport == TransportSNS {
		return fmt.Errorf("notifications.email.transport: sns cannot deliver email")
	}
	if n.SMS.Transport == TransportSES || n.SMS.Transport == TransportSMTP {
		return fmt.Errorf("notifications.sms.transport: %s cannot deliver sms", n.SMS.Transport)
	}
	if n.Email.Transport == TransportSMTP && cfg.Integrations.SMTP.Host == "" {
		return fmt.Errorf("integrations.smtp.host is required for smtp transport")
	}

	if cfg.Messaging.Enabled && cfg.Messaging.URL == "" {
		return fmt.Errorf("messaging.url is required when messaging is enabled")
	}
	return nil
}

// UsesRedis reports whether any notification store is backed by Redis.
func UsesRedis(cfg *Config) bool {
	return cfg.Notifications.Preferences.Backend == BackendRedis ||
		cfg.Notifications.History.Backend == BackendRedis
}

// UsesPostgres reports whether the preference store is backed by Postgres.
func UsesPostgres(cfg *Config) bool {
	return cfg.Notifications.Preferences.Backend == BackendPostgres
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
