// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Messaging     MessagingConfig         `mapstructure:"messaging"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	HistoryIndex string   `mapstructure:"history_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
	// WaitForCompletion holds a simulate-order-updates job until the run ends.
	WaitForCompletion bool `mapstructure:"wait_for_completion"`
}

// --- Notification dispatch ---

// Backend names shared by the preference store and the history log.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Transport names for the channel senders.
const (
	TransportLog  = "log"
	TransportSES  = "ses"
	TransportSNS  = "sns"
	TransportSMTP = "smtp"
)

// NotificationConfig drives the dispatch core.
type NotificationConfig struct {
	Locale     string `mapstructure:"locale"`      // BCP 47 tag used for number grouping
	DateLayout string `mapstructure:"date_layout"` // Go time layout for rendered dates

	Preferences struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"preferences"`

	History struct {
		Backend  string `mapstructure:"backend"`
		Capacity int    `mapstructure:"capacity"`
		Key      string `mapstructure:"key"`
		Mirror   bool   `mapstructure:"mirror_to_elasticsearch"`
	} `mapstructure:"history"`

	Email ChannelConfig `mapstructure:"email"`
	SMS   ChannelConfig `mapstructure:"sms"`

	Lifecycle struct {
		StepDelay int `mapstructure:"step_delay"` // milliseconds between stages
	} `mapstructure:"lifecycle"`
}

// ChannelConfig configures one delivery channel.
type ChannelConfig struct {
	Transport      string  `mapstructure:"transport"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"` // 0 disables limiting
	Burst          int     `mapstructure:"burst"`
	FromEmail      string  `mapstructure:"from_email"`
	SenderID       string  `mapstructure:"sender_id"`
	RequestTimeout int     `mapstructure:"request_timeout"` // milliseconds
}

// IntegrationConfig holds settings for the external delivery providers.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`

	SMTP struct {
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		UseTLS      bool   `mapstructure:"use_tls"`
		DefaultFrom string `mapstructure:"default_from"`
	} `mapstructure:"smtp"`
}

// MessagingConfig configures the outbound dispatch-event publisher.
type MessagingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
	AppID      string `mapstructure:"app_id"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release, test
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
