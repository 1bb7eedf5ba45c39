package sendordernotification

import (
	"time"

	"order-notifications/internal/common/config"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	Timeout time.Duration
}

// LoadConfig derives the handler settings from the worker entry.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	c := &Config{Timeout: config.GetDuration(wcfg.Timeout)}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
