package simulateorderupdates

import (
	"time"

	"order-notifications/internal/common/config"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	Timeout time.Duration
	// WaitForCompletion holds the job until every stage has fired.
	WaitForCompletion bool
}

// LoadConfig derives the handler settings from the worker entry.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	c := &Config{
		Timeout:           config.GetDuration(wcfg.Timeout),
		WaitForCompletion: wcfg.WaitForCompletion,
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
