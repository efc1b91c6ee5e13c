package internal

import (
	"fmt"
	"time"
)

type Config struct {
	// BadgerFilepath empty keeps everything in memory.
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	TickInterval    time.Duration `env:"TICK_INTERVAL,default=1s"`
	TickStep        time.Duration `env:"TICK_STEP,default=1s"`
	LeadTime        time.Duration `env:"LEAD_TIME,default=30m"`
	SoonWindow      time.Duration `env:"SOON_WINDOW,default=0s"`
	Timezone        string        `env:"TIMEZONE,default=Asia/Jakarta"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	PersistDebounce time.Duration `env:"PERSIST_DEBOUNCE,default=500ms"`
	SeedOnEmpty     bool          `env:"SEED_ON_EMPTY,default=true"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=200"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}

// Validate rejects values the core cannot run with.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.TickStep <= 0 {
		return fmt.Errorf("TICK_STEP must be positive, got %s", c.TickStep)
	}
	if c.LeadTime < 0 || c.SoonWindow < 0 {
		return fmt.Errorf("LEAD_TIME and SOON_WINDOW cannot be negative")
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return location, nil
}
