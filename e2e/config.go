package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_API_ADDR is the base URL of a running service; scenarios skip when empty
	APIAddr string `envconfig:"E2E_API_ADDR"`
	// E2E_DEBUG_JSON dumps full request/response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_ADMIN_PASSWORD matches the seeded administrator
	AdminPassword string `envconfig:"E2E_ADMIN_PASSWORD" default:"adminpajal"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
