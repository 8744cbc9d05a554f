package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`

	TCPPort  string `yaml:"tcp-port" env:"TCP_PORT" env-default:"5555"`
	WSPort   string `yaml:"ws-port" env:"WS_PORT" env-default:"8080"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`

	// WinLength of 0 means the winning run spans the whole board;
	// a positive value fixes the run length for every game.
	WinLength           int `yaml:"win-length" env:"WIN_LENGTH" env-default:"0"`
	CleanupDelaySeconds int `yaml:"cleanup-delay-seconds" env:"CLEANUP_DELAY_SECONDS" env-default:"2"`
}

// MustLoad - reads config.yml with environment overrides. A missing file is
// fine; defaults and environment alone are enough to run.
func MustLoad(path string) *Config {
	config := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(config); err != nil {
			panic(fmt.Errorf("unable to read environment: %w", err))
		}
		return config
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Config) CleanupDelay() time.Duration {
	return time.Duration(that.CleanupDelaySeconds) * time.Second
}
