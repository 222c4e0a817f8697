package config

import (
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EventsDriverNone  = "none"
	EventsDriverRedis = "redis"
	EventsDriverNATS  = "nats"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Host     string `yaml:"host" env:"RELAY_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"RELAY_PORT" env-default:"8000"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Events   Events `yaml:"events"`
}

// Events selects where session lifecycle events are published.
type Events struct {
	Driver         string        `yaml:"driver" env:"EVENTS_DRIVER" env-default:"none"`
	Channel        string        `yaml:"channel" env:"EVENTS_CHANNEL" env-default:"relay.games"`
	PublishTimeout time.Duration `yaml:"publish-timeout" env:"EVENTS_PUBLISH_TIMEOUT" env-default:"2s"`
	Redis          Redis         `yaml:"redis"`
	NATS           NATS          `yaml:"nats"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type NATS struct {
	URL string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// GetRelayAddr returns the fixed address the relay listens on.
func (that *Config) GetRelayAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
