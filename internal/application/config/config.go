package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`

	// JWTSecret is optional: without it anonymous identities fall back
	// to client-generated ids instead of signed tokens.
	JWTSecret string `env:"JWT_SECRET"`

	Room     RoomConfig
	Postgres PostgresConfig
}

type RoomConfig struct {
	// MinPlayers required before a round may start.
	MinPlayers int `env:"ROOM_MIN_PLAYERS" envDefault:"2"`

	// MaxAge after which the sweep deletes a room regardless of state.
	MaxAge time.Duration `env:"ROOM_MAX_AGE" envDefault:"24h"`

	// SweepInterval between stale-room sweeps.
	SweepInterval time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"10m"`

	// PresenceTimeout reaps players whose connection has been gone
	// longer than this. Zero disables reaping: a disconnected player
	// stays in the room until the host leaves or the room expires.
	PresenceTimeout time.Duration `env:"ROOM_PRESENCE_TIMEOUT" envDefault:"0"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL"`

	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Name     string `env:"POSTGRES_NAME" envDefault:"catchthespy"`
	SSL      string `env:"POSTGRES_SSL" envDefault:"disable"`
}

func (p *PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Name,
		p.SSL,
	)
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &c, nil
}
