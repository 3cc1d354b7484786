package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	Database    Database

	Square   Square `envPrefix:"SQUARE_"`
	Redis    Redis  `envPrefix:"REDIS_"`
	Kafka    Kafka  `envPrefix:"KAFKA_"`
	Auth     Auth
	Platform Platform `envPrefix:"PLATFORM_"`
	Renewal  Renewal  `envPrefix:"RENEWAL_"`
}

type Square struct {
	ProductionURL string        `env:"PRODUCTION_URL" envDefault:"https://connect.squareup.com"`
	SandboxURL    string        `env:"SANDBOX_URL" envDefault:"https://connect.squareupsandbox.com"`
	APIVersion    string        `env:"API_VERSION" envDefault:"2024-01-18"`
	UserAgent     string        `env:"USER_AGENT" envDefault:"square-payment-gateway/1.0"`
	IntegrationID string        `env:"INTEGRATION_ID"`
	RedirectURL   string        `env:"REDIRECT_URL"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`
	RateLimit     float64       `env:"RATE_LIMIT" envDefault:"20"` // requests per second per store
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"DATABASE_URL" envDefault:"square.db"`
}

// Redis is optional: an empty Addr disables the settings cache and the
// distributed renewal lock.
type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"1m"`
}

type Kafka struct {
	Brokers []string      `env:"BROKERS" envSeparator:","`
	Topic   string        `env:"TOPIC" envDefault:"square_payments"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Platform struct {
	PrimaryCurrency string `env:"PRIMARY_CURRENCY" envDefault:"USD"`
}

type Renewal struct {
	Enabled    bool `env:"ENABLED" envDefault:"true"`
	PeriodDays int  `env:"PERIOD_DAYS" envDefault:"14"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
