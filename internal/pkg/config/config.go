package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string        `env:"PORT,         default=3000"`
	Env         string        `env:"ENV,          default=development"`
	JWTSecret   string        `env:"JWT_SECRET,   required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=24h"`
	LogLevel    string        `env:"LOG_LEVEL,    default=info"`
	BcryptCost  int           `env:"BCRYPT_COST,  default=10"`
	CORSOrigins []string      `env:"CORS_ORIGINS, default=http://localhost:4200"`
	// UserWriteRoles restricts user create/update/delete when non-empty.
	UserWriteRoles []string `env:"USER_WRITE_ROLES"`

	Mongo MongoConfig
	Redis RedisConfig
	AMQP  AMQPConfig
	Audit AuditConfig
	Seed  SeedConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=eduka_users"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// AMQPConfig is optional; an empty URL disables notification publishing.
type AMQPConfig struct {
	URL   string `env:"AMQP_URL"`
	Queue string `env:"AMQP_EMAIL_QUEUE, default=email.notifications"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// SeedConfig describes the admin account created at startup when Email is set.
type SeedConfig struct {
	Username string `env:"SEED_ADMIN_USERNAME, default=admin"`
	Email    string `env:"SEED_ADMIN_EMAIL"`
	Password string `env:"SEED_ADMIN_PASSWORD"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves configuration through l, which lets tests supply a map.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
