package authclient

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config locates the user service.
type Config struct {
	BaseURL string        `env:"EDUKA_API_URL,      default=http://localhost:3000"`
	Timeout time.Duration `env:"EDUKA_HTTP_TIMEOUT, default=10s"`
}

// LoadConfig resolves Config through l; pass envconfig.OsLookuper() in
// production.
func LoadConfig(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l})
	return cfg, err
}
