// Command portal is a terminal client for the Eduka campus portal. It keeps a
// session and a notification list in local or Redis-backed storage and
// evaluates route guards the same way the web portal does.
//
// Usage:
//
//	portal login -u <username|email> [-p <password>] [-remember]
//	portal logout
//	portal whoami [-revalidate]
//	portal open <path>
//	portal accounts [remove <identity>]
//	portal notify add|list|read|read-all|delete|clear
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-envconfig"

	"github.com/eduka/campus-auth/pkg/authclient"
	"github.com/eduka/campus-auth/pkg/logger"
	"github.com/eduka/campus-auth/pkg/storage"
)

type config struct {
	API       authclient.Config
	StateDir  string `env:"EDUKA_STATE_DIR"`
	RedisAddr string `env:"EDUKA_REDIS_ADDR"`
	Password  string `env:"EDUKA_PASSWORD"`
	LogLevel  string `env:"EDUKA_LOG_LEVEL, default=warn"`
	Alerts    bool   `env:"EDUKA_DESKTOP_NOTIFY, default=false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		fmt.Fprintf(stderr, "portal: config: %v\n", err)
		return 2
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: stderr, Service: "eduka-portal"})

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "portal: storage: %v\n", err)
		return 1
	}
	defer closeStore()

	app := newApp(cfg, store, stdout, log)
	if err := app.dispatch(ctx, args); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(stderr, "portal: %v\n\n%s", err, usageText)
			return 2
		}
		fmt.Fprintf(stderr, "portal: %v\n", err)
		return 1
	}
	return 0
}

// openStore picks Redis when an address is configured, else a directory.
func openStore(ctx context.Context, cfg config) (storage.Store, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return storage.NewRedis(client, ""), func() { _ = client.Close() }, nil
	}

	dir := cfg.StateDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, err
		}
		dir = filepath.Join(base, "eduka")
	}
	f, err := storage.NewFile(dir)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

const usageText = `usage:
  portal login -u <username|email> [-p <password>] [-remember]
  portal logout
  portal whoami [-revalidate]
  portal open <path>
  portal accounts [remove <identity>]
  portal notify add -title <t> [-message <m>] [-type success|error|warning|info]
  portal notify list | read <id> | read-all | delete <id> | clear
`
