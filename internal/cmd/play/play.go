// Package play parses play service flags and launches the service.
package play

import (
	"context"
	"flag"

	entrypoint "github.com/openlms/ispring-play/internal/platform/cmd"
	server "github.com/openlms/ispring-play/internal/services/play/app"
)

// Config holds play command configuration.
type Config struct {
	Port int `env:"ISPRING_PLAY_PORT" envDefault:"8090"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The play gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the play gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlay, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
