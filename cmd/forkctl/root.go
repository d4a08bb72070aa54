package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fork-your-story/internal/config"
	"fork-your-story/internal/library"
	"fork-your-story/internal/logger"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app - общее состояние команд, заполняется в PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string

	cfg *config.CLIConfig
	log zerolog.Logger
	// zl передается внутренним пакетам, которые логируют через zap.
	zl *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "forkctl",
		Short:         "Fork Your Story command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.zl != nil {
				_ = a.zl.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultCLIConfigPath(), "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(a),
		newAnalyzeCmd(a),
		newLibraryCmd(a),
		newProbeCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadCLIConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	// Внутренние пакеты пишут только предупреждения, чтобы не мешать выводу команд.
	a.zl, err = logger.New(logger.Config{Level: "warn", Encoding: "console", OutputPath: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openLibrary открывает библиотеку в файле или, если настроен Redis, в Redis.
func (a *app) openLibrary(ctx context.Context) (*library.Store, func(), error) {
	var (
		persister library.Persister
		closer    = func() {}
	)
	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		persister = library.NewRedisPersister(client, a.cfg.LibraryOwner, a.zl)
		closer = func() { _ = client.Close() }
		a.log.Debug().Str("addr", a.cfg.RedisAddr).Str("key", library.RedisKey(a.cfg.LibraryOwner)).Msg("Using Redis library")
	} else {
		persister = library.NewFilePersister(a.cfg.LibraryPath)
		a.log.Debug().Str("path", a.cfg.LibraryPath).Msg("Using file library")
	}

	store, err := library.Open(ctx, persister, library.WithLogger(a.zl))
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	return store, closer, nil
}
