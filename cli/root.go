// Package cli 命令行入口：serve / seed / createadmin
package cli

import (
	"context"
	"log/slog"
	"os"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"

	"github.com/spf13/cobra"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library borrow/return service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default .env)")
	root.AddCommand(newServeCmd(), newSeedCmd(), newCreateAdminCmd())
	return root
}

// Execute 供 main 调用
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig .env → 环境变量 → Config，并安装默认 logger
func loadConfig() (config.Config, *slog.Logger) {
	if envFile != "" {
		config.LoadEnv(envFile)
	} else {
		config.LoadEnv()
	}
	cfg := config.Load()
	log := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log
}
