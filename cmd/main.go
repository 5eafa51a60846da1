// Package main provides the CLI entrypoint for the bountywatch service.
// It wires subcommands (run, serve, migrate), loads configuration, and initializes logging.
package main

import (
	"bountywatch/internal/config"
	"bountywatch/pkg/logger"
	"context"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:          "bountywatch",
		Short:        "Watches bug-bounty program feeds and alerts on newly in-scope assets",
		SilenceUsage: true,
	}

	// there is no way to access flags before command execution in cobra.
	// the config path is pre-read from os.Args by configPath.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "Optional YAML config file path (environment variables take precedence)")

	log.Println("loading config ...")
	cfg, err := config.Load(configPath(os.Args[1:]))
	if err != nil {
		log.Fatal("could not load config: ", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(cfg),
		serveCommand(cfg),
		migrateCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configPath returns the value of -c/--config in args, wherever it appears
// relative to the subcommand.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		for _, name := range []string{"-c", "--config"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v
			}
		}
	}

	return ""
}
