package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"myfinance/config"
	"myfinance/logging"
	"myfinance/migrations"
)

func main() {
	cfgFile := flag.String("config", "", "config file")
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	cfg, err := config.Load(*cfgFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg.Database.Path, *down, logger); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, down int, logger *slog.Logger) error {
	if down > 0 {
		if err := migrations.Down(path, down); err != nil {
			return err
		}
	} else if err := migrations.Run(path); err != nil {
		return err
	}

	version, dirty, err := migrations.Version(path)
	if err != nil {
		return err
	}
	logger.Info("Migrations completed successfully", "path", path, "version", version, "dirty", dirty)
	return nil
}
