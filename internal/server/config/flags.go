package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/pagewatch/internal/flagx"
)

var ownedFlags = []string{"-a", "-o", "-d", "-k", "-ck", "-depth", "-log", "-level"}

// parseFlags overlays the flags this package owns:
//
//	-a      gRPC listen address
//	-o      ops HTTP listen address (health, metrics)
//	-d      database DSN
//	-k      JWT signing secret
//	-ck     custom-token verification secret
//	-depth  per-monitor history depth
//	-log    logger backend: json, text or zap
//	-level  log level
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], ownedFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "gRPC listen address")
	fs.StringVar(&cfg.EndpointAddrOps, "o", cfg.EndpointAddrOps, "ops HTTP listen address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.JWTSecret, "k", cfg.JWTSecret, "JWT signing secret")
	fs.StringVar(&cfg.CustomTokenSecret, "ck", cfg.CustomTokenSecret, "custom token secret")
	fs.IntVar(&cfg.HistoryDepth, "depth", cfg.HistoryDepth, "history entries kept per monitor")
	fs.StringVar(&cfg.Logger, "log", cfg.Logger, "logger backend (json, text, zap)")
	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if cfg.HistoryDepth < 1 {
		return fmt.Errorf("history depth must be positive, got %d", cfg.HistoryDepth)
	}
	return nil
}
