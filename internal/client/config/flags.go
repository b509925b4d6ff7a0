package config

import (
	"flag"
	"os"
	"time"

	"github.com/rentsaathi/listingsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string   document store driver (memory|mongo|postgres)
//	-o string   object store driver (memory|s3|minio)
//	-db string  local SQLite database path
//	-n string   NATS URL for change events
//	-i int      online check interval in seconds
//	-l string   log level
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-db", "-n", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DocumentDriver, "d", cfg.DocumentDriver, "document store driver (memory|mongo|postgres)")
	fs.StringVar(&cfg.ObjectDriver, "o", cfg.ObjectDriver, "object store driver (memory|s3|minio)")
	fs.StringVar(&cfg.LocalDBPath, "db", cfg.LocalDBPath, "local database path")
	fs.StringVar(&cfg.NATSURL, "n", cfg.NATSURL, "NATS URL for change events")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
