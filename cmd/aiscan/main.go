// Command aiscan scans a directory of AI-generated images from the command
// line and stores their generation metadata in the same SQLite library the
// server uses.
//
// Usage:
//
//	aiscan scan <dir> [--recursive] [--workers N] [--skip-hidden] [--max-file-size 512MiB]
//	aiscan status
//
// The database location defaults to DATABASE_DIR/images.db and can be
// overridden with --db.
package main

import (
	"context"
	"os"

	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/startup"
)

func main() {
	if err := startup.LoadDotEnv(getenv("ENV_FILE", ".env")); err != nil {
		logging.Warn("%v", err)
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
