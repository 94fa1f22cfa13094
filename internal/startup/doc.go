// Package startup handles configuration loading and the startup/shutdown
// log sections of the server.
//
// # Configuration
//
// [LoadConfig] reads the environment, after filling unset variables from a
// .env file (or the file named by ENV_FILE):
//
//   - SCAN_ROOT: directory scanned at startup and periodically (default: none)
//   - SCAN_RECURSIVE: descend into subdirectories (default: true)
//   - SCAN_INTERVAL: periodic rescan interval, 0 disables (default: 1h)
//   - SCAN_WORKERS: per-file worker pool size (default: 2x GOMAXPROCS, max 16)
//   - SCAN_QUEUE_SIZE: bound of the discovery queue (default: 256)
//   - SCAN_SKIP_HIDDEN: skip dot files and directories (default: true)
//   - MAX_FILE_SIZE: larger files are recorded as io errors (default: 512MiB)
//   - DATABASE_DIR: directory holding images.db (default: ./data)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - API_RATE_LIMIT, API_RATE_BURST: per-client limit of the scan control
//     endpoints in requests per second (default: 1, burst 5; 0 disables)
//   - LOG_HEALTH_CHECKS: log health check requests (default: false)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//
// [FromEnv] does the same parsing without logging or directory checks and is
// what the CLI builds its flag defaults from.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed by
// [GetBuildInfo].
package startup
