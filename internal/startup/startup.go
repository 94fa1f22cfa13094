package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/memory"
	"ai-image-decoder/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults for the scan settings.
const (
	DefaultScanInterval = time.Hour
	DefaultQueueSize    = 256
	DefaultMaxFileSize  = 512 << 20
	DefaultDatabaseDir  = "./data"
	DatabaseFileName    = "images.db"
)

// Config holds all application configuration
type Config struct {
	ScanRoot      string
	ScanRecursive bool
	ScanInterval  time.Duration
	ScanWorkers   int
	ScanQueueSize int
	SkipHidden    bool
	MaxFileSize   int64

	DatabaseDir     string
	DatabasePath    string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	// APIRateLimit is the steady rate, per client and second, of the
	// scan control endpoints. 0 disables limiting.
	APIRateLimit float64
	APIRateBurst int
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory (or at ENV_FILE) fills in variables
// that are not already set.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if err := LoadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		logging.Warn("  Failed to load env file: %v", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  SCAN_ROOT:           %s", displayOr(cfg.ScanRoot, "(none)"))
	logging.Info("  SCAN_RECURSIVE:      %v", cfg.ScanRecursive)
	logging.Info("  SCAN_INTERVAL:       %s", cfg.ScanInterval)
	logging.Info("  SCAN_WORKERS:        %d", cfg.ScanWorkers)
	logging.Info("  SCAN_QUEUE_SIZE:     %d", cfg.ScanQueueSize)
	logging.Info("  SCAN_SKIP_HIDDEN:    %v", cfg.SkipHidden)
	logging.Info("  MAX_FILE_SIZE:       %s", memory.FormatBytes(cfg.MaxFileSize))
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  API_RATE_LIMIT:      %g/s (burst %d)", cfg.APIRateLimit, cfg.APIRateBurst)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := PrepareDatabaseDir(cfg.DatabaseDir); err != nil {
		return nil, err
	}
	logging.Info("  [OK] Database directory is writable: %s", cfg.DatabaseDir)

	if cfg.ScanRoot != "" {
		if err := checkScanRoot(cfg.ScanRoot); err != nil {
			logging.Warn("  Scan root issue: %v", err)
		} else {
			logging.Info("  [OK] Scan root: %s", cfg.ScanRoot)
		}
	}

	return cfg, nil
}

// FromEnv reads the configuration without logging or touching the disk.
func FromEnv() (*Config, error) {
	maxSize, err := ParseByteSize(getEnv("MAX_FILE_SIZE", "512MiB"))
	if err != nil {
		logging.Warn("  Invalid MAX_FILE_SIZE, using default: 512MiB")
		maxSize = DefaultMaxFileSize
	}

	databaseDir, err := filepath.Abs(getEnv("DATABASE_DIR", DefaultDatabaseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	scanRoot := getEnv("SCAN_ROOT", "")
	if scanRoot != "" {
		if scanRoot, err = filepath.Abs(scanRoot); err != nil {
			return nil, fmt.Errorf("failed to resolve scan root: %w", err)
		}
	}

	cfg := &Config{
		ScanRoot:        scanRoot,
		ScanRecursive:   getEnvBool("SCAN_RECURSIVE", true),
		ScanInterval:    getEnvDuration("SCAN_INTERVAL", DefaultScanInterval),
		ScanWorkers:     getEnvInt("SCAN_WORKERS", workers.ForScan()),
		ScanQueueSize:   getEnvInt("SCAN_QUEUE_SIZE", DefaultQueueSize),
		SkipHidden:      getEnvBool("SCAN_SKIP_HIDDEN", true),
		MaxFileSize:     maxSize,
		DatabaseDir:     databaseDir,
		DatabasePath:    filepath.Join(databaseDir, DatabaseFileName),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
		APIRateLimit:    getEnvFloat("API_RATE_LIMIT", 1),
		APIRateBurst:    getEnvInt("API_RATE_BURST", 5),
	}
	return cfg, nil
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logging.Info("  Loaded environment from %s", path)
	return nil
}

// PrepareDatabaseDir creates dir if needed and checks it is writable.
func PrepareDatabaseDir(dir string) error {
	if err := ensureDirectory(dir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(dir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	return nil
}

// ParseByteSize parses sizes like "512MiB", "2GB", "1048576" or "64k".
// Binary suffixes count in powers of 1024, decimal ones in powers of 1000.
func ParseByteSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return int64(n), nil
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// LogMemoryConfig logs what memory.ConfigureFromEnv decided.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY")
	logging.Info("------------------------------------------------------------")
	if !result.Configured {
		logging.Info("  GOMEMLIMIT:      not configured")
		logging.Info("")
		return
	}
	logging.Info("  Source:          %s", result.Source)
	logging.Info("  GOMEMLIMIT:      %s", memory.FormatBytes(result.GoMemLimit))
	if result.ContainerLimit > 0 {
		logging.Info("  Container limit: %s (ratio %.2f)", memory.FormatBytes(result.ContainerLimit), result.Ratio)
	}
	logging.Info("")
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogCoordinatorInit logs the scan coordinator settings.
func LogCoordinatorInit(cfg *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCAN COORDINATOR")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Workers:         %d", cfg.ScanWorkers)
	logging.Info("  Queue size:      %d", cfg.ScanQueueSize)
	if cfg.ScanRoot == "" {
		logging.Info("  Periodic scans:  DISABLED (SCAN_ROOT not set)")
		return
	}
	if cfg.ScanInterval <= 0 {
		logging.Info("  Periodic scans:  DISABLED (startup scan only)")
		return
	}
	logging.Info("  Periodic scans:  every %v", cfg.ScanInterval)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    _    ___   ___                              ___                    _
   /_\  |_ _| |_ _|_ __  __ _ __ _ ___   ___   |   \ ___ __ ___  __| |___ _ _
  / _ \  | |   | || '  \/ _' / _' / -_) |___|  | |) / -_) _/ _ \/ _' / -_) '_|
 /_/ \_\|___| |___|_|_|_\__,_\__, \___|        |___/\___\__\___/\__,_\___|_|
                             |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func checkScanRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries (top level)", len(entries))
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid value for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations; "0" disables.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "0" {
		return 0
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid %s %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
