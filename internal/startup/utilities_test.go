package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"T", false, true},
		{"FALSE", true, false},
		{"0", true, false},
		{"yes", false, false},
		{"not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_INT_BAD", "-3")
	t.Setenv("TEST_FLOAT", "0.5")
	t.Setenv("TEST_FLOAT_BAD", "fast")

	if got := getEnvInt("TEST_INT", 4); got != 12 {
		t.Errorf("getEnvInt = %d, want 12", got)
	}
	if got := getEnvInt("TEST_INT_BAD", 4); got != 4 {
		t.Errorf("getEnvInt(negative) = %d, want default 4", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 1); got != 0.5 {
		t.Errorf("getEnvFloat = %v, want 0.5", got)
	}
	if got := getEnvFloat("TEST_FLOAT_BAD", 1); got != 1 {
		t.Errorf("getEnvFloat(bad) = %v, want default 1", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Hour},
		{"0", 0},
		{"15m", 15 * time.Minute},
		{"-5m", time.Hour},
		{"soon", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvDuration("TEST_DURATION", time.Hour); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1048576", 1 << 20, false},
		{"512MiB", 512 << 20, false},
		{"512MB", 512_000_000, false},
		{"64k", 64_000, false},
		{"64KiB", 64 << 10, false},
		{"2 GiB", 2 << 30, false},
		{"1.5GiB", 3 << 29, false},
		{"1T", 1_000_000_000_000, false},
		{"", 0, true},
		{"MiB", 0, true},
		{"12 parsecs", 0, true},
		{"-1MB", 0, true},
		{"9EiB", 0, true},
		{"99999999999T", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseByteSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func clearScanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCAN_ROOT", "SCAN_RECURSIVE", "SCAN_INTERVAL", "SCAN_WORKERS", "SCAN_QUEUE_SIZE",
		"SCAN_SKIP_HIDDEN", "MAX_FILE_SIZE", "DATABASE_DIR", "PORT", "METRICS_PORT",
		"METRICS_ENABLED", "API_RATE_LIMIT", "API_RATE_BURST", "LOG_HEALTH_CHECKS",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearScanEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	wantDir, _ := filepath.Abs(DefaultDatabaseDir)
	if cfg.ScanRoot != "" || !cfg.ScanRecursive || !cfg.SkipHidden {
		t.Errorf("scan defaults = %+v", cfg)
	}
	if cfg.ScanInterval != time.Hour || cfg.ScanQueueSize != 256 || cfg.ScanWorkers <= 0 {
		t.Errorf("coordinator defaults = %+v", cfg)
	}
	if cfg.MaxFileSize != 512<<20 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.DatabaseDir != wantDir || cfg.DatabasePath != filepath.Join(wantDir, "images.db") {
		t.Errorf("database paths = %s, %s", cfg.DatabaseDir, cfg.DatabasePath)
	}
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" || !cfg.MetricsEnabled {
		t.Errorf("server defaults = %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearScanEnv(t)
	root := t.TempDir()
	dbDir := t.TempDir()

	t.Setenv("SCAN_ROOT", root)
	t.Setenv("SCAN_RECURSIVE", "false")
	t.Setenv("SCAN_INTERVAL", "0")
	t.Setenv("SCAN_WORKERS", "3")
	t.Setenv("MAX_FILE_SIZE", "1GiB")
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("API_RATE_LIMIT", "0")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ScanRoot != root || cfg.ScanRecursive || cfg.ScanInterval != 0 || cfg.ScanWorkers != 3 {
		t.Errorf("scan settings = %+v", cfg)
	}
	if cfg.MaxFileSize != 1<<30 || cfg.DatabaseDir != dbDir || cfg.MetricsEnabled || cfg.APIRateLimit != 0 {
		t.Errorf("overrides = %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SCAN_WORKERS=7\nPORT=9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "8081")
	t.Setenv("SCAN_WORKERS", "")
	os.Unsetenv("SCAN_WORKERS")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("SCAN_WORKERS"); got != "7" {
		t.Errorf("SCAN_WORKERS = %q, want 7", got)
	}
	if got := os.Getenv("PORT"); got != "8081" {
		t.Errorf("PORT = %q, existing value must win", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) = %v, want nil", err)
	}
}

func TestPrepareDatabaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if err := PrepareDatabaseDir(dir); err != nil {
		t.Fatalf("PrepareDatabaseDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := PrepareDatabaseDir(file); err == nil {
		t.Error("PrepareDatabaseDir(file) = nil, want error")
	}
}

func TestCheckScanRoot(t *testing.T) {
	if err := checkScanRoot(t.TempDir()); err != nil {
		t.Errorf("checkScanRoot(dir) = %v", err)
	}
	if err := checkScanRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("checkScanRoot(missing) = nil, want error")
	}
}
