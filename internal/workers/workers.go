package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "SCAN_WORKERS"

// MaxScanWorkers caps the scan pool; SQLite serializes writes anyway.
const MaxScanWorkers = 16

// Count returns multiplier workers per available CPU, at least 1 and at most
// limit (0 means no limit). A positive SCAN_WORKERS wins over the computation.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU sizes a pool for CPU-bound work.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes a pool for work that mostly waits on disk or network.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForScan sizes the ingestion worker pool.
func ForScan() int {
	return ForIO(MaxScanWorkers)
}
