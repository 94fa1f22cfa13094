// Package memory keeps the scanner inside its container memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from the MEMORY_LIMIT and
// MEMORY_RATIO environment variables (Kubernetes Downward API style) when
// GOMEMLIMIT itself is not set.
//
// A [Monitor] samples heap usage against that limit. Once usage crosses the
// critical watermark, scan workers calling [Monitor.Wait] are held until
// usage falls back under the high watermark. Without a known limit the
// monitor never pauses.
package memory
