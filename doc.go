// Command ai-image-decoder is the scanning server. It indexes the generation
// metadata embedded in AI-generated images (prompts, sampler settings,
// ComfyUI graphs) into a SQLite library and serves it over HTTP.
//
// Startup order:
//
//  1. GOMEMLIMIT from MEMORY_LIMIT / MEMORY_RATIO
//  2. environment configuration (see package startup)
//  3. metrics, filesystem retry observer and volume labels
//  4. SQLite database in DATABASE_DIR
//  5. scan coordinator, startup scan of SCAN_ROOT and periodic rescans
//  6. API server on PORT and Prometheus server on METRICS_PORT
//
// SIGINT or SIGTERM stops the HTTP servers, asks the running scan to stop
// after the files in flight and closes the database.
package main
