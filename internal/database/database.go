package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/metrics"
	"ai-image-decoder/internal/model"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// FileName is the database file created inside the database directory.
const FileName = "images.db"

// ErrUnavailable reports that the database can no longer be reached.
var ErrUnavailable = errors.New("database unavailable")

var log = logging.New("db")

// Database is the SQLite store for images, their extracted metadata, tags
// and collections.
type Database struct {
	db     *sql.DB
	dbPath string

	// writeMu serializes write transactions; SQLite allows one writer.
	writeMu sync.Mutex
}

// Tx is a write transaction opened by BeginBatch.
type Tx struct {
	*sql.Tx
	start time.Time
}

// New opens (creating if needed) the database file at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	log.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		log.Warn("Database permission diagnostics: %v", err)
	}

	// WAL lets status queries read while a scan commits. _txlock=immediate
	// takes the write lock at BEGIN so busy_timeout applies to writers.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	log.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	file_name TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	format TEXT NOT NULL,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	hash TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	last_scanned_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_images_hash ON images(hash);

CREATE TABLE IF NOT EXISTS prompts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	image_id INTEGER NOT NULL UNIQUE,
	prompt_text TEXT NOT NULL,
	negative_prompt TEXT NOT NULL DEFAULT '',
	prompt_type TEXT NOT NULL,
	settings_json TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS extracted_fields (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	image_id INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	source TEXT NOT NULL,
	FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
	UNIQUE(image_id, key, source)
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	UNIQUE(name, category)
);

CREATE TABLE IF NOT EXISTS image_tags (
	image_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	confidence REAL NOT NULL,
	provenance TEXT NOT NULL,
	PRIMARY KEY (image_id, tag_id),
	FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_image_tags_tag ON image_tags(tag_id);

CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	parent_id INTEGER,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	FOREIGN KEY (parent_id) REFERENCES collections(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_collections_parent ON collections(parent_id);

CREATE TABLE IF NOT EXISTS collection_images (
	collection_id INTEGER NOT NULL,
	image_id INTEGER NOT NULL,
	PRIMARY KEY (collection_id, image_id),
	FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
	FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS scan_roots (
	path TEXT PRIMARY KEY,
	recursive INTEGER NOT NULL DEFAULT 1,
	last_scanned_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// schemaVersion is bumped whenever schema changes need a migration.
const schemaVersion = "1"

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	version, err := d.GetMetadata(ctx, metaSchemaVersion)
	if errors.Is(err, model.ErrNotFound) {
		log.Info("Initialized new schema (version %s)", schemaVersion)
		err = d.SetMetadata(ctx, metaSchemaVersion, schemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version != schemaVersion {
		err = fmt.Errorf("unsupported schema version %q (want %s)", version, schemaVersion)
	}
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Ping checks the database is still reachable. Failures wrap ErrUnavailable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var one int
	if err := d.db.QueryRowContext(ctx, "SELECT 1 FROM images LIMIT 1").Scan(&one); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// BeginBatch starts a write transaction. Writers are serialized until the
// matching EndBatch, which must always be called.
func (d *Database) BeginBatch(ctx context.Context) (*Tx, error) {
	d.writeMu.Lock()
	start := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		d.writeMu.Unlock()
		return nil, err
	}
	return &Tx{Tx: tx, start: start}, nil
}

// EndBatch commits the transaction, or rolls it back when err is non-nil.
func (d *Database) EndBatch(tx *Tx, err error) error {
	defer d.writeMu.Unlock()

	duration := time.Since(tx.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// observeQuery starts timing operation and returns the function that
// records it.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	log.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		log.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			log.Warn("%s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				log.Error("Failed to fix permissions on %s: %v", path, chmodErr)
			} else {
				log.Info("Fixed permissions on %s", path)
			}
		}
	}

	return nil
}
