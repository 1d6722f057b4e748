package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"originality-bot/fingerprint"
	"originality-bot/utils"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// driverName is go-sqlite3 with the hamming_distance scalar function on every connection.
const driverName = "sqlite3_originality"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("hamming_distance", fingerprint.HexDistance, true)
		},
	})
}

// Store owns the text_hashes, image_hashes and scheduled_actions tables.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and ensures the schema.
func Open(dbPath string) (*Store, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	utils.Info("database", "open", zap.String("path", dbPath))
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func createTables(db *sql.DB) error {
	if err := createTextHashesTable(db); err != nil {
		return err
	}
	if err := createImageHashesTable(db); err != nil {
		return err
	}
	return createScheduledActionsTable(db)
}

func createTextHashesTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS text_hashes (
        author TEXT NOT NULL,
        message_id TEXT NOT NULL,
        digest TEXT NOT NULL,
        sent_at INTEGER NOT NULL
    );`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create text_hashes table: %w", err)
	}

	// The duplicate check depends on this index; it must exist.
	if _, err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_text_hashes_digest ON text_hashes(digest);"); err != nil {
		return fmt.Errorf("failed to create unique digest index: %w", err)
	}
	createIndexes(db, []string{
		"CREATE INDEX IF NOT EXISTS idx_text_hashes_message_id ON text_hashes(message_id);",
	})
	return nil
}

func createImageHashesTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS image_hashes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        structural_hash TEXT NOT NULL,
        color_hash TEXT NOT NULL,
        message_id TEXT NOT NULL,
        channel_id TEXT NOT NULL,
        guild_id TEXT NOT NULL
    );`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create image_hashes table: %w", err)
	}
	createIndexes(db, []string{
		"CREATE INDEX IF NOT EXISTS idx_image_hashes_message_id ON image_hashes(message_id);",
	})
	return nil
}

func createScheduledActionsTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS scheduled_actions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        due_at INTEGER NOT NULL,
        action TEXT NOT NULL,
        arguments TEXT NOT NULL
    );`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create scheduled_actions table: %w", err)
	}
	createIndexes(db, []string{
		"CREATE INDEX IF NOT EXISTS idx_scheduled_actions_due_at ON scheduled_actions(due_at);",
	})
	return nil
}

// createIndexes creates lookup indexes; failures only cost performance.
func createIndexes(db *sql.DB, indexes []string) {
	for _, indexQuery := range indexes {
		if _, err := db.Exec(indexQuery); err != nil {
			utils.Warn("database", "create index", zap.Error(err))
		}
	}
}
