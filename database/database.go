package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// initialisationTables holds the schema for the skullboard database. Every
// table carries guildId so a single database file can serve multiple servers.
var initialisationTables = []string{
	`CREATE TABLE IF NOT EXISTS posts (
        guildId TEXT NOT NULL,
        postId TEXT NOT NULL,
        userId TEXT NOT NULL,
        channelId TEXT NOT NULL,
        day INTEGER NOT NULL,
        frequency INTEGER NOT NULL,
        PRIMARY KEY (guildId, postId)
    );`,
	`CREATE TABLE IF NOT EXISTS hof (
        guildId TEXT NOT NULL,
        postId TEXT NOT NULL,
        userId TEXT NOT NULL,
        channelId TEXT NOT NULL,
        day INTEGER NOT NULL,
        frequency INTEGER NOT NULL,
        PRIMARY KEY (guildId, postId)
    );`,
	`CREATE TABLE IF NOT EXISTS users (
        guildId TEXT NOT NULL,
        userId TEXT NOT NULL,
        frequency INTEGER NOT NULL,
        PRIMARY KEY (guildId, userId)
    );`,
	`CREATE TABLE IF NOT EXISTS days (
        guildId TEXT NOT NULL,
        day INTEGER NOT NULL,
        bucket INTEGER NOT NULL,
        frequency INTEGER NOT NULL,
        PRIMARY KEY (guildId, day, bucket)
    );`,
	`CREATE TABLE IF NOT EXISTS alltime (
        guildId TEXT NOT NULL,
        bucket INTEGER NOT NULL,
        frequency INTEGER NOT NULL,
        PRIMARY KEY (guildId, bucket)
    );`,
	`CREATE TABLE IF NOT EXISTS settings (
        key TEXT NOT NULL,
        guildId TEXT NOT NULL DEFAULT '',
        value TEXT NOT NULL,
        PRIMARY KEY (key, guildId)
    );`,
}

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close() // Close the connection if table creation fails
		return nil, fmt.Errorf("failed to create skullboard tables: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return db, nil
}

// createTables creates the skullboard tables if they don't exist.
func createTables(db *sql.DB) error {
	for _, stmt := range initialisationTables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
