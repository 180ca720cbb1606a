// Package db opens a read-only handle to the Things 3 store and locates it
// on disk. The schema is owned by the host application; nothing here ever
// writes to it.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const (
	groupContainer = "Library/Group Containers/JLMPQHK86H.com.culturedcode.ThingsMac"
	dataDirPrefix  = "ThingsData-"
	dbRelPath      = "Things Database.thingsdatabase/main.sqlite"
)

// Find locates the live Things 3 database under the user's home directory.
// The data directory carries an account-specific suffix, so the container is
// scanned for the first ThingsData-* entry.
func Find() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	baseDir := filepath.Join(home, groupContainer)
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("things container %s not found; is Things 3 installed?", baseDir)
		}
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), dataDirPrefix) {
			path := filepath.Join(baseDir, entry.Name(), dbRelPath)
			if _, err := os.Stat(path); err != nil {
				return "", fmt.Errorf("things database not found at %s", path)
			}
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s* directory under %s", dataDirPrefix, baseDir)
}

// Resolve picks the store path: explicit override first, then discovery.
func Resolve(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("database %s: %w", override, err)
		}
		return override, nil
	}
	return Find()
}

// Open opens the store read-only. The host keeps the database under WAL,
// so a busy timeout covers checkpoints happening while it is running.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open things database %s: %w", path, err)
	}
	return conn, nil
}

var (
	sharedMu   sync.Mutex
	sharedConn *sql.DB
	sharedPath string
)

// Shared returns a process-wide handle to the store, created on first use
// and reused for the life of the process. The mutex makes concurrent first
// use safe; the handle itself is safe for concurrent reads.
func Shared(path string) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedConn != nil && sharedPath == path {
		return sharedConn, nil
	}
	if sharedConn != nil {
		_ = sharedConn.Close()
		sharedConn = nil
	}
	conn, err := Open(path)
	if err != nil {
		return nil, err
	}
	sharedConn = conn
	sharedPath = path
	return conn, nil
}
