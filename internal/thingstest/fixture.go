// Package thingstest builds throwaway Things-shaped SQLite stores for tests.
// The live store is read-only and externally owned, so fixtures are the only
// place the schema is ever created by this codebase.
package thingstest

import (
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"thingslens/internal/dates"
	"thingslens/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Open creates a fresh fixture store in a temp directory and returns a
// writable handle for seeding. Tests point the read path at the same file.
func Open(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.sqlite")
	conn, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, path
}

// TaskSeed is one TMTask row. Zero values mean an incomplete, non-trashed
// action with no schedule, which is the common case in tests.
type TaskSeed struct {
	UUID           string
	Title          string
	Notes          string
	Trashed        bool
	Type           domain.TaskType
	Status         domain.Status
	Start          domain.Start
	Scheduled      *dates.Date
	Deadline       *dates.Date
	TodayReference *dates.Date
	TodayIndex     *int64
	CreationDate   float64
	StopDate       *float64
	Area           *string
	Project        *string
	Heading        *string
}

// InsertTask seeds one task row, encoding packed dates with codec.
func InsertTask(t *testing.T, conn *sql.DB, codec dates.Codec, seed TaskSeed) {
	t.Helper()
	trashed := 0
	if seed.Trashed {
		trashed = 1
	}
	_, err := conn.Exec(`INSERT INTO TMTask(uuid, trashed, type, status, title, notes, creationDate, start, startDate, deadline, todayIndex, todayIndexReferenceDate, stopDate, area, project, heading)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		seed.UUID, trashed, int(seed.Type), int(seed.Status), seed.Title, nullableText(seed.Notes), seed.CreationDate,
		int(seed.Start), packedOrNil(codec, seed.Scheduled), packedOrNil(codec, seed.Deadline),
		seed.TodayIndex, packedOrNil(codec, seed.TodayReference), seed.StopDate,
		seed.Area, seed.Project, seed.Heading)
	if err != nil {
		t.Fatalf("seed task %s: %v", seed.UUID, err)
	}
}

// InsertArea seeds one area row.
func InsertArea(t *testing.T, conn *sql.DB, uuid, title string, visible bool) {
	t.Helper()
	v := 0
	if visible {
		v = 1
	}
	if _, err := conn.Exec(`INSERT INTO TMArea(uuid, title, visible) VALUES (?,?,?)`, uuid, title, v); err != nil {
		t.Fatalf("seed area %s: %v", uuid, err)
	}
}

// TagTask creates a tag if needed and attaches it to a task.
func TagTask(t *testing.T, conn *sql.DB, taskUUID, tagUUID, tagTitle string) {
	t.Helper()
	if _, err := conn.Exec(`INSERT OR IGNORE INTO TMTag(uuid, title) VALUES (?,?)`, tagUUID, tagTitle); err != nil {
		t.Fatalf("seed tag %s: %v", tagUUID, err)
	}
	if _, err := conn.Exec(`INSERT INTO TMTaskTag(tasks, tags) VALUES (?,?)`, taskUUID, tagUUID); err != nil {
		t.Fatalf("attach tag %s: %v", tagUUID, err)
	}
}

// InsertChecklistItem seeds one checklist row owned by a task.
func InsertChecklistItem(t *testing.T, conn *sql.DB, uuid, taskUUID, title string, status domain.Status, stopDate float64) {
	t.Helper()
	if _, err := conn.Exec(`INSERT INTO TMChecklistItem(uuid, title, status, stopDate, task) VALUES (?,?,?,?,?)`,
		uuid, title, int(status), stopDate, taskUUID); err != nil {
		t.Fatalf("seed checklist item %s: %v", uuid, err)
	}
}

func packedOrNil(codec dates.Codec, d *dates.Date) any {
	if d == nil {
		return nil
	}
	return codec.Encode(*d)
}

func nullableText(v string) any {
	if v == "" {
		return nil
	}
	return v
}
