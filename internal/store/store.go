// Package store persists the project registry and minion↔building
// assignments across server restarts. The simulation never blocks on it:
// writes are fire-and-forget from the tick driver's goroutine and failures
// degrade to log events.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Project is one scanned software project rendered as a building. Rows arrive
// already normalized from the external polling collaborator.
type Project struct {
	ID        string
	Name      string
	Theme     string
	OpenPRs   int
	UpdatedAt time.Time
}

// Store wraps the SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	theme      TEXT NOT NULL DEFAULT '',
	open_prs   INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assignments (
	minion_id   TEXT PRIMARY KEY,
	building_id TEXT NOT NULL
);
`

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertProject inserts or refreshes a project row.
func (s *Store) UpsertProject(p Project) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, theme, open_prs, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, theme=excluded.theme,
		 open_prs=excluded.open_prs, updated_at=excluded.updated_at`,
		p.ID, p.Name, p.Theme, p.OpenPRs, p.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", p.ID, err)
	}
	return nil
}

// Projects returns every stored project.
func (s *Store) Projects() ([]Project, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT id, name, theme, open_prs, updated_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		var updated int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Theme, &p.OpenPRs, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.UpdatedAt = time.Unix(updated, 0).UTC()
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SaveAssignment records that a minion works on a building.
func (s *Store) SaveAssignment(minionID, buildingID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO assignments (minion_id, building_id) VALUES (?, ?)
		 ON CONFLICT(minion_id) DO UPDATE SET building_id=excluded.building_id`,
		minionID, buildingID,
	)
	if err != nil {
		return fmt.Errorf("save assignment %s: %w", minionID, err)
	}
	return nil
}

// DeleteAssignment removes a minion's building assignment.
func (s *Store) DeleteAssignment(minionID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM assignments WHERE minion_id = ?`, minionID); err != nil {
		return fmt.Errorf("delete assignment %s: %w", minionID, err)
	}
	return nil
}

// Assignments returns the stored minion→building map.
func (s *Store) Assignments() (map[string]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT minion_id, building_id FROM assignments`)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	assignments := make(map[string]string)
	for rows.Next() {
		var minionID, buildingID string
		if err := rows.Scan(&minionID, &buildingID); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments[minionID] = buildingID
	}
	return assignments, rows.Err()
}
