// Package journal keeps an optional sqlite log of network sightings: which
// SSIDs were observed, how strong, and when. Observations only; credentials
// are never written here.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wifictl/wifictl/internal/session"
)

type Journal struct {
	db *sql.DB
}

// Open creates or opens the sighting database at path. ":memory:" works for
// tests.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sightings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ssid TEXT NOT NULL,
			bssid TEXT NOT NULL DEFAULT '',
			signal INTEGER,
			security TEXT,
			channel INTEGER,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL,
			UNIQUE(ssid, bssid)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sightings table: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record upserts one sighting per in-range entry. Out-of-range entries are
// skipped: a saved profile is not an observation.
func (j *Journal) Record(entries []session.Entry) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, e := range entries {
		if !e.InRange || e.SSID == "" {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO sightings (ssid, bssid, signal, security, channel, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ssid, bssid) DO UPDATE SET
				signal = excluded.signal,
				security = excluded.security,
				channel = excluded.channel,
				last_seen = excluded.last_seen`,
			e.SSID, e.BSSID, e.Signal, e.Security.String(), e.Channel, now, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record sighting for %q: %w", e.SSID, err)
		}
	}
	return tx.Commit()
}

// Sighting is one row of the journal.
type Sighting struct {
	SSID      string
	BSSID     string
	Signal    int
	Security  string
	Channel   int
	FirstSeen time.Time
	LastSeen  time.Time
}

// History returns sightings for one SSID, most recent first.
func (j *Journal) History(ssid string) ([]Sighting, error) {
	rows, err := j.db.Query(`
		SELECT ssid, bssid, signal, security, channel, first_seen, last_seen
		FROM sightings WHERE ssid = ? ORDER BY last_seen DESC`, ssid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sighting
	for rows.Next() {
		var s Sighting
		if err := rows.Scan(&s.SSID, &s.BSSID, &s.Signal, &s.Security, &s.Channel, &s.FirstSeen, &s.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ session.Recorder = (*Journal)(nil)
