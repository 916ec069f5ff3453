// Package store backs the CLI's search/investigate subcommands with a
// small SQLite-indexed history of ingested battle reports. Nothing in the
// core decode pipeline depends on this package — it is the domain-stack
// enrichment named in spec.md §4.10, entirely optional for every other
// consumer. See SPEC_FULL.md §4.10.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/navalreplay/analyzer/battle"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS battles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_path TEXT NOT NULL,
	winning_team INTEGER NOT NULL,
	battle_end_reason INTEGER NOT NULL,
	report_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS players (
	battle_id INTEGER NOT NULL REFERENCES battles(id),
	account_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	clan TEXT NOT NULL,
	team INTEGER NOT NULL,
	damage_dealt REAL NOT NULL,
	frags INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);
CREATE INDEX IF NOT EXISTS idx_players_clan ON players(clan);

CREATE TABLE IF NOT EXISTS frags (
	battle_id INTEGER NOT NULL REFERENCES battles(id),
	clock REAL NOT NULL,
	attacker_entity_id INTEGER NOT NULL,
	victim_entity_id INTEGER NOT NULL,
	cause TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat (
	battle_id INTEGER NOT NULL REFERENCES battles(id),
	clock REAL NOT NULL,
	sender_entity_id INTEGER NOT NULL,
	audience TEXT NOT NULL,
	text TEXT NOT NULL
);
`

// Index wraps a database/sql handle over a SQLite file holding ingested
// battle reports.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite index at path and ensures
// its schema exists.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: Open: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: Open: applying schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Ingest stores one battle.Report under sourcePath, returning its assigned
// battle id.
func Ingest(idx *Index, sourcePath string, report *battle.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("store: Ingest: marshaling report: %w", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: Ingest: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO battles (source_path, winning_team, battle_end_reason, report_json) VALUES (?, ?, ?, ?)`,
		sourcePath, report.WinningTeam, report.BattleEndReason, string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("store: Ingest: inserting battle: %w", err)
	}
	battleID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: Ingest: %w", err)
	}

	for _, p := range report.Players {
		if _, err := tx.Exec(
			`INSERT INTO players (battle_id, account_id, name, clan, team, damage_dealt, frags) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			battleID, p.AccountID, p.Name, p.Clan, p.Team, p.DamageDealt, p.Frags,
		); err != nil {
			return 0, fmt.Errorf("store: Ingest: inserting player %q: %w", p.Name, err)
		}
	}

	for _, v := range report.Vehicles {
		if v.Death == nil {
			continue
		}
		cause := ""
		if v.Death.Cause != nil {
			cause = v.Death.Cause.String()
		}
		if _, err := tx.Exec(
			`INSERT INTO frags (battle_id, clock, attacker_entity_id, victim_entity_id, cause) VALUES (?, ?, ?, ?, ?)`,
			battleID, v.Death.Clock, v.Death.Attacker, v.EntityID, cause,
		); err != nil {
			return 0, fmt.Errorf("store: Ingest: inserting frag: %w", err)
		}
	}

	for _, c := range report.Chat {
		audience := ""
		if c.Audience != nil {
			audience = c.Audience.String()
		}
		if _, err := tx.Exec(
			`INSERT INTO chat (battle_id, clock, sender_entity_id, audience, text) VALUES (?, ?, ?, ?, ?)`,
			battleID, c.Clock(), c.SenderID, audience, c.Text,
		); err != nil {
			return 0, fmt.Errorf("store: Ingest: inserting chat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: Ingest: %w", err)
	}
	return battleID, nil
}

// BattleSummary is one row of a Search result.
type BattleSummary struct {
	ID              int64
	SourcePath      string
	WinningTeam     int
	BattleEndReason int
}

// SearchFilter narrows Search by player name and/or clan; empty fields are
// not filtered on.
type SearchFilter struct {
	PlayerName string
	Clan       string
}

// Search returns every battle whose player roster matches filter.
func Search(idx *Index, filter SearchFilter) ([]BattleSummary, error) {
	query := `
		SELECT DISTINCT b.id, b.source_path, b.winning_team, b.battle_end_reason
		FROM battles b
		JOIN players p ON p.battle_id = b.id
		WHERE (? = '' OR p.name = ?) AND (? = '' OR p.clan = ?)
		ORDER BY b.id
	`
	rows, err := idx.db.Query(query, filter.PlayerName, filter.PlayerName, filter.Clan, filter.Clan)
	if err != nil {
		return nil, fmt.Errorf("store: Search: %w", err)
	}
	defer rows.Close()

	var out []BattleSummary
	for rows.Next() {
		var s BattleSummary
		if err := rows.Scan(&s.ID, &s.SourcePath, &s.WinningTeam, &s.BattleEndReason); err != nil {
			return nil, fmt.Errorf("store: Search: scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Investigate loads one battle's full Report back out by id.
func Investigate(idx *Index, battleID int64) (*battle.Report, error) {
	var reportJSON string
	err := idx.db.QueryRow(`SELECT report_json FROM battles WHERE id = ?`, battleID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: Investigate: no battle with id %d", battleID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: Investigate: %w", err)
	}

	var report battle.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("store: Investigate: unmarshaling report: %w", err)
	}
	return &report, nil
}
