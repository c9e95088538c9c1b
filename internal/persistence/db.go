// Package persistence provides SQLite-based storage for generated
// maps and their generation reports.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/Vi1i/rust-harmony/internal/engine"
	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// DB wraps a SQLite connection for map storage.
type DB struct {
	conn    *sqlx.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// RunInfo summarizes one stored generation run.
type RunInfo struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Seed       int64     `db:"seed"`
	Radius     int       `db:"radius"`
	Structures int       `db:"structures"`
	CreatedAt  time.Time `db:"created_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, encoder: encoder, decoder: decoder}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.encoder.Close()
	db.decoder.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		radius INTEGER NOT NULL,
		structures INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id INTEGER PRIMARY KEY REFERENCES runs(id),
		cells BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS structures (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		structure_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		origin_q INTEGER NOT NULL,
		origin_r INTEGER NOT NULL,
		cells_json TEXT NOT NULL,
		PRIMARY KEY (run_id, structure_id)
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		code TEXT NOT NULL,
		rule TEXT NOT NULL,
		action INTEGER NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_structures_run ON structures(run_id);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// snapshot is the compressed cell payload stored per run.
type snapshot struct {
	Cells    []snapshotCell            `json:"cells"`
	Deposits map[string]map[string]int `json:"deposits,omitempty"`
	Features []*world.WaterFeature     `json:"water_features,omitempty"`
}

type snapshotCell struct {
	Q          int `json:"q"`
	R          int `json:"r"`
	Terrain    int `json:"t"`
	Elevation  int `json:"e"`
	WaterDepth int `json:"w,omitempty"`
}

func coordKey(c hexgrid.Coord) string {
	return fmt.Sprintf("%d,%d", c.Q, c.R)
}

func parseCoordKey(key string) (hexgrid.Coord, error) {
	var c hexgrid.Coord
	if _, err := fmt.Sscanf(key, "%d,%d", &c.Q, &c.R); err != nil {
		return c, fmt.Errorf("bad coord key %q: %w", key, err)
	}
	return c, nil
}

// SaveRun stores the full map and generation report as a new run and
// returns its ID.
func (db *DB) SaveRun(name string, seed int64, m *world.Map, report *engine.Report) (int64, error) {
	blob, err := db.encodeSnapshot(m)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (name, seed, radius, structures, created_at) VALUES (?, ?, ?, ?, ?)",
		name, seed, m.Radius, len(m.Structures), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec("INSERT INTO snapshots (run_id, cells) VALUES (?, ?)", runID, blob); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	for _, s := range m.Structures {
		cellsJSON, _ := json.Marshal(s.Cells)
		_, err := tx.Exec(`INSERT INTO structures
			(run_id, structure_id, name, type, origin_q, origin_r, cells_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, s.ID.String(), s.Name, s.Type, s.Origin.Q, s.Origin.R, string(cellsJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("insert structure %s: %w", s.ID, err)
		}
	}

	if report != nil {
		for _, d := range report.Diagnostics {
			_, err := tx.Exec(`INSERT INTO diagnostics
				(run_id, code, rule, action, pos_q, pos_r, detail)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, d.Code, d.Rule, d.Action, d.Coord.Q, d.Coord.R, d.Detail,
			)
			if err != nil {
				return 0, fmt.Errorf("insert diagnostic: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("run saved",
		"run_id", runID,
		"cells", m.CellCount(),
		"structures", len(m.Structures),
		"blob_bytes", len(blob))
	return runID, nil
}

func (db *DB) encodeSnapshot(m *world.Map) ([]byte, error) {
	snap := snapshot{Features: m.WaterFeatures}
	for _, cell := range m.CellsWithin(hexgrid.Coord{}, m.Radius) {
		snap.Cells = append(snap.Cells, snapshotCell{
			Q:          cell.Coord.Q,
			R:          cell.Coord.R,
			Terrain:    int(cell.Terrain),
			Elevation:  cell.Elevation,
			WaterDepth: cell.WaterDepth,
		})
	}
	if len(m.Deposits) > 0 {
		snap.Deposits = make(map[string]map[string]int, len(m.Deposits))
		for c, byRes := range m.Deposits {
			snap.Deposits[coordKey(c)] = byRes
		}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return db.encoder.EncodeAll(raw, nil), nil
}

// LoadMap reconstructs a stored run's map, including structures, water
// features, and deposits.
func (db *DB) LoadMap(runID int64) (*world.Map, error) {
	var radius int
	if err := db.conn.Get(&radius, "SELECT radius FROM runs WHERE id = ?", runID); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	var blob []byte
	if err := db.conn.Get(&blob, "SELECT cells FROM snapshots WHERE run_id = ?", runID); err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", runID, err)
	}

	raw, err := db.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	m := world.NewMap(radius)
	for _, sc := range snap.Cells {
		c := hexgrid.Coord{Q: sc.Q, R: sc.R}
		if err := m.SetCell(c, world.Terrain(sc.Terrain), sc.Elevation); err != nil {
			return nil, fmt.Errorf("restore cell %v: %w", c, err)
		}
		if sc.WaterDepth > 0 {
			m.Cell(c).WaterDepth = sc.WaterDepth
		}
	}
	for key, byRes := range snap.Deposits {
		c, err := parseCoordKey(key)
		if err != nil {
			return nil, err
		}
		for res, amount := range byRes {
			m.AddDeposit(c, res, amount)
		}
	}
	m.WaterFeatures = snap.Features

	rows, err := db.conn.Queryx(
		"SELECT structure_id, name, type, origin_q, origin_r, cells_json FROM structures WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("structures %d: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idStr, name, stype, cellsJSON string
			oq, or                        int
		)
		if err := rows.Scan(&idStr, &name, &stype, &oq, &or, &cellsJSON); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("structure id %q: %w", idStr, err)
		}
		var cells []hexgrid.Coord
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("structure %s cells: %w", idStr, err)
		}
		s := &world.Structure{
			ID:     id,
			Name:   name,
			Type:   stype,
			Origin: hexgrid.Coord{Q: oq, R: or},
			Cells:  cells,
		}
		if err := m.AddStructure(s); err != nil {
			return nil, fmt.Errorf("restore structure %s: %w", idStr, err)
		}
	}
	return m, rows.Err()
}

// ListRuns returns stored runs, newest first.
func (db *DB) ListRuns() ([]RunInfo, error) {
	var runs []RunInfo
	err := db.conn.Select(&runs,
		"SELECT id, name, seed, radius, structures, created_at FROM runs ORDER BY id DESC")
	return runs, err
}

// Diagnostics returns a run's stored diagnostics in recorded order.
func (db *DB) Diagnostics(runID int64) ([]engine.Diagnostic, error) {
	rows, err := db.conn.Queryx(
		"SELECT code, rule, action, pos_q, pos_r, detail FROM diagnostics WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Diagnostic
	for rows.Next() {
		var d engine.Diagnostic
		if err := rows.Scan(&d.Code, &d.Rule, &d.Action, &d.Coord.Q, &d.Coord.R, &d.Detail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
