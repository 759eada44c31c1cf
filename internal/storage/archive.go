package storage

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNotFound is returned when an archive lacks a requested backplane.
var ErrNotFound = errors.New("not found")

// Archive is a per-volume SQLite file of sampled backplanes.
type Archive struct {
	DB *sql.DB
}

// ObservationRecord describes one archived observation.
type ObservationRecord struct {
	ID       int64
	FileSpec string
	Basename string
	SCLK     string
	Target   string
	Rows     int
	Cols     int
	Bodies   []string // bodies in the field of view
}

// BackplaneRecord is one sampled quantity of an observation. A 0x0 shape is
// gridless.
type BackplaneRecord struct {
	ObservationID int64
	Key           string
	Rows          int
	Cols          int
	Values        []float64
	Mask          []bool // nil when nothing is excluded
}

// OpenArchive opens (or creates) the archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	a := &Archive{DB: db}
	if err := a.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
            id INTEGER PRIMARY KEY,
            file_spec TEXT NOT NULL,
            basename TEXT NOT NULL,
            sclk TEXT,
            target TEXT,
            n_rows INTEGER NOT NULL,
            n_cols INTEGER NOT NULL,
            bodies TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS backplanes (
            observation_id INTEGER NOT NULL,
            plane_key TEXT NOT NULL,
            n_rows INTEGER NOT NULL,
            n_cols INTEGER NOT NULL,
            vals BLOB NOT NULL,
            mask BLOB,
            PRIMARY KEY (observation_id, plane_key)
        );`,
		`CREATE TABLE IF NOT EXISTS bodies (
            name TEXT PRIMARY KEY
        );`,
	}
	for _, stmt := range stmts {
		if _, err := a.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (a *Archive) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// PutObservation inserts an observation and returns its id.
func (a *Archive) PutObservation(rec ObservationRecord) (int64, error) {
	var res sql.Result
	var err error
	if rec.ID > 0 {
		res, err = a.DB.Exec(`INSERT OR REPLACE INTO observations (id, file_spec, basename, sclk, target, n_rows, n_cols, bodies) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.FileSpec, rec.Basename, rec.SCLK, rec.Target, rec.Rows, rec.Cols, strings.Join(rec.Bodies, ","))
	} else {
		res, err = a.DB.Exec(`INSERT INTO observations (file_spec, basename, sclk, target, n_rows, n_cols, bodies) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			rec.FileSpec, rec.Basename, rec.SCLK, rec.Target, rec.Rows, rec.Cols, strings.Join(rec.Bodies, ","))
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PutBackplane stores one sampled quantity.
func (a *Archive) PutBackplane(rec BackplaneRecord) error {
	n := rec.Rows * rec.Cols
	if n == 0 {
		n = 1
	}
	if len(rec.Values) != n {
		return fmt.Errorf("backplane %s: %d values for %dx%d", rec.Key, len(rec.Values), rec.Rows, rec.Cols)
	}
	if rec.Mask != nil && len(rec.Mask) != n {
		return fmt.Errorf("backplane %s: %d mask flags for %d values", rec.Key, len(rec.Mask), n)
	}
	_, err := a.DB.Exec(`INSERT OR REPLACE INTO backplanes (observation_id, plane_key, n_rows, n_cols, vals, mask) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.ObservationID, rec.Key, rec.Rows, rec.Cols, EncodeValues(rec.Values), EncodeMask(rec.Mask))
	return err
}

// PutBody registers a body name known to the archive's geometry.
func (a *Archive) PutBody(name string) error {
	_, err := a.DB.Exec(`INSERT OR IGNORE INTO bodies (name) VALUES (?);`, name)
	return err
}

// Observations lists archived observations in id order.
func (a *Archive) Observations() ([]ObservationRecord, error) {
	rows, err := a.DB.Query(`SELECT id, file_spec, basename, sclk, target, n_rows, n_cols, bodies FROM observations ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ObservationRecord
	for rows.Next() {
		var rec ObservationRecord
		var sclk, target, bodies sql.NullString
		if err := rows.Scan(&rec.ID, &rec.FileSpec, &rec.Basename, &sclk, &target, &rec.Rows, &rec.Cols, &bodies); err != nil {
			return nil, err
		}
		rec.SCLK, rec.Target = sclk.String, target.String
		if bodies.String != "" {
			rec.Bodies = strings.Split(bodies.String, ",")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Backplane loads one quantity of an observation.
func (a *Archive) Backplane(observationID int64, key string) (BackplaneRecord, error) {
	rec := BackplaneRecord{ObservationID: observationID, Key: key}
	var vals, mask []byte
	err := a.DB.QueryRow(`SELECT n_rows, n_cols, vals, mask FROM backplanes WHERE observation_id=? AND plane_key=?;`, observationID, key).
		Scan(&rec.Rows, &rec.Cols, &vals, &mask)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("backplane %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return rec, err
	}
	if rec.Values, err = DecodeValues(vals); err != nil {
		return rec, fmt.Errorf("backplane %s: %w", key, err)
	}
	rec.Mask = DecodeMask(mask)
	return rec, nil
}

// Bodies lists the registered body names.
func (a *Archive) Bodies() ([]string, error) {
	rows, err := a.DB.Query(`SELECT name FROM bodies ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// EncodeValues packs float64s little-endian.
func EncodeValues(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeValues unpacks EncodeValues output.
func DecodeValues(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("value blob of %d bytes", len(buf))
	}
	vals := make([]float64, len(buf)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vals, nil
}

// EncodeMask packs one byte per flag; nil stays nil.
func EncodeMask(mask []bool) []byte {
	if mask == nil {
		return nil
	}
	buf := make([]byte, len(mask))
	for i, b := range mask {
		if b {
			buf[i] = 1
		}
	}
	return buf
}

// DecodeMask unpacks EncodeMask output.
func DecodeMask(buf []byte) []bool {
	if len(buf) == 0 {
		return nil
	}
	mask := make([]bool, len(buf))
	for i, b := range buf {
		mask[i] = b != 0
	}
	return mask
}
