package imagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

const (
	// DriverModernc is the pure-Go SQLite driver name.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo SQLite driver name.
	DriverMattn = "sqlite3"
)

// sqliteTimeFormat is fixed-width so capture_time sorts lexically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteConfig configures the SQLite index.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3"
	// (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteIndex stores records in a SQLite table.
type SQLiteIndex struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteIndex opens (creating if needed) a SQLite index.
func NewSQLiteIndex(config SQLiteConfig) (*SQLiteIndex, error) {
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.Driver != DriverModernc && config.Driver != DriverMattn {
		return nil, errpolicy.NewConfigurationError("storage.sqlite_driver",
			fmt.Sprintf("unknown sqlite driver %q", config.Driver))
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, errpolicy.NewStorageError("open_index", config.Path, err)
	}
	// Index rewrites are serialized by the store; one connection avoids
	// SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "imagestore.sqlite"),
	}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	idx.logger.Info("SQLite index initialized",
		"path", config.Path,
		"driver", config.Driver,
	)
	return idx, nil
}

func (s *SQLiteIndex) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errpolicy.NewStorageError("enable_wal", s.config.Path, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return errpolicy.NewStorageError("set_busy_timeout", s.config.Path, err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return errpolicy.NewStorageError("create_schema", s.config.Path, err)
	}
	if _, err := s.db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
		return errpolicy.NewStorageError("record_schema_version", s.config.Path, err)
	}
	return nil
}

// Load implements Index.
func (s *SQLiteIndex) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, id, capture_time, file_size, width, height,
		       period, exposure, gain, weather_data, astronomy_data
		FROM images
		ORDER BY capture_time ASC, path ASC`)
	if err != nil {
		return nil, errpolicy.NewStorageError("read_index", s.config.Path, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errpolicy.NewStorageError("decode_index", s.config.Path, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errpolicy.NewStorageError("read_index", s.config.Path, err)
	}
	return records, nil
}

// Replace implements Index. The rewrite happens in one transaction.
func (s *SQLiteIndex) Replace(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errpolicy.NewStorageError("write_index", s.config.Path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM images"); err != nil {
		return errpolicy.NewStorageError("write_index", s.config.Path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (path, id, capture_time, file_size, width, height,
		                    period, exposure, gain, weather_data, astronomy_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errpolicy.NewStorageError("write_index", s.config.Path, err)
	}
	defer stmt.Close()

	for _, r := range records {
		weather, err := marshalNullable(r.Weather)
		if err != nil {
			return errpolicy.NewStorageError("encode_index", r.Path, err)
		}
		astronomy, err := marshalNullable(r.Astronomy)
		if err != nil {
			return errpolicy.NewStorageError("encode_index", r.Path, err)
		}
		_, err = stmt.ExecContext(ctx,
			r.Path, r.ID, r.CaptureTime.UTC().Format(sqliteTimeFormat), r.FileSize,
			r.Resolution.Width, r.Resolution.Height,
			r.Settings.Period, r.Settings.Exposure, r.Settings.Gain,
			weather, astronomy,
		)
		if err != nil {
			return errpolicy.NewStorageError("write_index", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errpolicy.NewStorageError("write_index", s.config.Path, err)
	}
	return nil
}

// Close implements Index.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r                  Record
		captureTime        string
		width, height      sql.NullInt64
		period             sql.NullString
		exposure, gain     sql.NullInt64
		weather, astronomy sql.NullString
	)
	err := row.Scan(&r.Path, &r.ID, &captureTime, &r.FileSize, &width, &height,
		&period, &exposure, &gain, &weather, &astronomy)
	if err != nil {
		return Record{}, err
	}

	r.CaptureTime, err = time.Parse(sqliteTimeFormat, captureTime)
	if err != nil {
		return Record{}, fmt.Errorf("invalid capture_time %q: %w", captureTime, err)
	}
	r.Resolution = Resolution{Width: int(width.Int64), Height: int(height.Int64)}
	r.Settings = ExposureSettings{Period: period.String, Exposure: int(exposure.Int64), Gain: int(gain.Int64)}

	if weather.Valid && weather.String != "" {
		if err := json.Unmarshal([]byte(weather.String), &r.Weather); err != nil {
			return Record{}, fmt.Errorf("invalid weather_data: %w", err)
		}
	}
	if astronomy.Valid && astronomy.String != "" {
		if err := json.Unmarshal([]byte(astronomy.String), &r.Astronomy); err != nil {
			return Record{}, fmt.Errorf("invalid astronomy_data: %w", err)
		}
	}
	return r, nil
}

func marshalNullable[T any](v map[string]T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
