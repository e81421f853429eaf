// Package persist saves the data store to a DuckDB file and restores it.
package persist

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/store"
)

// Options tune the DuckDB connection. Zero values keep DuckDB's defaults.
type Options struct {
	Threads     int
	MemoryLimit string
}

// Snapshot writes the whole store to a single DuckDB file. Each Save writes
// a fresh file next to the target and renames it into place, so a crash
// mid-save leaves the previous snapshot intact.
type Snapshot struct {
	path   string
	opts   Options
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSnapshot creates a snapshot at path.
func NewSnapshot(path string, opts Options, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshot{path: path, opts: opts, logger: logger.With("component", "snapshot")}
}

// Path returns the snapshot file location.
func (s *Snapshot) Path() string { return s.path }

var schema = []string{
	`CREATE TABLE comments (
		device  VARCHAR NOT NULL,
		comment VARCHAR NOT NULL
	)`,
	`CREATE TABLE programs (
		program_idx INTEGER NOT NULL,
		name        VARCHAR NOT NULL
	)`,
	`CREATE TABLE program_lines (
		program_idx INTEGER NOT NULL,
		line_no     INTEGER NOT NULL,
		raw         VARCHAR NOT NULL
	)`,
	`CREATE TABLE function_blocks (
		name            VARCHAR NOT NULL,
		safe_name       VARCHAR NOT NULL,
		label_content   VARCHAR,
		program_content VARCHAR,
		created_at      TIMESTAMP,
		updated_at      TIMESTAMP
	)`,
}

func (s *Snapshot) open(path string) (*sql.DB, error) {
	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		var pragmas []string
		if s.opts.MemoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", s.opts.MemoryLimit))
		}
		if s.opts.Threads > 0 {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", s.opts.Threads))
		}
		pragmas = append(pragmas, "PRAGMA enable_progress_bar=false")
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Save writes every collection of src to the snapshot file.
func (s *Snapshot) Save(ctx context.Context, src *store.PlcDataStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	removeDB(tmp)

	if err := s.write(ctx, tmp, src); err != nil {
		removeDB(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		removeDB(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	os.Remove(s.path + ".wal")

	stats := src.Stats()
	s.logger.Info("snapshot saved",
		"path", s.path,
		"comments", stats.Comments,
		"programLines", stats.ProgramLines,
		"functionBlocks", stats.FunctionBlocks,
		"elapsed", time.Since(start))
	return nil
}

func (s *Snapshot) write(ctx context.Context, path string, src *store.PlcDataStore) error {
	db, err := s.open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating snapshot tables: %w", err)
		}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return errors.New("unexpected driver connection type")
		}
		if err := appendRows(dConn, "comments", commentRows(src.Comments())); err != nil {
			return err
		}
		programs := src.Programs()
		if err := appendRows(dConn, "programs", programNameRows(programs)); err != nil {
			return err
		}
		if err := appendRows(dConn, "program_lines", programLineRows(programs)); err != nil {
			return err
		}
		return appendRows(dConn, "function_blocks", blockRows(src.FunctionBlocks()))
	})
}

func appendRows(conn *duckdb.Conn, table string, rows [][]driver.Value) error {
	appender, err := duckdb.NewAppenderFromConn(conn, "", table)
	if err != nil {
		return fmt.Errorf("creating %s appender: %w", table, err)
	}
	for i, row := range rows {
		if err := appender.AppendRow(row...); err != nil {
			appender.Close()
			return fmt.Errorf("appending %s row %d: %w", table, i, err)
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flushing %s: %w", table, err)
	}
	return nil
}

func commentRows(comments map[string]string) [][]driver.Value {
	keys := make([]string, 0, len(comments))
	for k := range comments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]driver.Value, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []driver.Value{k, comments[k]})
	}
	return rows
}

func programNameRows(programs []models.ParsedProgram) [][]driver.Value {
	rows := make([][]driver.Value, 0, len(programs))
	for pi, p := range programs {
		rows = append(rows, []driver.Value{int32(pi), p.Name})
	}
	return rows
}

func programLineRows(programs []models.ParsedProgram) [][]driver.Value {
	var rows [][]driver.Value
	for pi, p := range programs {
		for li, line := range p.Lines {
			rows = append(rows, []driver.Value{int32(pi), int32(li), line.Raw})
		}
	}
	return rows
}

func blockRows(blocks map[string]models.FunctionBlockData) [][]driver.Value {
	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]driver.Value, 0, len(keys))
	for _, k := range keys {
		b := blocks[k]
		rows = append(rows, []driver.Value{
			b.Name, b.SafeName, b.LabelContent, b.ProgramContent,
			nullableTime(b.CreatedAt), nullableTime(b.UpdatedAt),
		})
	}
	return rows
}

func nullableTime(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Load restores dst from the snapshot. It reports false when no snapshot
// exists yet; dst is then left untouched.
func (s *Snapshot) Load(ctx context.Context, dst *store.PlcDataStore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking snapshot: %w", err)
	}

	db, err := s.open(s.path)
	if err != nil {
		return false, err
	}
	defer db.Close()

	comments, err := loadComments(ctx, db)
	if err != nil {
		return false, err
	}
	programs, err := loadPrograms(ctx, db)
	if err != nil {
		return false, err
	}
	blocks, err := loadBlocks(ctx, db)
	if err != nil {
		return false, err
	}

	dst.SetComments(comments)
	dst.SetPrograms(programs)
	dst.SetFunctionBlocks(blocks)

	stats := dst.Stats()
	s.logger.Info("snapshot restored",
		"path", s.path,
		"comments", stats.Comments,
		"programs", stats.Programs,
		"functionBlocks", stats.FunctionBlocks)
	return true, nil
}

func loadComments(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT device, comment FROM comments")
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	comments := make(map[string]string)
	for rows.Next() {
		var device, comment string
		if err := rows.Scan(&device, &comment); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments[device] = comment
	}
	return comments, rows.Err()
}

func loadPrograms(ctx context.Context, db *sql.DB) ([]models.ProgramFile, error) {
	rows, err := db.QueryContext(ctx, "SELECT program_idx, name FROM programs ORDER BY program_idx")
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	var programs []models.ProgramFile
	index := make(map[int32]int)
	for rows.Next() {
		var idx int32
		var name string
		if err := rows.Scan(&idx, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		index[idx] = len(programs)
		programs = append(programs, models.ProgramFile{Name: name, Lines: []string{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := db.QueryContext(ctx, "SELECT program_idx, raw FROM program_lines ORDER BY program_idx, line_no")
	if err != nil {
		return nil, fmt.Errorf("querying program lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		var idx int32
		var raw string
		if err := lines.Scan(&idx, &raw); err != nil {
			return nil, fmt.Errorf("scanning program line: %w", err)
		}
		if i, ok := index[idx]; ok {
			programs[i].Lines = append(programs[i].Lines, raw)
		}
	}
	return programs, lines.Err()
}

func loadBlocks(ctx context.Context, db *sql.DB) ([]models.FunctionBlockData, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, safe_name, label_content, program_content, created_at, updated_at
		FROM function_blocks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying function blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.FunctionBlockData
	for rows.Next() {
		var b models.FunctionBlockData
		var label, program sql.NullString
		var created, updated sql.NullTime
		if err := rows.Scan(&b.Name, &b.SafeName, &label, &program, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning function block: %w", err)
		}
		b.LabelContent = label.String
		b.ProgramContent = program.String
		b.CreatedAt = timePtr(created)
		b.UpdatedAt = timePtr(updated)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func removeDB(path string) {
	os.Remove(path)
	os.Remove(path + ".wal")
}
