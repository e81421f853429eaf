// Package loader reads exported PLC files from disk into the data store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/parser"
	"github.com/plc-assistant/backend/internal/store"
)

// ErrUnknownKind is returned for an import kind the store has no collection for.
var ErrUnknownKind = errors.New("unknown import kind")

// DefaultReadConcurrency bounds how many files are read at once.
const DefaultReadConcurrency = 4

// ImportHook runs after a successful import.
type ImportHook func(ctx context.Context, report models.ImportReport)

// Loader imports files into a store. Each Import replaces exactly one
// collection; files are read in parallel and applied in the order given.
type Loader struct {
	store       *store.PlcDataStore
	logger      *slog.Logger
	concurrency int

	mu    sync.RWMutex
	hooks []ImportHook
}

// New creates a loader writing into s.
func New(s *store.PlcDataStore, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:       s,
		logger:      logger.With("component", "loader"),
		concurrency: DefaultReadConcurrency,
	}
}

// OnImport registers a hook called after every successful import.
func (l *Loader) OnImport(hook ImportHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// File is one file to import. Name is the original file name; program
// names are derived from it. Path is where the content is read from.
type File struct {
	Name string
	Path string
}

// Import reads paths as kind and replaces that collection of the store.
// A file that cannot be read fails the whole import and leaves the store
// untouched; malformed rows inside a readable file are skipped and counted.
func (l *Loader) Import(ctx context.Context, kind models.ImportKind, paths []string) (models.ImportReport, error) {
	files := make([]File, len(paths))
	for i, p := range paths {
		files[i] = File{Name: filepath.Base(p), Path: p}
	}
	return l.ImportFiles(ctx, kind, files)
}

// ImportFiles is Import for files whose name differs from their path, such
// as uploads stored under generated IDs.
func (l *Loader) ImportFiles(ctx context.Context, kind models.ImportKind, files []File) (models.ImportReport, error) {
	report := models.ImportReport{Kind: kind, Files: len(files), StartedAt: time.Now()}
	if !kind.Valid() {
		return report, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var err error
	switch kind {
	case models.ImportComments:
		err = l.importComments(ctx, files, &report)
	case models.ImportPrograms:
		err = l.importPrograms(ctx, files, &report)
	case models.ImportFunctionBlocks:
		err = l.importFunctionBlocks(ctx, files, &report)
	}
	report.Elapsed = time.Since(report.StartedAt)
	metrics.ObserveImport(kind, err == nil, report.Skipped, report.Elapsed)
	if err != nil {
		l.logger.Warn("import failed", "kind", kind, "files", len(files), "error", err)
		return report, err
	}

	metrics.SetStoreStats(l.store.Stats())
	l.logger.Info("import complete",
		"kind", kind,
		"files", report.Files,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"elapsed", report.Elapsed)

	l.mu.RLock()
	hooks := append([]ImportHook(nil), l.hooks...)
	l.mu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, report)
	}
	return report, nil
}

// readAll runs read for every file with bounded parallelism. Results keep
// the order of files.
func readAll[T any](ctx context.Context, limit int, files []File, read func(File) (T, error)) ([]T, error) {
	out := make([]T, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := read(f)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that raced the last read still aborts the import.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) importComments(ctx context.Context, files []File, report *models.ImportReport) error {
	tables, err := readAll(ctx, l.concurrency, files, func(f File) (*parser.CommentTable, error) {
		return parser.ReadCommentsFile(f.Path)
	})
	if err != nil {
		return err
	}
	merged := make(map[string]string)
	for _, t := range tables {
		for k, v := range t.Comments {
			merged[k] = v
		}
		report.Skipped += t.Skipped
	}
	l.store.SetComments(merged)
	report.Imported = len(merged)
	return nil
}

func (l *Loader) importPrograms(ctx context.Context, files []File, report *models.ImportReport) error {
	programs, err := readAll(ctx, l.concurrency, files, readProgram)
	if err != nil {
		return err
	}
	l.store.SetPrograms(programs)
	for _, f := range programs {
		report.Imported += len(f.Lines)
	}
	return nil
}

type blockFile struct {
	blocks  []models.FunctionBlockData
	skipped int
}

func readProgram(f File) (models.ProgramFile, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return models.ProgramFile{}, err
	}
	defer file.Close()
	return parser.ReadProgram(parser.ProgramName(f.Name), file)
}

func (l *Loader) importFunctionBlocks(ctx context.Context, files []File, report *models.ImportReport) error {
	read, err := readAll(ctx, l.concurrency, files, func(f File) (blockFile, error) {
		blocks, skipped, err := parser.ReadFunctionBlocksFile(f.Path)
		return blockFile{blocks: blocks, skipped: skipped}, err
	})
	if err != nil {
		return err
	}
	var all []models.FunctionBlockData
	for _, f := range read {
		all = append(all, f.blocks...)
		report.Skipped += f.skipped
	}
	l.store.SetFunctionBlocks(all)
	report.Imported = len(all)
	return nil
}

// importOrder is the order ImportDirectory applies collections in.
var importOrder = []models.ImportKind{models.ImportComments, models.ImportPrograms, models.ImportFunctionBlocks}

// ImportDirectory classifies the regular files directly under dir and
// imports every kind that has at least one file. Hidden files are ignored.
func (l *Loader) ImportDirectory(ctx context.Context, dir string) ([]models.ImportReport, error) {
	return l.importDirectory(ctx, dir, false)
}

// SyncDirectory is ImportDirectory that also replaces kinds with no files
// left under dir, emptying their collections.
func (l *Loader) SyncDirectory(ctx context.Context, dir string) ([]models.ImportReport, error) {
	return l.importDirectory(ctx, dir, true)
}

func (l *Loader) importDirectory(ctx context.Context, dir string, all bool) ([]models.ImportReport, error) {
	groups, err := Classify(dir)
	if err != nil {
		return nil, err
	}
	var reports []models.ImportReport
	for _, kind := range importOrder {
		paths := groups[kind]
		if len(paths) == 0 && !all {
			continue
		}
		report, err := l.Import(ctx, kind, paths)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Classify groups the files directly under dir by import kind, sorted by path.
func Classify(dir string) (map[models.ImportKind][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	groups := make(map[models.ImportKind][]string)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		kind, err := parser.DetectKind(path)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", e.Name(), err)
		}
		groups[kind] = append(groups[kind], path)
	}
	for _, paths := range groups {
		sort.Strings(paths)
	}
	return groups, nil
}
