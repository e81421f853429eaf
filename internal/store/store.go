// Package store holds the imported PLC data: device comments, tokenized
// ladder programs and function-block metadata.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/parser"
)

// PlcDataStore is an explicitly owned, concurrency-safe store.
//
// Each collection is replaced wholesale: a Set* call builds the new
// collection off-lock and swaps it in under a short write lock. Collections
// are never mutated after the swap, so the views handed to readers stay
// valid. There is no cross-collection atomicity: a query that reads comments
// and programs during a reload can see one collection from the new import
// and the other from the old one.
type PlcDataStore struct {
	mu             sync.RWMutex
	comments       map[string]string
	programs       []models.ParsedProgram
	functionBlocks map[string]models.FunctionBlockData

	// parseMu serializes SetPrograms so a pool reset never races a parse.
	parseMu sync.Mutex
	parser  *parser.ProgramParser
}

// New creates an empty store.
func New() *PlcDataStore {
	return &PlcDataStore{
		comments:       map[string]string{},
		programs:       []models.ParsedProgram{},
		functionBlocks: map[string]models.FunctionBlockData{},
		parser:         parser.NewProgramParser(),
	}
}

// Clear empties every collection.
func (s *PlcDataStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = map[string]string{}
	s.programs = []models.ParsedProgram{}
	s.functionBlocks = map[string]models.FunctionBlockData{}
}

// SetComments replaces all comments. Keys and values are trimmed and entries
// with a blank key are dropped.
func (s *PlcDataStore) SetComments(comments map[string]string) {
	next := make(map[string]string, len(comments))
	for k, v := range comments {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		next[key] = strings.TrimSpace(v)
	}

	s.mu.Lock()
	s.comments = next
	s.mu.Unlock()
}

// SetPrograms replaces all programs, tokenizing every line. Files with a
// blank name are dropped; a repeated name replaces the earlier file in place.
func (s *PlcDataStore) SetPrograms(files []models.ProgramFile) {
	s.parseMu.Lock()
	defer s.parseMu.Unlock()
	s.parser.Reset()

	next := make([]models.ParsedProgram, 0, len(files))
	index := make(map[string]int, len(files))
	for _, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		prog := models.ParsedProgram{Name: name, Lines: s.parser.ParseLines(f.Lines)}
		if i, ok := index[name]; ok {
			next[i] = prog
			continue
		}
		index[name] = len(next)
		next = append(next, prog)
	}

	s.mu.Lock()
	s.programs = next
	s.mu.Unlock()
}

// SetFunctionBlocks replaces all function blocks, keyed case-insensitively by name.
func (s *PlcDataStore) SetFunctionBlocks(blocks []models.FunctionBlockData) {
	next := make(map[string]models.FunctionBlockData, len(blocks))
	for _, b := range blocks {
		key := functionBlockKey(b.Name)
		if key == "" {
			continue
		}
		next[key] = b
	}

	s.mu.Lock()
	s.functionBlocks = next
	s.mu.Unlock()
}

// TryGetComment looks up the comment of a device key.
func (s *PlcDataStore) TryGetComment(device string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[strings.TrimSpace(device)]
	return c, ok
}

// TryGetFunctionBlock looks up a function block by name, ignoring case.
func (s *PlcDataStore) TryGetFunctionBlock(name string) (models.FunctionBlockData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.functionBlocks[functionBlockKey(name)]
	return b, ok
}

// Comments returns the current comment map. Callers must not modify it.
func (s *PlcDataStore) Comments() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments
}

// Programs returns the current programs in import order. Callers must not modify them.
func (s *PlcDataStore) Programs() []models.ParsedProgram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.programs
}

// Program returns one program by name.
func (s *PlcDataStore) Program(name string) (models.ParsedProgram, bool) {
	for _, p := range s.Programs() {
		if p.Name == name {
			return p, true
		}
	}
	return models.ParsedProgram{}, false
}

// FunctionBlocks returns the current function blocks keyed by upper-cased
// name. Callers must not modify the map.
func (s *PlcDataStore) FunctionBlocks() map[string]models.FunctionBlockData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.functionBlocks
}

// FunctionBlockNames returns the original block names, sorted.
func (s *PlcDataStore) FunctionBlockNames() []string {
	blocks := s.FunctionBlocks()
	names := make([]string, 0, len(blocks))
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Stats reports the size of each collection.
func (s *PlcDataStore) Stats() models.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.StoreStats{
		Comments:       len(s.comments),
		Programs:       len(s.programs),
		FunctionBlocks: len(s.functionBlocks),
	}
	for _, p := range s.programs {
		stats.ProgramLines += len(p.Lines)
	}
	return stats
}

func functionBlockKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
