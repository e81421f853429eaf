package models

import "time"

// ImportKind names the store collection an import replaces.
type ImportKind string

const (
	ImportComments       ImportKind = "comments"
	ImportPrograms       ImportKind = "programs"
	ImportFunctionBlocks ImportKind = "function_blocks"
)

// Valid reports whether k is a known kind.
func (k ImportKind) Valid() bool {
	switch k {
	case ImportComments, ImportPrograms, ImportFunctionBlocks:
		return true
	}
	return false
}

// ImportReport summarizes one import call.
type ImportReport struct {
	Kind      ImportKind    `json:"kind"`
	Files     int           `json:"files"`
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsedNs"`
	StartedAt time.Time     `json:"startedAt"`
}

// StoreStats reports collection sizes.
type StoreStats struct {
	Comments       int `json:"comments"`
	Programs       int `json:"programs"`
	ProgramLines   int `json:"programLines"`
	FunctionBlocks int `json:"functionBlocks"`
}
