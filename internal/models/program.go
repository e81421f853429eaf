// Package models contains domain types for the PLC assistant engine.
package models

// ProgramLine is one tokenized row of a ladder-program export.
type ProgramLine struct {
	Raw     string   `json:"raw"`
	Columns []string `json:"columns"`
}

// Column returns the column at idx, or "" when the row is shorter.
func (l ProgramLine) Column(idx int) string {
	if idx < 0 || idx >= len(l.Columns) {
		return ""
	}
	return l.Columns[idx]
}

// InstructionColumn is the conventional slot of the instruction mnemonic.
const InstructionColumn = 2

// ProgramFile is the raw import unit for a ladder program.
type ProgramFile struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// ParsedProgram is a named program after tokenization, lines in file order.
type ParsedProgram struct {
	Name  string        `json:"name"`
	Lines []ProgramLine `json:"lines"`
}
