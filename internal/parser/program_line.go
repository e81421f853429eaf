// Package parser reads exported PLC files: ladder-program rows, device
// comment tables and function-block metadata.
package parser

import (
	"strings"

	"github.com/plc-assistant/backend/internal/models"
)

const programDelimiters = "\t,"

// ProgramParser tokenizes ladder-program rows into columns.
// Column strings are interned; mnemonics such as "LD" and "OUT" repeat on
// almost every row of a large export.
type ProgramParser struct {
	intern *StringIntern
}

// NewProgramParser creates a parser with its own intern pool.
func NewProgramParser() *ProgramParser {
	return &ProgramParser{intern: NewStringIntern()}
}

// Parse tokenizes one row. It never fails; an empty row yields no columns.
func (p *ProgramParser) Parse(line string) models.ProgramLine {
	if line == "" {
		return models.ProgramLine{Raw: "", Columns: []string{}}
	}
	cols := scanColumns(line, programDelimiters)
	if p != nil && p.intern != nil {
		for i, c := range cols {
			cols[i] = p.intern.Intern(c)
		}
	}
	return models.ProgramLine{Raw: line, Columns: cols}
}

// Reset empties the intern pool so strings from earlier imports can be
// collected.
func (p *ProgramParser) Reset() {
	p.intern.Clear()
}

// Interned returns how many distinct column strings are pooled.
func (p *ProgramParser) Interned() int {
	return p.intern.Len()
}

// ParseLines tokenizes every row of a program file, keeping row order.
func (p *ProgramParser) ParseLines(lines []string) []models.ProgramLine {
	out := make([]models.ProgramLine, len(lines))
	for i, l := range lines {
		out[i] = p.Parse(l)
	}
	return out
}

// ParseProgramLine tokenizes a row without interning.
func ParseProgramLine(line string) models.ProgramLine {
	var p *ProgramParser
	return p.Parse(line)
}

// scanColumns is a single-pass scanner: '"' toggles quoting, a doubled '""'
// inside quotes is a literal quote, any rune of delims ends a column outside
// quotes, and CR/LF are dropped. The last column is always flushed.
func scanColumns(line, delims string) []string {
	cols := make([]string, 0, 8)
	var cur strings.Builder
	quoted := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			quoted = !quoted
		case r == '\r' || r == '\n':
		case !quoted && strings.ContainsRune(delims, r):
			cols = append(cols, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(cols, cur.String())
}

// CleanColumn trims whitespace and surrounding quotes from a column.
func CleanColumn(col string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(col), `"`))
}
