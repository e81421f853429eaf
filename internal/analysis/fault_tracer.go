package analysis

import (
	"regexp"
	"strings"

	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/parser"
)

// DefaultFaultKeywords mark a coil comment as an error/alarm coil.
var DefaultFaultKeywords = []string{"異常", "エラー", "ｴﾗｰ", "ERR", "ERROR"}

var (
	coilRegex       = regexp.MustCompile(`(?i)\bL[0-9a-f]+\b`)
	faultTokenRegex = regexp.MustCompile(`(?i)\b[dmxyctl][0-9a-f]+\b`)
)

// precedingLines is how many lines before a coil contribute related devices.
const precedingLines = 2

// FaultTracer finds latch coils driven by OUT whose comments name an error.
type FaultTracer struct {
	source   Source
	keywords []string
}

// NewFaultTracer creates a tracer using DefaultFaultKeywords.
func NewFaultTracer(src Source) *FaultTracer {
	return NewFaultTracerWithKeywords(src, DefaultFaultKeywords)
}

// NewFaultTracerWithKeywords creates a tracer with a custom keyword list.
func NewFaultTracerWithKeywords(src Source, keywords []string) *FaultTracer {
	upper := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			upper = append(upper, strings.ToUpper(k))
		}
	}
	return &FaultTracer{source: src, keywords: upper}
}

// TraceErrorCoils scans every OUT line for L coils with an error comment.
// Candidates follow scan order: program, then line, then coil position.
func (f *FaultTracer) TraceErrorCoils() models.FaultTraceReport {
	var candidates []models.FaultCandidate
	for _, prog := range f.source.Programs() {
		for i, line := range prog.Lines {
			instruction := parser.CleanColumn(line.Column(models.InstructionColumn))
			if !strings.EqualFold(instruction, "OUT") {
				continue
			}
			for _, coil := range uniqueUpper(coilRegex.FindAllString(line.Raw, -1)) {
				comment, ok := f.source.TryGetComment(coil)
				if !ok || !f.isFaultComment(comment) {
					continue
				}
				candidates = append(candidates, models.FaultCandidate{
					Device:         coil,
					Comment:        comment,
					Instruction:    instruction,
					Line:           line.Raw,
					Program:        prog.Name,
					LineNumber:     i + 1,
					RelatedDevices: relatedAround(prog.Lines, i, coil),
				})
			}
		}
	}

	if len(candidates) == 0 {
		return models.FaultTraceReport{
			Status:  models.FaultStatusNotFound,
			Message: "no OUT coil with an error comment was found",
		}
	}
	return models.FaultTraceReport{Status: models.FaultStatusSuccess, Candidates: candidates}
}

func (f *FaultTracer) isFaultComment(comment string) bool {
	upper := strings.ToUpper(comment)
	for _, k := range f.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// relatedAround scans the coil's line and the lines before it, in file order.
func relatedAround(lines []models.ProgramLine, idx int, coil string) []string {
	var tokens []string
	for j := max(0, idx-precedingLines); j <= idx; j++ {
		tokens = append(tokens, faultTokenRegex.FindAllString(lines[j].Raw, -1)...)
	}
	related := make([]string, 0, len(tokens))
	for _, t := range uniqueUpper(tokens) {
		if t != coil {
			related = append(related, t)
		}
	}
	return related
}

func uniqueUpper(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToUpper(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
