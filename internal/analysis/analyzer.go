// Package analysis runs read-only symbolic analyses over imported ladder
// programs: context extraction, related-device discovery, data-type
// inference, fault-coil tracing and device extraction from free text.
// Nothing here mutates the store.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/parser"
)

// DefaultContextLines is how many lines ProgramBlocks shows on each side of a hit.
const DefaultContextLines = 30

// Source is the read side of the data store the analyses need.
type Source interface {
	Programs() []models.ParsedProgram
	TryGetComment(device string) (string, bool)
}

// relatedTokenRegex finds device-like tokens near a hit.
var relatedTokenRegex = regexp.MustCompile(`(?i)[dwmxyct]\d+`)

// ProgramAnalyzer answers questions about where and how a device is used.
type ProgramAnalyzer struct {
	source Source
}

// NewProgramAnalyzer creates an analyzer over src.
func NewProgramAnalyzer(src Source) *ProgramAnalyzer {
	return &ProgramAnalyzer{source: src}
}

// ProgramBlock is the context around one line that mentions a device.
type ProgramBlock struct {
	Program   string   `json:"program"`
	MatchLine int      `json:"matchLine"`
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Lines     []string `json:"lines"`
}

// Text joins the rendered lines of the block.
func (b ProgramBlock) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Blocks returns, for every line containing class+address (case-insensitive
// substring), the lines within ±context of it, clamped to the file. Line
// numbers are 1-based. A negative context is treated as zero.
func (a *ProgramAnalyzer) Blocks(class, address string, context int) []ProgramBlock {
	if context < 0 {
		context = 0
	}
	token := strings.ToUpper(class + address)
	var blocks []ProgramBlock
	for _, prog := range a.source.Programs() {
		for i, line := range prog.Lines {
			if !containsToken(line.Raw, token) {
				continue
			}
			start := max(0, i-context)
			end := min(len(prog.Lines)-1, i+context)
			rendered := make([]string, 0, end-start+1)
			for j := start; j <= end; j++ {
				rendered = append(rendered, RenderLine(prog.Lines[j]))
			}
			blocks = append(blocks, ProgramBlock{
				Program:   prog.Name,
				MatchLine: i + 1,
				StartLine: start + 1,
				EndLine:   end + 1,
				Lines:     rendered,
			})
		}
	}
	return blocks
}

// ProgramBlocks is Blocks rendered as text, one string per hit.
func (a *ProgramAnalyzer) ProgramBlocks(class, address string, context int) []string {
	blocks := a.Blocks(class, address, context)
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text()
	}
	return out
}

// RenderLine joins the non-blank, quote-stripped columns with single
// spaces, falling back to the raw text when no column survives.
func RenderLine(line models.ProgramLine) string {
	parts := make([]string, 0, len(line.Columns))
	for _, c := range line.Columns {
		if cleaned := parser.CleanColumn(c); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return line.Raw
	}
	return strings.Join(parts, " ")
}

// RelatedDevices collects the distinct device tokens on every matching line
// and its immediate neighbours, excluding the device itself, sorted.
func (a *ProgramAnalyzer) RelatedDevices(class, address string) []string {
	token := strings.ToUpper(class + address)
	found := map[string]struct{}{}
	for _, prog := range a.source.Programs() {
		for i, line := range prog.Lines {
			if !containsToken(line.Raw, token) {
				continue
			}
			for j := max(0, i-1); j <= min(len(prog.Lines)-1, i+1); j++ {
				for _, m := range relatedTokenRegex.FindAllString(prog.Lines[j].Raw, -1) {
					m = strings.ToUpper(m)
					if m != token {
						found[m] = struct{}{}
					}
				}
			}
		}
	}

	related := make([]string, 0, len(found))
	for m := range found {
		related = append(related, m)
	}
	sort.Strings(related)
	return related
}

// Comment returns the comment of a device, or "" when there is none.
// Timers are also looked up under the un-aliased "T" class.
func (a *ProgramAnalyzer) Comment(class, address string) string {
	key := device.Key(class, address)
	if c, ok := a.source.TryGetComment(key); ok {
		return c
	}
	if strings.EqualFold(strings.TrimSpace(class), device.TimerClass) {
		if c, ok := a.source.TryGetComment("T" + strings.TrimSpace(address)); ok {
			return c
		}
	}
	return ""
}

// InferDeviceDataType guesses what a D or W register holds from the
// instructions that reference it. The first non-Unknown classification in
// program/line order wins; it is not a confidence ranking.
func (a *ProgramAnalyzer) InferDeviceDataType(class, address string) models.DeviceDataType {
	if !device.IsWordClass(class) {
		return models.DataTypeUnknown
	}
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(class+address) + `\b`)

	for _, prog := range a.source.Programs() {
		instruction := ""
		for _, line := range prog.Lines {
			if ins := parser.CleanColumn(line.Column(models.InstructionColumn)); ins != "" {
				instruction = ins
			}
			if !anyColumnMatches(line.Columns, pattern) {
				continue
			}
			if t := classifyInstruction(instruction); t != models.DataTypeUnknown {
				return t
			}
			if t := classifyColumns(line.Columns); t != models.DataTypeUnknown {
				return t
			}
		}
	}
	return models.DataTypeUnknown
}

func classifyInstruction(mnemonic string) models.DeviceDataType {
	u := strings.ToUpper(mnemonic)
	switch {
	case u == "":
		return models.DataTypeUnknown
	case strings.HasPrefix(u, "E"), strings.Contains(u, "FLT"), strings.Contains(u, "REAL"):
		return models.DataTypeFloat
	case strings.HasPrefix(u, "D") && !strings.HasPrefix(u, "DI"),
		strings.Contains(u, "DINT"), strings.Contains(u, "DWORD"):
		return models.DataTypeDoubleWord
	}
	return models.DataTypeUnknown
}

func classifyColumns(cols []string) models.DeviceDataType {
	for _, c := range cols {
		u := strings.ToUpper(c)
		switch {
		case strings.Contains(u, "REAL"), strings.Contains(u, "FLOAT"):
			return models.DataTypeFloat
		case strings.Contains(u, "DWORD"), strings.Contains(u, "DINT"):
			return models.DataTypeDoubleWord
		}
	}
	return models.DataTypeUnknown
}

func anyColumnMatches(cols []string, pattern *regexp.Regexp) bool {
	for _, c := range cols {
		if pattern.MatchString(c) {
			return true
		}
	}
	return false
}

func containsToken(raw, upperToken string) bool {
	return upperToken != "" && strings.Contains(strings.ToUpper(raw), upperToken)
}
