package parser

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/plc-assistant/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// functionBlockRecord mirrors one entry of a function-block export.
// JSON exports decode through the same path since YAML is a superset.
type functionBlockRecord struct {
	Name           string `yaml:"name"`
	SafeName       string `yaml:"safeName"`
	LabelContent   string `yaml:"labelContent"`
	ProgramContent string `yaml:"programContent"`
	CreatedAt      string `yaml:"createdAt"`
	UpdatedAt      string `yaml:"updatedAt"`
}

type functionBlockDocument struct {
	FunctionBlocks []functionBlockRecord `yaml:"functionBlocks"`
}

// ReadFunctionBlocks reads a YAML or JSON function-block export. The
// document is either a list of blocks or an object with a functionBlocks list.
// Entries without a name are skipped and counted.
func ReadFunctionBlocks(r io.Reader) ([]models.FunctionBlockData, int, error) {
	text, err := ReadText(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading function blocks: %w", err)
	}

	var records []functionBlockRecord
	if err := yaml.Unmarshal([]byte(text), &records); err != nil {
		var doc functionBlockDocument
		if docErr := yaml.Unmarshal([]byte(text), &doc); docErr != nil {
			return nil, 0, fmt.Errorf("parsing function blocks: %w", err)
		}
		records = doc.FunctionBlocks
	}

	blocks := make([]models.FunctionBlockData, 0, len(records))
	skipped := 0
	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			skipped++
			continue
		}
		safe := strings.TrimSpace(rec.SafeName)
		if safe == "" {
			safe = name
		}
		blocks = append(blocks, models.FunctionBlockData{
			Name:           name,
			SafeName:       safe,
			LabelContent:   rec.LabelContent,
			ProgramContent: rec.ProgramContent,
			CreatedAt:      parseTimestamp(rec.CreatedAt),
			UpdatedAt:      parseTimestamp(rec.UpdatedAt),
		})
	}
	return blocks, skipped, nil
}

// ReadFunctionBlocksFile opens path and reads it with ReadFunctionBlocks.
func ReadFunctionBlocksFile(path string) ([]models.FunctionBlockData, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()
	return ReadFunctionBlocks(file)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
