package parser

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/plc-assistant/backend/internal/models"
)

// sampleLines is how many non-empty rows DetectKind inspects.
const sampleLines = 10

// DetectKind guesses which store collection a file belongs to.
// Names decide first: *comment* files are comment tables and .yaml/.yml/.json
// files are function blocks. Other files are sampled: when at least 60% of
// the first rows have exactly two columns the file is a comment table,
// otherwise a ladder program.
func DetectKind(path string) (models.ImportKind, error) {
	if kind, ok := KindFromName(path); ok {
		return kind, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	checked, twoColumn := 0, 0
	for scanner.Scan() && checked < sampleLines {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		checked++
		if len(splitCommentRow(line)) == 2 {
			twoColumn++
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if checked > 0 && float64(twoColumn)/float64(checked) >= 0.6 {
		return models.ImportComments, nil
	}
	return models.ImportPrograms, nil
}

// KindFromName classifies a file by name alone.
func KindFromName(path string) (models.ImportKind, bool) {
	base := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(base) {
	case ".yaml", ".yml", ".json":
		return models.ImportFunctionBlocks, true
	}
	if strings.Contains(base, "comment") {
		return models.ImportComments, true
	}
	return "", false
}
