package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/plc-assistant/backend/internal/models"
)

// ReadProgram reads a ladder-program export into a ProgramFile.
func ReadProgram(name string, r io.Reader) (models.ProgramFile, error) {
	text, err := ReadText(r)
	if err != nil {
		return models.ProgramFile{}, fmt.Errorf("reading program %s: %w", name, err)
	}
	return models.ProgramFile{Name: name, Lines: SplitLines(text)}, nil
}

// ProgramName derives a program name from a file name.
func ProgramName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
