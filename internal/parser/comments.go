package parser

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// CommentTable is the result of reading a device comment export.
type CommentTable struct {
	Comments map[string]string
	Skipped  int
}

// ReadComments reads a comment table: column 0 is the device key, column 1
// the comment. Each row is tab-delimited when it contains a tab, otherwise
// comma-delimited. A first row naming both "device" and "comment" is a
// header. Rows without a key are skipped and counted.
func ReadComments(r io.Reader) (*CommentTable, error) {
	text, err := ReadText(r)
	if err != nil {
		return nil, fmt.Errorf("reading comments: %w", err)
	}
	return ParseComments(text), nil
}

// ReadCommentsFile opens path and reads it with ReadComments.
func ReadCommentsFile(path string) (*CommentTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadComments(file)
}

// ParseComments parses decoded comment text.
func ParseComments(text string) *CommentTable {
	table := &CommentTable{Comments: make(map[string]string)}
	first := true
	for _, line := range SplitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			if isCommentHeader(line) {
				continue
			}
		}

		cols := splitCommentRow(line)
		if len(cols) < 2 {
			table.Skipped++
			continue
		}
		key := CleanColumn(cols[0])
		if key == "" {
			table.Skipped++
			continue
		}
		table.Comments[key] = CleanColumn(cols[1])
	}
	return table
}

func splitCommentRow(line string) []string {
	if strings.Contains(line, "\t") {
		return scanColumns(line, "\t")
	}
	return scanColumns(line, ",")
}

func isCommentHeader(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "device") && strings.Contains(lower, "comment")
}
