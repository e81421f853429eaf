package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Sample exports shared by loader, persistence and API tests.
const (
	SampleComments = "Device,Comment\n" +
		"M10,コンベア運転\n" +
		"L10,異常検知\n" +
		"D100,モーター異音\n" +
		"Y20,ランプ\n" +
		",no key\n"

	SampleProgram = "0,,LD,X0\n" +
		"1,,AND,M10\n" +
		"2,,OUT,Y20\n" +
		"3,,DMOV,K10,D100\n" +
		"4,,LD,X1\n" +
		"5,,OUT,L10\n"

	SampleFunctionBlocks = "functionBlocks:\n" +
		"  - name: MOTOR_CTRL\n" +
		"    labelContent: \"start,BOOL\"\n" +
		"    programContent: \"LD start\"\n" +
		"    createdAt: \"2024-01-02T03:04:05Z\"\n" +
		"  - name: PUMP_CTRL\n" +
		"  - safeName: orphan\n"
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// WriteSampleDir writes comments.csv, MAIN.csv and blocks.yaml into a fresh
// temporary directory and returns it.
func WriteSampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "comments.csv", SampleComments)
	WriteFile(t, dir, "MAIN.csv", SampleProgram)
	WriteFile(t, dir, "blocks.yaml", SampleFunctionBlocks)
	return dir
}
