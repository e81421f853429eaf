package analysis

import (
	"fmt"
	"testing"

	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(programs map[string][]string, comments map[string]string) *store.PlcDataStore {
	s := store.New()
	files := make([]models.ProgramFile, 0, len(programs))
	for _, name := range []string{"MAIN", "SUB", "ALARM"} {
		if lines, ok := programs[name]; ok {
			files = append(files, models.ProgramFile{Name: name, Lines: lines})
		}
	}
	s.SetPrograms(files)
	s.SetComments(comments)
	return s
}

func TestProgramAnalyzer_Blocks(t *testing.T) {
	lines := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("%d,,LD,X%d", i, i))
	}
	lines[5] = `5,,MOV,"K10",d100`
	s := newTestStore(map[string][]string{"MAIN": lines}, nil)
	a := NewProgramAnalyzer(s)

	blocks := a.Blocks("D", "100", 2)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "MAIN", b.Program)
	assert.Equal(t, 6, b.MatchLine)
	assert.Equal(t, 4, b.StartLine)
	assert.Equal(t, 8, b.EndLine)
	assert.Equal(t, []string{"3 LD X3", "4 LD X4", "5 MOV K10 d100", "6 LD X6", "7 LD X7"}, b.Lines)

	t.Run("clamped to file bounds", func(t *testing.T) {
		texts := a.ProgramBlocks("X", "0", DefaultContextLines)
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "0 LD X0")
		assert.Contains(t, texts[0], "9 LD X9")
	})

	t.Run("no hit", func(t *testing.T) {
		assert.Empty(t, a.ProgramBlocks("M", "999", 5))
	})
}

func TestRenderLine(t *testing.T) {
	assert.Equal(t, "LD X0", RenderLine(models.ProgramLine{Raw: `"LD",,"X0"`, Columns: []string{`"LD"`, "", `"X0"`}}))
	assert.Equal(t, ",,", RenderLine(models.ProgramLine{Raw: ",,", Columns: []string{"", "", ""}}))
}

func TestProgramAnalyzer_RelatedDevices(t *testing.T) {
	s := newTestStore(map[string][]string{
		"MAIN": {
			"0,,LD,X0",
			"1,,AND,M5",
			"2,,OUT,Y20",
			"3,,LD,C4",
			"9,,LD,D7",
		},
	}, nil)
	a := NewProgramAnalyzer(s)

	got := a.RelatedDevices("Y", "20")
	assert.Equal(t, []string{"C4", "M5"}, got)

	assert.Empty(t, a.RelatedDevices("M", "404"))
}

func TestProgramAnalyzer_Comment(t *testing.T) {
	s := newTestStore(nil, map[string]string{"M10": "conveyor run", "T3": "start delay"})
	a := NewProgramAnalyzer(s)

	assert.Equal(t, "conveyor run", a.Comment("m", "10"))
	assert.Equal(t, "start delay", a.Comment("TS", "3"), "timer falls back to un-aliased key")
	assert.Equal(t, "", a.Comment("M", "11"))
}

func TestProgramAnalyzer_InferDeviceDataType(t *testing.T) {
	s := newTestStore(map[string][]string{
		"MAIN": {
			"0,,LD,M0",
			"1,,EMOV,D10,D20",
			"2,,DMOV,D30,D32",
			"3,,MOV,K1,D40",
			"4,,DIV,D50,K2,D52",
			"5,,MOV,D60,\"REAL value\"",
			"6,,,D70",
			"7,,MOV,D100,D200",
			"8,,DINT_TO_INT,D90,D91",
		},
		"SUB": {
			"0,,DMOVP,D40,D42",
		},
	}, nil)
	a := NewProgramAnalyzer(s)

	tests := []struct {
		class, address string
		want           models.DeviceDataType
	}{
		{"D", "10", models.DataTypeFloat},
		{"D", "30", models.DataTypeDoubleWord},
		{"D", "40", models.DataTypeDoubleWord},
		{"D", "50", models.DataTypeUnknown},
		{"D", "60", models.DataTypeFloat},
		{"D", "70", models.DataTypeUnknown},
		{"D", "90", models.DataTypeDoubleWord},
		{"D", "1", models.DataTypeUnknown},
		{"D", "999", models.DataTypeUnknown},
		{"M", "0", models.DataTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.class+tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, a.InferDeviceDataType(tt.class, tt.address))
		})
	}
}

func TestProgramAnalyzer_InferDeviceDataType_FirstHitWins(t *testing.T) {
	s := newTestStore(map[string][]string{
		"MAIN": {"0,,DMOV,D10,D12"},
		"SUB":  {"0,,EMOV,D10,D14"},
	}, nil)
	a := NewProgramAnalyzer(s)
	assert.Equal(t, models.DataTypeDoubleWord, a.InferDeviceDataType("D", "10"))
}

func TestDeviceDataTypeJSON(t *testing.T) {
	b, err := models.DataTypeFloat.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"Float"`, string(b))
}
