package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-assistant/backend/internal/store"
)

func newService(comments map[string]string) *CommentSearchService {
	s := store.New()
	s.SetComments(comments)
	return NewCommentSearchService(s)
}

func TestSearch_ExactBeatsFuzzy(t *testing.T) {
	svc := newService(map[string]string{
		"D100": "コンベアモーター異音検知",
		"D200": "モータ異音",
		"M10":  "ポンプ停止",
	})

	results := svc.Search("モーター異音", DefaultMaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, "D100", results[0].Device)
	assert.Equal(t, "D200", results[1].Device)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Contains(t, results[0].MatchedTerms, "モーター異音")
	assert.Empty(t, results[1].MatchedTerms)

	fuzzyOnly := results[1].Score
	assert.GreaterOrEqual(t, fuzzyOnly, FuzzyWeight*FuzzyThreshold)
}

func TestSearch_DeviceMention(t *testing.T) {
	svc := newService(map[string]string{
		"M10": "ポンプ停止",
		"TS3": "起動遅延",
		"T3":  "搬送タイマー",
		"Y20": "ランプ",
	})

	results := svc.Search("what does m10 do", DefaultMaxResults)
	require.Len(t, results, 1)
	assert.Equal(t, "M10", results[0].Device)
	assert.InDelta(t, mentionBonus, results[0].Score, 1e-9)
	assert.Equal(t, []string{"M10"}, results[0].MatchedTerms)

	for _, tt := range []struct {
		question string
		want     string
	}{
		{"T3", "T3"},
		{"ts3", "TS3"},
	} {
		t.Run(tt.question, func(t *testing.T) {
			results := svc.Search(tt.question, DefaultMaxResults)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].Device)
			assert.InDelta(t, mentionBonus, results[0].Score, 1e-9)
		})
	}
}

func TestSearch_TokenPriority(t *testing.T) {
	svc := newService(map[string]string{
		"M1": "モーター 過負荷",
		"M2": "ポンプ 異音",
	})

	results := svc.Search("モーターの異音", DefaultMaxResults)
	require.Len(t, results, 2)
	// "モーター" appears before "異音" in the question, so it weighs more.
	assert.Equal(t, "M1", results[0].Device)
	assert.Equal(t, []string{"モーター"}, results[0].MatchedTerms)
	assert.Equal(t, []string{"異音"}, results[1].MatchedTerms)
}

func TestSearch_ClampAndTies(t *testing.T) {
	comments := make(map[string]string)
	for i := 0; i < 25; i++ {
		comments[fmt.Sprintf("M%d", i)] = fmt.Sprintf("PUMP %02d", i)
	}
	svc := newService(comments)

	assert.Len(t, svc.Search("pump", 100), MaxResultsLimit)

	one := svc.Search("pump", 0)
	require.Len(t, one, 1)
	assert.Equal(t, "M0", one[0].Device)

	assert.Empty(t, svc.Search("", 5))
	assert.Empty(t, svc.Search("zzz", 5))
}

func TestSuggestNames(t *testing.T) {
	names := []string{"MOTOR_CTRL", "PUMP_CTRL", "VALVE_SEQ"}

	got := SuggestNames("mtrctrl", names, 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "MOTOR_CTRL", got[0])
	assert.NotContains(t, got, "VALVE_SEQ")

	assert.Empty(t, SuggestNames("zzz", names, 3))
	assert.Empty(t, SuggestNames("", names, 3))
}
