package analyzer

import (
	"testing"

	"resume-insight-go/internal/constants"

	"github.com/stretchr/testify/assert"
)

func TestKeywordGapBasicCase(t *testing.T) {
	m := NewKeywordMatcher()

	report := m.AnalyzeGap("Python, React", "Must know Python and Docker")
	assert.Equal(t, []string{"python"}, report.MatchingSkills)
	assert.Equal(t, []string{"docker"}, report.MissingSkills)
	assert.Equal(t, 50, report.Score)
	assert.Equal(t, constants.GapSourceLocal, report.Source)
}

func TestKeywordBoundaryMatching(t *testing.T) {
	m := NewKeywordMatcher()

	// 子串不算命中
	assert.False(t, m.ExtractSkills("going to the store")["go"])
	assert.False(t, m.ExtractSkills("typescript expert")["javascript"])

	// 词边界、标点、斜杠两侧算命中
	assert.True(t, m.ExtractSkills("We use Go.")["go"])
	assert.True(t, m.ExtractSkills("backend (k8s) experience")["k8s"])
	assert.True(t, m.ExtractSkills("docker/kubernetes stack")["kubernetes"])
	assert.True(t, m.ExtractSkills("node.js developer")["node.js"])
	assert.True(t, m.ExtractSkills("CI/CD pipelines")["ci/cd"])
}

func TestKeywordGapCaseInsensitive(t *testing.T) {
	m := NewKeywordMatcher()

	report := m.AnalyzeGap("PYTHON and DOCKER", "python docker kubernetes")
	assert.Equal(t, []string{"docker", "python"}, report.MatchingSkills)
	assert.Equal(t, []string{"kubernetes"}, report.MissingSkills)
	assert.Equal(t, 67, report.Score) // round(100*2/3)
}

func TestKeywordGapNoVocabInJD(t *testing.T) {
	m := NewKeywordMatcher()

	report := m.AnalyzeGap("Python expert", "尋找有熱情的夥伴")
	assert.Empty(t, report.MatchingSkills)
	assert.Empty(t, report.MissingSkills)
	assert.Equal(t, 0, report.Score)
}

func TestExtractSkillsEmptyText(t *testing.T) {
	m := NewKeywordMatcher()
	assert.Empty(t, m.ExtractSkills(""))
}

func TestKeywordGapDeterministicOrder(t *testing.T) {
	m := NewKeywordMatcher()

	first := m.AnalyzeGap("", "go python docker redis mysql")
	second := m.AnalyzeGap("", "go python docker redis mysql")
	assert.Equal(t, first.MissingSkills, second.MissingSkills, "缺失技能列表必须有确定性排序")
}
