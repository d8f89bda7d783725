package analyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/types"
)

// commonSkills 本地比对使用的固定技能词表（语言、框架、基础设施工具）
var commonSkills = []string{
	"react", "vue", "angular", "typescript", "javascript", "html", "css", "tailwind",
	"python", "django", "flask", "node.js", "express", "java", "spring", "go",
	"sql", "mysql", "postgresql", "mongodb", "redis",
	"docker", "kubernetes", "k8s", "aws", "gcp", "azure", "ci/cd", "git", "linux",
}

// KeywordMatcher 无模型依赖的确定性关键字比对器。
// 这是整个系统的正确性下限：其他路径都可以降级到它，它自身没有失败模式。
type KeywordMatcher struct {
	patterns map[string]*regexp.Regexp
}

// NewKeywordMatcher 创建比对器并预编译全部词表模式。
// 模式要求技能词两侧是文本边界、空白或标点，避免"going"里匹配到"go"、
// "typescript"里匹配到"javascript"这类子串误报。
func NewKeywordMatcher() *KeywordMatcher {
	patterns := make(map[string]*regexp.Regexp, len(commonSkills))
	for _, skill := range commonSkills {
		pattern := `(?:^|[\s.,;(/])` + regexp.QuoteMeta(skill) + `(?:$|[\s.,;)/])`
		patterns[skill] = regexp.MustCompile(pattern)
	}
	return &KeywordMatcher{patterns: patterns}
}

// ExtractSkills 从文本中提取词表内出现过的技能，返回去重后的小写集合
func (m *KeywordMatcher) ExtractSkills(text string) map[string]bool {
	found := make(map[string]bool)
	if text == "" {
		return found
	}
	lower := strings.ToLower(text)
	for skill, pattern := range m.patterns {
		if pattern.MatchString(lower) {
			found[skill] = true
		}
	}
	return found
}

// AnalyzeGap 本地关键字比对：
// matching = JD技能 ∩ 履历技能，missing = JD技能 − 履历技能，
// score = round(100 * |matching| / |JD技能|)，JD无词表技能时为0
func (m *KeywordMatcher) AnalyzeGap(resumeText, jdText string) types.GapReport {
	resumeSkills := m.ExtractSkills(resumeText)
	jdSkills := m.ExtractSkills(jdText)

	matching := make([]string, 0)
	missing := make([]string, 0)
	for skill := range jdSkills {
		if resumeSkills[skill] {
			matching = append(matching, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matching)
	sort.Strings(missing)

	score := 0
	if len(jdSkills) > 0 {
		score = int(math.Round(100 * float64(len(matching)) / float64(len(jdSkills))))
	}

	return types.GapReport{
		MissingSkills:  missing,
		MatchingSkills: matching,
		Score:          score,
		Source:         constants.GapSourceLocal,
	}
}
