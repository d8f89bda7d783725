package analyzer

import (
	"fmt"
	"strings"
)

// 结构化分析的system message
const analyzerSystemPrompt = "你是一位資深的職涯顧問與履歷優化專家，擅長針對履歷內容給出專業、鼓勵人心但一針見血的分析。"

// resumeReportPromptTemplate 履历分析的严格JSON契约。
// 字段结构与前端消费的 AnalysisReport 一一对应，枚举值固定为中文。
const resumeReportPromptTemplate = `請針對以下履歷內容進行深度分析，並嚴格按照指定的JSON格式輸出。

**輸出格式要求：**
- 只輸出一個合法的JSON物件，禁止輸出Markdown代碼塊標記（如 ` + "```" + `）。
- 禁止在JSON結構之外輸出任何額外文字或解釋。
- 所有字段名和字符串值必須使用雙引號。

**JSON結構：**
{
  "analysis": {
    "score": 0-100的整數，履歷整體評分,
    "strengths": ["做得好的地方，2-3點"],
    "weaknesses": ["致命缺點或不夠好的地方，例如缺乏量化數據、排版混亂、技能描述模糊"],
    "overall_comment": "總評，語氣專業、鼓勵人心但針針見血"
  },
  "job_recommendations": [
    {"title": "適合的職位名稱", "reason": "推薦理由", "missing_skills": ["尚缺的技能"]}
  ],
  "project_recommendations": [
    {"name": "專案名稱", "difficulty": "易/中/難 三選一", "tech_stack": "技術棧", "description": "專案描述"}
  ],
  "learning_path": [
    {"topic": "學習主題", "resource": "推薦資源", "priority": "高/中/低 三選一", "url": "資源連結"}
  ]
}

以下是使用者的履歷內容：
"""
%s
"""`

// gapPromptTemplate 履历与JD的技能差距比对，只要求三个字段
const gapPromptTemplate = `You are an expert ATS (Applicant Tracking System) scanner.

Task: Compare the Candidate Resume with the Job Description (JD).

Candidate Resume:
"""
%s
"""

Job Description:
"""
%s
"""

Output Format: JSON only. Do not output markdown code blocks.
Structure:
{
    "missing_skills": ["skill1", "skill2"],
    "matching_skills": ["skill3", "skill4"],
    "score": 0-100 (integer, based on skill match percentage)
}

Rules:
1. Extract specific hard skills (tech stack, tools, languages).
2. "missing_skills" are skills required in JD but NOT found in Resume.
3. "matching_skills" are skills found in both.
4. Be strict but understand synonyms (e.g. "k8s" == "Kubernetes").
5. Translate output skills to English standard names (e.g. use "React" not "Reactjs").`

// projectsPromptTemplate 依据技能与兴趣生成side project灵感
const projectsPromptTemplate = `請根據使用者的技能與興趣，推薦3-5個適合的side project。

使用者技能：%s
使用者興趣：%s

**輸出格式要求：**
- 只輸出一個合法的JSON物件，禁止輸出Markdown代碼塊標記。
- 禁止在JSON結構之外輸出任何額外文字。

**JSON結構：**
{
  "projects": [
    {"name": "專案名稱", "difficulty": "易/中/難 三選一", "tech_stack": "建議技術棧", "description": "專案能解決什麼問題、怎麼做"}
  ]
}`

func buildResumeReportPrompt(resumeText string) string {
	return fmt.Sprintf(resumeReportPromptTemplate, resumeText)
}

func buildGapPrompt(resumeText, jdText string) string {
	return fmt.Sprintf(gapPromptTemplate, resumeText, jdText)
}

func buildProjectsPrompt(skills, interests []string) string {
	return fmt.Sprintf(projectsPromptTemplate,
		strings.Join(skills, ", "), strings.Join(interests, ", "))
}
