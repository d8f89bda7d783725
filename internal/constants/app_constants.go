package constants

import "time"

const (
	// 转录失败时对外展示的固定前缀。
	// 历史前端依赖在文本里识别这个前缀，仅用于JSON边界的兼容渲染，
	// 内部一律使用带类型的错误传递失败原因。
	TranscriptErrorPrefix = "【辨識失敗】"

	// 结构化分析解析失败时，降级报告里固定的 overall_comment 哨兵值
	DegradedOverallComment = "AI 回應解析失敗，請參考 raw_text 原始輸出"

	// GapReport 的来源标记
	GapSourceAI    = "AI Analysis"
	GapSourceLocal = "Local Keyword Match"

	// AnalyzeGap 的守卫阈值：JD 短于该长度时不调用模型，直接走本地比对
	MinJDLengthForAI = 10

	// PDF 规范化的默认上限与放大倍率
	DefaultMaxPDFPages = 3
	PDFRenderScale     = 2.0

	// 转录生成的新token预算
	TranscribeMaxNewTokens = 1500

	// 报告历史存储 (Redis)
	ReportKeyPrefix  = "report:"
	ReportHistoryTTL = 30 * 24 * time.Hour

	// 原始文件预签名下载链接的有效期
	DownloadURLExpiry = 15 * time.Minute
)
