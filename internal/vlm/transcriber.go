package vlm

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/normalizer"
)

// 固定的转录指令：保留原始语言，不做翻译
const transcribeInstruction = "請將這份履歷轉錄為結構化文字。保留原始語言，不要翻譯。依版面順序輸出各區塊的標題與內容。"

// DocumentTranscriber 把规范化图像转成文字。
// 由视觉语言模型或本地OCR实现。
type DocumentTranscriber interface {
	Transcribe(ctx context.Context, img *normalizer.CanonicalImage) (string, error)
}

// Transcriber 驱动模型宿主完成转录。
// 转录失败以带类型的错误返回；历史接口里"把错误写进转录文本"的哨兵约定
// 只保留在JSON边界的渲染（见 SentinelText），内部不再混用。
type Transcriber struct {
	host         *Host
	maxNewTokens int
	logger       *log.Logger

	// 单加速器假设：并发推理会耗尽显存，所有生成调用串行执行
	inferMu sync.Mutex
}

// TranscriberOption Transcriber 的配置选项
type TranscriberOption func(*Transcriber)

// WithMaxNewTokens 设置生成的新token预算
func WithMaxNewTokens(n int) TranscriberOption {
	return func(t *Transcriber) {
		if n > 0 {
			t.maxNewTokens = n
		}
	}
}

// WithTranscriberLogger 配置自定义日志记录器
func WithTranscriberLogger(logger *log.Logger) TranscriberOption {
	return func(t *Transcriber) {
		t.logger = logger
	}
}

// NewTranscriber 创建转录器
func NewTranscriber(host *Host, options ...TranscriberOption) *Transcriber {
	t := &Transcriber{
		host:         host,
		maxNewTokens: constants.TranscribeMaxNewTokens,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Transcribe 把规范化图像转录为文字。
// 输出流的前缀是输入上下文的回显，解码前必须按输入token长度裁剪，
// 否则prompt本身会混进转录结果。
func (t *Transcriber) Transcribe(ctx context.Context, img *normalizer.CanonicalImage) (string, error) {
	if err := t.host.EnsureLoaded(ctx); err != nil {
		return "", err
	}
	engine := t.host.Engine()

	inputTokens, err := engine.RenderChat(ctx, transcribeInstruction, img.Image)
	if err != nil {
		return "", fmt.Errorf("渲染转录输入失败: %w", err)
	}

	t.inferMu.Lock()
	outputTokens, err := engine.Generate(ctx, inputTokens, t.maxNewTokens)
	t.inferMu.Unlock()
	if err != nil {
		if isDeviceError(err) {
			// CUDA类故障后主动回收显存池，避免后续请求雪崩
			if relErr := engine.ReleaseMemory(context.Background()); relErr != nil {
				t.logger.Printf("[Transcriber] 回收显存失败: %v", relErr)
			}
		}
		return "", fmt.Errorf("转录生成失败: %w", err)
	}

	// 只保留新生成的部分
	generated := outputTokens
	if len(outputTokens) >= len(inputTokens) {
		generated = outputTokens[len(inputTokens):]
	} else {
		t.logger.Printf("[Transcriber] 输出token数(%d)短于输入(%d)，跳过前缀裁剪",
			len(outputTokens), len(inputTokens))
	}

	text, err := engine.Decode(ctx, generated, true)
	if err != nil {
		return "", fmt.Errorf("解码转录结果失败: %w", err)
	}

	result := strings.TrimSpace(text)
	t.logger.Printf("[Transcriber] 转录完成: %d个token -> %d个字符", len(generated), len([]rune(result)))
	return result, nil
}

// SentinelText 把转录失败渲染为历史前端可识别的哨兵字符串。
// 只应在JSON边界使用；正文恰好包含同样文字的简历会被老前端误判，
// 这是遗留约定的缺陷，内部逻辑一律以错误值为准。
func SentinelText(err error) string {
	return constants.TranscriptErrorPrefix + err.Error()
}

// isDeviceError 识别CUDA/显存类故障
func isDeviceError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cuda") ||
		strings.Contains(msg, "out of memory") ||
		strings.Contains(msg, "device")
}
