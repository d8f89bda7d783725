package extractor

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// 低于该字符数的文本层视为无效（扫描件的PDF常带少量噪声文本）
const minUsableTextRunes = 120

// TextLayerExtractor 尝试直接读取PDF内嵌文本层。
// 有可用文本层的PDF可以跳过栅格化和视觉模型转录，这条捷径便宜几个数量级。
type TextLayerExtractor struct {
	parser *pdf.PDFParser
	logger *log.Logger
}

// TextLayerOption 提取器的配置选项
type TextLayerOption func(*TextLayerExtractor)

// WithTextLayerLogger 配置自定义日志记录器
func WithTextLayerLogger(logger *log.Logger) TextLayerOption {
	return func(e *TextLayerExtractor) {
		e.logger = logger
	}
}

// NewTextLayerExtractor 初始化PDF文本层提取器。
// 不按页面分割，直接取整个文档的连续文本。
func NewTextLayerExtractor(ctx context.Context, options ...TextLayerOption) (*TextLayerExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}

	extractor := &TextLayerExtractor{
		parser: p,
		logger: log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractText 从PDF文件读取内嵌文本层。
// 返回空字符串且无错误时表示该PDF没有可用的文本层。
func (e *TextLayerExtractor) ExtractText(ctx context.Context, filePath string) (string, error) {
	if strings.ToLower(filepath.Ext(filePath)) != ".pdf" {
		return "", nil
	}

	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("打开PDF文件失败 %s: %w", filePath, err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, file, einoParser.WithURI(filePath))
	if err != nil {
		return "", fmt.Errorf("PDF文本层解析失败 %s: %w", filePath, err)
	}

	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(doc.Content)
		if i < len(docs)-1 {
			sb.WriteString("\n\n")
		}
	}
	text := strings.TrimSpace(sb.String())

	if !usableText(text) {
		e.logger.Printf("[TextLayer] 文本层过短(%d字符)，判定为扫描件: %s", len([]rune(text)), filePath)
		return "", nil
	}

	e.logger.Printf("[TextLayer] 提取了%d个字符 (用时 %.2f秒): %s",
		len([]rune(text)), time.Since(startTime).Seconds(), filePath)
	return text, nil
}

// usableText 判断文本层是否足以替代视觉转录
func usableText(text string) bool {
	return len([]rune(text)) >= minUsableTextRunes
}
