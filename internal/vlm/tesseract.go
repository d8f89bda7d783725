package vlm

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log"
	"strings"

	"resume-insight-go/internal/normalizer"

	"github.com/otiai10/gosseract/v2"
)

// TesseractTranscriber 本地Tesseract实现的 DocumentTranscriber。
// 没有加速器依赖，部署不了视觉模型的环境可以用它保底，
// 但对版面复杂的简历效果明显弱于视觉语言模型。
type TesseractTranscriber struct {
	languages     []string
	clientFactory func() *gosseract.Client
	logger        *log.Logger
}

// NewTesseractTranscriber 创建Tesseract转录器，languages 为空时使用引擎默认语言
func NewTesseractTranscriber(languages []string, logger *log.Logger) *TesseractTranscriber {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TesseractTranscriber{
		languages:     languages,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

// Transcribe 实现 DocumentTranscriber 接口
func (t *TesseractTranscriber) Transcribe(ctx context.Context, img *normalizer.CanonicalImage) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image); err != nil {
		return "", fmt.Errorf("编码图片失败: %w", err)
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("设置OCR图像失败: %w", err)
	}
	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("设置OCR语言失败: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("OCR识别失败: %w", err)
	}

	result := strings.TrimSpace(text)
	t.logger.Printf("[Tesseract] 识别完成: %d个字符", len([]rune(result)))
	return result, nil
}
