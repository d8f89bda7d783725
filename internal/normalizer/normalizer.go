package normalizer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"resume-insight-go/internal/constants"

	// 注册图片解码器
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat 扩展名既不是已知图片类型也不是PDF
	ErrUnsupportedFormat = errors.New("不支持的文件格式")

	// ErrEmptyDocument PDF不含任何页面，或所有页面渲染失败
	ErrEmptyDocument = errors.New("文档没有可渲染的页面")
)

// 支持的图片扩展名
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// CanonicalImage 规范化后的单张RGB栅格图。
// 每次流水线调用恰好产生一张，转录完成后即可释放。
type CanonicalImage struct {
	Image  *image.RGBA
	Width  int
	Height int
}

// Normalizer 把任意输入文件（图片或多页PDF）规范化为一张 CanonicalImage
type Normalizer struct {
	maxPDFPages int
	renderScale float64
	logger      *log.Logger
}

// Option Normalizer 的配置选项
type Option func(*Normalizer)

// WithMaxPDFPages 设置PDF最多渲染的页数
func WithMaxPDFPages(n int) Option {
	return func(nm *Normalizer) {
		if n > 0 {
			nm.maxPDFPages = n
		}
	}
}

// WithRenderScale 设置PDF页面的渲染放大倍率
func WithRenderScale(scale float64) Option {
	return func(nm *Normalizer) {
		if scale > 0 {
			nm.renderScale = scale
		}
	}
}

// WithLogger 配置自定义日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(nm *Normalizer) {
		nm.logger = logger
	}
}

// New 创建 Normalizer，默认最多渲染3页、2倍放大
func New(options ...Option) *Normalizer {
	nm := &Normalizer{
		maxPDFPages: constants.DefaultMaxPDFPages,
		renderScale: constants.PDFRenderScale,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(nm)
	}
	return nm
}

// Normalize 把输入文件转成一张规范化的RGB栅格图。
// 图片直接解码并压成RGB；PDF渲染前 min(页数, maxPDFPages) 页后纵向拼接。
func (nm *Normalizer) Normalize(path string) (*CanonicalImage, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case ext == ".pdf":
		return nm.normalizePDF(path)
	case imageExtensions[ext]:
		return nm.normalizeImage(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// normalizeImage 直接打开图片文件并压成RGB（丢弃alpha/调色板）
func (nm *Normalizer) normalizeImage(path string) (*CanonicalImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开图片文件失败: %w", err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片失败 (%s): %w", path, err)
	}
	nm.logger.Printf("[Normalizer] 解码图片: %s 格式=%s 尺寸=%dx%d",
		path, format, src.Bounds().Dx(), src.Bounds().Dy())

	return wrapAsCanonical(toRGB(src)), nil
}

// toRGB 把任意 image.Image 绘制到白底RGBA画布上，丢弃透明通道
func toRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

func wrapAsCanonical(img *image.RGBA) *CanonicalImage {
	return &CanonicalImage{
		Image:  img,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
}
