package normalizer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gen2brain/go-fitz"
)

// PDF原生分辨率为72DPI，渲染DPI = 72 * renderScale
const pdfBaseDPI = 72.0

// pageRenderer 按页产出位图。*fitz.Document 是生产实现，
// 截断/空文档/跳页逻辑对渲染后端保持中立。
type pageRenderer interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
}

var _ pageRenderer = (*fitz.Document)(nil)

// normalizePDF 打开PDF并交给 renderPages 渲染拼接
func (nm *Normalizer) normalizePDF(path string) (*CanonicalImage, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("打开PDF失败 (%s): %w", path, err)
	}
	defer doc.Close()

	return nm.renderPages(doc, path)
}

// renderPages 渲染文档的前 min(页数, maxPDFPages) 页并纵向拼接为一张图。
// 超出上限的页面静默丢弃（记录警告，不报错）；单页文档直接返回该页。
func (nm *Normalizer) renderPages(doc pageRenderer, path string) (*CanonicalImage, error) {
	totalPages := doc.NumPage()
	if totalPages == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	renderCount := totalPages
	if renderCount > nm.maxPDFPages {
		renderCount = nm.maxPDFPages
		nm.logger.Printf("[Normalizer] PDF共%d页，超出上限，仅处理前%d页: %s",
			totalPages, renderCount, path)
	}

	dpi := pdfBaseDPI * nm.renderScale
	pages := make([]*image.RGBA, 0, renderCount)
	for i := 0; i < renderCount; i++ {
		page, err := doc.ImageDPI(i, dpi)
		if err != nil {
			// 单页渲染失败不终止整个文档，跳过并继续
			nm.logger.Printf("[Normalizer] 第%d页渲染失败，已跳过: %v", i+1, err)
			continue
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: 所有页面渲染失败 (%s)", ErrEmptyDocument, path)
	}

	if len(pages) == 1 {
		return wrapAsCanonical(pages[0]), nil
	}

	return wrapAsCanonical(stitchPages(pages)), nil
}

// stitchPages 把多页图像自上而下拼接：画布宽取最宽页，高为各页之和，
// 白色填充背景，每页水平居中
func stitchPages(pages []*image.RGBA) *image.RGBA {
	maxWidth := 0
	totalHeight := 0
	for _, page := range pages {
		if w := page.Bounds().Dx(); w > maxWidth {
			maxWidth = w
		}
		totalHeight += page.Bounds().Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, maxWidth, totalHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := 0
	for _, page := range pages {
		w, h := page.Bounds().Dx(), page.Bounds().Dy()
		x := (maxWidth - w) / 2
		target := image.Rect(x, y, x+w, y+h)
		draw.Draw(canvas, target, page, page.Bounds().Min, draw.Src)
		y += h
	}
	return canvas
}
