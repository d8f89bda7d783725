package normalizer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPNG 生成一张纯色PNG测试图
func writeTestPNG(t *testing.T, dir string, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func solidPage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNormalizeSingleImagePreservesDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "resume.png", 40, 30, color.RGBA{R: 200, G: 10, B: 10, A: 255})

	nm := New()
	canonical, err := nm.Normalize(path)
	require.NoError(t, err)

	assert.Equal(t, 40, canonical.Width)
	assert.Equal(t, 30, canonical.Height)
	require.NotNil(t, canonical.Image)

	r, g, b, a := canonical.Image.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), a, "规范化图像不应保留透明通道")
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
}

func TestNormalizeUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("純文字"), 0600))

	nm := New()
	_, err := nm.Normalize(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormalizeMissingFile(t *testing.T) {
	nm := New()
	_, err := nm.Normalize(filepath.Join(t.TempDir(), "nonexistent.png"))
	assert.Error(t, err)
}

func TestToRGBFlattensAlphaOntoWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 255}) // 不透明蓝
	src.Set(1, 1, color.NRGBA{A: 0})                       // 完全透明

	dst := toRGB(src)

	r, g, b, _ := dst.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r, "透明像素应压成白底")
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	_, _, b2, _ := dst.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), b2)
}

func TestStitchPagesDimensions(t *testing.T) {
	pages := []*image.RGBA{
		solidPage(10, 20, color.Black),
		solidPage(30, 40, color.Black),
		solidPage(20, 10, color.Black),
	}

	canvas := stitchPages(pages)
	assert.Equal(t, 30, canvas.Bounds().Dx(), "画布宽取最宽页")
	assert.Equal(t, 70, canvas.Bounds().Dy(), "画布高为各页之和")
}

func TestStitchPagesCentersNarrowPages(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	pages := []*image.RGBA{
		solidPage(10, 10, red),  // 窄页，应居中于宽30的画布: x=[10,20)
		solidPage(30, 10, blue), // 全宽页
	}

	canvas := stitchPages(pages)

	// 窄页左右的空白为白色
	r, g, b, _ := canvas.At(2, 5).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})

	// 居中区域是红色
	r, _, _, _ = canvas.At(15, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	// 第二页从y=10开始，整行蓝色
	_, _, b, _ = canvas.At(0, 15).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestNormalizeOptionDefaults(t *testing.T) {
	nm := New()
	assert.Equal(t, 3, nm.maxPDFPages)
	assert.Equal(t, 2.0, nm.renderScale)

	custom := New(WithMaxPDFPages(5), WithRenderScale(1.5))
	assert.Equal(t, 5, custom.maxPDFPages)
	assert.Equal(t, 1.5, custom.renderScale)

	ignored := New(WithMaxPDFPages(0), WithRenderScale(-1))
	assert.Equal(t, 3, ignored.maxPDFPages)
	assert.Equal(t, 2.0, ignored.renderScale)
}
