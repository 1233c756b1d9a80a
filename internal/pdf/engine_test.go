package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/docforge/internal/capability"
	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/pdf/pdftest"
)

func TestEngine_LoadPageCount(t *testing.T) {
	e := NewEngine()

	n, err := e.PageCount(pdftest.Build(pdftest.Pages(3)...))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEngine_LoadRejectsGarbage(t *testing.T) {
	e := NewEngine()

	_, err := e.Load(nil)
	assert.Error(t, err)

	_, err = e.Load([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestEngine_RotationRoundTrip(t *testing.T) {
	e := NewEngine()
	doc, err := e.Load(pdftest.Build(pdftest.Page{Rotate: 90}, pdftest.Page{}))
	require.NoError(t, err)

	rot, err := doc.PageRotation(0)
	require.NoError(t, err)
	assert.Equal(t, 90, rot)

	require.NoError(t, doc.SetPageRotation(0, 450))
	require.NoError(t, doc.SetPageRotation(1, 270))
	assert.Error(t, doc.SetPageRotation(1, 45))
	assert.Error(t, doc.SetPageRotation(2, 90))

	out, err := e.Save(doc)
	require.NoError(t, err)

	reloaded, err := e.Load(out)
	require.NoError(t, err)
	r0, err := reloaded.PageRotation(0)
	require.NoError(t, err)
	r1, err := reloaded.PageRotation(1)
	require.NoError(t, err)
	assert.Equal(t, 90, r0)
	assert.Equal(t, 270, r1)
}

func TestEngine_PageSize(t *testing.T) {
	e := NewEngine()
	doc, err := e.Load(pdftest.Build(pdftest.Page{Width: 612, Height: 792}))
	require.NoError(t, err)

	w, h, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 612, w, 0.001)
	assert.InDelta(t, 792, h, 0.001)
}

func TestEngine_DrawRectangleSurvivesSave(t *testing.T) {
	e := NewEngine()
	doc, err := e.Load(pdftest.Build(pdftest.Pages(2)...))
	require.NoError(t, err)

	for i := 0; i < doc.PageCount(); i++ {
		require.NoError(t, doc.DrawRectangle(i, capability.Rect{X: 10, Y: 10, Width: 180, Height: 280}, capability.Black, 2))
	}
	d := doc.(*Document)
	dict, _, err := d.pageDict(0)
	require.NoError(t, err)
	refs, err := d.contentRefs(dict)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	out, err := e.Save(doc)
	require.NoError(t, err)

	reloaded, err := e.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.PageCount())
}

func TestRotate(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	red := color.RGBA{R: 255, A: 255}
	// bottom-left pixel
	src.Set(0, 1, red)

	tests := []struct {
		deg        int
		w, h       int
		redX, redY int
	}{
		{0, 4, 2, 0, 1},
		{90, 2, 4, 0, 0},
		{180, 4, 2, 3, 0},
		{270, 2, 4, 1, 3},
	}
	for _, tt := range tests {
		got, err := Rotate(src, tt.deg)
		require.NoError(t, err)
		assert.Equal(t, tt.w, got.Bounds().Dx(), "deg=%d", tt.deg)
		assert.Equal(t, tt.h, got.Bounds().Dy(), "deg=%d", tt.deg)
		r, _, _, _ := got.At(tt.redX, tt.redY).RGBA()
		assert.Equal(t, uint32(0xffff), r, "deg=%d", tt.deg)
	}

	_, err := Rotate(src, 45)
	assert.Error(t, err)
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := NewRenderer(nil)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	low, err := r.Encode(img, models.MIMEJPEG, 0.5)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(low))
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())

	_, err = r.Encode(img, "image/gif", 0.5)
	assert.Error(t, err)
}

func TestRenderer_OpenStripsIntrinsicRotation(t *testing.T) {
	r := NewRenderer(nil)
	doc, err := r.Open(pdftest.Build(pdftest.Page{Width: 100, Height: 200, Rotate: 90}, pdftest.Page{Width: 100, Height: 200}))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.PageCount())
	assert.Equal(t, 90, doc.PageRotation(0))
	assert.Equal(t, 0, doc.PageRotation(1))

	img, err := doc.RenderPage(0, 1.0, 0)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dy(), img.Bounds().Dx())

	img, err = doc.RenderPage(0, 1.0, 90)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}
