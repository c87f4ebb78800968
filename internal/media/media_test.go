package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectMimeType(t *testing.T) {
	data := pngBytes(t, 2, 2)
	assert.Equal(t, "image/png", DetectMimeType("", data))
	assert.Equal(t, "image/png", DetectMimeType("application/octet-stream", data))
	assert.Equal(t, "image/jpeg", DetectMimeType("IMAGE/JPEG; q=1", data))

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)
	assert.Equal(t, "image/svg+xml", DetectMimeType("", svg))
	assert.Equal(t, "text/plain", DetectMimeType("", []byte("just text")))
}

func TestDimensions(t *testing.T) {
	w, h, ok := Dimensions("image/png", pngBytes(t, 64, 32))
	assert.True(t, ok)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)

	_, _, ok = Dimensions("image/svg+xml", []byte("<svg/>"))
	assert.False(t, ok)

	_, _, ok = Dimensions("image/png", []byte("broken"))
	assert.False(t, ok)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "my_cat.png", SanitizeFileName("my cat.png"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "pic.jpg", SanitizeFileName(`C:\Users\me\pic.jpg`))
	assert.Equal(t, "image", SanitizeFileName(".."))
	assert.Equal(t, "a50.png", SanitizeFileName("a50%.png"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KiB", FormatFileSize(1536))
	assert.Equal(t, "5.0 MiB", FormatFileSize(5*1024*1024))
	assert.Equal(t, "2.0 GiB", FormatFileSize(2*1024*1024*1024))
}

func TestMarkdownImage(t *testing.T) {
	w, h := 640, 480
	assert.Equal(t, `![cat.png](http://x/cat.png width="640" height="480")`, MarkdownImage("cat.png", "http://x/cat.png", &w, &h))
	assert.Equal(t, `![cat.svg](http://x/cat.svg)`, MarkdownImage("cat.svg", "http://x/cat.svg", nil, nil))
	assert.Equal(t, `![a](u)`, MarkdownImage("a", "u", &w, nil))
}
