// Package media определяет тип и размеры изображений и форматирует их для показа.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// DetectMimeType возвращает MIME-тип файла. Заявленный тип используется,
// если он конкретный; иначе тип определяется по содержимому.
func DetectMimeType(declared string, data []byte) string {
	mt := baseType(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	return baseType(mimetype.Detect(data).String())
}

func baseType(mt string) string {
	mt, _, _ = strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsRaster сообщает, можно ли получить размеры изображения этого типа.
func IsRaster(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// Dimensions читает ширину и высоту растрового изображения.
// ok == false для векторных и нераспознанных изображений.
func Dimensions(mimeType string, data []byte) (width, height int, ok bool) {
	if !IsRaster(mimeType) {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// SanitizeFileName оставляет только базовое имя файла без управляющих символов,
// пробелы заменяются подчёркиванием.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsControl(r), r == '/', r == '?', r == '#', r == '%':
			continue
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "image"
	}
	return out
}

// FormatFileSize — человекочитаемый размер: 512 B, 1.5 KiB, 4.8 MiB.
func FormatFileSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

// MarkdownImage строит markdown-вставку изображения.
// Размеры добавляются, только если известны оба.
func MarkdownImage(fileName, url string, width, height *int) string {
	attrs := ""
	if width != nil && height != nil && *width > 0 && *height > 0 {
		attrs = fmt.Sprintf(` width="%d" height="%d"`, *width, *height)
	}
	return fmt.Sprintf("![%s](%s%s)", fileName, url, attrs)
}
