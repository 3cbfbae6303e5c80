package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Extension - расширение файлов презентаций.
const Extension = ".pptx"

const (
	maxNameRunes    = 50
	fallbackName    = "presentation"
	timestampLayout = "20060102_150405"
)

// SafeTitle оставляет в заголовке буквы, цифры, пробелы, '-' и '_'
// и обрезает пробелы в конце.
func SafeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// Filename строит имя файла версии: {заголовок}_{YYYYMMDD_HHMMSS}.pptx.
// Пробелы заменяются на '_', заголовок обрезается до 50 символов.
func Filename(title string, now time.Time) string {
	name := strings.ReplaceAll(SafeTitle(title), " ", "_")
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	if name == "" {
		name = fallbackName
	}
	return fmt.Sprintf("%s_%s%s", name, now.Format(timestampLayout), Extension)
}

// DownloadName строит имя файла для скачивания: {заголовок}_v{n}.pptx.
func DownloadName(title string, versionNumber int) string {
	name := SafeTitle(title)
	if name == "" {
		name = fallbackName
	}
	return fmt.Sprintf("%s_v%d%s", name, versionNumber, Extension)
}
