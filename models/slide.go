package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSlides возвращается, когда данные слайдов не являются JSON-массивом.
var ErrMalformedSlides = errors.New("некорректный формат данных слайдов")

// SlideRecord описывает содержимое одного слайда.
type SlideRecord struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	BulletPoints []string `json:"bullet_points"`
}

// SlideList - упорядоченный набор слайдов, хранимый в БД как JSON.
// При чтении из БД некорректное содержимое превращается в пустой список.
type SlideList []SlideRecord

// ParseSlides разбирает поле slides_data из запроса.
// Верхний уровень обязан быть JSON-массивом (или объектом с ключом "slides"),
// иначе возвращается ErrMalformedSlides. Отсутствующие поля отдельных слайдов
// заменяются значениями по умолчанию.
func ParseSlides(raw string) (SlideList, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: пустое значение", ErrMalformedSlides)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		// Вложенная структура вида {"slides": [...]}
		var wrapped struct {
			Slides *[]json.RawMessage `json:"slides"`
		}
		if wErr := json.Unmarshal([]byte(trimmed), &wrapped); wErr != nil || wrapped.Slides == nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSlides, err)
		}
		items = *wrapped.Slides
	}

	slides := make(SlideList, 0, len(items))
	for _, item := range items {
		slides = append(slides, decodeSlide(item))
	}
	return slides, nil
}

// DecodeSlides - снисходительный вариант ParseSlides: при любой ошибке
// возвращает пустой список.
func DecodeSlides(data []byte) SlideList {
	slides, err := ParseSlides(string(data))
	if err != nil {
		return SlideList{}
	}
	return slides
}

func decodeSlide(raw json.RawMessage) SlideRecord {
	rec := SlideRecord{BulletPoints: []string{}}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Не объект - пустой слайд, чтобы количество слайдов не менялось
		return rec
	}
	rec.Title = decodeString(fields["title"])
	rec.Content = decodeString(fields["content"])
	rec.BulletPoints = decodeStrings(fields["bullet_points"])
	return rec
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeStrings(raw json.RawMessage) []string {
	result := []string{}
	if len(raw) == 0 {
		return result
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return result
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
		}
	}
	return result
}

// Value реализует driver.Valuer.
func (s SlideList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации слайдов: %w", err)
	}
	return string(data), nil
}

// Scan реализует sql.Scanner.
func (s *SlideList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = SlideList{}
	case []byte:
		*s = DecodeSlides(v)
	case string:
		*s = DecodeSlides([]byte(v))
	default:
		return fmt.Errorf("неподдерживаемый тип для SlideList: %T", src)
	}
	return nil
}

// StringList - список строк (пункты повестки), хранимый как JSON-массив.
type StringList []string

// ParseAgenda разбирает повестку: JSON-массив строк или текст, по пункту на строку.
// Некорректный JSON не считается ошибкой: значение трактуется как обычный текст.
func ParseAgenda(raw string) StringList {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StringList{}
	}

	text := raw
	var list []string
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		text = strings.Join(list, "\n")
	} else {
		var scalar any
		if json.Unmarshal([]byte(trimmed), &scalar) == nil {
			switch v := scalar.(type) {
			case string:
				text = v
			case float64, bool:
				text = fmt.Sprint(v)
			}
		}
	}

	items := StringList{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

// Value реализует driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации повестки: %w", err)
	}
	return string(data), nil
}

// Scan реализует sql.Scanner.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
	case []byte:
		*l = ParseAgenda(string(v))
	case string:
		*l = ParseAgenda(v)
	default:
		return fmt.Errorf("неподдерживаемый тип для StringList: %T", src)
	}
	return nil
}
