// Package render превращает содержимое презентации в документ PPTX.
//
// Раскладка фиксирована: титульный слайд, слайд повестки (только если она
// не пуста), по одному слайду на каждую запись и завершающий слайд "Thank You".
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/maynagashev/slidedeck/models"
)

// SlideKind - тип слайда в колоде.
type SlideKind int

// Типы слайдов в порядке следования.
const (
	KindTitle SlideKind = iota
	KindAgenda
	KindContent
	KindClosing
)

func (k SlideKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindAgenda:
		return "agenda"
	case KindContent:
		return "content"
	case KindClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Тексты по умолчанию.
const (
	DefaultSlideTitle = "Slide Title"
	AgendaTitle       = "Agenda"
	ClosingTitle      = "Thank You"
)

// Metadata - сведения о презентации, необходимые для титульного слайда и повестки.
type Metadata struct {
	Title            string
	AuthorName       string
	AuthorDepartment string
	AgendaItems      []string
}

// Paragraph - абзац текста внутри текстового блока.
type Paragraph struct {
	Text       string
	Size       int    // Кегль в пунктах
	Bold       bool   //
	Color      string // RGB в hex без '#'
	Align      string // l, ctr
	SpaceAfter int    // Отступ после абзаца в пунктах
}

// TextBox - прямоугольный текстовый блок; координаты в EMU.
type TextBox struct {
	Name       string
	X, Y       int64
	W, H       int64
	Paragraphs []Paragraph
}

// Slide - один слайд колоды.
// Title и Lines описывают содержимое, Boxes - его размещение на холсте.
type Slide struct {
	Kind       SlideKind
	Title      string
	Lines      []string
	Background string // Цвет фона; пустая строка - фон мастера
	Boxes      []TextBox
}

// Deck - полностью размеченная колода, готовая к записи.
type Deck struct {
	Title   string
	Author  string
	Created time.Time
	Slides  []Slide
}

// BuildDeck раскладывает метаданные и записи слайдов по колоде.
// Функция чистая: результат зависит только от аргументов.
func BuildDeck(meta Metadata, slides []models.SlideRecord, now time.Time) Deck {
	deck := Deck{
		Title:   meta.Title,
		Author:  meta.AuthorName,
		Created: now,
		Slides:  make([]Slide, 0, len(slides)+3), //nolint:mnd // титульный, повестка, завершающий
	}

	deck.Slides = append(deck.Slides, titleSlide(meta, now))

	agenda := nonEmptyLines(meta.AgendaItems)
	if len(agenda) > 0 {
		deck.Slides = append(deck.Slides, agendaSlide(agenda))
	}

	for _, rec := range slides {
		deck.Slides = append(deck.Slides, contentSlide(rec))
	}

	deck.Slides = append(deck.Slides, closingSlide())
	return deck
}

func titleSlide(meta Metadata, now time.Time) Slide {
	subtitle := "Presented by: " + meta.AuthorName
	if meta.AuthorDepartment != "" {
		subtitle += " | " + meta.AuthorDepartment
	}
	date := "Date: " + now.Format("January 02, 2006")

	return Slide{
		Kind:       KindTitle,
		Title:      meta.Title,
		Lines:      []string{subtitle, date},
		Background: colorLight,
		Boxes: []TextBox{
			{
				Name: "Title", X: inch(1), Y: inch(2), W: inchF(11.33), H: inch(2),
				Paragraphs: []Paragraph{
					{Text: meta.Title, Size: 44, Bold: true, Color: colorPrimary, Align: alignCenter},
				},
			},
			{
				Name: "Subtitle", X: inch(1), Y: inchF(4.5), W: inchF(11.33), H: inchF(1.5),
				Paragraphs: []Paragraph{
					{Text: subtitle, Size: 18, Color: colorText, Align: alignCenter},
					{Text: date, Size: 18, Color: colorText, Align: alignCenter},
				},
			},
		},
	}
}

func agendaSlide(items []string) Slide {
	lines := make([]string, 0, len(items))
	paragraphs := make([]Paragraph, 0, len(items))
	for i, item := range items {
		line := fmt.Sprintf("%d. %s", i+1, item)
		lines = append(lines, line)
		paragraphs = append(paragraphs, Paragraph{Text: line, Size: 24, Color: colorText, Align: alignLeft, SpaceAfter: 12})
	}

	return Slide{
		Kind:  KindAgenda,
		Title: AgendaTitle,
		Lines: lines,
		Boxes: []TextBox{
			headerBox(AgendaTitle, 36),
			bodyBox(paragraphs),
		},
	}
}

func contentSlide(rec models.SlideRecord) Slide {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = DefaultSlideTitle
	}

	lines := nonEmptyLines(strings.Split(rec.Content, "\n"))
	for _, bullet := range rec.BulletPoints {
		if strings.TrimSpace(bullet) != "" {
			lines = append(lines, bullet)
		}
	}

	slide := Slide{
		Kind:  KindContent,
		Title: title,
		Lines: lines,
		Boxes: []TextBox{headerBox(title, 32)},
	}
	if len(lines) == 0 {
		return slide
	}

	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, Paragraph{Text: line, Size: 20, Color: colorText, Align: alignLeft, SpaceAfter: 6})
	}
	slide.Boxes = append(slide.Boxes, bodyBox(paragraphs))
	return slide
}

func closingSlide() Slide {
	return Slide{
		Kind:       KindClosing,
		Title:      ClosingTitle,
		Background: colorPrimary,
		Boxes: []TextBox{
			{
				Name: "Closing", X: inch(1), Y: inchF(2.5), W: inchF(11.33), H: inch(2),
				Paragraphs: []Paragraph{
					{Text: ClosingTitle, Size: 48, Bold: true, Color: colorWhite, Align: alignCenter},
				},
			},
		},
	}
}

func headerBox(text string, size int) TextBox {
	return TextBox{
		Name: "Title", X: inchF(0.5), Y: inchF(0.3), W: inchF(12.33), H: inchF(1.2),
		Paragraphs: []Paragraph{{Text: text, Size: size, Color: colorPrimary, Align: alignLeft}},
	}
}

func bodyBox(paragraphs []Paragraph) TextBox {
	return TextBox{
		Name: "Body", X: inchF(0.8), Y: inchF(1.7), W: inchF(11.73), H: inchF(5.3),
		Paragraphs: paragraphs,
	}
}

// nonEmptyLines обрезает пробелы и отбрасывает пустые строки.
func nonEmptyLines(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}
