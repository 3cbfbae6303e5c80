package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

// ContentType - MIME-тип готового документа.
const ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Размер холста 13.33x7.5 дюйма в EMU.
const (
	emuPerInch   = 914400
	SlideWidth   = 12192000
	SlideHeight  = 6858000
	firstSlideID = 256
	// rId1..rId5 заняты мастером, темой и служебными частями презентации.
	firstSlideRel = 6
)

// Фиксированная палитра.
const (
	colorPrimary   = "003366"
	colorSecondary = "007BBF"
	colorAccent    = "FF7F00"
	colorText      = "404040"
	colorLight     = "F5F5F5"
	colorWhite     = "FFFFFF"
)

const (
	alignLeft   = "l"
	alignCenter = "ctr"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

func inch(n int64) int64 {
	return n * emuPerInch
}

func inchF(n float64) int64 {
	return int64(n * emuPerInch)
}

// part - одна часть OOXML-пакета: либо шаблон с данными, либо готовый текст.
type part struct {
	name string
	tmpl *template.Template
	data any
	raw  string
}

// palette передается в шаблон темы.
type palette struct {
	Primary, Secondary, Accent, Text, Light string
}

var deckPalette = palette{
	Primary:   colorPrimary,
	Secondary: colorSecondary,
	Accent:    colorAccent,
	Text:      colorText,
	Light:     colorLight,
}

var funcs = template.FuncMap{
	"xml":      escapeXML,
	"add":      func(a, b int) int { return a + b },
	"pts":      func(size int) int { return size * 100 }, //nolint:mnd // сотые доли пункта
	"w3cdtf":   func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"num":      func(i int) int { return i + 1 },
	"slideID":  func(i int) int { return i + firstSlideID },
	"slideRel": func(i int) int { return i + firstSlideRel },
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

var (
	contentTypesTmpl = mustParse("content_types", contentTypesXML)
	presentationTmpl = mustParse("presentation", presentationXML)
	presentationRels = mustParse("presentation_rels", presentationRelsXML)
	slideTmpl        = mustParse("slide", slideXML)
	coreTmpl         = mustParse("core", coreXML)
	appTmpl          = mustParse("app", appXML)
	themeTmpl        = mustParse("theme", themeXML)
)

// WritePPTX записывает колоду как пакет Office Open XML.
func WritePPTX(w io.Writer, deck Deck) error {
	zw := zip.NewWriter(w)

	parts := []part{
		{name: "[Content_Types].xml", tmpl: contentTypesTmpl, data: deck},
		{name: "_rels/.rels", raw: rootRelsXML},
		{name: "docProps/core.xml", tmpl: coreTmpl, data: deck},
		{name: "docProps/app.xml", tmpl: appTmpl, data: deck},
		{name: "ppt/presentation.xml", tmpl: presentationTmpl, data: deck},
		{name: "ppt/_rels/presentation.xml.rels", tmpl: presentationRels, data: deck},
		{name: "ppt/presProps.xml", raw: presPropsXML},
		{name: "ppt/viewProps.xml", raw: viewPropsXML},
		{name: "ppt/tableStyles.xml", raw: tableStylesXML},
		{name: "ppt/theme/theme1.xml", tmpl: themeTmpl, data: deckPalette},
		{name: "ppt/slideMasters/slideMaster1.xml", raw: slideMasterXML},
		{name: "ppt/slideMasters/_rels/slideMaster1.xml.rels", raw: slideMasterRelsXML},
		{name: "ppt/slideLayouts/slideLayout1.xml", raw: slideLayoutXML},
		{name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels", raw: slideLayoutRelsXML},
	}
	for i, s := range deck.Slides {
		parts = append(parts,
			part{name: fmt.Sprintf("ppt/slides/slide%d.xml", i+1), tmpl: slideTmpl, data: s},
			part{name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), raw: slideRelsXML},
		)
	}

	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("ошибка создания части %s: %w", p.name, err)
		}
		if p.tmpl == nil {
			_, err = io.WriteString(f, p.raw)
		} else {
			err = p.tmpl.Execute(f, p.data)
		}
		if err != nil {
			return fmt.Errorf("ошибка записи части %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("ошибка завершения пакета: %w", err)
	}
	return nil
}

// RenderPPTX возвращает документ целиком в памяти.
func RenderPPTX(deck Deck) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePPTX(&buf, deck); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var b strings.Builder
	// Запись в strings.Builder не возвращает ошибок.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
