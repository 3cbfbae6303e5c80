package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/slidedeck/models"
)

func TestParseSlides(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.SlideList
		wantErr  bool
	}{
		{
			name: "Полный массив слайдов",
			raw:  `[{"title":"Intro","content":"Hi\nThere","bullet_points":["a","b"]},{"title":"","content":"","bullet_points":[]}]`,
			expected: models.SlideList{
				{Title: "Intro", Content: "Hi\nThere", BulletPoints: []string{"a", "b"}},
				{Title: "", Content: "", BulletPoints: []string{}},
			},
		},
		{
			name:     "Пустой массив",
			raw:      `[]`,
			expected: models.SlideList{},
		},
		{
			name: "Отсутствующие и неверные поля получают значения по умолчанию",
			raw:  `[{"title":5,"bullet_points":"x"},"строка",{"content":"c","bullet_points":["ok",1]}]`,
			expected: models.SlideList{
				{BulletPoints: []string{}},
				{BulletPoints: []string{}},
				{Content: "c", BulletPoints: []string{"ok"}},
			},
		},
		{
			name:     "Вложенная структура со slides",
			raw:      `{"slides":[{"title":"A"}]}`,
			expected: models.SlideList{{Title: "A", BulletPoints: []string{}}},
		},
		{name: "Некорректный JSON", raw: `[{"title":`, wantErr: true},
		{name: "Объект без slides", raw: `{"title":"A"}`, wantErr: true},
		{name: "Скаляр", raw: `42`, wantErr: true},
		{name: "Пустая строка", raw: `  `, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slides, err := models.ParseSlides(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, models.ErrMalformedSlides)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, slides)
		})
	}
}

func TestDecodeSlides_Lenient(t *testing.T) {
	assert.Equal(t, models.SlideList{}, models.DecodeSlides([]byte(`{"not":"a list"}`)))
	assert.Equal(t, models.SlideList{}, models.DecodeSlides([]byte(`garbage`)))
	assert.Len(t, models.DecodeSlides([]byte(`[{"title":"x"}]`)), 1)
}

func TestSlideList_ValueScanRoundTrip(t *testing.T) {
	original := models.SlideList{
		{Title: "Intro", Content: "Hi", BulletPoints: []string{"a"}},
		{Title: "", Content: "", BulletPoints: []string{}},
	}
	value, err := original.Value()
	require.NoError(t, err)

	var restored models.SlideList
	require.NoError(t, restored.Scan([]byte(value.(string))))
	assert.Equal(t, original, restored)

	var fromNil models.SlideList
	require.NoError(t, fromNil.Scan(nil))
	assert.Equal(t, models.SlideList{}, fromNil)

	assert.Error(t, fromNil.Scan(42))
}

func TestParseAgenda(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.StringList
	}{
		{name: "Строки через перевод строки", raw: "Intro\n\n  Results \nQ&A", expected: models.StringList{"Intro", "Results", "Q&A"}},
		{name: "JSON-массив", raw: `["One","Two"]`, expected: models.StringList{"One", "Two"}},
		{name: "JSON-строка", raw: `"Only"`, expected: models.StringList{"Only"}},
		{name: "JSON-число", raw: `7`, expected: models.StringList{"7"}},
		{name: "Некорректный JSON трактуется как текст", raw: `["broken"`, expected: models.StringList{`["broken"`}},
		{name: "Пустая повестка", raw: "   ", expected: models.StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.ParseAgenda(tt.raw))
		})
	}
}

func TestStringList_ValueScan(t *testing.T) {
	value, err := models.StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, value)

	empty, err := models.StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	var restored models.StringList
	require.NoError(t, restored.Scan(`["a","b"]`))
	assert.Equal(t, models.StringList{"a", "b"}, restored)
}

func TestPresentationVersion_FileSizeMB(t *testing.T) {
	v := models.PresentationVersion{FileSize: 1572864}
	assert.InDelta(t, 1.5, v.FileSizeMB(), 0.001)
	assert.Zero(t, (&models.PresentationVersion{}).FileSizeMB())
}
