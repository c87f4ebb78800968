// Package search фильтрует и сортирует уже загруженные заметки без обращения к хранилищу.
package search

import (
	"sort"
	"strings"

	"NoteKeeper/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey — порядок сортировки заметок.
type SortKey string

const (
	UpdatedDesc SortKey = "updated_desc"
	UpdatedAsc  SortKey = "updated_asc"
	CreatedDesc SortKey = "created_desc"
	CreatedAsc  SortKey = "created_asc"
	TitleAsc    SortKey = "title_asc"
	TitleDesc   SortKey = "title_desc"
)

// SortKeys — все поддерживаемые ключи.
var SortKeys = []SortKey{UpdatedDesc, UpdatedAsc, CreatedDesc, CreatedAsc, TitleAsc, TitleDesc}

// ParseSortKey возвращает ключ; неизвестное значение даёт UpdatedDesc.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k
		}
	}
	return UpdatedDesc
}

// Criteria — условия выборки. Пустые поля не фильтруют.
type Criteria struct {
	TagID  string
	Query  string
	Sort   SortKey
	Locale language.Tag
}

// Apply применяет фильтры (по тегу И по тексту) и сортировку.
// Входной срез не меняется.
func Apply(notes []model.NoteView, c Criteria) []model.NoteView {
	out := FilterByTag(notes, c.TagID)
	out = FilterByText(out, c.Query)
	return Sort(out, c.Sort, c.Locale)
}

// FilterByTag оставляет заметки с тегом tagID.
func FilterByTag(notes []model.NoteView, tagID string) []model.NoteView {
	if tagID == "" {
		return append([]model.NoteView(nil), notes...)
	}
	out := make([]model.NoteView, 0, len(notes))
	for _, n := range notes {
		for _, t := range n.Tags {
			if t.ID == tagID {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Fold приводит строку к виду для сравнения без учёта регистра.
// В отличие от LOWER() в SQLite работает для любых букв, не только ASCII.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FilterByText оставляет заметки, у которых заголовок, текст или имя
// одного из тегов содержит подстроку без учёта регистра.
func FilterByText(notes []model.NoteView, query string) []model.NoteView {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return append([]model.NoteView(nil), notes...)
	}
	out := make([]model.NoteView, 0, len(notes))
	for _, n := range notes {
		if Matches(n, q) {
			out = append(out, n)
		}
	}
	return out
}

// Matches проверяет заметку на подстроку q, уже свёрнутую через Fold.
func Matches(n model.NoteView, q string) bool {
	if strings.Contains(Fold(n.Title), q) {
		return true
	}
	if n.Content != nil && strings.Contains(Fold(*n.Content), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(Fold(t.Name), q) {
			return true
		}
	}
	return false
}

// Sort возвращает отсортированную копию. Заголовки сравниваются по правилам
// локали loc; при равенстве ключей порядок задаёт ID.
func Sort(notes []model.NoteView, key SortKey, loc language.Tag) []model.NoteView {
	out := append([]model.NoteView(nil), notes...)
	key = ParseSortKey(string(key))

	var col *collate.Collator
	if key == TitleAsc || key == TitleDesc {
		col = collate.New(loc, collate.IgnoreCase)
	}

	less := func(a, b model.NoteView) int {
		switch key {
		case UpdatedAsc:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case CreatedDesc:
			return b.CreatedAt.Compare(a.CreatedAt)
		case CreatedAsc:
			return a.CreatedAt.Compare(b.CreatedAt)
		case TitleAsc:
			return col.CompareString(a.Title, b.Title)
		case TitleDesc:
			return col.CompareString(b.Title, a.Title)
		default:
			return b.UpdatedAt.Compare(a.UpdatedAt)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
