package service

import (
	"context"
	"net/http"
	"net/url"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/cli/repo"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/search"
)

// Caller is the subset of api.Client the services need.
type Caller interface {
	Call(ctx context.Context, method, path string, payload, out any) error
	UploadFiles(ctx context.Context, path string, files []string, out any) error
}

var _ Caller = (*api.Client)(nil)

// Notes — клиентский доступ к заметкам и тегам. Список заметок кэшируется
// локально и используется, когда сервер недоступен.
type Notes struct {
	api   Caller
	cache repo.NoteCache
}

func NewNotes(c Caller, cache repo.NoteCache) *Notes {
	return &Notes{api: c, cache: cache}
}

// List загружает заметки с сервера, обновляет кэш и применяет фильтры локально.
// При сетевой ошибке берётся кэш; offline == true в этом случае.
func (s *Notes) List(ctx context.Context, c search.Criteria) (notes []model.NoteView, offline bool, err error) {
	var fresh []model.NoteView
	err = s.api.Call(ctx, http.MethodGet, "/api/notes", nil, &fresh)
	switch {
	case err == nil:
		if s.cache != nil {
			if cerr := s.cache.ReplaceNotes(ctx, fresh); cerr != nil {
				return nil, false, cerr
			}
		}
	case api.IsAPIError(err) || s.cache == nil:
		return nil, false, err
	default:
		fresh, err = s.cache.ListNotes(ctx)
		if err != nil {
			return nil, true, err
		}
		offline = true
	}
	return search.Apply(fresh, c), offline, nil
}

// Search выполняет серверный поиск по заголовку, тексту и тегам.
func (s *Notes) Search(ctx context.Context, q string) ([]model.NoteView, error) {
	var out []model.NoteView
	err := s.api.Call(ctx, http.MethodGet, "/api/notes/search?q="+url.QueryEscape(q), nil, &out)
	return out, err
}

func (s *Notes) Trash(ctx context.Context) ([]model.Note, error) {
	var out []model.Note
	err := s.api.Call(ctx, http.MethodGet, "/api/notes/trash", nil, &out)
	return out, err
}

func (s *Notes) Get(ctx context.Context, id string) (*model.NoteView, error) {
	var out model.NoteView
	if err := s.api.Call(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notes) Create(ctx context.Context, in model.NoteInput) (*model.NoteView, error) {
	var out model.NoteView
	if err := s.api.Call(ctx, http.MethodPost, "/api/notes", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notes) Update(ctx context.Context, id string, in model.NoteInput) (*model.NoteView, error) {
	var out model.NoteView
	if err := s.api.Call(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notes) Delete(ctx context.Context, id string) error {
	return s.api.Call(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
}

func (s *Notes) Restore(ctx context.Context, id string) error {
	return s.api.Call(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(id)+"/restore", nil, nil)
}

// SetTags заменяет набор тегов заметки; пустой список снимает все теги.
func (s *Notes) SetTags(ctx context.Context, noteID string, tagIDs []string) error {
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return s.api.Call(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(noteID)+"/tags",
		map[string][]string{"tag_ids": tagIDs}, nil)
}

func (s *Notes) Tags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	err := s.api.Call(ctx, http.MethodGet, "/api/tags", nil, &out)
	return out, err
}

func (s *Notes) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	var out model.Tag
	if err := s.api.Call(ctx, http.MethodPost, "/api/tags", model.TagInput{Name: name, Color: color}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notes) UpdateTag(ctx context.Context, id, name, color string) (*model.Tag, error) {
	var out model.Tag
	if err := s.api.Call(ctx, http.MethodPut, "/api/tags/"+url.PathEscape(id), model.TagInput{Name: name, Color: color}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notes) DeleteTag(ctx context.Context, id string) error {
	return s.api.Call(ctx, http.MethodDelete, "/api/tags/"+url.PathEscape(id), nil, nil)
}

func (s *Notes) NotesByTag(ctx context.Context, tagID string) ([]model.Note, error) {
	var out []model.Note
	err := s.api.Call(ctx, http.MethodGet, "/api/tags/"+url.PathEscape(tagID)+"/notes", nil, &out)
	return out, err
}
