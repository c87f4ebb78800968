package service

import (
	"context"
	"net/http"
	"net/url"

	"NoteKeeper/internal/model"
)

// UploadResult — результат загрузки одного файла, как его отдаёт сервер.
type UploadResult struct {
	Success bool             `json:"success"`
	Image   *model.NoteImage `json:"image,omitempty"`
	URL     string           `json:"url,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// ImageURL — публичный URL изображения и готовая markdown-вставка.
type ImageURL struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// Images — клиентский доступ к изображениям заметок.
type Images struct {
	api Caller
}

func NewImages(c Caller) *Images {
	return &Images{api: c}
}

func (s *Images) List(ctx context.Context, noteID string) ([]model.NoteImage, error) {
	var out []model.NoteImage
	err := s.api.Call(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(noteID)+"/images", nil, &out)
	return out, err
}

// Upload загружает файлы одним запросом; результаты идут в порядке файлов.
func (s *Images) Upload(ctx context.Context, noteID string, paths []string) ([]UploadResult, error) {
	var out []UploadResult
	err := s.api.UploadFiles(ctx, "/api/notes/"+url.PathEscape(noteID)+"/images", paths, &out)
	return out, err
}

func (s *Images) URL(ctx context.Context, id string) (*ImageURL, error) {
	var out ImageURL
	if err := s.api.Call(ctx, http.MethodGet, "/api/images/"+url.PathEscape(id)+"/url", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Images) Delete(ctx context.Context, id string) error {
	return s.api.Call(ctx, http.MethodDelete, "/api/images/"+url.PathEscape(id), nil, nil)
}
