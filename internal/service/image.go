package service

import (
	"context"
	"fmt"
	"time"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/media"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/storage"
	"NoteKeeper/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadResult — итог загрузки одного файла.
type UploadResult struct {
	Success bool             `json:"success"`
	Image   *model.NoteImage `json:"image,omitempty"`
	URL     string           `json:"url,omitempty"`
	Error   string           `json:"error,omitempty"`
	Err     error            `json:"-"`
}

func failed(err error) UploadResult {
	return UploadResult{Success: false, Error: err.Error(), Err: err}
}

// ImageService — хранилище изображений: файл в объектном хранилище,
// метаданные в БД.
type ImageService struct {
	images repo.ImageRepository
	notes  repo.NoteRepository
	store  storage.ObjectStorage
	pub    *feed.Publisher
	logger *zap.SugaredLogger

	locks      *keyedMutex
	maxSize    int64
	maxPerNote int
	now        func() time.Time
}

func NewImageService(
	images repo.ImageRepository,
	notes repo.NoteRepository,
	store storage.ObjectStorage,
	pub *feed.Publisher,
	logger *zap.SugaredLogger,
) *ImageService {
	return &ImageService{
		images:     images,
		notes:      notes,
		store:      store,
		pub:        pub,
		logger:     logger,
		locks:      newKeyedMutex(),
		maxSize:    model.MaxImageSize,
		maxPerNote: model.MaxImagesPerNote,
		now:        time.Now,
	}
}

// SetLimits переопределяет лимиты размера файла и числа изображений на заметку.
// Неположительные значения оставляют текущие.
func (s *ImageService) SetLimits(maxSize int64, maxPerNote int) {
	if maxSize > 0 {
		s.maxSize = maxSize
	}
	if maxPerNote > 0 {
		s.maxPerNote = maxPerNote
	}
}

// ListImages возвращает неудалённые изображения заметки, новые первыми.
func (s *ImageService) ListImages(ctx context.Context, ownerID int64, noteID string) ([]model.NoteImage, error) {
	list, err := s.images.ListActive(ctx, ownerID, noteID)
	if err != nil {
		return nil, apperr.Backend("list images", err)
	}
	return list, nil
}

// UploadImage загружает файл и сохраняет метаданные.
// Тип и размер проверяются до любого ввода-вывода. Если метаданные сохранить
// не удалось, загруженный файл удаляется. Загрузки в одну заметку идут по очереди,
// иначе параллельные запросы вместе превысили бы лимит изображений.
func (s *ImageService) UploadImage(ctx context.Context, ownerID int64, noteID string, f model.ImageFile) UploadResult {
	mimeType := media.DetectMimeType(f.ContentType, f.Data)
	if !validation.IsAcceptedImageType(mimeType) {
		return failed(&apperr.UnsupportedTypeError{MimeType: mimeType})
	}
	if f.Size() > s.maxSize {
		return failed(&apperr.TooLargeError{Size: f.Size(), Limit: s.maxSize})
	}

	unlock := s.locks.Lock("note-images:" + noteID)
	defer unlock()

	n, err := s.notes.GetByID(ctx, ownerID, noteID)
	if isNotFound(err) || (err == nil && n.DeletedAt != nil) {
		return failed(&apperr.NotFoundError{Entity: "note", ID: noteID})
	}
	if err != nil {
		return failed(apperr.Backend("get note", err))
	}
	count, err := s.images.CountActive(ctx, noteID)
	if err != nil {
		return failed(apperr.Backend("count images", err))
	}
	if count >= int64(s.maxPerNote) {
		return failed(&apperr.TooManyImagesError{Limit: s.maxPerNote})
	}

	path := fmt.Sprintf("%d/%s/%d_%s", ownerID, noteID, s.now().UnixMilli(), media.SanitizeFileName(f.Name))

	// размеры считаем параллельно с загрузкой файла
	var (
		width, height int
		hasDims       bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		width, height, hasDims = media.Dimensions(mimeType, f.Data)
		return nil
	})
	g.Go(func() error {
		return s.store.Upload(gctx, path, f.Data, mimeType)
	})
	if err := g.Wait(); err != nil {
		s.logger.Errorw("UploadImage: storage upload failed", "note_id", noteID, "path", path, "error", err)
		return failed(apperr.Backend("upload image", err))
	}

	img := &model.NoteImage{
		NoteID:      noteID,
		OwnerID:     ownerID,
		StoragePath: path,
		FileName:    f.Name,
		FileSize:    f.Size(),
		MimeType:    mimeType,
	}
	if hasDims {
		img.Width, img.Height = &width, &height
	}
	if err := s.images.Create(ctx, img); err != nil {
		s.logger.Errorw("UploadImage: metadata insert failed, removing file", "note_id", noteID, "path", path, "error", err)
		if derr := s.store.Delete(context.WithoutCancel(ctx), path); derr != nil {
			s.logger.Errorw("UploadImage: compensating delete failed", "path", path, "error", derr)
		}
		return failed(apperr.Backend("save image metadata", err))
	}

	s.pub.Publish(ctx, feed.ImageAdded, ownerID, img.ID, noteID)
	return UploadResult{Success: true, Image: img, URL: s.store.PublicURL(path)}
}

// UploadMultipleImages загружает файлы по очереди. Ошибка одного файла
// не прерывает остальные; результаты идут в порядке входа.
func (s *ImageService) UploadMultipleImages(ctx context.Context, ownerID int64, noteID string, files []model.ImageFile) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		results = append(results, s.UploadImage(ctx, ownerID, noteID, f))
	}
	return results
}

// DeleteImage мягко удаляет метаданные, затем пытается удалить файл.
// Ошибка удаления файла только логируется.
func (s *ImageService) DeleteImage(ctx context.Context, ownerID int64, id string) error {
	img, err := s.images.GetActive(ctx, ownerID, id)
	if isNotFound(err) {
		return &apperr.NotFoundError{Entity: "image", ID: id}
	}
	if err != nil {
		return apperr.Backend("get image", err)
	}

	err = s.images.SoftDelete(ctx, ownerID, id, s.now().UTC())
	if isNotFound(err) {
		return &apperr.NotFoundError{Entity: "image", ID: id}
	}
	if err != nil {
		return apperr.Backend("delete image", err)
	}

	if err := s.store.Delete(ctx, img.StoragePath); err != nil {
		s.logger.Warnw("DeleteImage: storage delete failed", "image_id", id, "path", img.StoragePath, "error", err)
	}
	s.pub.Publish(ctx, feed.ImageDeleted, ownerID, id, img.NoteID)
	return nil
}

// GetImage возвращает неудалённые метаданные изображения владельца.
func (s *ImageService) GetImage(ctx context.Context, ownerID int64, id string) (*model.NoteImage, error) {
	img, err := s.images.GetActive(ctx, ownerID, id)
	if isNotFound(err) {
		return nil, &apperr.NotFoundError{Entity: "image", ID: id}
	}
	if err != nil {
		return nil, apperr.Backend("get image", err)
	}
	return img, nil
}

// GetImageURL возвращает публичный URL изображения.
func (s *ImageService) GetImageURL(ctx context.Context, ownerID int64, id string) (string, error) {
	img, err := s.GetImage(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	return s.store.PublicURL(img.StoragePath), nil
}

// URLFor строит публичный URL по метаданным без обращения к БД.
func (s *ImageService) URLFor(img model.NoteImage) string {
	return s.store.PublicURL(img.StoragePath)
}

// MarkdownFor строит markdown-вставку изображения.
func (s *ImageService) MarkdownFor(img model.NoteImage) string {
	return media.MarkdownImage(img.FileName, s.URLFor(img), img.Width, img.Height)
}
