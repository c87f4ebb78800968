package handlers

import (
	"errors"
	"io"
	"net/http"

	"NoteKeeper/internal/config"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/service"

	"go.uber.org/zap"
)

// multipartMemory — сколько multipart-формы держать в памяти, остальное уходит во временные файлы.
const multipartMemory = 10 << 20

// ImageHandler — загрузка, список и удаление изображений заметки.
type ImageHandler struct {
	ImageService *service.ImageService
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

func NewImageHandler(imageService *service.ImageService, logger *zap.SugaredLogger, cfg *config.Config) *ImageHandler {
	return &ImageHandler{ImageService: imageService, Logger: logger, Config: cfg}
}

type imageURLResponse struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	images, err := h.ImageService.ListImages(r.Context(), userID(r), noteID)
	if err != nil {
		writeError(w, h.Logger, "ListImages", err)
		return
	}
	writeData(w, http.StatusOK, images)
}

// Upload принимает multipart-форму с файлами в поле "files".
// Ответ — результат по каждому файлу в порядке формы.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}

	// Лимит общего тела запроса: все файлы по максимуму плюс запас на заголовки формы
	maxBody := h.Config.ImageMaxSize()*int64(h.Config.MaxImagesPerNote) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeFail(w, http.StatusRequestEntityTooLarge, "request body too large", "files")
			return
		}
		h.Logger.Warnw("Upload: invalid multipart form", "note_id", noteID, "error", err)
		writeFail(w, http.StatusBadRequest, "invalid multipart form", "files")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeFail(w, http.StatusBadRequest, "no files", "files")
		return
	}

	files := make([]model.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.Logger.Warnw("Upload: cannot open part", "file", fh.Filename, "error", err)
			writeFail(w, http.StatusBadRequest, "cannot read file "+fh.Filename, "files")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeFail(w, http.StatusBadRequest, "cannot read file "+fh.Filename, "files")
			return
		}
		files = append(files, model.ImageFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	results := h.ImageService.UploadMultipleImages(r.Context(), userID(r), noteID, files)

	// все файлы отклонены — статус по первой ошибке
	status := http.StatusOK
	anyOK := false
	for _, res := range results {
		if res.Success {
			anyOK = true
			break
		}
	}
	if !anyOK {
		status, _ = statusFor(results[0].Err)
	}
	// внутренние ошибки клиенту не показываем, как и в writeError
	for i := range results {
		if results[i].Success {
			continue
		}
		if st, _ := statusFor(results[i].Err); st == http.StatusInternalServerError {
			h.Logger.Errorw("Upload: file failed", "note_id", noteID, "file", files[i].Name, "error", results[i].Err)
			results[i].Error = "internal error"
		}
	}
	writeJSON(w, status, Response{Success: anyOK, Data: results})
}

func (h *ImageHandler) URL(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "image")
		return
	}
	img, err := h.ImageService.GetImage(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.Logger, "GetImageURL", err)
		return
	}
	writeData(w, http.StatusOK, imageURLResponse{
		URL:      h.ImageService.URLFor(*img),
		Markdown: h.ImageService.MarkdownFor(*img),
	})
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "image")
		return
	}
	if err := h.ImageService.DeleteImage(r.Context(), userID(r), id); err != nil {
		writeError(w, h.Logger, "DeleteImage", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}
