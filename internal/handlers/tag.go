package handlers

import (
	"net/http"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/service"

	"go.uber.org/zap"
)

// TagHandler — CRUD тегов и заметки по тегу.
type TagHandler struct {
	TagService *service.TagService
	Logger     *zap.SugaredLogger
}

func NewTagHandler(tagService *service.TagService, logger *zap.SugaredLogger) *TagHandler {
	return &TagHandler{TagService: tagService, Logger: logger}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.TagService.ListTags(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.Logger, "ListTags", err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.TagInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	tag, err := h.TagService.CreateTag(r.Context(), userID(r), in.Name, in.Color)
	if err != nil {
		writeError(w, h.Logger, "CreateTag", err)
		return
	}
	writeData(w, http.StatusCreated, tag)
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "tag")
		return
	}
	var in model.TagInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	tag, err := h.TagService.UpdateTag(r.Context(), userID(r), id, in.Name, in.Color)
	if err != nil {
		writeError(w, h.Logger, "UpdateTag", err)
		return
	}
	writeData(w, http.StatusOK, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "tag")
		return
	}
	if err := h.TagService.DeleteTag(r.Context(), userID(r), id); err != nil {
		writeError(w, h.Logger, "DeleteTag", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func (h *TagHandler) Notes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "tag")
		return
	}
	notes, err := h.TagService.FetchNotesByTagID(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.Logger, "FetchNotesByTagID", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}
