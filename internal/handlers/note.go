package handlers

import (
	"net/http"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/search"
	"NoteKeeper/internal/service"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// NoteHandler — CRUD, корзина, поиск и теги заметок.
type NoteHandler struct {
	NoteService *service.NoteService
	Logger      *zap.SugaredLogger
}

func NewNoteHandler(noteService *service.NoteService, logger *zap.SugaredLogger) *NoteHandler {
	return &NoteHandler{NoteService: noteService, Logger: logger}
}

type setTagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.ListNotes(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.Logger, "ListNotes", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.SearchNotes(r.Context(), userID(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.Logger, "SearchNotes", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

// Query фильтрует закэшированный список: ?tag=&q=&sort=&locale=
func (h *NoteHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := search.Criteria{
		TagID: q.Get("tag"),
		Query: q.Get("q"),
		Sort:  search.ParseSortKey(q.Get("sort")),
	}
	if loc := q.Get("locale"); loc != "" {
		tag, err := language.Parse(loc)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "invalid locale", "locale")
			return
		}
		c.Locale = tag
	}
	notes, err := h.NoteService.Query(r.Context(), userID(r), c)
	if err != nil {
		writeError(w, h.Logger, "Query", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.ListDeletedNotes(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.Logger, "ListDeletedNotes", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

func (h *NoteHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.ListPublicNotes(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListPublicNotes", err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

// Get отдаёт заметку владельцу или любую публичную заметку.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	note, err := h.NoteService.GetNote(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.Logger, "GetNote", err)
		return
	}
	if note == nil {
		notFound(w, "note")
		return
	}
	writeData(w, http.StatusOK, note)
}

// Record отдаёт заметку владельца в любом состоянии, в том числе из корзины.
func (h *NoteHandler) Record(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	note, err := h.NoteService.GetNoteRecord(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.Logger, "GetNoteRecord", err)
		return
	}
	if note == nil {
		notFound(w, "note")
		return
	}
	writeData(w, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.NoteInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	note, err := h.NoteService.CreateNote(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, h.Logger, "CreateNote", err)
		return
	}
	writeData(w, http.StatusCreated, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	var in model.NoteInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	note, err := h.NoteService.UpdateNote(r.Context(), userID(r), id, in)
	if err != nil {
		writeError(w, h.Logger, "UpdateNote", err)
		return
	}
	writeData(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	if err := h.NoteService.DeleteNote(r.Context(), userID(r), id); err != nil {
		writeError(w, h.Logger, "DeleteNote", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	note, err := h.NoteService.RestoreNote(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.Logger, "RestoreNote", err)
		return
	}
	writeData(w, http.StatusOK, note)
}

// SetTags полностью заменяет набор тегов; пустой список снимает все теги.
func (h *NoteHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		notFound(w, "note")
		return
	}
	var req setTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	note, err := h.NoteService.SetNoteTags(r.Context(), userID(r), id, req.TagIDs)
	if err != nil {
		writeError(w, h.Logger, "SetNoteTags", err)
		return
	}
	writeData(w, http.StatusOK, note)
}
