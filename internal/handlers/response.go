package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Response — общий конверт ответов API.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, Response{Success: false, Error: msg, Field: field})
}

// statusFor сопоставляет ошибку сервиса с HTTP-статусом.
func statusFor(err error) (int, string) {
	var (
		ve *apperr.ValidationError
		ce *apperr.ConflictError
		nf *apperr.NotFoundError
		tl *apperr.TooLargeError
		ut *apperr.UnsupportedTypeError
		tm *apperr.TooManyImagesError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Field
	case errors.As(err, &ce):
		return http.StatusConflict, ce.Field
	case errors.As(err, &nf):
		return http.StatusNotFound, ""
	case errors.As(err, &tl):
		return http.StatusRequestEntityTooLarge, ""
	case errors.As(err, &ut):
		return http.StatusUnsupportedMediaType, ""
	case errors.As(err, &tm):
		return http.StatusUnprocessableEntity, ""
	}
	return http.StatusInternalServerError, ""
}

// writeError пишет ошибку сервиса. Внутренние ошибки логируются, а клиенту
// уходит обезличенный текст.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status, field := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorw(op+": service error", "error", err)
		writeFail(w, status, "internal error", "")
		return
	}
	writeFail(w, status, err.Error(), field)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// userID — пользователь из контекста; маршруты под RequireUser его гарантируют.
func userID(r *http.Request) int64 {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	return uid
}

// idParam возвращает {id} из пути; ok == false, если это не UUID.
func idParam(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func notFound(w http.ResponseWriter, entity string) {
	writeFail(w, http.StatusNotFound, entity+" not found", "")
}
