// Package apperr описывает типизированные ошибки хранилищ заметок, тегов и изображений.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError — вход не прошёл локальную проверку. Обращений к хранилищу не было.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError — нарушена уникальность (например, имя тега уже занято).
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError — сущность не найдена либо не принадлежит вызывающему.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// BackendError — ошибка хранилища записей или объектного хранилища.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// UnsupportedTypeError — MIME-тип файла не входит в список допустимых.
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.MimeType)
}

// TooLargeError — файл превышает допустимый размер.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file is too large: %d bytes, limit %d", e.Size, e.Limit)
}

// TooManyImagesError — у заметки уже максимальное число изображений.
type TooManyImagesError struct {
	Limit int
}

func (e *TooManyImagesError) Error() string {
	return fmt.Sprintf("note already has the maximum of %d images", e.Limit)
}

// MalformedResponseError — строка связи пришла без ожидаемой вложенной сущности.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return "malformed backend response: " + e.Detail
}

// Backend оборачивает «сырую» ошибку хранилища в BackendError.
// Уже типизированные ошибки пакета возвращаются как есть.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}

// IsTyped сообщает, является ли err одной из ошибок пакета.
func IsTyped(err error) bool {
	var (
		ve  *ValidationError
		ce  *ConflictError
		nf  *NotFoundError
		be  *BackendError
		ut  *UnsupportedTypeError
		tl  *TooLargeError
		tm  *TooManyImagesError
		mre *MalformedResponseError
	)
	return errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &nf) ||
		errors.As(err, &be) || errors.As(err, &ut) || errors.As(err, &tl) ||
		errors.As(err, &tm) || errors.As(err, &mre)
}
