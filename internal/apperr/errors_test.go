package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackend_WrapsRawErrors(t *testing.T) {
	raw := errors.New("connection refused")
	err := Backend("list notes", raw)

	var be *BackendError
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, "list notes", be.Op)
	assert.ErrorIs(t, err, raw)
	assert.Equal(t, "list notes: connection refused", err.Error())
}

func TestBackend_KeepsTypedErrors(t *testing.T) {
	conflict := &ConflictError{Field: "name", Message: "tag already exists"}
	assert.Same(t, conflict, Backend("create tag", conflict))

	wrapped := fmt.Errorf("ctx: %w", &NotFoundError{Entity: "note", ID: "n1"})
	assert.Equal(t, wrapped, Backend("get note", wrapped))

	assert.Nil(t, Backend("noop", nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "title: must not be blank", (&ValidationError{Field: "title", Message: "must not be blank"}).Error())
	assert.Equal(t, "bad", (&ValidationError{Message: "bad"}).Error())
	assert.Equal(t, `note "x" not found`, (&NotFoundError{Entity: "note", ID: "x"}).Error())
	assert.Contains(t, (&TooLargeError{Size: 6, Limit: 5}).Error(), "limit 5")
	assert.Contains(t, (&UnsupportedTypeError{MimeType: "text/plain"}).Error(), "text/plain")
	assert.Contains(t, (&TooManyImagesError{Limit: 10}).Error(), "10")
}
