package handlers_test

import (
	"NoteKeeper/internal/model"
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	name        string
	contentType string
	data        []byte
}

func uploadRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = w.Write(p.data)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

type uploadResult struct {
	Success bool             `json:"success"`
	Image   *model.NoteImage `json:"image"`
	URL     string           `json:"url"`
	Error   string           `json:"error"`
}

func TestImages_UploadListURLDelete(t *testing.T) {
	env := newEnv(t, nil)
	n := createNote(t, env, 1, map[string]any{"title": "pics"})
	data := tinyPNG(t)

	req := uploadRequest(t, "/api/notes/"+n.ID+"/images",
		part{name: "cat.png", contentType: "image/png", data: data},
		part{name: "doc.txt", contentType: "text/plain", data: []byte("hello")},
	)
	addAuthCookie(t, req, 1, testSecret)
	rr, body := env.serve(t, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	results := decodeData[[]uploadResult](t, body)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)

	img := results[0].Image
	require.NotNil(t, img)
	assert.True(t, strings.HasPrefix(results[0].URL, "http://files.test/files/1/"+n.ID+"/"))

	// файл лежит в хранилище и раздаётся по /files/
	stored, err := os.ReadFile(filepath.Join(env.dir, filepath.FromSlash(img.StoragePath)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
	rr, _ = env.do(t, http.MethodGet, "/files/"+img.StoragePath, 0, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, body = env.do(t, http.MethodGet, "/api/notes/"+n.ID+"/images", 1, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeData[[]model.NoteImage](t, body), 1)

	rr, body = env.do(t, http.MethodGet, "/api/images/"+img.ID+"/url", 1, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	urlResp := decodeData[struct {
		URL      string `json:"url"`
		Markdown string `json:"markdown"`
	}](t, body)
	assert.Equal(t, results[0].URL, urlResp.URL)
	assert.Contains(t, urlResp.Markdown, "![cat.png]("+results[0].URL)

	rr, _ = env.do(t, http.MethodDelete, "/api/images/"+img.ID, 1, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	_, err = os.Stat(filepath.Join(env.dir, filepath.FromSlash(img.StoragePath)))
	assert.True(t, os.IsNotExist(err))

	rr, _ = env.do(t, http.MethodGet, "/api/images/"+img.ID+"/url", 1, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestImages_AllRejected(t *testing.T) {
	env := newEnv(t, nil)
	n := createNote(t, env, 1, map[string]any{"title": "pics"})

	req := uploadRequest(t, "/api/notes/"+n.ID+"/images",
		part{name: "big.png", contentType: "image/png", data: make([]byte, 6*1024*1024)},
	)
	addAuthCookie(t, req, 1, testSecret)
	rr, body := env.serve(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.False(t, body.Success)

	req = uploadRequest(t, "/api/notes/"+n.ID+"/images",
		part{name: "a.bmp", contentType: "image/bmp", data: []byte("BM")},
	)
	addAuthCookie(t, req, 1, testSecret)
	rr, _ = env.serve(t, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	// чужая заметка
	req = uploadRequest(t, "/api/notes/"+n.ID+"/images",
		part{name: "a.png", contentType: "image/png", data: tinyPNG(t)},
	)
	addAuthCookie(t, req, 2, testSecret)
	rr, _ = env.serve(t, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImages_StorageFailureIsNotLeaked(t *testing.T) {
	env := newEnv(t, nil)
	n := createNote(t, env, 1, map[string]any{"title": "pics"})

	// корень хранилища стал файлом: любая запись падает с путём в тексте ошибки
	require.NoError(t, os.RemoveAll(env.dir))
	require.NoError(t, os.WriteFile(env.dir, []byte("x"), 0o644))

	req := uploadRequest(t, "/api/notes/"+n.ID+"/images",
		part{name: "a.png", contentType: "image/png", data: tinyPNG(t)},
		part{name: "doc.txt", contentType: "text/plain", data: []byte("hello")},
	)
	addAuthCookie(t, req, 1, testSecret)
	rr, body := env.serve(t, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	results := decodeData[[]uploadResult](t, body)
	require.Len(t, results, 2)
	assert.Equal(t, "internal error", results[0].Error)
	assert.NotContains(t, rr.Body.String(), env.dir)
	// ошибки клиента остаются как есть
	assert.Contains(t, results[1].Error, "unsupported file type")
}

func TestImages_NoFiles(t *testing.T) {
	env := newEnv(t, nil)
	n := createNote(t, env, 1, map[string]any{"title": "pics"})

	req := uploadRequest(t, "/api/notes/"+n.ID+"/images")
	addAuthCookie(t, req, 1, testSecret)
	rr, body := env.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "files", body.Field)
}
