package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	fsrepo "NoteKeeper/internal/cli/repo/fs"
	"NoteKeeper/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI — минимальный сервер заметок для тестов команд.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]map[string]any
}

const notesJSON = `[
 {"id":"n1","title":"Groceries","content":"milk","updated_at":"2024-05-01T10:00:00Z","tags":[{"id":"t1","name":"home"}]},
 {"id":"n2","title":"Apples","updated_at":"2024-05-02T10:00:00Z","tags":[]}
]`

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Cookie"), "auth_token=tok") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
			return
		}
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.requests = append(f.requests, key)
		if r.Body != nil && r.ContentLength > 0 {
			var m map[string]any
			_ = json.NewDecoder(r.Body).Decode(&m)
			if f.bodies == nil {
				f.bodies = map[string]map[string]any{}
			}
			f.bodies[key] = m
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch key {
		case "GET /api/notes":
			_, _ = w.Write([]byte(`{"success":true,"data":` + notesJSON + `}`))
		case "POST /api/notes":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"n3","title":"x","tags":[]}}`))
		case "GET /api/notes/n1":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"n1","title":"Groceries","content":"milk","is_public":true,"tags":[{"id":"t1","name":"home"}]}}`))
		case "GET /api/notes/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"note not found"}`))
		case "PUT /api/notes/n1/tags", "DELETE /api/notes/n1", "POST /api/notes/n1/restore", "DELETE /api/tags/t1":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"n1"}}`))
		case "GET /api/tags":
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"t1","name":"home","color":"#6B7280"}]}`))
		case "POST /api/tags":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"error":"tag \"home\" already exists","field":"name"}`))
		default:
			t.Errorf("unexpected request %s", key)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func loggedIn(t *testing.T, login string) {
	t.Helper()
	withTempConfig(t)
	st := fsrepo.AuthFSStore{}
	require.NoError(t, st.Save("tok"))
	require.NoError(t, st.SaveLogin(login))
}

func TestNotes_RequireLogin(t *testing.T) {
	withTempConfig(t)
	err := (notesCmd{}).Run(context.Background(), &config.Config{ServerURL: "http://127.0.0.1:1"}, nil)
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestNotes_ListFilterSortAndOfflineCache(t *testing.T) {
	loggedIn(t, "alice")
	f := &fakeAPI{}
	ts := httptest.NewServer(f.handler(t))
	cfg := &config.Config{ServerURL: ts.URL}

	out := withStdoutCapture(t, func() {
		require.NoError(t, (notesCmd{}).Run(context.Background(), cfg, []string{"-sort", "title_asc"}))
	})
	assert.Less(t, strings.Index(out, "Apples"), strings.Index(out, "Groceries"))
	assert.Contains(t, out, "#home")

	out = withStdoutCapture(t, func() {
		require.NoError(t, (notesCmd{}).Run(context.Background(), cfg, []string{"-tag", "t1"}))
	})
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Apples")

	// кэш пользователя создан и переживает остановку сервера
	_, err := os.Stat(filepath.Join(os.Getenv("CLIENT_DB_PATH"), "alice", "client.sqlite"))
	require.NoError(t, err)
	ts.Close()

	out = withStdoutCapture(t, func() {
		require.NoError(t, (notesCmd{}).Run(context.Background(), cfg, []string{"-q", "milk"}))
	})
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Apples")

	assert.Equal(t, ErrUsage, (notesCmd{}).Run(context.Background(), cfg, []string{"extra"}))
	assert.Error(t, (notesCmd{}).Run(context.Background(), cfg, []string{"-locale", "!!"}))
}

func TestNoteCommands_CRUD(t *testing.T) {
	loggedIn(t, "bob")
	f := &fakeAPI{}
	ts := httptest.NewServer(f.handler(t))
	defer ts.Close()
	cfg := &config.Config{ServerURL: ts.URL}
	ctx := context.Background()

	out := withStdoutCapture(t, func() {
		require.NoError(t, (noteAddCmd{}).Run(ctx, cfg, []string{"-public", "-tags", "t1, t2", "Title", "Body"}))
	})
	assert.Contains(t, out, "Created note n3")
	body := f.bodies["POST /api/notes"]
	assert.Equal(t, "Title", body["title"])
	assert.Equal(t, "Body", body["content"])
	assert.Equal(t, true, body["is_public"])
	assert.Equal(t, []any{"t1", "t2"}, body["tag_ids"])

	out = withStdoutCapture(t, func() {
		require.NoError(t, (noteShowCmd{}).Run(ctx, cfg, []string{"n1"}))
	})
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "(public)")
	assert.Contains(t, out, "milk")

	err := (noteShowCmd{}).Run(ctx, cfg, []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "note not found")

	require.NoError(t, (noteTagsCmd{}).Run(ctx, cfg, []string{"n1"}))
	assert.Equal(t, []any{}, f.bodies["PUT /api/notes/n1/tags"]["tag_ids"])
	require.NoError(t, (noteRmCmd{}).Run(ctx, cfg, []string{"n1"}))
	require.NoError(t, (noteRestoreCmd{}).Run(ctx, cfg, []string{"n1"}))

	assert.Equal(t, ErrUsage, (noteAddCmd{}).Run(ctx, cfg, nil))
	assert.Equal(t, ErrUsage, (noteEditCmd{}).Run(ctx, cfg, []string{"n1"}))
	assert.Equal(t, ErrUsage, (noteRmCmd{}).Run(ctx, cfg, nil))
}

func TestTagCommands(t *testing.T) {
	loggedIn(t, "carol")
	f := &fakeAPI{}
	ts := httptest.NewServer(f.handler(t))
	defer ts.Close()
	cfg := &config.Config{ServerURL: ts.URL}
	ctx := context.Background()

	out := withStdoutCapture(t, func() {
		require.NoError(t, (tagsCmd{}).Run(ctx, cfg, nil))
	})
	assert.Contains(t, out, "home")
	assert.Contains(t, out, "#6B7280")

	err := (tagAddCmd{}).Run(ctx, cfg, []string{"Home"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, (tagRmCmd{}).Run(ctx, cfg, []string{"t1"}))
	assert.Equal(t, ErrUsage, (tagEditCmd{}).Run(ctx, cfg, []string{"t1"}))
}
