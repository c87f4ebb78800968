package handlers_test

import (
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/handlers"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/service"
	"NoteKeeper/internal/storage"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testEnv struct {
	router http.Handler
	cfg    *config.Config
	broker *feed.MemoryBroker
	dir    string
}

// newEnv собирает роутер на in-memory SQLite и файловом хранилище во временном каталоге.
// ur == nil — настоящий репозиторий пользователей.
func newEnv(t *testing.T, ur repo.UserRepository) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		AuthSecret:       testSecret,
		StorageBackend:   config.StorageFS,
		StorageDir:       dir,
		PublicBaseURL:    "http://files.test/files",
		ImageMaxSizeMB:   5,
		MaxImagesPerNote: 10,
	}
	logger := zap.NewNop().Sugar()

	db, err := repo.InitDB("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if ur == nil {
		ur = repo.NewUserRepository(db)
	}
	store, err := storage.NewFSStorage(dir, cfg.PublicBaseURL)
	require.NoError(t, err)

	broker := feed.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })
	pub := feed.NewPublisher(broker, "test", logger)

	notes := repo.NewNoteRepository(db)
	tagSvc := service.NewTagService(repo.NewTagRepository(db), notes, repo.NewNoteTagRepository(db), pub, logger)
	noteSvc := service.NewNoteService(notes, tagSvc, pub, logger)
	imageSvc := service.NewImageService(repo.NewImageRepository(db), notes, store, pub, logger)
	imageSvc.SetLimits(cfg.ImageMaxSize(), cfg.MaxImagesPerNote)

	h := handlers.NewHandler(service.NewUserService(ur), noteSvc, tagSvc, imageSvc, broker, logger, cfg)
	return &testEnv{router: h.Router, cfg: cfg, broker: broker, dir: dir}
}

func newTestRouter(t *testing.T, ur repo.UserRepository) http.Handler {
	t.Helper()
	return newEnv(t, ur).router
}

func addAuthCookie(t *testing.T, req *http.Request, userID int64, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_ = middleware.SetLoginCookie(rr, userID, secret)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

// envelope — разобранный ответ API.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

// do выполняет запрос от имени userID (0 — анонимно).
func (e *testEnv) do(t *testing.T, method, path string, userID int64, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		addAuthCookie(t, req, userID, testSecret)
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	var env envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
