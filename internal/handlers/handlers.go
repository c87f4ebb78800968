package handlers

import (
	"net/http"

	"NoteKeeper/internal/config"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	noteService *service.NoteService,
	tagService *service.TagService,
	imageService *service.ImageService,
	broker feed.Broker,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(config.AllowedOrigins()))
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithAuth(config.AuthSecret))
	r.Use(middleware.WithLogging)

	// Handlers
	userHandler := NewUserHandler(userService, logger, config)
	noteHandler := NewNoteHandler(noteService, logger)
	tagHandler := NewTagHandler(tagService, logger)
	imageHandler := NewImageHandler(imageService, logger, config)
	feedHandler := NewFeedHandler(broker, logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/test", userHandler.Status)

	// Публичные заметки доступны и анонимно
	r.Get("/api/notes/public", noteHandler.ListPublic)
	r.Get("/api/notes/{id}", noteHandler.Get)

	auth := r.With(middleware.RequireUser)

	auth.Get("/api/user/profile", userHandler.Profile)
	auth.Put("/api/user/profile", userHandler.UpdateProfile)

	// Notes routes
	auth.Get("/api/notes", noteHandler.List)
	auth.Post("/api/notes", noteHandler.Create)
	auth.Get("/api/notes/search", noteHandler.Search)
	auth.Get("/api/notes/query", noteHandler.Query)
	auth.Get("/api/notes/trash", noteHandler.Trash)
	auth.Put("/api/notes/{id}", noteHandler.Update)
	auth.Delete("/api/notes/{id}", noteHandler.Delete)
	auth.Get("/api/notes/{id}/record", noteHandler.Record)
	auth.Post("/api/notes/{id}/restore", noteHandler.Restore)
	auth.Put("/api/notes/{id}/tags", noteHandler.SetTags)
	auth.Get("/api/notes/{id}/images", imageHandler.List)
	auth.Post("/api/notes/{id}/images", imageHandler.Upload)

	// Tags routes
	auth.Get("/api/tags", tagHandler.List)
	auth.Post("/api/tags", tagHandler.Create)
	auth.Put("/api/tags/{id}", tagHandler.Update)
	auth.Delete("/api/tags/{id}", tagHandler.Delete)
	auth.Get("/api/tags/{id}/notes", tagHandler.Notes)

	// Images routes
	auth.Get("/api/images/{id}/url", imageHandler.URL)
	auth.Delete("/api/images/{id}", imageHandler.Delete)

	auth.Get("/api/feed", feedHandler.Stream)

	// Файлы локального хранилища
	if config.StorageBackend == "" || config.StorageBackend == "fs" {
		fs := http.StripPrefix("/files/", http.FileServer(http.Dir(config.StorageDir)))
		r.Get("/files/*", fs.ServeHTTP)
	}

	return &Handler{Router: r}
}
