package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"NoteKeeper/internal/config"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/service"

	"go.uber.org/zap"
)

// UserHandler — регистрация, вход, статус и профиль.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Register регистрация пользователя с выдачей cookie
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.Logger.Warnw("Register: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Login, req.Password)
	if errors.Is(err, service.ErrLoginTaken) {
		http.Error(w, "login already taken", http.StatusConflict)
		return
	}
	if err != nil {
		status, _ := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.Errorw("Register: service error", "login", req.Login, "error", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.issue(w, user)
}

// Login вход по логину и паролю
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Login(r.Context(), req.Login, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		http.Error(w, "invalid login or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.Logger.Errorw("Login: service error", "login", req.Login, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.issue(w, user)
}

func (h *UserHandler) issue(w http.ResponseWriter, user *model.User) {
	if err := middleware.SetLoginCookie(w, user.ID, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("issue: cannot sign token", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{ID: user.ID, Login: user.Login})
}

// Status проверка авторизации
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	result := "anonymous"
	if uid, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		result = fmt.Sprintf("User ID = %d", uid)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// Profile профиль текущего пользователя
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetProfile(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.Logger, "Profile", err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// UpdateProfile обновление профиля
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in model.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request", "")
		return
	}
	user, err := h.UserService.UpdateProfile(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, h.Logger, "UpdateProfile", err)
		return
	}
	writeData(w, http.StatusOK, user)
}
