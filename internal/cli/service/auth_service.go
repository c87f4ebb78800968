package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"NoteKeeper/internal/cli/api"
	"NoteKeeper/internal/cli/bootstrap"
	"NoteKeeper/internal/cli/repo"
)

// ErrInvalidCredentials is returned when the server rejects login and password.
var ErrInvalidCredentials = errors.New("invalid login or password")

// ErrLoginTaken is returned by Register when the login already exists.
var ErrLoginTaken = errors.New("login already in use")

// AuthService описывает юзкейс-уровень аутентификации для CLI.
type AuthService interface {
	// Login логирование пользователя.
	Login(ctx context.Context, login, password string) error

	// Register создаёт пользователя и сразу авторизует его.
	Register(ctx context.Context, login, password string) error

	// Logout очищает локальный контекст аутентификации.
	Logout() error

	// CurrentUser возвращает логин текущего пользователя, если он установлен.
	CurrentUser() (string, error)
}

// Store объединяет хранение токена и текущего логина.
type Store interface {
	repo.TokenStore
	repo.UserContextStore
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Auth — AuthService поверх HTTP API и локального хранилища.
type Auth struct {
	baseURL string
	store   Store
}

var _ AuthService = (*Auth)(nil)

func NewAuth(baseURL string, store Store) *Auth {
	return &Auth{baseURL: strings.TrimRight(baseURL, "/"), store: store}
}

func (a *Auth) Login(ctx context.Context, login, password string) error {
	return a.authenticate(ctx, "/api/user/login", login, password, http.StatusUnauthorized, ErrInvalidCredentials)
}

func (a *Auth) Register(ctx context.Context, login, password string) error {
	return a.authenticate(ctx, "/api/user/register", login, password, http.StatusConflict, ErrLoginTaken)
}

// authenticate отправляет учётные данные, сохраняет токен и логин
// и создаёт локальный кэш пользователя.
func (a *Auth) authenticate(ctx context.Context, path, login, password string, rejectStatus int, rejectErr error) error {
	resp, body, err := api.PostJSONContext(ctx, a.baseURL+path, credentials{Login: login, Password: password}, "")
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case rejectStatus:
		return rejectErr
	default:
		return fmt.Errorf("server error: %s", strings.TrimSpace(string(body)))
	}

	token, err := api.AuthToken(resp)
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	if err := a.store.Save(token); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	if err := a.store.SaveLogin(login); err != nil {
		return fmt.Errorf("saving login: %w", err)
	}
	_, done, err := bootstrap.OpenNoteCacheForLogin(login)
	if err != nil {
		return err
	}
	return done()
}

func (a *Auth) Logout() error {
	return a.store.Clear()
}

func (a *Auth) CurrentUser() (string, error) {
	return a.store.LoadLogin()
}
