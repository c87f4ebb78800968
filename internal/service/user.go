package service

import (
	"context"
	"strings"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService — регистрация, вход и профиль пользователя.
type UserService struct {
	repo repo.UserRepository
}

func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

// Register создаёт пользователя. ErrLoginTaken, если логин занят.
func (s *UserService) Register(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, &apperr.ValidationError{Field: "login", Message: "login and password are required"}
	}
	existing, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrLoginTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, &model.User{Login: login, Password: string(hash)})
	if isDuplicate(err) {
		return nil, ErrLoginTaken
	}
	return user, err
}

// Login проверяет пароль. ErrInvalidCredentials при любой неудаче проверки.
func (s *UserService) Login(ctx context.Context, login, password string) (*model.User, error) {
	user, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetProfile возвращает пользователя по ID.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if isNotFound(err) {
		return nil, &apperr.NotFoundError{Entity: "user", ID: "me"}
	}
	if err != nil {
		return nil, apperr.Backend("get profile", err)
	}
	return u, nil
}

// UpdateProfile проверяет и сохраняет отображаемое имя, username и описание.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in model.ProfileInput) (*model.User, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Username != nil {
		u := strings.TrimSpace(*in.Username)
		if u == "" {
			in.Username = nil
		} else {
			in.Username = &u
		}
	}
	if err := validation.Profile(in); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateProfile(ctx, userID, map[string]any{
		"display_name": in.DisplayName,
		"username":     in.Username,
		"bio":          in.Bio,
	})
	switch {
	case isNotFound(err):
		return nil, &apperr.NotFoundError{Entity: "user", ID: "me"}
	case isDuplicate(err):
		return nil, &apperr.ConflictError{Field: "username", Message: "username already taken"}
	case err != nil:
		return nil, apperr.Backend("update profile", err)
	}
	return u, nil
}
