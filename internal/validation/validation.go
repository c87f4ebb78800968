// Package validation содержит локальные проверки пользовательского ввода.
// Все проверки чистые: без ввода-вывода и без обращения к хранилищу.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/model"

	"github.com/go-playground/validator/v10"
)

// Ограничения длины, в символах.
const (
	TitleMaxLength   = 100
	ContentMaxLength = 10000
	TagNameMaxLength = 30
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", NotBlank)
	_ = v.RegisterValidation("tagcolor", TagColor)
	_ = v.RegisterValidation("username", Username)
	return v
}

// NotBlank — строка содержит хотя бы один непробельный символ.
func NotBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

// TagColor — значение входит в палитру тегов.
func TagColor(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && IsValidTagColor(s)
}

// Username — нижний регистр, цифры и подчёркивание, от 3 до 20 символов.
func Username(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case string:
		return IsValidUsername(v)
	case *string:
		return v == nil || IsValidUsername(*v)
	}
	return false
}

// Struct проверяет структуру по validate-тегам и возвращает *apperr.ValidationError
// для первого непрошедшего поля.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &apperr.ValidationError{Message: err.Error()}
	}
	return fromFieldError(ve[0])
}

func fromFieldError(fe validator.FieldError) *apperr.ValidationError {
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "notblank", "required":
		msg = "must not be blank"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		msg = fmt.Sprintf("must be at least %s characters", fe.Param())
	case "tagcolor":
		msg = "must be one of the palette colors"
	case "username":
		msg = "must be 3-20 characters of a-z, 0-9 or _"
	default:
		msg = "is invalid"
	}
	return &apperr.ValidationError{Field: field, Message: msg}
}

// IsValidTitle: непустой после обрезки пробелов и не длиннее 100 символов.
func IsValidTitle(title string) bool {
	return strings.TrimSpace(title) != "" && utf8.RuneCountInString(title) <= TitleMaxLength
}

// IsValidContent: не длиннее 10 000 символов. Пустое содержимое допустимо.
func IsValidContent(content string) bool {
	return utf8.RuneCountInString(content) <= ContentMaxLength
}

// IsValidTagName: от 1 до 30 символов после обрезки пробелов.
func IsValidTagName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= TagNameMaxLength
}

// IsValidTagColor сообщает, входит ли цвет в палитру (без учёта регистра).
func IsValidTagColor(color string) bool {
	for _, c := range model.TagColors {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

func IsValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// IsAcceptedImageType сообщает, можно ли прикрепить файл с таким MIME-типом.
func IsAcceptedImageType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range model.AcceptedImageTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// NormalizeTagColor приводит цвет к каноническому виду палитры.
// Пустой цвет заменяется цветом по умолчанию.
func NormalizeTagColor(color string) string {
	if strings.TrimSpace(color) == "" {
		return model.DefaultTagColor
	}
	for _, c := range model.TagColors {
		if strings.EqualFold(c, color) {
			return c
		}
	}
	return color
}

// Note проверяет ввод заметки.
func Note(in model.NoteInput) error {
	return Struct(in)
}

// Tag проверяет ввод тега.
func Tag(in model.TagInput) error {
	if !IsValidTagName(in.Name) {
		return &apperr.ValidationError{Field: "name", Message: fmt.Sprintf("must be 1-%d characters", TagNameMaxLength)}
	}
	return Struct(in)
}

// Profile проверяет ввод профиля пользователя.
func Profile(in model.ProfileInput) error {
	return Struct(in)
}
