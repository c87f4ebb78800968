// Package storage — объектное хранилище бинарных файлов изображений.
package storage

import "context"

// ObjectStorage хранит файлы по пути вида <owner>/<note>/<file>.
type ObjectStorage interface {
	// Upload сохраняет содержимое по пути.
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// Delete удаляет объект. Отсутствующий объект не считается ошибкой.
	Delete(ctx context.Context, path string) error
	// PublicURL возвращает публичный URL объекта. Сетевых вызовов не делает.
	PublicURL(path string) string
}
