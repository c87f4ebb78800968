package repo

import (
	"context"
	"time"

	"NoteKeeper/internal/model"
)

// NoteCache — локальная копия заметок пользователя для работы без сети.
type NoteCache interface {
	// ReplaceNotes целиком заменяет закэшированный список и отмечает время синхронизации.
	ReplaceNotes(ctx context.Context, notes []model.NoteView) error
	// ListNotes возвращает закэшированные заметки, новые первыми.
	ListNotes(ctx context.Context) ([]model.NoteView, error)
	// SyncedAt возвращает время последней синхронизации; нулевое, если её не было.
	SyncedAt(ctx context.Context) (time.Time, error)
	Close() error
}
