package repo

import (
	"context"
	"time"

	"NoteKeeper/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteRepository — доступ к заметкам. Если запись не найдена, методы возвращают gorm.ErrRecordNotFound.
type NoteRepository interface {
	// Create вставляет заметку; ID генерируется, если не задан.
	Create(ctx context.Context, n *model.Note) error

	// GetByID возвращает заметку владельца в любом состоянии, включая удалённые.
	GetByID(ctx context.Context, ownerID int64, id string) (*model.Note, error)

	// FindByID возвращает заметку по ID без учёта владельца.
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// ListActive — неудалённые заметки владельца, новые изменения первыми.
	ListActive(ctx context.Context, ownerID int64) ([]model.Note, error)

	// ListDeleted — корзина владельца.
	ListDeleted(ctx context.Context, ownerID int64) ([]model.Note, error)

	// ListPublic — публичные неудалённые заметки всех пользователей.
	ListPublic(ctx context.Context) ([]model.Note, error)

	// ListByIDs — неудалённые заметки владельца из списка ID.
	ListByIDs(ctx context.Context, ownerID int64, ids []string) ([]model.Note, error)

	// SearchText ищет подстроку в заголовке или тексте без учёта регистра.
	SearchText(ctx context.Context, ownerID int64, query string) ([]model.Note, error)

	// Update меняет поля неудалённой заметки владельца.
	Update(ctx context.Context, ownerID int64, id string, updates map[string]any) error

	// SoftDelete проставляет deleted_at.
	SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error

	// Restore сбрасывает deleted_at.
	Restore(ctx context.Context, ownerID int64, id string) error
}

type noteRepo struct {
	db *gorm.DB
}

// NewNoteRepository создаёт реализацию репозитория для Note.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, n *model.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	setNoteKeys(n)
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *noteRepo) GetByID(ctx context.Context, ownerID int64, id string) (*model.Note, error) {
	var n model.Note
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *noteRepo) FindByID(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *noteRepo) ListActive(ctx context.Context, ownerID int64) ([]model.Note, error) {
	var out []model.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

func (r *noteRepo) ListDeleted(ctx context.Context, ownerID int64) ([]model.Note, error) {
	var out []model.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NOT NULL", ownerID).
		Order("deleted_at DESC").
		Find(&out).Error
	return out, err
}

func (r *noteRepo) ListPublic(ctx context.Context) ([]model.Note, error) {
	var out []model.Note
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND deleted_at IS NULL", true).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

func (r *noteRepo) ListByIDs(ctx context.Context, ownerID int64, ids []string) ([]model.Note, error) {
	if len(ids) == 0 {
		return []model.Note{}, nil
	}
	var out []model.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ? AND deleted_at IS NULL", ownerID, ids).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

func (r *noteRepo) SearchText(ctx context.Context, ownerID int64, query string) ([]model.Note, error) {
	p := likePattern(query)
	var out []model.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Where(`(title_key LIKE ? ESCAPE '\' OR content_key LIKE ? ESCAPE '\')`, p, p).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

func (r *noteRepo) Update(ctx context.Context, ownerID int64, id string, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	noteKeyUpdates(updates)
	tx := r.db.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *noteRepo) SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error {
	tx := r.db.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		Update("deleted_at", at.UTC())
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *noteRepo) Restore(ctx context.Context, ownerID int64, id string) error {
	tx := r.db.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND owner_id = ? AND deleted_at IS NOT NULL", id, ownerID).
		Update("deleted_at", nil)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
