package repo

import (
	"context"
	"time"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/search"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagRepository — доступ к тегам. Удалённые теги видны только через GetByID.
type TagRepository interface {
	Create(ctx context.Context, t *model.Tag) error

	// GetByID возвращает тег владельца в любом состоянии.
	GetByID(ctx context.Context, ownerID int64, id string) (*model.Tag, error)

	// ListActive — неудалённые теги владельца, по имени.
	ListActive(ctx context.Context, ownerID int64) ([]model.Tag, error)

	// FindActiveByName ищет неудалённый тег по имени без учёта регистра.
	FindActiveByName(ctx context.Context, ownerID int64, name string) (*model.Tag, error)

	// ListByIDs — неудалённые теги из списка ID, по имени.
	ListByIDs(ctx context.Context, ownerID int64, ids []string) ([]model.Tag, error)

	// SearchByName — неудалённые теги, имя которых содержит подстроку.
	SearchByName(ctx context.Context, ownerID int64, query string) ([]model.Tag, error)

	Update(ctx context.Context, ownerID int64, id string, updates map[string]any) error
	SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error
}

type tagRepo struct {
	db *gorm.DB
}

// NewTagRepository создаёт реализацию репозитория для Tag.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, t *model.Tag) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.NameKey = search.Fold(t.Name)
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tagRepo) GetByID(ctx context.Context, ownerID int64, id string) (*model.Tag, error) {
	var t model.Tag
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) ListActive(ctx context.Context, ownerID int64) ([]model.Tag, error) {
	var out []model.Tag
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *tagRepo) FindActiveByName(ctx context.Context, ownerID int64, name string) (*model.Tag, error) {
	var t model.Tag
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL AND name_key = ?", ownerID, search.Fold(name)).
		Take(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) ListByIDs(ctx context.Context, ownerID int64, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	var out []model.Tag
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ? AND deleted_at IS NULL", ownerID, ids).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *tagRepo) SearchByName(ctx context.Context, ownerID int64, query string) ([]model.Tag, error) {
	var out []model.Tag
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Where(`name_key LIKE ? ESCAPE '\'`, likePattern(query)).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *tagRepo) Update(ctx context.Context, ownerID int64, id string, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	if name, ok := updates["name"].(string); ok {
		updates["name_key"] = search.Fold(name)
	}
	tx := r.db.WithContext(ctx).Model(&model.Tag{}).
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

func (r *tagRepo) SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error {
	tx := r.db.WithContext(ctx).Model(&model.Tag{}).
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
