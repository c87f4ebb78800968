package repo

import (
	"context"
	"time"

	"NoteKeeper/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageRepository — метаданные изображений заметок.
type ImageRepository interface {
	Create(ctx context.Context, img *model.NoteImage) error

	// GetActive возвращает неудалённое изображение владельца.
	GetActive(ctx context.Context, ownerID int64, id string) (*model.NoteImage, error)

	// ListActive — неудалённые изображения заметки, новые первыми.
	ListActive(ctx context.Context, ownerID int64, noteID string) ([]model.NoteImage, error)

	// CountActive считает неудалённые изображения заметки.
	CountActive(ctx context.Context, noteID string) (int64, error)

	SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error
}

type imageRepo struct {
	db *gorm.DB
}

// NewImageRepository создаёт реализацию репозитория для NoteImage.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Create(ctx context.Context, img *model.NoteImage) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Omit("Note").Create(img).Error
}

func (r *imageRepo) GetActive(ctx context.Context, ownerID int64, id string) (*model.NoteImage, error) {
	var img model.NoteImage
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		Take(&img).Error
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *imageRepo) ListActive(ctx context.Context, ownerID int64, noteID string) ([]model.NoteImage, error) {
	var out []model.NoteImage
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND owner_id = ? AND deleted_at IS NULL", noteID, ownerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *imageRepo) CountActive(ctx context.Context, noteID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.NoteImage{}).
		Where("note_id = ? AND deleted_at IS NULL", noteID).
		Count(&n).Error
	return n, err
}

func (r *imageRepo) SoftDelete(ctx context.Context, ownerID int64, id string, at time.Time) error {
	tx := r.db.WithContext(ctx).Model(&model.NoteImage{}).
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
