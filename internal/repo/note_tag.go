package repo

import (
	"context"
	"fmt"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/model"

	"gorm.io/gorm"
)

// NoteTagRepository — связи заметок и тегов.
type NoteTagRepository interface {
	// ReplaceForNote заменяет весь набор тегов заметки в одной транзакции.
	ReplaceForNote(ctx context.Context, noteID string, tagIDs []string) error

	// TagsForNote возвращает теги заметки, включая мягко удалённые.
	TagsForNote(ctx context.Context, noteID string) ([]model.Tag, error)

	// NotesForTag возвращает заметки, связанные с тегом, включая мягко удалённые.
	NotesForTag(ctx context.Context, tagID string) ([]model.Note, error)

	// NoteIDsForTags — ID заметок, связанных хотя бы с одним из тегов.
	NoteIDsForTags(ctx context.Context, tagIDs []string) ([]string, error)
}

type noteTagRepo struct {
	db *gorm.DB
}

// NewNoteTagRepository создаёт реализацию репозитория связей.
func NewNoteTagRepository(db *gorm.DB) NoteTagRepository {
	return &noteTagRepo{db: db}
}

func (r *noteTagRepo) ReplaceForNote(ctx context.Context, noteID string, tagIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", noteID).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		links := make([]model.NoteTag, 0, len(tagIDs))
		for _, id := range tagIDs {
			links = append(links, model.NoteTag{NoteID: noteID, TagID: id})
		}
		return tx.Omit("Note", "Tag").Create(&links).Error
	})
}

func (r *noteTagRepo) TagsForNote(ctx context.Context, noteID string) ([]model.Tag, error) {
	var links []model.NoteTag
	err := r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Preload("Tag").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Tag, 0, len(links))
	for _, l := range links {
		if l.Tag == nil || l.Tag.ID != l.TagID {
			return nil, &apperr.MalformedResponseError{Detail: fmt.Sprintf("note_tags row %s/%s has no tag", l.NoteID, l.TagID)}
		}
		out = append(out, *l.Tag)
	}
	return out, nil
}

func (r *noteTagRepo) NotesForTag(ctx context.Context, tagID string) ([]model.Note, error) {
	var links []model.NoteTag
	err := r.db.WithContext(ctx).
		Where("tag_id = ?", tagID).
		Preload("Note").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Note, 0, len(links))
	for _, l := range links {
		if l.Note == nil || l.Note.ID != l.NoteID {
			return nil, &apperr.MalformedResponseError{Detail: fmt.Sprintf("note_tags row %s/%s has no note", l.NoteID, l.TagID)}
		}
		out = append(out, *l.Note)
	}
	return out, nil
}

func (r *noteTagRepo) NoteIDsForTags(ctx context.Context, tagIDs []string) ([]string, error) {
	if len(tagIDs) == 0 {
		return []string{}, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.NoteTag{}).
		Where("tag_id IN ?", tagIDs).
		Distinct("note_id").
		Pluck("note_id", &ids).Error
	return ids, err
}
