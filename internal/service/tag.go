package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/validation"

	"go.uber.org/zap"
)

// TagService — хранилище тегов: CRUD, связи заметок с тегами и кэш тегов владельца.
type TagService struct {
	tags   repo.TagRepository
	notes  repo.NoteRepository
	links  repo.NoteTagRepository
	pub    *feed.Publisher
	logger *zap.SugaredLogger

	locks *keyedMutex

	mu    sync.RWMutex
	cache map[int64][]model.Tag
}

func NewTagService(
	tags repo.TagRepository,
	notes repo.NoteRepository,
	links repo.NoteTagRepository,
	pub *feed.Publisher,
	logger *zap.SugaredLogger,
) *TagService {
	return &TagService{
		tags:   tags,
		notes:  notes,
		links:  links,
		pub:    pub,
		logger: logger,
		locks:  newKeyedMutex(),
		cache:  make(map[int64][]model.Tag),
	}
}

// ListTags возвращает неудалённые теги владельца по имени и обновляет кэш.
func (s *TagService) ListTags(ctx context.Context, ownerID int64) ([]model.Tag, error) {
	list, err := s.tags.ListActive(ctx, ownerID)
	if err != nil {
		s.logger.Errorw("ListTags: repo error", "owner_id", ownerID, "error", err)
		return nil, apperr.Backend("list tags", err)
	}
	s.mu.Lock()
	s.cache[ownerID] = append([]model.Tag(nil), list...)
	s.mu.Unlock()
	return list, nil
}

// Cached возвращает копию закэшированных тегов владельца; ok == false, если кэша нет.
func (s *TagService) Cached(ownerID int64) ([]model.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.cache[ownerID]
	if !ok {
		return nil, false
	}
	return append([]model.Tag(nil), list...), true
}

// Invalidate сбрасывает кэш тегов владельца.
func (s *TagService) Invalidate(ownerID int64) {
	s.mu.Lock()
	delete(s.cache, ownerID)
	s.mu.Unlock()
}

// GetTag возвращает тег владельца или nil, если его нет или он удалён.
func (s *TagService) GetTag(ctx context.Context, ownerID int64, id string) (*model.Tag, error) {
	t, err := s.tags.GetByID(ctx, ownerID, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("get tag", err)
	}
	if t.DeletedAt != nil {
		return nil, nil
	}
	return t, nil
}

// CreateTag создаёт тег. Имя уникально без учёта регистра среди неудалённых тегов владельца.
func (s *TagService) CreateTag(ctx context.Context, ownerID int64, name, color string) (*model.Tag, error) {
	in := model.TagInput{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := validation.Tag(in); err != nil {
		return nil, err
	}
	in.Color = validation.NormalizeTagColor(in.Color)

	// проверка и вставка под одним замком владельца
	unlock := s.locks.Lock(ownerKey(ownerID))
	defer unlock()

	if err := s.ensureNameFree(ctx, ownerID, in.Name, ""); err != nil {
		return nil, err
	}

	t := &model.Tag{OwnerID: ownerID, Name: in.Name, Color: in.Color}
	if err := s.tags.Create(ctx, t); err != nil {
		if isDuplicate(err) {
			return nil, nameConflict(in.Name)
		}
		s.logger.Errorw("CreateTag: repo error", "owner_id", ownerID, "error", err)
		return nil, apperr.Backend("create tag", err)
	}

	s.mu.Lock()
	if list, ok := s.cache[ownerID]; ok {
		s.cache[ownerID] = append(list, *t)
	}
	s.mu.Unlock()

	s.pub.Publish(ctx, feed.TagCreated, ownerID, t.ID, "")
	s.logger.Infow("tag created", "owner_id", ownerID, "tag_id", t.ID)
	return t, nil
}

// UpdateTag меняет имя и цвет тега. Пустой цвет оставляет текущий.
func (s *TagService) UpdateTag(ctx context.Context, ownerID int64, id, name, color string) (*model.Tag, error) {
	in := model.TagInput{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := validation.Tag(in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(ownerKey(ownerID))
	defer unlock()

	current, err := s.GetTag(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &apperr.NotFoundError{Entity: "tag", ID: id}
	}
	if err := s.ensureNameFree(ctx, ownerID, in.Name, id); err != nil {
		return nil, err
	}

	newColor := current.Color
	if in.Color != "" {
		newColor = validation.NormalizeTagColor(in.Color)
	}
	err = s.tags.Update(ctx, ownerID, id, map[string]any{"name": in.Name, "color": newColor})
	switch {
	case isNotFound(err):
		return nil, &apperr.NotFoundError{Entity: "tag", ID: id}
	case isDuplicate(err):
		return nil, nameConflict(in.Name)
	case err != nil:
		s.logger.Errorw("UpdateTag: repo error", "tag_id", id, "error", err)
		return nil, apperr.Backend("update tag", err)
	}

	updated, err := s.GetTag(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &apperr.NotFoundError{Entity: "tag", ID: id}
	}

	s.mu.Lock()
	if list, ok := s.cache[ownerID]; ok {
		for i := range list {
			if list[i].ID == id {
				list[i] = *updated
			}
		}
	}
	s.mu.Unlock()

	s.pub.Publish(ctx, feed.TagUpdated, ownerID, id, "")
	return updated, nil
}

// DeleteTag мягко удаляет тег. Связи с заметками не трогает: удалённые теги
// отфильтровываются при чтении.
func (s *TagService) DeleteTag(ctx context.Context, ownerID int64, id string) error {
	unlock := s.locks.Lock(ownerKey(ownerID))
	defer unlock()

	err := s.tags.SoftDelete(ctx, ownerID, id, time.Now().UTC())
	if isNotFound(err) {
		return &apperr.NotFoundError{Entity: "tag", ID: id}
	}
	if err != nil {
		s.logger.Errorw("DeleteTag: repo error", "tag_id", id, "error", err)
		return apperr.Backend("delete tag", err)
	}

	s.mu.Lock()
	if list, ok := s.cache[ownerID]; ok {
		kept := list[:0]
		for _, t := range list {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.cache[ownerID] = kept
	}
	s.mu.Unlock()

	s.pub.Publish(ctx, feed.TagDeleted, ownerID, id, "")
	return nil
}

// ResolveOwned проверяет, что все ID — неудалённые теги владельца, и возвращает
// их без повторов. Пустой список допустим.
func (s *TagService) ResolveOwned(ctx context.Context, ownerID int64, tagIDs []string) ([]string, error) {
	ids := dedupe(tagIDs)
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := s.tags.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, apperr.Backend("resolve tags", err)
	}
	if len(found) != len(ids) {
		known := make(map[string]struct{}, len(found))
		for _, t := range found {
			known[t.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return nil, &apperr.ValidationError{Field: "tag_ids", Message: fmt.Sprintf("unknown tag %q", id)}
			}
		}
	}
	return ids, nil
}

// SetNoteTagIDs заменяет набор тегов заметки. Пустой набор означает «без тегов».
func (s *TagService) SetNoteTagIDs(ctx context.Context, ownerID int64, noteID string, tagIDs []string) error {
	n, err := s.notes.GetByID(ctx, ownerID, noteID)
	if isNotFound(err) || (err == nil && n.DeletedAt != nil) {
		return &apperr.NotFoundError{Entity: "note", ID: noteID}
	}
	if err != nil {
		return apperr.Backend("get note", err)
	}

	ids, err := s.ResolveOwned(ctx, ownerID, tagIDs)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock("note-tags:" + noteID)
	defer unlock()

	if err := s.links.ReplaceForNote(ctx, noteID, ids); err != nil {
		s.logger.Errorw("SetNoteTagIDs: repo error", "note_id", noteID, "error", err)
		return apperr.Backend("set note tags", err)
	}
	s.pub.Publish(ctx, feed.NoteTagsChanged, ownerID, noteID, noteID)
	return nil
}

// TagsForNote возвращает неудалённые теги заметки по имени.
func (s *TagService) TagsForNote(ctx context.Context, noteID string) ([]model.Tag, error) {
	all, err := s.links.TagsForNote(ctx, noteID)
	if err != nil {
		return nil, apperr.Backend("tags for note", err)
	}
	out := make([]model.Tag, 0, len(all))
	for _, t := range all {
		if t.DeletedAt == nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FetchNotesByTagID возвращает неудалённые заметки владельца с этим тегом, новые первыми.
func (s *TagService) FetchNotesByTagID(ctx context.Context, ownerID int64, tagID string) ([]model.Note, error) {
	tag, err := s.GetTag(ctx, ownerID, tagID)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, &apperr.NotFoundError{Entity: "tag", ID: tagID}
	}
	linked, err := s.links.NotesForTag(ctx, tagID)
	if err != nil {
		return nil, apperr.Backend("notes for tag", err)
	}
	out := make([]model.Note, 0, len(linked))
	for _, n := range linked {
		// связи удалённых заметок не чистятся, поэтому фильтруем здесь
		if n.DeletedAt != nil || n.OwnerID != ownerID {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// NoteIDsByTagName — ID заметок, у которых есть тег с подстрокой query в имени.
func (s *TagService) NoteIDsByTagName(ctx context.Context, ownerID int64, query string) ([]string, error) {
	matched, err := s.tags.SearchByName(ctx, ownerID, query)
	if err != nil {
		return nil, apperr.Backend("search tags", err)
	}
	if len(matched) == 0 {
		return []string{}, nil
	}
	tagIDs := make([]string, 0, len(matched))
	for _, t := range matched {
		tagIDs = append(tagIDs, t.ID)
	}
	ids, err := s.links.NoteIDsForTags(ctx, tagIDs)
	if err != nil {
		return nil, apperr.Backend("notes for tags", err)
	}
	return ids, nil
}

func (s *TagService) ensureNameFree(ctx context.Context, ownerID int64, name, selfID string) error {
	existing, err := s.tags.FindActiveByName(ctx, ownerID, name)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return apperr.Backend("find tag by name", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return nameConflict(name)
}

func nameConflict(name string) error {
	return &apperr.ConflictError{Field: "name", Message: fmt.Sprintf("tag %q already exists", name)}
}

func ownerKey(ownerID int64) string {
	return "owner:" + strconv.FormatInt(ownerID, 10)
}
