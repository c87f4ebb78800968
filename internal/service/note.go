package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/search"
	"NoteKeeper/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// NoteService — хранилище заметок: CRUD, мягкое удаление, поиск и кэш заметок владельца.
type NoteService struct {
	notes  repo.NoteRepository
	tags   *TagService
	pub    *feed.Publisher
	logger *zap.SugaredLogger

	locks  *keyedMutex
	locale language.Tag

	mu    sync.RWMutex
	cache map[int64][]model.NoteView
}

func NewNoteService(notes repo.NoteRepository, tags *TagService, pub *feed.Publisher, logger *zap.SugaredLogger) *NoteService {
	return &NoteService{
		notes:  notes,
		tags:   tags,
		pub:    pub,
		logger: logger,
		locks:  newKeyedMutex(),
		locale: language.Und,
		cache:  make(map[int64][]model.NoteView),
	}
}

// SetSortLocale задаёт локаль для сортировки по заголовку.
func (s *NoteService) SetSortLocale(loc language.Tag) {
	s.mu.Lock()
	s.locale = loc
	s.mu.Unlock()
}

// ListNotes возвращает неудалённые заметки владельца с тегами, новые изменения первыми.
func (s *NoteService) ListNotes(ctx context.Context, ownerID int64) ([]model.NoteView, error) {
	list, err := s.notes.ListActive(ctx, ownerID)
	if err != nil {
		s.logger.Errorw("ListNotes: repo error", "owner_id", ownerID, "error", err)
		return nil, apperr.Backend("list notes", err)
	}
	views, err := s.withTags(ctx, list)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[ownerID] = append([]model.NoteView(nil), views...)
	s.mu.Unlock()
	return views, nil
}

// GetNote возвращает заметку с тегами или nil, если её нет, она удалена
// или это чужая непубличная заметка.
func (s *NoteService) GetNote(ctx context.Context, ownerID int64, id string) (*model.NoteView, error) {
	n, err := s.notes.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("get note", err)
	}
	if n.DeletedAt != nil || (n.OwnerID != ownerID && !n.IsPublic) {
		return nil, nil
	}
	return s.view(ctx, *n)
}

// GetNoteRecord возвращает заметку владельца в любом состоянии, включая удалённые.
func (s *NoteService) GetNoteRecord(ctx context.Context, ownerID int64, id string) (*model.Note, error) {
	n, err := s.notes.GetByID(ctx, ownerID, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("get note", err)
	}
	return n, nil
}

// CreateNote проверяет ввод, сохраняет заметку и её теги.
// Теги в ответе перечитываются из хранилища. Если теги сохранить не удалось,
// заметка удаляется.
func (s *NoteService) CreateNote(ctx context.Context, ownerID int64, in model.NoteInput) (*model.NoteView, error) {
	in = normalizeNote(in)
	if err := validation.Note(in); err != nil {
		return nil, err
	}
	tagIDs, err := s.tags.ResolveOwned(ctx, ownerID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	n := &model.Note{OwnerID: ownerID, Title: in.Title, Content: in.Content, IsPublic: in.IsPublic}
	if err := s.notes.Create(ctx, n); err != nil {
		s.logger.Errorw("CreateNote: repo error", "owner_id", ownerID, "error", err)
		return nil, apperr.Backend("create note", err)
	}
	if err := s.tags.SetNoteTagIDs(ctx, ownerID, n.ID, tagIDs); err != nil {
		// заметка без запрошенных тегов не должна остаться: повтор создал бы дубликат
		if derr := s.notes.SoftDelete(context.WithoutCancel(ctx), ownerID, n.ID, time.Now().UTC()); derr != nil {
			s.logger.Errorw("CreateNote: rollback failed", "note_id", n.ID, "error", derr)
		}
		return nil, err
	}

	v, err := s.view(ctx, *n)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if list, ok := s.cache[ownerID]; ok {
		s.cache[ownerID] = append([]model.NoteView{*v}, list...)
	}
	s.mu.Unlock()

	s.pub.Publish(ctx, feed.NoteCreated, ownerID, n.ID, n.ID)
	s.logger.Infow("note created", "owner_id", ownerID, "note_id", n.ID)
	return v, nil
}

// UpdateNote меняет поля заметки и полностью заменяет её набор тегов.
func (s *NoteService) UpdateNote(ctx context.Context, ownerID int64, id string, in model.NoteInput) (*model.NoteView, error) {
	in = normalizeNote(in)
	if err := validation.Note(in); err != nil {
		return nil, err
	}
	tagIDs, err := s.tags.ResolveOwned(ctx, ownerID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	err = s.notes.Update(ctx, ownerID, id, map[string]any{
		"title":     in.Title,
		"content":   in.Content,
		"is_public": in.IsPublic,
	})
	if isNotFound(err) {
		return nil, &apperr.NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		s.logger.Errorw("UpdateNote: repo error", "note_id", id, "error", err)
		return nil, apperr.Backend("update note", err)
	}
	if err := s.tags.SetNoteTagIDs(ctx, ownerID, id, tagIDs); err != nil {
		return nil, err
	}

	v, err := s.reload(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, feed.NoteUpdated, ownerID, id, id)
	return v, nil
}

// SetNoteTags заменяет теги заметки и обновляет её в кэше.
func (s *NoteService) SetNoteTags(ctx context.Context, ownerID int64, id string, tagIDs []string) (*model.NoteView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.tags.SetNoteTagIDs(ctx, ownerID, id, tagIDs); err != nil {
		return nil, err
	}
	return s.reload(ctx, ownerID, id)
}

// DeleteNote мягко удаляет заметку.
func (s *NoteService) DeleteNote(ctx context.Context, ownerID int64, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.notes.SoftDelete(ctx, ownerID, id, time.Now().UTC())
	if isNotFound(err) {
		return &apperr.NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		s.logger.Errorw("DeleteNote: repo error", "note_id", id, "error", err)
		return apperr.Backend("delete note", err)
	}
	s.forget(ownerID, id)
	s.pub.Publish(ctx, feed.NoteDeleted, ownerID, id, id)
	return nil
}

// RestoreNote возвращает мягко удалённую заметку.
func (s *NoteService) RestoreNote(ctx context.Context, ownerID int64, id string) (*model.NoteView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.notes.Restore(ctx, ownerID, id)
	if isNotFound(err) {
		return nil, &apperr.NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		s.logger.Errorw("RestoreNote: repo error", "note_id", id, "error", err)
		return nil, apperr.Backend("restore note", err)
	}
	s.Invalidate(ownerID)
	s.pub.Publish(ctx, feed.NoteRestored, ownerID, id, id)

	n, err := s.GetNote(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, &apperr.NotFoundError{Entity: "note", ID: id}
	}
	return n, nil
}

// ListDeletedNotes — корзина владельца.
func (s *NoteService) ListDeletedNotes(ctx context.Context, ownerID int64) ([]model.Note, error) {
	list, err := s.notes.ListDeleted(ctx, ownerID)
	if err != nil {
		return nil, apperr.Backend("list deleted notes", err)
	}
	return list, nil
}

// ListPublicNotes — публичные заметки всех пользователей.
func (s *NoteService) ListPublicNotes(ctx context.Context) ([]model.NoteView, error) {
	list, err := s.notes.ListPublic(ctx)
	if err != nil {
		return nil, apperr.Backend("list public notes", err)
	}
	return s.withTags(ctx, list)
}

// SearchNotes ищет подстроку в заголовке и тексте и объединяет результат
// с заметками, у которых совпало имя тега. Пустой запрос равен ListNotes.
func (s *NoteService) SearchNotes(ctx context.Context, ownerID int64, query string) ([]model.NoteView, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return s.ListNotes(ctx, ownerID)
	}

	byText, err := s.notes.SearchText(ctx, ownerID, q)
	if err != nil {
		return nil, apperr.Backend("search notes", err)
	}
	tagged, err := s.tags.NoteIDsByTagName(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}
	byTag, err := s.notes.ListByIDs(ctx, ownerID, tagged)
	if err != nil {
		return nil, apperr.Backend("search notes by tag", err)
	}

	seen := make(map[string]struct{}, len(byText)+len(byTag))
	merged := make([]model.Note, 0, len(byText)+len(byTag))
	for _, group := range [][]model.Note{byText, byTag} {
		for _, n := range group {
			if _, ok := seen[n.ID]; ok || n.DeletedAt != nil {
				continue
			}
			seen[n.ID] = struct{}{}
			merged = append(merged, n)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].UpdatedAt.After(merged[j].UpdatedAt) })
	return s.withTags(ctx, merged)
}

// Query фильтрует и сортирует закэшированные заметки владельца.
// Кэш загружается при первом обращении.
func (s *NoteService) Query(ctx context.Context, ownerID int64, c search.Criteria) ([]model.NoteView, error) {
	s.mu.RLock()
	list, ok := s.cache[ownerID]
	locale := s.locale
	s.mu.RUnlock()
	if !ok {
		var err error
		if list, err = s.ListNotes(ctx, ownerID); err != nil {
			return nil, err
		}
	}
	if c.Locale == (language.Tag{}) {
		c.Locale = locale
	}
	return search.Apply(list, c), nil
}

// Invalidate сбрасывает кэш заметок владельца.
func (s *NoteService) Invalidate(ownerID int64) {
	s.mu.Lock()
	delete(s.cache, ownerID)
	s.mu.Unlock()
}

// Watch читает ленту изменений и сбрасывает кэши затронутых владельцев.
// Свои события о полях заметки пропускаются: кэш уже обновлён на месте.
// Завершается при отмене ctx или закрытии канала.
func (s *NoteService) Watch(ctx context.Context, events <-chan feed.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch {
			case ev.IsTagEvent():
				// в кэше заметок лежат имена и цвета тегов
				s.Invalidate(ev.OwnerID)
				if ev.Origin != s.pub.Origin() {
					s.tags.Invalidate(ev.OwnerID)
				}
			case ev.Kind == feed.NoteTagsChanged:
				s.Invalidate(ev.OwnerID)
			case ev.IsNoteEvent() && ev.Origin != s.pub.Origin():
				s.Invalidate(ev.OwnerID)
			}
		}
	}
}

func (s *NoteService) view(ctx context.Context, n model.Note) (*model.NoteView, error) {
	tags, err := s.tags.TagsForNote(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	return &model.NoteView{Note: n, Tags: tags}, nil
}

// withTags подтягивает теги к каждой заметке отдельным запросом.
func (s *NoteService) withTags(ctx context.Context, list []model.Note) ([]model.NoteView, error) {
	views := make([]model.NoteView, 0, len(list))
	for _, n := range list {
		v, err := s.view(ctx, n)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// reload перечитывает заметку и заменяет её в кэше.
func (s *NoteService) reload(ctx context.Context, ownerID int64, id string) (*model.NoteView, error) {
	n, err := s.notes.GetByID(ctx, ownerID, id)
	if isNotFound(err) {
		return nil, &apperr.NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		return nil, apperr.Backend("get note", err)
	}
	v, err := s.view(ctx, *n)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if list, ok := s.cache[ownerID]; ok {
		kept := make([]model.NoteView, 0, len(list)+1)
		kept = append(kept, *v)
		for _, c := range list {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.cache[ownerID] = kept
	}
	s.mu.Unlock()
	return v, nil
}

func (s *NoteService) forget(ownerID int64, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.cache[ownerID]
	if !ok {
		return
	}
	kept := make([]model.NoteView, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.cache[ownerID] = kept
}

func normalizeNote(in model.NoteInput) model.NoteInput {
	in.Title = strings.TrimSpace(in.Title)
	return in
}
