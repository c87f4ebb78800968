package service

import (
	"NoteKeeper/internal/apperr"
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/search"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func (s *stores) noteCacheLoaded(ownerID int64) bool {
	s.note.mu.RLock()
	defer s.note.mu.RUnlock()
	_, ok := s.note.cache[ownerID]
	return ok
}

func TestNoteService_CreateWithTags(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	work := s.mustTag(t, 1, "Work")
	urgent := s.mustTag(t, 1, "Urgent")

	n, err := s.note.CreateNote(ctx, 1, model.NoteInput{
		Title:   "  Plan  ",
		Content: strPtr("body"),
		TagIDs:  []string{work.ID, urgent.ID},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Plan", n.Title)
	assert.Equal(t, []string{"Urgent", "Work"}, tagNames(n.Tags))

	got, err := s.note.GetNote(ctx, 1, n.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "body", *got.Content)
	assert.Len(t, got.Tags, 2)
}

func TestNoteService_CreateValidation(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()

	var ve *apperr.ValidationError
	_, err := s.note.CreateNote(ctx, 1, model.NoteInput{Title: "   "})
	assert.True(t, errors.As(err, &ve))

	// неизвестный тег — заметка не создаётся
	_, err = s.note.CreateNote(ctx, 1, model.NoteInput{Title: "t", TagIDs: []string{"missing"}})
	assert.True(t, errors.As(err, &ve))

	list, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteService_CreateWithoutTagsThenSetTags(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	n := s.mustNote(t, 1, model.NoteInput{Title: "bare"})
	assert.Empty(t, n.Tags)

	tag := s.mustTag(t, 1, "later")
	updated, err := s.note.SetNoteTags(ctx, 1, n.ID, []string{tag.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, tagNames(updated.Tags))

	updated, err = s.note.SetNoteTags(ctx, 1, n.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestNoteService_UpdateReplacesTags(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	a := s.mustTag(t, 1, "a")
	b := s.mustTag(t, 1, "b")
	n := s.mustNote(t, 1, model.NoteInput{Title: "old", TagIDs: []string{a.ID}})

	// кэш загружен, обновление должно попасть в него
	_, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)

	updated, err := s.note.UpdateNote(ctx, 1, n.ID, model.NoteInput{Title: "new", IsPublic: true, TagIDs: []string{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, []string{"b"}, tagNames(updated.Tags))
	assert.False(t, updated.UpdatedAt.Before(n.UpdatedAt))

	list, err := s.note.Query(ctx, 1, search.Criteria{})
	require.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, "new", list[0].Title)
	}

	var nf *apperr.NotFoundError
	_, err = s.note.UpdateNote(ctx, 2, n.ID, model.NoteInput{Title: "hijack"})
	assert.True(t, errors.As(err, &nf))
}

func TestNoteService_SoftDeleteVisibility(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	keep := s.mustNote(t, 1, model.NoteInput{Title: "keep"})
	gone := s.mustNote(t, 1, model.NoteInput{Title: "gone"})

	require.NoError(t, s.note.DeleteNote(ctx, 1, gone.ID))

	list, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, noteIDs(list))

	got, err := s.note.GetNote(ctx, 1, gone.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// запись сохранилась с отметкой удаления
	rec, err := s.note.GetNoteRecord(ctx, 1, gone.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Deleted())

	trash, err := s.note.ListDeletedNotes(ctx, 1)
	require.NoError(t, err)
	if assert.Len(t, trash, 1) {
		assert.Equal(t, gone.ID, trash[0].ID)
	}

	var nf *apperr.NotFoundError
	assert.True(t, errors.As(s.note.DeleteNote(ctx, 1, gone.ID), &nf))
	_, err = s.note.UpdateNote(ctx, 1, gone.ID, model.NoteInput{Title: "x"})
	assert.True(t, errors.As(err, &nf))
}

func TestNoteService_Restore(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	tag := s.mustTag(t, 1, "kept")
	n := s.mustNote(t, 1, model.NoteInput{Title: "back", TagIDs: []string{tag.ID}})
	require.NoError(t, s.note.DeleteNote(ctx, 1, n.ID))

	restored, err := s.note.RestoreNote(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "back", restored.Title)
	assert.Equal(t, []string{"kept"}, tagNames(restored.Tags))

	list, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	var nf *apperr.NotFoundError
	_, err = s.note.RestoreNote(ctx, 1, n.ID)
	assert.True(t, errors.As(err, &nf))
}

func TestNoteService_PublicVisibility(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	private := s.mustNote(t, 1, model.NoteInput{Title: "private"})
	public := s.mustNote(t, 1, model.NoteInput{Title: "public", IsPublic: true})

	got, err := s.note.GetNote(ctx, 2, private.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.note.GetNote(ctx, 2, public.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "public", got.Title)

	list, err := s.note.ListPublicNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, noteIDs(list))

	// чужие заметки не попадают в список владельца
	mine, err := s.note.ListNotes(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestNoteService_SearchUnionsTextAndTagMatches(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	grocery := s.mustTag(t, 1, "grocery")
	byTitle := s.mustNote(t, 1, model.NoteInput{Title: "Groceries"})
	byContent := s.mustNote(t, 1, model.NoteInput{Title: "misc", Content: strPtr("buy GROCeries")})
	byTag := s.mustNote(t, 1, model.NoteInput{Title: "errands", TagIDs: []string{grocery.ID}})
	both := s.mustNote(t, 1, model.NoteInput{Title: "grocery run", TagIDs: []string{grocery.ID}})
	s.mustNote(t, 1, model.NoteInput{Title: "unrelated"})
	s.mustNote(t, 2, model.NoteInput{Title: "groceries of someone else"})
	deleted := s.mustNote(t, 1, model.NoteInput{Title: "old groceries", TagIDs: []string{grocery.ID}})
	require.NoError(t, s.note.DeleteNote(ctx, 1, deleted.ID))

	found, err := s.note.SearchNotes(ctx, 1, "groc")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byContent.ID, byTag.ID, both.ID}, noteIDs(found))

	// пустой запрос — все заметки
	all, err := s.note.SearchNotes(ctx, 1, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	// символы шаблона LIKE ищутся буквально
	none, err := s.note.SearchNotes(ctx, 1, "%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// failingLinks ломает только замену набора тегов.
type failingLinks struct{ repo.NoteTagRepository }

func (failingLinks) ReplaceForNote(context.Context, string, []string) error {
	return errors.New("database is locked")
}

func TestNoteService_CreateRemovesNoteWhenTagsFail(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	work := s.mustTag(t, 1, "work")

	logger := zap.NewNop().Sugar()
	tags := NewTagService(repo.NewTagRepository(s.db), s.notes, failingLinks{repo.NewNoteTagRepository(s.db)}, s.pub, logger)
	svc := NewNoteService(s.notes, tags, s.pub, logger)

	_, err := svc.CreateNote(ctx, 1, model.NoteInput{Title: "tagged", TagIDs: []string{work.ID}})
	var be *apperr.BackendError
	require.True(t, errors.As(err, &be))

	list, err := svc.ListNotes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	found, err := svc.SearchNotes(ctx, 1, "tagged")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestNoteService_SearchNonASCII(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	work := s.mustTag(t, 1, "Работа")
	byTitle := s.mustNote(t, 1, model.NoteInput{Title: "Покупки"})
	byContent := s.mustNote(t, 1, model.NoteInput{Title: "misc", Content: strPtr("Список ПОКУПОК")})
	byTag := s.mustNote(t, 1, model.NoteInput{Title: "отчёт", TagIDs: []string{work.ID}})

	found, err := s.note.SearchNotes(ctx, 1, "покуп")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byContent.ID}, noteIDs(found))

	found, err = s.note.SearchNotes(ctx, 1, "РАБОТ")
	require.NoError(t, err)
	assert.Equal(t, []string{byTag.ID}, noteIDs(found))

	// серверный поиск и фильтр по кэшу дают одно и то же
	queried, err := s.note.Query(ctx, 1, search.Criteria{Query: "покуп"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byContent.ID}, noteIDs(queried))
}

func TestNoteService_SetSortLocaleWhileQuerying(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	s.mustNote(t, 1, model.NoteInput{Title: "Äpfel"})
	s.mustNote(t, 1, model.NoteInput{Title: "Zebra"})
	_, err := s.note.Query(ctx, 1, search.Criteria{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.note.SetSortLocale(language.German)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = s.note.Query(ctx, 1, search.Criteria{Sort: search.TitleAsc})
		}
	}()
	wg.Wait()

	list, err := s.note.Query(ctx, 1, search.Criteria{Sort: search.TitleAsc})
	require.NoError(t, err)
	if assert.Len(t, list, 2) {
		assert.Equal(t, "Äpfel", list[0].Title)
	}
}

func TestNoteService_QueryFiltersCachedNotes(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	work := s.mustTag(t, 1, "work")
	s.mustNote(t, 1, model.NoteInput{Title: "beta", TagIDs: []string{work.ID}})
	s.mustNote(t, 1, model.NoteInput{Title: "alpha", TagIDs: []string{work.ID}})
	s.mustNote(t, 1, model.NoteInput{Title: "gamma"})

	assert.False(t, s.noteCacheLoaded(1))
	list, err := s.note.Query(ctx, 1, search.Criteria{TagID: work.ID, Sort: search.TitleAsc})
	require.NoError(t, err)
	assert.True(t, s.noteCacheLoaded(1))

	titles := make([]string, 0, len(list))
	for _, n := range list {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"alpha", "beta"}, titles)

	list, err = s.note.Query(ctx, 1, search.Criteria{Query: "GAM"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNoteService_WatchInvalidatesCache(t *testing.T) {
	s := newStores(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.mustNote(t, 1, model.NoteInput{Title: "n"})

	events := make(chan feed.Event, 4)
	done := make(chan struct{})
	go func() {
		s.note.Watch(ctx, events)
		close(done)
	}()

	_, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)
	_, err = s.tags.ListTags(ctx, 1)
	require.NoError(t, err)

	// своё событие об изменении полей кэш не трогает
	events <- feed.Event{Kind: feed.NoteUpdated, OwnerID: 1, Origin: s.pub.Origin()}
	// чужое событие о теге сбрасывает оба кэша
	events <- feed.Event{Kind: feed.TagUpdated, OwnerID: 1, Origin: "other-node"}

	assert.Eventually(t, func() bool {
		_, tagsCached := s.tags.Cached(1)
		return !s.noteCacheLoaded(1) && !tagsCached
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestNoteService_WatchFromBroker(t *testing.T) {
	s := newStores(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe := s.broker.Subscribe(ctx)
	defer unsubscribe()
	go s.note.Watch(ctx, ch)

	n := s.mustNote(t, 1, model.NoteInput{Title: "n"})
	_, err := s.note.ListNotes(ctx, 1)
	require.NoError(t, err)

	// смена тегов публикуется в ленту и сбрасывает кэш заметок
	_, err = s.note.SetNoteTags(ctx, 1, n.ID, nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !s.noteCacheLoaded(1) }, time.Second, 10*time.Millisecond)
}
