package service

import (
	"NoteKeeper/internal/feed"
	"NoteKeeper/internal/model"
	"NoteKeeper/internal/repo"
	"NoteKeeper/internal/storage"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestDB — отдельная in-memory SQLite на каждый тест.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.InitDB("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type stores struct {
	db     *gorm.DB
	notes  repo.NoteRepository
	tags   *TagService
	note   *NoteService
	broker *feed.MemoryBroker
	pub    *feed.Publisher
}

func newStores(t *testing.T) *stores {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop().Sugar()
	broker := feed.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })
	pub := feed.NewPublisher(broker, "test-node", logger)

	notes := repo.NewNoteRepository(db)
	tags := NewTagService(repo.NewTagRepository(db), notes, repo.NewNoteTagRepository(db), pub, logger)
	return &stores{
		db:     db,
		notes:  notes,
		tags:   tags,
		note:   NewNoteService(notes, tags, pub, logger),
		broker: broker,
		pub:    pub,
	}
}

func (s *stores) mustTag(t *testing.T, ownerID int64, name string) *model.Tag {
	t.Helper()
	tag, err := s.tags.CreateTag(context.Background(), ownerID, name, "")
	require.NoError(t, err)
	return tag
}

func (s *stores) mustNote(t *testing.T, ownerID int64, in model.NoteInput) *model.NoteView {
	t.Helper()
	n, err := s.note.CreateNote(context.Background(), ownerID, in)
	require.NoError(t, err)
	return n
}

func tagNames(tags []model.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func noteIDs(notes []model.NoteView) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func strPtr(s string) *string { return &s }

// mockStorage — мок объектного хранилища.
type mockStorage struct{ mock.Mock }

func (m *mockStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	return m.Called(ctx, path, data, contentType).Error(0)
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockStorage) PublicURL(path string) string {
	return "https://cdn.test/" + path
}

var _ storage.ObjectStorage = (*mockStorage)(nil)
