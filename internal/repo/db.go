package repo

import (
	"fmt"
	"strings"
	"time"

	"NoteKeeper/internal/model"
	"NoteKeeper/internal/search"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД по строке подключения и применяет миграции.
// postgres:// и DSN вида "host=..." открываются драйвером PostgreSQL,
// всё остальное считается путём к файлу SQLite (драйвер modernc).
// Предупреждения gorm пишутся в log; при log == nil отбрасываются.
func InitDB(dsn string, log *zap.SugaredLogger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "file:notekeeper.db"
	}
	var dial gorm.Dialector
	if isPostgresDSN(dsn) {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger(log),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	d := strings.ToLower(dsn)
	return strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") || strings.Contains(d, "host=")
}

// Migrate создаёт таблицы и индексы, которых не умеет AutoMigrate.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Note{},
		&model.Tag{},
		&model.NoteTag{},
		&model.NoteImage{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := backfillKeys(db); err != nil {
		return fmt.Errorf("backfill search keys: %w", err)
	}

	// имя тега уникально без учёта регистра среди неудалённых тегов владельца;
	// lower() в SQLite не знает не-ASCII букв, поэтому индекс строится по name_key
	stmts := []string{
		`drop index if exists uq_tags_owner_lower_name`,
		`create unique index if not exists uq_tags_owner_name_key on tags(owner_id, name_key) where deleted_at is null`,
		`create index if not exists idx_notes_owner_updated on notes(owner_id, updated_at)`,
		`create index if not exists idx_note_images_note_created on note_images(note_id, created_at)`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// backfillKeys заполняет свёрнутые копии у строк, созданных до их появления.
// Имя тега и заголовок заметки не бывают пустыми, так что пустой ключ значит «не заполнен».
func backfillKeys(db *gorm.DB) error {
	var tags []model.Tag
	if err := db.Where("name_key = ''").Find(&tags).Error; err != nil {
		return err
	}
	for _, t := range tags {
		err := db.Model(&model.Tag{}).Where("id = ?", t.ID).
			UpdateColumn("name_key", search.Fold(t.Name)).Error
		if err != nil {
			return err
		}
	}

	var notes []model.Note
	if err := db.Where("title_key = ''").Find(&notes).Error; err != nil {
		return err
	}
	for _, n := range notes {
		setNoteKeys(&n)
		err := db.Model(&model.Note{}).Where("id = ?", n.ID).
			UpdateColumns(map[string]any{"title_key": n.TitleKey, "content_key": n.ContentKey}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func setNoteKeys(n *model.Note) {
	n.TitleKey = search.Fold(n.Title)
	n.ContentKey = ""
	if n.Content != nil {
		n.ContentKey = search.Fold(*n.Content)
	}
}

// noteKeyUpdates дописывает в updates свёрнутые копии изменяемых полей заметки.
func noteKeyUpdates(updates map[string]any) {
	if title, ok := updates["title"].(string); ok {
		updates["title_key"] = search.Fold(title)
	}
	if c, ok := updates["content"]; ok {
		key := ""
		switch v := c.(type) {
		case string:
			key = search.Fold(v)
		case *string:
			if v != nil {
				key = search.Fold(*v)
			}
		}
		updates["content_key"] = key
	}
}

// zapWriter передаёт сообщения gorm в zap.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...any) {
	w.log.Warnf(format, args...)
}

func gormLogger(log *zap.SugaredLogger) logger.Interface {
	if log == nil {
		return logger.Discard
	}
	return logger.New(zapWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// likePattern строит шаблон для LIKE по свёрнутому запросу с экранированием спецсимволов.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search.Fold(query)) + "%"
}
