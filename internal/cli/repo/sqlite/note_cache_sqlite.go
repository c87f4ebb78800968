package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"NoteKeeper/internal/cli/repo"
	"NoteKeeper/internal/model"

	_ "modernc.org/sqlite"
)

const syncedAtKey = "synced_at"

// NoteCacheSQLite — локальный кэш заметок пользователя в SQLite.
type NoteCacheSQLite struct {
	db    *sql.DB
	login string
}

var _ repo.NoteCache = (*NoteCacheSQLite)(nil)

// OpenForUser открывает (и создаёт при необходимости) файл БД для указанного логина
// и возвращает кэш. Вторым значением возвращается путь к БД.
func OpenForUser(login string) (*NoteCacheSQLite, string, error) {
	if login == "" {
		return nil, "", errors.New("empty login for user store")
	}
	base := os.Getenv("CLIENT_DB_PATH")
	if base == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, "", err
		}
		base = filepath.Join(cfgDir, "NoteKeeper", "users")
	}
	dir := filepath.Join(base, login)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", err
	}
	dbPath := filepath.Join(dir, "client.sqlite")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, "", err
	}
	return &NoteCacheSQLite{db: db, login: login}, dbPath, nil
}

// Close закрывает соединение с БД.
func (r *NoteCacheSQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц/индексов.
func (r *NoteCacheSQLite) Migrate() error {
	_, err := r.db.Exec(initialDDL())
	return err
}

// ReplaceNotes в одной транзакции удаляет старый снимок и записывает новый.
func (r *NoteCacheSQLite) ReplaceNotes(ctx context.Context, notes []model.NoteView) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return err
	}

	noteStmt, err := tx.PrepareContext(ctx, `INSERT INTO notes(id, owner_id, title, content, is_public, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()
	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO note_tags(note_id, tag_id, name, color) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tagStmt.Close()

	for _, n := range notes {
		var content sql.NullString
		if n.Content != nil {
			content = sql.NullString{String: *n.Content, Valid: true}
		}
		if _, err := noteStmt.ExecContext(ctx, n.ID, n.OwnerID, n.Title, content, boolToInt(n.IsPublic),
			n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli()); err != nil {
			return err
		}
		for _, t := range n.Tags {
			if _, err := tagStmt.ExecContext(ctx, n.ID, t.ID, t.Name, t.Color); err != nil {
				return err
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`, syncedAtKey, now); err != nil {
		return err
	}
	return tx.Commit()
}

// ListNotes возвращает закэшированные заметки с тегами, отсортированные по updated_at DESC.
func (r *NoteCacheSQLite) ListNotes(ctx context.Context) ([]model.NoteView, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_id, title, content, is_public, created_at, updated_at
        FROM notes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.NoteView{}
	index := map[string]int{}
	for rows.Next() {
		var (
			n                    model.NoteView
			content              sql.NullString
			public               int
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &content, &public, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if content.Valid {
			c := content.String
			n.Content = &c
		}
		n.IsPublic = public != 0
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		n.Tags = []model.Tag{}
		index[n.ID] = len(res)
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := r.db.QueryContext(ctx, `SELECT note_id, tag_id, name, color FROM note_tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var noteID string
		var t model.Tag
		if err := tagRows.Scan(&noteID, &t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		if i, ok := index[noteID]; ok {
			t.OwnerID = res[i].OwnerID
			res[i].Tags = append(res[i].Tags, t)
		}
	}
	return res, tagRows.Err()
}

// SyncedAt возвращает время последнего ReplaceNotes.
func (r *NoteCacheSQLite) SyncedAt(ctx context.Context) (time.Time, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, syncedAtKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
