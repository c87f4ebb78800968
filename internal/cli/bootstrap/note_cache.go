package bootstrap

import (
	"fmt"

	"NoteKeeper/internal/cli/repo"
	fsrepo "NoteKeeper/internal/cli/repo/fs"
	reposqlite "NoteKeeper/internal/cli/repo/sqlite"
)

// OpenNoteCache открывает кэш заметок текущего пользователя,
// выполняет миграции и возвращает (cache, cleanup, error).
// cleanup необходимо вызвать после окончания работы, чтобы закрыть соединение с БД.
func OpenNoteCache() (repo.NoteCache, func() error, error) {
	return OpenNoteCacheFor(fsrepo.AuthFSStore{})
}

// OpenNoteCacheFor — то же, что OpenNoteCache, но логин берётся из users.
func OpenNoteCacheFor(users repo.UserContextStore) (repo.NoteCache, func() error, error) {
	login, err := users.LoadLogin()
	if err != nil {
		return nil, nil, fmt.Errorf("нет активного пользователя: выполните login/register: %w", err)
	}
	return OpenNoteCacheForLogin(login)
}

// OpenNoteCacheForLogin открывает кэш для явно заданного логина.
func OpenNoteCacheForLogin(login string) (repo.NoteCache, func() error, error) {
	r, _, err := reposqlite.OpenForUser(login)
	if err != nil {
		return nil, nil, fmt.Errorf("open user db: %w", err)
	}
	if err := r.Migrate(); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("migrate user db: %w", err)
	}
	cleanup := func() error { return r.Close() }
	return r, cleanup, nil
}
