// Package feed — лента изменений: события о заметках, тегах и изображениях.
package feed

import (
	"context"
	"encoding/json"
	"time"
)

// Kind — тип события.
type Kind string

const (
	NoteCreated     Kind = "note.created"
	NoteUpdated     Kind = "note.updated"
	NoteDeleted     Kind = "note.deleted"
	NoteRestored    Kind = "note.restored"
	NoteTagsChanged Kind = "note.tags_changed"
	TagCreated      Kind = "tag.created"
	TagUpdated      Kind = "tag.updated"
	TagDeleted      Kind = "tag.deleted"
	ImageAdded      Kind = "image.added"
	ImageDeleted    Kind = "image.deleted"
)

// Event — одно изменение. Origin — идентификатор экземпляра сервиса,
// который его произвёл.
type Event struct {
	Kind     Kind      `json:"kind"`
	OwnerID  int64     `json:"owner_id"`
	EntityID string    `json:"entity_id"`
	NoteID   string    `json:"note_id,omitempty"`
	Origin   string    `json:"origin"`
	At       time.Time `json:"at"`
}

// IsTagEvent — событие о самом теге (не о связях).
func (e Event) IsTagEvent() bool {
	switch e.Kind {
	case TagCreated, TagUpdated, TagDeleted:
		return true
	}
	return false
}

// IsNoteEvent — событие меняет заметку или её набор тегов.
func (e Event) IsNoteEvent() bool {
	switch e.Kind {
	case NoteCreated, NoteUpdated, NoteDeleted, NoteRestored, NoteTagsChanged:
		return true
	}
	return false
}

// Broker доставляет события подписчикам.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe возвращает канал событий и функцию отписки.
	// Канал закрывается после отписки или отмены ctx.
	Subscribe(ctx context.Context) (<-chan Event, func())
	Close() error
}

func encode(ev Event) ([]byte, error) { return json.Marshal(ev) }

func decode(b []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(b, &ev)
	return ev, err
}
