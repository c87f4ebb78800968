package model

import "time"

// Note — заметка пользователя. DeletedAt != nil означает мягкое удаление.
type Note struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID int64  `gorm:"not null;index" json:"owner_id"` // ссылка на users.id

	// Связи
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	Title    string  `gorm:"not null;size:100" json:"title"`
	Content  *string `gorm:"type:text" json:"content"`
	IsPublic bool    `gorm:"not null;default:false;index" json:"is_public"`

	// Копии заголовка и текста в свёрнутом регистре для поиска.
	TitleKey   string `gorm:"not null;default:''" json:"-"`
	ContentKey string `gorm:"type:text;not null;default:''" json:"-"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

// Deleted сообщает, удалена ли заметка (мягко).
func (n *Note) Deleted() bool { return n.DeletedAt != nil }

// NoteView — заметка вместе с тегами, вычисленными при чтении.
type NoteView struct {
	Note
	Tags []Tag `gorm:"-" json:"tags"`
}

// NoteInput — пользовательский ввод для создания и обновления заметки.
type NoteInput struct {
	Title    string   `json:"title" validate:"notblank,max=100"`
	Content  *string  `json:"content" validate:"omitempty,max=10000"`
	IsPublic bool     `json:"is_public"`
	TagIDs   []string `json:"tag_ids"`
}
