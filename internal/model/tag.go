package model

import "time"

// DefaultTagColor — цвет тега по умолчанию (серый).
const DefaultTagColor = "#6B7280"

// TagColors — допустимая палитра цветов тегов.
var TagColors = []string{
	"#6B7280", // gray
	"#EF4444", // red
	"#F59E0B", // amber
	"#10B981", // emerald
	"#3B82F6", // blue
	"#6366F1", // indigo
	"#8B5CF6", // violet
	"#EC4899", // pink
}

// Tag — пользовательская метка для группировки заметок.
type Tag struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID int64  `gorm:"not null;index" json:"owner_id"`

	Name  string `gorm:"not null;size:30" json:"name"`
	Color string `gorm:"not null;size:7;default:'#6B7280'" json:"color"`

	// NameKey — имя в свёрнутом регистре, по нему проверяется уникальность.
	NameKey string `gorm:"not null;default:''" json:"-"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

// TagInput — ввод для создания и обновления тега.
type TagInput struct {
	Name  string `json:"name" validate:"notblank,max=30"`
	Color string `json:"color" validate:"omitempty,tagcolor"`
}

// NoteTag — связь заметки и тега. Набор связей заметки всегда заменяется целиком.
type NoteTag struct {
	NoteID    string    `gorm:"primaryKey;type:uuid" json:"note_id"`
	TagID     string    `gorm:"primaryKey;type:uuid;index" json:"tag_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Note *Note `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"note,omitempty"`
	Tag  *Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"tag,omitempty"`
}

func (NoteTag) TableName() string { return "note_tags" }
