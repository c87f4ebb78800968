package model

import "time"

const (
	// MaxImageSize — максимальный размер одного изображения, байт.
	MaxImageSize int64 = 5 * 1024 * 1024
	// MaxImagesPerNote — лимит неудалённых изображений на заметку.
	MaxImagesPerNote = 10
)

// AcceptedImageTypes — MIME-типы, которые можно прикреплять к заметке.
var AcceptedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// NoteImage — метаданные изображения, прикреплённого к заметке.
// Сам файл лежит в объектном хранилище по StoragePath.
type NoteImage struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	NoteID  string `gorm:"not null;type:uuid;index" json:"note_id"`
	OwnerID int64  `gorm:"not null;index" json:"owner_id"`

	Note *Note `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"-"`

	StoragePath string `gorm:"not null" json:"storage_path"`
	FileName    string `gorm:"not null" json:"file_name"`
	FileSize    int64  `gorm:"not null" json:"file_size"`
	MimeType    string `gorm:"not null" json:"mime_type"`
	Width       *int   `json:"width"`
	Height      *int   `json:"height"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

func (NoteImage) TableName() string { return "note_images" }

// ImageFile — загружаемый файл: имя, заявленный тип и содержимое.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size возвращает размер содержимого файла.
func (f ImageFile) Size() int64 { return int64(len(f.Data)) }
