package model

import "time"

// Роли пользователя.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleFreeUser  = "free_user"
	RoleProUser   = "pro_user"
)

// Тарифные планы.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// User — учётная запись и профиль пользователя.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Login    string `gorm:"uniqueIndex;not null" json:"login"`
	Password string `gorm:"not null" json:"-"` // bcrypt-хеш

	DisplayName string  `json:"display_name"`
	Username    *string `gorm:"uniqueIndex;size:20" json:"username"`
	Bio         string  `gorm:"size:200" json:"bio"`
	Role        string  `gorm:"not null;default:'free_user'" json:"role"`
	PlanType    string  `gorm:"not null;default:'free'" json:"plan_type"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProfileInput — редактируемые поля профиля.
type ProfileInput struct {
	DisplayName string  `json:"display_name" validate:"notblank,max=30"`
	Username    *string `json:"username" validate:"omitempty,username"`
	Bio         string  `json:"bio" validate:"max=200"`
}
