package types

import (
	"time"

	"github.com/google/uuid"
)

type Todo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Priority    Priority  `gorm:"column:priority;not null;default:medium" json:"priority"`
	DueDate     *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Derived from mentions in title/description; replaced wholesale on every
	// edit, except through the explicit link-override endpoint.
	Jars []*Jar `gorm:"many2many:todo_jar;constraint:OnDelete:CASCADE" json:"jars"`
	Tags []*Tag `gorm:"many2many:todo_tag;constraint:OnDelete:CASCADE" json:"tags"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Todo) TableName() string { return "todo" }
