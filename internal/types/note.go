package types

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User    *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title   *string   `gorm:"column:title" json:"title,omitempty"`
	Content string    `gorm:"column:content;not null" json:"content"`

	Jars []*Jar `gorm:"many2many:note_jar;constraint:OnDelete:CASCADE" json:"jars"`
	Tags []*Tag `gorm:"many2many:note_tag;constraint:OnDelete:CASCADE" json:"tags"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Note) TableName() string { return "note" }
