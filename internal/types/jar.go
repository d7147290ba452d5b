package types

import (
	"time"

	"github.com/google/uuid"
)

// Jar is a user-defined container. Its description is rich text and may
// mention other jars and tags; those mentions drive the derived link tables.
type Jar struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_jar_user_name,unique,priority:1" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name        string    `gorm:"column:name;not null;index:idx_jar_user_name,unique,priority:2" json:"name"`
	Description string    `gorm:"column:description" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Jar) TableName() string { return "jar" }
