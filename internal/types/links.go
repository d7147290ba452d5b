package types

import (
	"time"

	"github.com/google/uuid"
)

// Link rows are derived entirely from parsing mentions out of their source
// entity's text. They are never edited directly: the link synchronizer
// rewrites the full outgoing set on every description change.

// JarLink is a directed jar-to-jar edge: the source jar's description
// mentioned the target jar.
type JarLink struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceJarID uuid.UUID `gorm:"type:uuid;not null;index:idx_jar_link,unique,priority:1" json:"source_jar_id"`
	SourceJar   *Jar      `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceJarID;references:ID" json:"-"`
	TargetJarID uuid.UUID `gorm:"type:uuid;not null;index:idx_jar_link,unique,priority:2" json:"target_jar_id"`
	TargetJar   *Jar      `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetJarID;references:ID" json:"target_jar,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (JarLink) TableName() string { return "jar_link" }

// TagLink is the directed tag-to-tag counterpart of JarLink.
type TagLink struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceTagID uuid.UUID `gorm:"type:uuid;not null;index:idx_tag_link,unique,priority:1" json:"source_tag_id"`
	SourceTag   *Tag      `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceTagID;references:ID" json:"-"`
	TargetTagID uuid.UUID `gorm:"type:uuid;not null;index:idx_tag_link,unique,priority:2" json:"target_tag_id"`
	TargetTag   *Tag      `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetTagID;references:ID" json:"target_tag,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (TagLink) TableName() string { return "tag_link" }

// JarTagLink joins a jar and a tag regardless of which side's text held the
// mention. A jar mentioning a tag and that tag mentioning the jar collapse
// into the same row.
type JarTagLink struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JarID uuid.UUID `gorm:"type:uuid;not null;index:idx_jar_tag_link,unique,priority:1" json:"jar_id"`
	Jar   *Jar      `gorm:"constraint:OnDelete:CASCADE;foreignKey:JarID;references:ID" json:"jar,omitempty"`
	TagID uuid.UUID `gorm:"type:uuid;not null;index:idx_jar_tag_link,unique,priority:2" json:"tag_id"`
	Tag   *Tag      `gorm:"constraint:OnDelete:CASCADE;foreignKey:TagID;references:ID" json:"tag,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (JarTagLink) TableName() string { return "jar_tag_link" }
