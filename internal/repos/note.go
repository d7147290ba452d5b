package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/types"
)

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notes []*types.Note) ([]*types.Note, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, noteIDs []uuid.UUID) ([]*types.Note, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Note, error)
	Update(ctx context.Context, tx *gorm.DB, note *types.Note) error
	ReplaceJars(ctx context.Context, tx *gorm.DB, note *types.Note, jars []*types.Jar) error
	ReplaceTags(ctx context.Context, tx *gorm.DB, note *types.Note, tags []*types.Tag) error
	ClearAssociations(ctx context.Context, tx *gorm.DB, note *types.Note) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, noteIDs []uuid.UUID) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (nr *noteRepo) Create(ctx context.Context, tx *gorm.DB, notes []*types.Note) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if len(notes) == 0 {
		return []*types.Note{}, nil
	}
	for _, n := range notes {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(ctx).
		Omit("Jars", "Tags").
		Create(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (nr *noteRepo) GetByIDs(ctx context.Context, tx *gorm.DB, noteIDs []uuid.UUID) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var results []*types.Note
	if len(noteIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Jars").
		Preload("Tags").
		Where("id IN ?", noteIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *noteRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var results []*types.Note
	if err := transaction.WithContext(ctx).
		Preload("Jars").
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *noteRepo) Update(ctx context.Context, tx *gorm.DB, note *types.Note) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ?", note.ID).
		Updates(map[string]interface{}{
			"title":   note.Title,
			"content": note.Content,
		}).Error
}

func (nr *noteRepo) ReplaceJars(ctx context.Context, tx *gorm.DB, note *types.Note, jars []*types.Jar) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Model(note).
		Association("Jars").
		Replace(jars)
}

func (nr *noteRepo) ReplaceTags(ctx context.Context, tx *gorm.DB, note *types.Note, tags []*types.Tag) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Model(note).
		Association("Tags").
		Replace(tags)
}

func (nr *noteRepo) ClearAssociations(ctx context.Context, tx *gorm.DB, note *types.Note) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if err := transaction.WithContext(ctx).Model(note).Association("Jars").Clear(); err != nil {
		return err
	}
	return transaction.WithContext(ctx).Model(note).Association("Tags").Clear()
}

func (nr *noteRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, noteIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if len(noteIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", noteIDs).
		Delete(&types.Note{}).Error
}
