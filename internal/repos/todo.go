package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/types"
)

type TodoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, todos []*types.Todo) ([]*types.Todo, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, todoIDs []uuid.UUID) ([]*types.Todo, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Todo, error)
	Update(ctx context.Context, tx *gorm.DB, todo *types.Todo) error
	SetCompletedAt(ctx context.Context, tx *gorm.DB, todoID uuid.UUID, completedAt *time.Time) error
	// ReplaceJars/ReplaceTags overwrite the todo's derived association set to
	// exactly the given entities.
	ReplaceJars(ctx context.Context, tx *gorm.DB, todo *types.Todo, jars []*types.Jar) error
	ReplaceTags(ctx context.Context, tx *gorm.DB, todo *types.Todo, tags []*types.Tag) error
	// ClearAssociations drops the todo's join rows ahead of deletion; the
	// store does not cascade them.
	ClearAssociations(ctx context.Context, tx *gorm.DB, todo *types.Todo) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, todoIDs []uuid.UUID) error
}

type todoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTodoRepo(db *gorm.DB, baseLog *logger.Logger) TodoRepo {
	return &todoRepo{db: db, log: baseLog.With("repo", "TodoRepo")}
}

func (tr *todoRepo) Create(ctx context.Context, tx *gorm.DB, todos []*types.Todo) ([]*types.Todo, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if len(todos) == 0 {
		return []*types.Todo{}, nil
	}
	for _, td := range todos {
		if td.ID == uuid.Nil {
			td.ID = uuid.New()
		}
		if td.Priority == "" {
			td.Priority = types.DefaultPriority
		}
	}

	// Associations are written by the link synchronizer, never on create.
	if err := transaction.WithContext(ctx).
		Omit("Jars", "Tags").
		Create(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

func (tr *todoRepo) GetByIDs(ctx context.Context, tx *gorm.DB, todoIDs []uuid.UUID) ([]*types.Todo, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Todo
	if len(todoIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Jars").
		Preload("Tags").
		Where("id IN ?", todoIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *todoRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Todo, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Todo
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

func (tr *todoRepo) Update(ctx context.Context, tx *gorm.DB, todo *types.Todo) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Todo{}).
		Where("id = ?", todo.ID).
		Updates(map[string]interface{}{
			"title":       todo.Title,
			"description": todo.Description,
			"priority":    todo.Priority,
			"due_date":    todo.DueDate,
		}).Error
}

func (tr *todoRepo) SetCompletedAt(ctx context.Context, tx *gorm.DB, todoID uuid.UUID, completedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Todo{}).
		Where("id = ?", todoID).
		Update("completed_at", completedAt).Error
}

func (tr *todoRepo) ReplaceJars(ctx context.Context, tx *gorm.DB, todo *types.Todo, jars []*types.Jar) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(todo).
		Association("Jars").
		Replace(jars)
}

func (tr *todoRepo) ReplaceTags(ctx context.Context, tx *gorm.DB, todo *types.Todo, tags []*types.Tag) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(todo).
		Association("Tags").
		Replace(tags)
}

func (tr *todoRepo) ClearAssociations(ctx context.Context, tx *gorm.DB, todo *types.Todo) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if err := transaction.WithContext(ctx).Model(todo).Association("Jars").Clear(); err != nil {
		return err
	}
	return transaction.WithContext(ctx).Model(todo).Association("Tags").Clear()
}

func (tr *todoRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, todoIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if len(todoIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", todoIDs).
		Delete(&types.Todo{}).Error
}
