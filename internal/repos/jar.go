package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/types"
)

// escapeLike neutralizes LIKE metacharacters in a user-typed prefix.
// Underscore is a legal name character and must not wildcard-match.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type JarRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jars []*types.Jar) ([]*types.Jar, error)
	// CreateSkipConflict inserts jars, silently skipping rows that collide on
	// the (user_id, name) unique index. The mention resolver relies on this
	// for its upsert-by-name race handling.
	CreateSkipConflict(ctx context.Context, tx *gorm.DB, jars []*types.Jar) error
	GetByIDs(ctx context.Context, tx *gorm.DB, jarIDs []uuid.UUID) ([]*types.Jar, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Jar, error)
	GetByNames(ctx context.Context, tx *gorm.DB, userID uuid.UUID, names []string) ([]*types.Jar, error)
	SearchByPrefix(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefix string, limit int) ([]*types.Jar, error)
	UpdateDescription(ctx context.Context, tx *gorm.DB, jarID uuid.UUID, description string) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, jarIDs []uuid.UUID) error
}

type jarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJarRepo(db *gorm.DB, baseLog *logger.Logger) JarRepo {
	return &jarRepo{db: db, log: baseLog.With("repo", "JarRepo")}
}

func (jr *jarRepo) Create(ctx context.Context, tx *gorm.DB, jars []*types.Jar) ([]*types.Jar, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	if len(jars) == 0 {
		return []*types.Jar{}, nil
	}
	for _, j := range jars {
		if j.ID == uuid.Nil {
			j.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(ctx).Create(&jars).Error; err != nil {
		return nil, err
	}
	return jars, nil
}

func (jr *jarRepo) CreateSkipConflict(ctx context.Context, tx *gorm.DB, jars []*types.Jar) error {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	if len(jars) == 0 {
		return nil
	}
	for _, j := range jars {
		if j.ID == uuid.Nil {
			j.ID = uuid.New()
		}
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&jars).Error
}

func (jr *jarRepo) GetByIDs(ctx context.Context, tx *gorm.DB, jarIDs []uuid.UUID) ([]*types.Jar, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	var results []*types.Jar
	if len(jarIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", jarIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (jr *jarRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Jar, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	var results []*types.Jar
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (jr *jarRepo) GetByNames(ctx context.Context, tx *gorm.DB, userID uuid.UUID, names []string) ([]*types.Jar, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	var results []*types.Jar
	if len(names) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND name IN ?", userID, names).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (jr *jarRepo) SearchByPrefix(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefix string, limit int) ([]*types.Jar, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}
	if limit <= 0 {
		limit = 20
	}

	var results []*types.Jar
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if prefix != "" {
		q = q.Where("name LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	if err := q.Order("name asc").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (jr *jarRepo) UpdateDescription(ctx context.Context, tx *gorm.DB, jarID uuid.UUID, description string) error {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Jar{}).
		Where("id = ?", jarID).
		Update("description", description).Error
}

func (jr *jarRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, jarIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}

	if len(jarIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", jarIDs).
		Delete(&types.Jar{}).Error
}
