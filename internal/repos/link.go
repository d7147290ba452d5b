package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/types"
)

// LinkRepo owns the three derived link tables. The Replace* methods are full
// set reconciliations: delete the source entity's outgoing rows, insert the
// resolved target set. Inserts skip duplicates so a racing double-write
// cannot violate the unique pair indexes.
type LinkRepo interface {
	ReplaceJarLinks(ctx context.Context, tx *gorm.DB, sourceJarID uuid.UUID, targetJarIDs []uuid.UUID) error
	ReplaceTagLinks(ctx context.Context, tx *gorm.DB, sourceTagID uuid.UUID, targetTagIDs []uuid.UUID) error
	ReplaceJarTagLinksForJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID, tagIDs []uuid.UUID) error
	ReplaceJarTagLinksForTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID, jarIDs []uuid.UUID) error

	// DeleteForJar/DeleteForTag remove every row that references the entity,
	// from both directions, plus its todo/note association rows. They run
	// inside the entity's delete transaction so no orphaned links survive.
	DeleteForJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID) error
	DeleteForTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error

	GetJarLinksBySource(ctx context.Context, tx *gorm.DB, sourceJarID uuid.UUID) ([]*types.JarLink, error)
	GetJarLinksByTarget(ctx context.Context, tx *gorm.DB, targetJarID uuid.UUID) ([]*types.JarLink, error)
	GetTagLinksBySource(ctx context.Context, tx *gorm.DB, sourceTagID uuid.UUID) ([]*types.TagLink, error)
	GetTagLinksByTarget(ctx context.Context, tx *gorm.DB, targetTagID uuid.UUID) ([]*types.TagLink, error)
	GetJarTagLinksByJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID) ([]*types.JarTagLink, error)
	GetJarTagLinksByTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) ([]*types.JarTagLink, error)
}

type linkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLinkRepo(db *gorm.DB, baseLog *logger.Logger) LinkRepo {
	return &linkRepo{db: db, log: baseLog.With("repo", "LinkRepo")}
}

func (lr *linkRepo) ReplaceJarLinks(ctx context.Context, tx *gorm.DB, sourceJarID uuid.UUID, targetJarIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("source_jar_id = ?", sourceJarID).
		Delete(&types.JarLink{}).Error; err != nil {
		return err
	}
	if len(targetJarIDs) == 0 {
		return nil
	}

	rows := make([]*types.JarLink, 0, len(targetJarIDs))
	for _, targetID := range targetJarIDs {
		rows = append(rows, &types.JarLink{
			ID:          uuid.New(),
			SourceJarID: sourceJarID,
			TargetJarID: targetID,
		})
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (lr *linkRepo) ReplaceTagLinks(ctx context.Context, tx *gorm.DB, sourceTagID uuid.UUID, targetTagIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("source_tag_id = ?", sourceTagID).
		Delete(&types.TagLink{}).Error; err != nil {
		return err
	}
	if len(targetTagIDs) == 0 {
		return nil
	}

	rows := make([]*types.TagLink, 0, len(targetTagIDs))
	for _, targetID := range targetTagIDs {
		rows = append(rows, &types.TagLink{
			ID:          uuid.New(),
			SourceTagID: sourceTagID,
			TargetTagID: targetID,
		})
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (lr *linkRepo) ReplaceJarTagLinksForJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID, tagIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("jar_id = ?", jarID).
		Delete(&types.JarTagLink{}).Error; err != nil {
		return err
	}
	return lr.insertJarTagLinks(ctx, transaction, jarID, tagIDs)
}

func (lr *linkRepo) ReplaceJarTagLinksForTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID, jarIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("tag_id = ?", tagID).
		Delete(&types.JarTagLink{}).Error; err != nil {
		return err
	}
	for _, jarID := range jarIDs {
		if err := lr.insertJarTagLinks(ctx, transaction, jarID, []uuid.UUID{tagID}); err != nil {
			return err
		}
	}
	return nil
}

func (lr *linkRepo) insertJarTagLinks(ctx context.Context, tx *gorm.DB, jarID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]*types.JarTagLink, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, &types.JarTagLink{
			ID:    uuid.New(),
			JarID: jarID,
			TagID: tagID,
		})
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (lr *linkRepo) DeleteForJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("source_jar_id = ? OR target_jar_id = ?", jarID, jarID).
		Delete(&types.JarLink{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("jar_id = ?", jarID).
		Delete(&types.JarTagLink{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Exec(`DELETE FROM todo_jar WHERE jar_id = ?`, jarID).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Exec(`DELETE FROM note_jar WHERE jar_id = ?`, jarID).Error
}

func (lr *linkRepo) DeleteForTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("source_tag_id = ? OR target_tag_id = ?", tagID, tagID).
		Delete(&types.TagLink{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("tag_id = ?", tagID).
		Delete(&types.JarTagLink{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Exec(`DELETE FROM todo_tag WHERE tag_id = ?`, tagID).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Exec(`DELETE FROM note_tag WHERE tag_id = ?`, tagID).Error
}

func (lr *linkRepo) GetJarLinksBySource(ctx context.Context, tx *gorm.DB, sourceJarID uuid.UUID) ([]*types.JarLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.JarLink
	if err := transaction.WithContext(ctx).
		Preload("TargetJar").
		Where("source_jar_id = ?", sourceJarID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *linkRepo) GetJarLinksByTarget(ctx context.Context, tx *gorm.DB, targetJarID uuid.UUID) ([]*types.JarLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.JarLink
	if err := transaction.WithContext(ctx).
		Where("target_jar_id = ?", targetJarID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *linkRepo) GetTagLinksBySource(ctx context.Context, tx *gorm.DB, sourceTagID uuid.UUID) ([]*types.TagLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.TagLink
	if err := transaction.WithContext(ctx).
		Preload("TargetTag").
		Where("source_tag_id = ?", sourceTagID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *linkRepo) GetTagLinksByTarget(ctx context.Context, tx *gorm.DB, targetTagID uuid.UUID) ([]*types.TagLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.TagLink
	if err := transaction.WithContext(ctx).
		Where("target_tag_id = ?", targetTagID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *linkRepo) GetJarTagLinksByJar(ctx context.Context, tx *gorm.DB, jarID uuid.UUID) ([]*types.JarTagLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.JarTagLink
	if err := transaction.WithContext(ctx).
		Preload("Tag").
		Where("jar_id = ?", jarID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *linkRepo) GetJarTagLinksByTag(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) ([]*types.JarTagLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.JarTagLink
	if err := transaction.WithContext(ctx).
		Preload("Jar").
		Where("tag_id = ?", tagID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
