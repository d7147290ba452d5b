package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/mention"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
	"github.com/jarboard/backend/internal/types"
)

type TagDetail struct {
	Tag         *types.Tag   `json:"tag"`
	LinkedTags  []*types.Tag `json:"linked_tags"`
	LinkedJars  []*types.Jar `json:"linked_jars"`
	MentionedBy []*types.Tag `json:"mentioned_by"`
}

type TagService interface {
	Create(ctx context.Context, name, description string) (*types.Tag, error)
	List(ctx context.Context) ([]*types.Tag, error)
	Get(ctx context.Context, tagID uuid.UUID) (*TagDetail, error)
	UpdateDescription(ctx context.Context, tagID uuid.UUID, description string) (*types.Tag, error)
	Delete(ctx context.Context, tagID uuid.UUID) error
}

type tagService struct {
	db       *gorm.DB
	log      *logger.Logger
	tagRepo  repos.TagRepo
	jarRepo  repos.JarRepo
	linkRepo repos.LinkRepo
	resolver MentionResolver
	linkSync LinkSyncService
}

func NewTagService(db *gorm.DB, log *logger.Logger, tagRepo repos.TagRepo, jarRepo repos.JarRepo, linkRepo repos.LinkRepo, resolver MentionResolver, linkSync LinkSyncService) TagService {
	return &tagService{
		db:       db,
		log:      log.With("service", "TagService"),
		tagRepo:  tagRepo,
		jarRepo:  jarRepo,
		linkRepo: linkRepo,
		resolver: resolver,
		linkSync: linkSync,
	}
}

func (ts *tagService) Create(ctx context.Context, name, description string) (*types.Tag, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	if !mention.ValidName(name) {
		return nil, fmt.Errorf("invalid tag name %q: only letters, digits, underscore and hyphen are allowed", name)
	}

	tag := &types.Tag{UserID: userID, Name: name, Description: description}
	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := ts.tagRepo.GetByNames(ctx, tx, userID, []string{name})
		if err != nil {
			return fmt.Errorf("check tag name: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("tag %q already exists", name)
		}
		if _, err := ts.tagRepo.Create(ctx, tx, []*types.Tag{tag}); err != nil {
			return fmt.Errorf("create tag: %w", err)
		}
		ts.syncLinks(ctx, tx, tag)
		return nil
	}); err != nil {
		return nil, err
	}
	return tag, nil
}

func (ts *tagService) List(ctx context.Context) ([]*types.Tag, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	return ts.tagRepo.GetByUserID(ctx, nil, userID)
}

func (ts *tagService) Get(ctx context.Context, tagID uuid.UUID) (*TagDetail, error) {
	tag, err := ts.owned(ctx, nil, tagID)
	if err != nil {
		return nil, err
	}

	detail := &TagDetail{Tag: tag}
	outgoing, err := ts.linkRepo.GetTagLinksBySource(ctx, nil, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("load tag links: %w", err)
	}
	for _, link := range outgoing {
		if link.TargetTag != nil {
			detail.LinkedTags = append(detail.LinkedTags, link.TargetTag)
		}
	}

	jarLinks, err := ts.linkRepo.GetJarTagLinksByTag(ctx, nil, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("load jar-tag links: %w", err)
	}
	for _, link := range jarLinks {
		if link.Jar != nil {
			detail.LinkedJars = append(detail.LinkedJars, link.Jar)
		}
	}

	incoming, err := ts.linkRepo.GetTagLinksByTarget(ctx, nil, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("load incoming tag links: %w", err)
	}
	sourceIDs := make([]uuid.UUID, 0, len(incoming))
	for _, link := range incoming {
		sourceIDs = append(sourceIDs, link.SourceTagID)
	}
	sources, err := ts.tagRepo.GetByIDs(ctx, nil, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("load mentioning tags: %w", err)
	}
	detail.MentionedBy = sources

	return detail, nil
}

func (ts *tagService) UpdateDescription(ctx context.Context, tagID uuid.UUID, description string) (*types.Tag, error) {
	var tag *types.Tag
	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := ts.owned(ctx, tx, tagID)
		if err != nil {
			return err
		}
		tag = found
		tag.Description = description
		if err := ts.tagRepo.UpdateDescription(ctx, tx, tag.ID, description); err != nil {
			return fmt.Errorf("update tag description: %w", err)
		}
		ts.syncLinks(ctx, tx, tag)
		return nil
	}); err != nil {
		return nil, err
	}
	return tag, nil
}

func (ts *tagService) Delete(ctx context.Context, tagID uuid.UUID) error {
	return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := ts.owned(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if err := ts.linkRepo.DeleteForTag(ctx, tx, tag.ID); err != nil {
			return fmt.Errorf("delete tag links: %w", err)
		}
		return ts.tagRepo.DeleteByIDs(ctx, tx, []uuid.UUID{tag.ID})
	})
}

func (ts *tagService) syncLinks(ctx context.Context, tx *gorm.DB, tag *types.Tag) {
	resolved, err := ts.resolver.Resolve(ctx, tx, tag.UserID, tag.Description)
	if err != nil {
		ts.log.Warn("mention resolution failed, leaving links stale", "error", err, "tag", tag.Name)
		return
	}
	if err := ts.linkSync.SyncTag(ctx, tx, tag, resolved); err != nil {
		ts.log.Warn("link sync failed, leaving links stale", "error", err, "tag", tag.Name)
	}
}

func (ts *tagService) owned(ctx context.Context, tx *gorm.DB, tagID uuid.UUID) (*types.Tag, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	found, err := ts.tagRepo.GetByIDs(ctx, tx, []uuid.UUID{tagID})
	if err != nil {
		return nil, fmt.Errorf("fetch tag: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, fmt.Errorf("tag not found")
	}
	return found[0], nil
}
