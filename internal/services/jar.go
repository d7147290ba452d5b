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

// JarDetail is a jar with the link sets a dashboard panel renders: outgoing
// jar mentions, associated tags, and the jars whose descriptions mention it.
type JarDetail struct {
	Jar         *types.Jar   `json:"jar"`
	LinkedJars  []*types.Jar `json:"linked_jars"`
	LinkedTags  []*types.Tag `json:"linked_tags"`
	MentionedBy []*types.Jar `json:"mentioned_by"`
}

type JarService interface {
	Create(ctx context.Context, name, description string) (*types.Jar, error)
	List(ctx context.Context) ([]*types.Jar, error)
	Get(ctx context.Context, jarID uuid.UUID) (*JarDetail, error)
	UpdateDescription(ctx context.Context, jarID uuid.UUID, description string) (*types.Jar, error)
	Delete(ctx context.Context, jarID uuid.UUID) error
}

type jarService struct {
	db       *gorm.DB
	log      *logger.Logger
	jarRepo  repos.JarRepo
	tagRepo  repos.TagRepo
	linkRepo repos.LinkRepo
	resolver MentionResolver
	linkSync LinkSyncService
}

func NewJarService(db *gorm.DB, log *logger.Logger, jarRepo repos.JarRepo, tagRepo repos.TagRepo, linkRepo repos.LinkRepo, resolver MentionResolver, linkSync LinkSyncService) JarService {
	return &jarService{
		db:       db,
		log:      log.With("service", "JarService"),
		jarRepo:  jarRepo,
		tagRepo:  tagRepo,
		linkRepo: linkRepo,
		resolver: resolver,
		linkSync: linkSync,
	}
}

func (js *jarService) Create(ctx context.Context, name, description string) (*types.Jar, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	if !mention.ValidName(name) {
		return nil, fmt.Errorf("invalid jar name %q: only letters, digits, underscore and hyphen are allowed", name)
	}

	jar := &types.Jar{UserID: userID, Name: name, Description: description}
	if err := js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := js.jarRepo.GetByNames(ctx, tx, userID, []string{name})
		if err != nil {
			return fmt.Errorf("check jar name: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("jar %q already exists", name)
		}
		if _, err := js.jarRepo.Create(ctx, tx, []*types.Jar{jar}); err != nil {
			return fmt.Errorf("create jar: %w", err)
		}
		js.syncLinks(ctx, tx, jar)
		return nil
	}); err != nil {
		return nil, err
	}
	return jar, nil
}

func (js *jarService) List(ctx context.Context) ([]*types.Jar, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	return js.jarRepo.GetByUserID(ctx, nil, userID)
}

func (js *jarService) Get(ctx context.Context, jarID uuid.UUID) (*JarDetail, error) {
	jar, err := js.owned(ctx, nil, jarID)
	if err != nil {
		return nil, err
	}

	detail := &JarDetail{Jar: jar}
	outgoing, err := js.linkRepo.GetJarLinksBySource(ctx, nil, jar.ID)
	if err != nil {
		return nil, fmt.Errorf("load jar links: %w", err)
	}
	for _, link := range outgoing {
		if link.TargetJar != nil {
			detail.LinkedJars = append(detail.LinkedJars, link.TargetJar)
		}
	}

	tagLinks, err := js.linkRepo.GetJarTagLinksByJar(ctx, nil, jar.ID)
	if err != nil {
		return nil, fmt.Errorf("load jar-tag links: %w", err)
	}
	for _, link := range tagLinks {
		if link.Tag != nil {
			detail.LinkedTags = append(detail.LinkedTags, link.Tag)
		}
	}

	incoming, err := js.linkRepo.GetJarLinksByTarget(ctx, nil, jar.ID)
	if err != nil {
		return nil, fmt.Errorf("load incoming jar links: %w", err)
	}
	sourceIDs := make([]uuid.UUID, 0, len(incoming))
	for _, link := range incoming {
		sourceIDs = append(sourceIDs, link.SourceJarID)
	}
	sources, err := js.jarRepo.GetByIDs(ctx, nil, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("load mentioning jars: %w", err)
	}
	detail.MentionedBy = sources

	return detail, nil
}

func (js *jarService) UpdateDescription(ctx context.Context, jarID uuid.UUID, description string) (*types.Jar, error) {
	var jar *types.Jar
	if err := js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := js.owned(ctx, tx, jarID)
		if err != nil {
			return err
		}
		jar = found
		jar.Description = description
		if err := js.jarRepo.UpdateDescription(ctx, tx, jar.ID, description); err != nil {
			return fmt.Errorf("update jar description: %w", err)
		}
		js.syncLinks(ctx, tx, jar)
		return nil
	}); err != nil {
		return nil, err
	}
	return jar, nil
}

func (js *jarService) Delete(ctx context.Context, jarID uuid.UUID) error {
	return js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jar, err := js.owned(ctx, tx, jarID)
		if err != nil {
			return err
		}
		// Link and association rows go with the entity, in the same
		// transaction; the store does not cascade them.
		if err := js.linkRepo.DeleteForJar(ctx, tx, jar.ID); err != nil {
			return fmt.Errorf("delete jar links: %w", err)
		}
		return js.jarRepo.DeleteByIDs(ctx, tx, []uuid.UUID{jar.ID})
	})
}

// syncLinks reconciles the jar's outgoing link rows against its current
// description. A failure here is logged and swallowed: the jar write stands,
// the stale link set self-corrects on the next edit.
func (js *jarService) syncLinks(ctx context.Context, tx *gorm.DB, jar *types.Jar) {
	resolved, err := js.resolver.Resolve(ctx, tx, jar.UserID, jar.Description)
	if err != nil {
		js.log.Warn("mention resolution failed, leaving links stale", "error", err, "jar", jar.Name)
		return
	}
	if err := js.linkSync.SyncJar(ctx, tx, jar, resolved); err != nil {
		js.log.Warn("link sync failed, leaving links stale", "error", err, "jar", jar.Name)
	}
}

func (js *jarService) owned(ctx context.Context, tx *gorm.DB, jarID uuid.UUID) (*types.Jar, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	found, err := js.jarRepo.GetByIDs(ctx, tx, []uuid.UUID{jarID})
	if err != nil {
		return nil, fmt.Errorf("fetch jar: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, fmt.Errorf("jar not found")
	}
	return found[0], nil
}
