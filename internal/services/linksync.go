package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/types"
)

// LinkSyncService rewrites an entity's derived link rows to exactly mirror
// the mentions resolved from its current text. Every Sync is a full set
// replace, so calling it twice with the same resolved set is a no-op.
type LinkSyncService interface {
	SyncJar(ctx context.Context, tx *gorm.DB, jar *types.Jar, resolved *ResolvedMentions) error
	SyncTag(ctx context.Context, tx *gorm.DB, tag *types.Tag, resolved *ResolvedMentions) error
	SyncTodo(ctx context.Context, tx *gorm.DB, todo *types.Todo, resolved *ResolvedMentions) error
	SyncNote(ctx context.Context, tx *gorm.DB, note *types.Note, resolved *ResolvedMentions) error
}

type linkSyncService struct {
	db       *gorm.DB
	log      *logger.Logger
	linkRepo repos.LinkRepo
	todoRepo repos.TodoRepo
	noteRepo repos.NoteRepo
}

func NewLinkSyncService(db *gorm.DB, log *logger.Logger, linkRepo repos.LinkRepo, todoRepo repos.TodoRepo, noteRepo repos.NoteRepo) LinkSyncService {
	return &linkSyncService{
		db:       db,
		log:      log.With("service", "LinkSyncService"),
		linkRepo: linkRepo,
		todoRepo: todoRepo,
		noteRepo: noteRepo,
	}
}

func (ls *linkSyncService) SyncJar(ctx context.Context, tx *gorm.DB, jar *types.Jar, resolved *ResolvedMentions) error {
	if err := ls.linkRepo.ReplaceJarLinks(ctx, tx, jar.ID, resolved.JarIDs()); err != nil {
		return fmt.Errorf("replace jar links: %w", err)
	}
	if err := ls.linkRepo.ReplaceJarTagLinksForJar(ctx, tx, jar.ID, resolved.TagIDs()); err != nil {
		return fmt.Errorf("replace jar-tag links: %w", err)
	}
	return nil
}

func (ls *linkSyncService) SyncTag(ctx context.Context, tx *gorm.DB, tag *types.Tag, resolved *ResolvedMentions) error {
	if err := ls.linkRepo.ReplaceTagLinks(ctx, tx, tag.ID, resolved.TagIDs()); err != nil {
		return fmt.Errorf("replace tag links: %w", err)
	}
	if err := ls.linkRepo.ReplaceJarTagLinksForTag(ctx, tx, tag.ID, resolved.JarIDs()); err != nil {
		return fmt.Errorf("replace jar-tag links: %w", err)
	}
	return nil
}

func (ls *linkSyncService) SyncTodo(ctx context.Context, tx *gorm.DB, todo *types.Todo, resolved *ResolvedMentions) error {
	if err := ls.todoRepo.ReplaceJars(ctx, tx, todo, resolved.Jars); err != nil {
		return fmt.Errorf("replace todo jars: %w", err)
	}
	if err := ls.todoRepo.ReplaceTags(ctx, tx, todo, resolved.Tags); err != nil {
		return fmt.Errorf("replace todo tags: %w", err)
	}
	return nil
}

func (ls *linkSyncService) SyncNote(ctx context.Context, tx *gorm.DB, note *types.Note, resolved *ResolvedMentions) error {
	if err := ls.noteRepo.ReplaceJars(ctx, tx, note, resolved.Jars); err != nil {
		return fmt.Errorf("replace note jars: %w", err)
	}
	if err := ls.noteRepo.ReplaceTags(ctx, tx, note, resolved.Tags); err != nil {
		return fmt.Errorf("replace note tags: %w", err)
	}
	return nil
}
