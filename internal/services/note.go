package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
	"github.com/jarboard/backend/internal/types"
)

type CreateNoteInput struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

type UpdateNoteInput struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

type NoteService interface {
	Create(ctx context.Context, input CreateNoteInput) (*types.Note, error)
	List(ctx context.Context) ([]*types.Note, error)
	Get(ctx context.Context, noteID uuid.UUID) (*types.Note, error)
	Update(ctx context.Context, noteID uuid.UUID, input UpdateNoteInput) (*types.Note, error)
	Delete(ctx context.Context, noteID uuid.UUID) error
}

type noteService struct {
	db       *gorm.DB
	log      *logger.Logger
	noteRepo repos.NoteRepo
	resolver MentionResolver
	linkSync LinkSyncService
}

func NewNoteService(db *gorm.DB, log *logger.Logger, noteRepo repos.NoteRepo, resolver MentionResolver, linkSync LinkSyncService) NoteService {
	return &noteService{
		db:       db,
		log:      log.With("service", "NoteService"),
		noteRepo: noteRepo,
		resolver: resolver,
		linkSync: linkSync,
	}
}

func (ns *noteService) Create(ctx context.Context, input CreateNoteInput) (*types.Note, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	var note *types.Note
	if err := ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := ns.resolver.Resolve(ctx, tx, userID, noteTexts(input.Title, input.Content)...)
		if err != nil {
			return fmt.Errorf("resolve mentions: %w", err)
		}

		note = &types.Note{UserID: userID, Title: input.Title, Content: input.Content}
		if _, err := ns.noteRepo.Create(ctx, tx, []*types.Note{note}); err != nil {
			return fmt.Errorf("create note: %w", err)
		}
		if err := ns.linkSync.SyncNote(ctx, tx, note, resolved); err != nil {
			ns.log.Warn("note link sync failed, leaving links stale", "error", err, "note_id", note.ID)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ns.reload(ctx, note.ID)
}

func (ns *noteService) List(ctx context.Context) ([]*types.Note, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	return ns.noteRepo.GetByUserID(ctx, nil, userID)
}

func (ns *noteService) Get(ctx context.Context, noteID uuid.UUID) (*types.Note, error) {
	return ns.owned(ctx, nil, noteID)
}

func (ns *noteService) Update(ctx context.Context, noteID uuid.UUID, input UpdateNoteInput) (*types.Note, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	if err := ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := ns.owned(ctx, tx, noteID)
		if err != nil {
			return err
		}

		resolved, err := ns.resolver.Resolve(ctx, tx, note.UserID, noteTexts(input.Title, input.Content)...)
		if err != nil {
			return fmt.Errorf("resolve mentions: %w", err)
		}

		note.Title = input.Title
		note.Content = input.Content
		if err := ns.noteRepo.Update(ctx, tx, note); err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if err := ns.linkSync.SyncNote(ctx, tx, note, resolved); err != nil {
			ns.log.Warn("note link sync failed, leaving links stale", "error", err, "note_id", note.ID)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ns.reload(ctx, noteID)
}

func (ns *noteService) Delete(ctx context.Context, noteID uuid.UUID) error {
	return ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := ns.owned(ctx, tx, noteID)
		if err != nil {
			return err
		}
		if err := ns.noteRepo.ClearAssociations(ctx, tx, note); err != nil {
			return fmt.Errorf("clear note associations: %w", err)
		}
		return ns.noteRepo.DeleteByIDs(ctx, tx, []uuid.UUID{note.ID})
	})
}

func (ns *noteService) owned(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	found, err := ns.noteRepo.GetByIDs(ctx, tx, []uuid.UUID{noteID})
	if err != nil {
		return nil, fmt.Errorf("fetch note: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, fmt.Errorf("note not found")
	}
	return found[0], nil
}

func (ns *noteService) reload(ctx context.Context, noteID uuid.UUID) (*types.Note, error) {
	found, err := ns.noteRepo.GetByIDs(ctx, nil, []uuid.UUID{noteID})
	if err != nil {
		return nil, fmt.Errorf("reload note: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("note not found")
	}
	return found[0], nil
}

func noteTexts(title *string, content string) []string {
	if title == nil {
		return []string{content}
	}
	return []string{*title, content}
}
