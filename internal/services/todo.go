package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/mention"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
	"github.com/jarboard/backend/internal/types"
)

type CreateTodoInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTodoInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type TodoService interface {
	Create(ctx context.Context, input CreateTodoInput) (*types.Todo, error)
	List(ctx context.Context) ([]*types.Todo, error)
	Get(ctx context.Context, todoID uuid.UUID) (*types.Todo, error)
	Update(ctx context.Context, todoID uuid.UUID, input UpdateTodoInput) (*types.Todo, error)
	SetCompleted(ctx context.Context, todoID uuid.UUID, completed bool) (*types.Todo, error)
	// SetLinks is the explicit override path: it pins the todo's jar/tag
	// associations directly, bypassing text derivation until the next edit
	// re-derives them.
	SetLinks(ctx context.Context, todoID uuid.UUID, jarIDs, tagIDs []uuid.UUID) (*types.Todo, error)
	Delete(ctx context.Context, todoID uuid.UUID) error
}

type todoService struct {
	db       *gorm.DB
	log      *logger.Logger
	todoRepo repos.TodoRepo
	jarRepo  repos.JarRepo
	tagRepo  repos.TagRepo
	resolver MentionResolver
	linkSync LinkSyncService
}

func NewTodoService(db *gorm.DB, log *logger.Logger, todoRepo repos.TodoRepo, jarRepo repos.JarRepo, tagRepo repos.TagRepo, resolver MentionResolver, linkSync LinkSyncService) TodoService {
	return &todoService{
		db:       db,
		log:      log.With("service", "TodoService"),
		todoRepo: todoRepo,
		jarRepo:  jarRepo,
		tagRepo:  tagRepo,
		resolver: resolver,
		linkSync: linkSync,
	}
}

func (ts *todoService) Create(ctx context.Context, input CreateTodoInput) (*types.Todo, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("a title is required")
	}

	var todo *types.Todo
	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := ts.resolver.Resolve(ctx, tx, userID, input.Title, input.Description)
		if err != nil {
			return fmt.Errorf("resolve mentions: %w", err)
		}

		title, description := stripPriorityOnce(input.Title, input.Description)
		todo = &types.Todo{
			UserID:      userID,
			Title:       title,
			Description: description,
			Priority:    priorityOrDefault(resolved.Priority),
			DueDate:     input.DueDate,
		}
		if _, err := ts.todoRepo.Create(ctx, tx, []*types.Todo{todo}); err != nil {
			return fmt.Errorf("create todo: %w", err)
		}
		if err := ts.linkSync.SyncTodo(ctx, tx, todo, resolved); err != nil {
			ts.log.Warn("todo link sync failed, leaving links stale", "error", err, "todo_id", todo.ID)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ts.reload(ctx, todo.ID)
}

func (ts *todoService) List(ctx context.Context) ([]*types.Todo, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	return ts.todoRepo.GetByUserID(ctx, nil, userID)
}

func (ts *todoService) Get(ctx context.Context, todoID uuid.UUID) (*types.Todo, error) {
	return ts.owned(ctx, nil, todoID)
}

// Update fully re-derives priority and link sets from the new text. A
// dropped priority token resets to the default rather than sticking; the
// association sets become exactly the current mentions.
func (ts *todoService) Update(ctx context.Context, todoID uuid.UUID, input UpdateTodoInput) (*types.Todo, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("a title is required")
	}

	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		todo, err := ts.owned(ctx, tx, todoID)
		if err != nil {
			return err
		}

		resolved, err := ts.resolver.Resolve(ctx, tx, todo.UserID, input.Title, input.Description)
		if err != nil {
			return fmt.Errorf("resolve mentions: %w", err)
		}

		title, description := stripPriorityOnce(input.Title, input.Description)
		todo.Title = title
		todo.Description = description
		todo.Priority = priorityOrDefault(resolved.Priority)
		todo.DueDate = input.DueDate
		if err := ts.todoRepo.Update(ctx, tx, todo); err != nil {
			return fmt.Errorf("update todo: %w", err)
		}
		if err := ts.linkSync.SyncTodo(ctx, tx, todo, resolved); err != nil {
			ts.log.Warn("todo link sync failed, leaving links stale", "error", err, "todo_id", todo.ID)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ts.reload(ctx, todoID)
}

func (ts *todoService) SetCompleted(ctx context.Context, todoID uuid.UUID, completed bool) (*types.Todo, error) {
	todo, err := ts.owned(ctx, nil, todoID)
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	if err := ts.todoRepo.SetCompletedAt(ctx, nil, todo.ID, completedAt); err != nil {
		return nil, fmt.Errorf("set completed: %w", err)
	}
	return ts.reload(ctx, todoID)
}

func (ts *todoService) SetLinks(ctx context.Context, todoID uuid.UUID, jarIDs, tagIDs []uuid.UUID) (*types.Todo, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}

	if err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		todo, err := ts.owned(ctx, tx, todoID)
		if err != nil {
			return err
		}

		jars, err := ts.jarRepo.GetByIDs(ctx, tx, jarIDs)
		if err != nil {
			return fmt.Errorf("fetch jars: %w", err)
		}
		if len(jars) != len(jarIDs) {
			return fmt.Errorf("one or more jars not found")
		}
		tags, err := ts.tagRepo.GetByIDs(ctx, tx, tagIDs)
		if err != nil {
			return fmt.Errorf("fetch tags: %w", err)
		}
		if len(tags) != len(tagIDs) {
			return fmt.Errorf("one or more tags not found")
		}
		for _, j := range jars {
			if j.UserID != userID {
				return fmt.Errorf("one or more jars not found")
			}
		}
		for _, tg := range tags {
			if tg.UserID != userID {
				return fmt.Errorf("one or more tags not found")
			}
		}

		if err := ts.todoRepo.ReplaceJars(ctx, tx, todo, jars); err != nil {
			return fmt.Errorf("replace todo jars: %w", err)
		}
		if err := ts.todoRepo.ReplaceTags(ctx, tx, todo, tags); err != nil {
			return fmt.Errorf("replace todo tags: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ts.reload(ctx, todoID)
}

func (ts *todoService) Delete(ctx context.Context, todoID uuid.UUID) error {
	return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		todo, err := ts.owned(ctx, tx, todoID)
		if err != nil {
			return err
		}
		if err := ts.todoRepo.ClearAssociations(ctx, tx, todo); err != nil {
			return fmt.Errorf("clear todo associations: %w", err)
		}
		return ts.todoRepo.DeleteByIDs(ctx, tx, []uuid.UUID{todo.ID})
	})
}

func (ts *todoService) owned(ctx context.Context, tx *gorm.DB, todoID uuid.UUID) (*types.Todo, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}
	found, err := ts.todoRepo.GetByIDs(ctx, tx, []uuid.UUID{todoID})
	if err != nil {
		return nil, fmt.Errorf("fetch todo: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, fmt.Errorf("todo not found")
	}
	return found[0], nil
}

func (ts *todoService) reload(ctx context.Context, todoID uuid.UUID) (*types.Todo, error) {
	found, err := ts.todoRepo.GetByIDs(ctx, nil, []uuid.UUID{todoID})
	if err != nil {
		return nil, fmt.Errorf("reload todo: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("todo not found")
	}
	return found[0], nil
}

func priorityOrDefault(p *types.Priority) types.Priority {
	if p == nil {
		return types.DefaultPriority
	}
	return *p
}

// stripPriorityOnce removes the recognized priority token from whichever
// field contained the one that won (title is scanned first). Jar and tag
// mentions stay inline as visible markup.
func stripPriorityOnce(title, description string) (string, string) {
	if mention.ScanAll(title).Priority != nil {
		return mention.StripPriority(title), description
	}
	if mention.ScanAll(description).Priority != nil {
		return title, mention.StripPriority(description)
	}
	return title, description
}
