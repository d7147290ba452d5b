package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/types"
)

func TestTodoCreateDerivesEverythingFromText(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{
		Title:       "finish the deck !high",
		Description: "slides live in @work, tag with #q3",
	})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if todo.Priority != types.PriorityHigh {
		t.Fatalf("expected high priority, got %s", todo.Priority)
	}
	if todo.Title != "finish the deck" {
		t.Fatalf("priority token should be stripped from title, got %q", todo.Title)
	}
	if todo.Description != "slides live in @work, tag with #q3" {
		t.Fatalf("description should keep its mentions, got %q", todo.Description)
	}
	if len(todo.Jars) != 1 || todo.Jars[0].Name != "work" {
		t.Fatalf("expected jar work, got %v", jarNames(todo.Jars))
	}
	if len(todo.Tags) != 1 || todo.Tags[0].Name != "q3" {
		t.Fatalf("expected tag q3, got %v", tagNames(todo.Tags))
	}
}

func TestTodoCreateWithoutTokenGetsDefaultPriority(t *testing.T) {
	env := newTestEnv(t)

	todo, err := env.todos.Create(env.ctx(), CreateTodoInput{Title: "water the plants"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if todo.Priority != types.DefaultPriority {
		t.Fatalf("expected default priority, got %s", todo.Priority)
	}
}

func TestTodoUpdateResetsDroppedPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{Title: "ship release !vhigh"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if todo.Priority != types.PriorityVeryHigh {
		t.Fatalf("expected very_high, got %s", todo.Priority)
	}

	// Editing the text without a token resets, it does not stick.
	updated, err := env.todos.Update(ctx, todo.ID, UpdateTodoInput{Title: "ship release"})
	if err != nil {
		t.Fatalf("update todo: %v", err)
	}
	if updated.Priority != types.DefaultPriority {
		t.Fatalf("expected priority reset to default, got %s", updated.Priority)
	}
}

func TestTodoUpdateReplacesAssociationSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{Title: "plan trip @travel #summer"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}

	updated, err := env.todos.Update(ctx, todo.ID, UpdateTodoInput{Title: "plan trip @travel #winter"})
	if err != nil {
		t.Fatalf("update todo: %v", err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Name != "winter" {
		t.Fatalf("expected tags replaced with [winter], got %v", tagNames(updated.Tags))
	}
	if len(updated.Jars) != 1 || updated.Jars[0].Name != "travel" {
		t.Fatalf("expected jar travel kept, got %v", jarNames(updated.Jars))
	}

	// The summer tag entity itself survives, only the association is gone.
	summer, err := env.tagRepo.GetByNames(ctx, nil, env.userID, []string{"summer"})
	if err != nil || len(summer) != 1 {
		t.Fatalf("summer tag should still exist: %v (%d rows)", err, len(summer))
	}
}

func TestTodoSetCompletedTogglesTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{Title: "take out trash"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}

	done, err := env.todos.SetCompleted(ctx, todo.ID, true)
	if err != nil {
		t.Fatalf("complete todo: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at set")
	}

	reopened, err := env.todos.SetCompleted(ctx, todo.ID, false)
	if err != nil {
		t.Fatalf("reopen todo: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("expected completed_at cleared, got %v", reopened.CompletedAt)
	}
}

func TestTodoSetLinksExplicitOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{Title: "review docs @docs"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	jar, err := env.jars.Create(ctx, "archive", "")
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}
	tag, err := env.tags.Create(ctx, "later", "")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	pinned, err := env.todos.SetLinks(ctx, todo.ID, []uuid.UUID{jar.ID}, []uuid.UUID{tag.ID})
	if err != nil {
		t.Fatalf("set links: %v", err)
	}
	if len(pinned.Jars) != 1 || pinned.Jars[0].Name != "archive" {
		t.Fatalf("expected pinned jar archive, got %v", jarNames(pinned.Jars))
	}
	if len(pinned.Tags) != 1 || pinned.Tags[0].Name != "later" {
		t.Fatalf("expected pinned tag later, got %v", tagNames(pinned.Tags))
	}
}

func TestTodoOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	otherCtx, _ := env.ctxAs(t, "intruder@example.com")

	todo, err := env.todos.Create(env.ctx(), CreateTodoInput{Title: "private thing"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if _, err := env.todos.Get(otherCtx, todo.ID); err == nil {
		t.Fatal("expected other user's Get to fail")
	}
	if err := env.todos.Delete(otherCtx, todo.ID); err == nil {
		t.Fatal("expected other user's Delete to fail")
	}
}

func TestNoteCreateAndUpdateSyncLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	note, err := env.notes.Create(ctx, CreateNoteInput{Content: "ideas for @garden with #spring"})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if len(note.Jars) != 1 || note.Jars[0].Name != "garden" {
		t.Fatalf("expected jar garden, got %v", jarNames(note.Jars))
	}
	if len(note.Tags) != 1 || note.Tags[0].Name != "spring" {
		t.Fatalf("expected tag spring, got %v", tagNames(note.Tags))
	}

	updated, err := env.notes.Update(ctx, note.ID, UpdateNoteInput{Content: "ideas with no mentions"})
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if len(updated.Jars) != 0 || len(updated.Tags) != 0 {
		t.Fatalf("expected associations cleared, got jars=%v tags=%v", jarNames(updated.Jars), tagNames(updated.Tags))
	}
}
