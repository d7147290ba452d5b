package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
	"github.com/jarboard/backend/internal/types"
)

var testDBSeq atomic.Int64

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	// Same migration config as the postgres path: no store-level foreign keys,
	// so cleanup the services are responsible for cannot hide behind cascades.
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Jar{},
		&types.Tag{},
		&types.Todo{},
		&types.Note{},
		&types.JarLink{},
		&types.TagLink{},
		&types.JarTagLink{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testEnv wires the full service graph against an in-memory database, the
// same way cmd/server does against postgres.
type testEnv struct {
	db       *gorm.DB
	userID   uuid.UUID
	jarRepo  repos.JarRepo
	tagRepo  repos.TagRepo
	linkRepo repos.LinkRepo
	todoRepo repos.TodoRepo
	noteRepo repos.NoteRepo

	resolver MentionResolver
	linkSync LinkSyncService
	jars     JarService
	tags     TagService
	todos    TodoService
	notes    NoteService
	suggest  SuggestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := mustTestLogger(t)

	user := &types.User{
		ID:        uuid.New(),
		Email:     "dev@example.com",
		Password:  "irrelevant",
		FirstName: "Dev",
		LastName:  "User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	env := &testEnv{
		db:       db,
		userID:   user.ID,
		jarRepo:  repos.NewJarRepo(db, log),
		tagRepo:  repos.NewTagRepo(db, log),
		linkRepo: repos.NewLinkRepo(db, log),
		todoRepo: repos.NewTodoRepo(db, log),
		noteRepo: repos.NewNoteRepo(db, log),
	}
	env.resolver = NewMentionResolver(db, log, env.jarRepo, env.tagRepo)
	env.linkSync = NewLinkSyncService(db, log, env.linkRepo, env.todoRepo, env.noteRepo)
	env.jars = NewJarService(db, log, env.jarRepo, env.tagRepo, env.linkRepo, env.resolver, env.linkSync)
	env.tags = NewTagService(db, log, env.tagRepo, env.jarRepo, env.linkRepo, env.resolver, env.linkSync)
	env.todos = NewTodoService(db, log, env.todoRepo, env.jarRepo, env.tagRepo, env.resolver, env.linkSync)
	env.notes = NewNoteService(db, log, env.noteRepo, env.resolver, env.linkSync)
	env.suggest = NewSuggestService(log, env.jarRepo, env.tagRepo)
	return env
}

func (env *testEnv) ctx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: env.userID})
}

// ctxAs builds a context authenticated as a different user, for ownership
// isolation tests.
func (env *testEnv) ctxAs(t *testing.T, email string) (context.Context, uuid.UUID) {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "irrelevant",
		FirstName: "Other",
		LastName:  "User",
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID}), user.ID
}

func jarNames(jars []*types.Jar) []string {
	names := make([]string, 0, len(jars))
	for _, j := range jars {
		names = append(names, j.Name)
	}
	return names
}

func tagNames(tags []*types.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tg := range tags {
		names = append(names, tg.Name)
	}
	return names
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
