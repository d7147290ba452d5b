package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/types"
)

// The round trip a dashboard edit makes: mention entities in a jar's
// description, see the link rows appear, drop a mention, see its row go.
func TestJarDescriptionLinkRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	jar, err := env.jars.Create(ctx, "projects", "tracks @Alpha work tagged #beta")
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}

	detail, err := env.jars.Get(ctx, jar.ID)
	if err != nil {
		t.Fatalf("get jar: %v", err)
	}
	if len(detail.LinkedJars) != 1 || detail.LinkedJars[0].Name != "Alpha" {
		t.Fatalf("expected linked jar Alpha, got %v", jarNames(detail.LinkedJars))
	}
	if len(detail.LinkedTags) != 1 || detail.LinkedTags[0].Name != "beta" {
		t.Fatalf("expected linked tag beta, got %v", tagNames(detail.LinkedTags))
	}

	// Alpha's incoming view mirrors the edge.
	alpha, err := env.jarRepo.GetByNames(ctx, nil, env.userID, []string{"Alpha"})
	if err != nil || len(alpha) != 1 {
		t.Fatalf("fetch Alpha: %v (%d rows)", err, len(alpha))
	}
	alphaDetail, err := env.jars.Get(ctx, alpha[0].ID)
	if err != nil {
		t.Fatalf("get Alpha detail: %v", err)
	}
	if len(alphaDetail.MentionedBy) != 1 || alphaDetail.MentionedBy[0].ID != jar.ID {
		t.Fatalf("expected Alpha mentioned by %s", jar.Name)
	}

	// Dropping the tag mention removes exactly that edge.
	if _, err := env.jars.UpdateDescription(ctx, jar.ID, "tracks @Alpha work"); err != nil {
		t.Fatalf("update description: %v", err)
	}
	detail, err = env.jars.Get(ctx, jar.ID)
	if err != nil {
		t.Fatalf("get jar after update: %v", err)
	}
	if len(detail.LinkedJars) != 1 {
		t.Fatalf("jar link should survive, got %v", jarNames(detail.LinkedJars))
	}
	if len(detail.LinkedTags) != 0 {
		t.Fatalf("tag link should be gone, got %v", tagNames(detail.LinkedTags))
	}
}

func TestLinkSyncIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	jar, err := env.jars.Create(ctx, "home", "see @garden and #chores")
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}

	// Re-saving the same text must not duplicate rows.
	for i := 0; i < 3; i++ {
		if _, err := env.jars.UpdateDescription(ctx, jar.ID, "see @garden and #chores"); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	var jarLinks int64
	if err := env.db.Model(&types.JarLink{}).Where("source_jar_id = ?", jar.ID).Count(&jarLinks).Error; err != nil {
		t.Fatalf("count jar links: %v", err)
	}
	if jarLinks != 1 {
		t.Fatalf("expected 1 jar link row, got %d", jarLinks)
	}
	var jarTagLinks int64
	if err := env.db.Model(&types.JarTagLink{}).Where("jar_id = ?", jar.ID).Count(&jarTagLinks).Error; err != nil {
		t.Fatalf("count jar-tag links: %v", err)
	}
	if jarTagLinks != 1 {
		t.Fatalf("expected 1 jar-tag link row, got %d", jarTagLinks)
	}
}

func TestTagDescriptionLinksBothDirections(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	tag, err := env.tags.Create(ctx, "focus", "pairs with #deep inside @office")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	detail, err := env.tags.Get(ctx, tag.ID)
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}
	if len(detail.LinkedTags) != 1 || detail.LinkedTags[0].Name != "deep" {
		t.Fatalf("expected linked tag deep, got %v", tagNames(detail.LinkedTags))
	}
	if len(detail.LinkedJars) != 1 || detail.LinkedJars[0].Name != "office" {
		t.Fatalf("expected linked jar office, got %v", jarNames(detail.LinkedJars))
	}

	// The jar side of the jar-tag edge is visible from the jar too.
	office, err := env.jarRepo.GetByNames(ctx, nil, env.userID, []string{"office"})
	if err != nil || len(office) != 1 {
		t.Fatalf("fetch office: %v (%d rows)", err, len(office))
	}
	officeDetail, err := env.jars.Get(ctx, office[0].ID)
	if err != nil {
		t.Fatalf("get office detail: %v", err)
	}
	if len(officeDetail.LinkedTags) != 1 || officeDetail.LinkedTags[0].Name != "focus" {
		t.Fatalf("expected office linked to focus, got %v", tagNames(officeDetail.LinkedTags))
	}
}

func TestDeletingJarRemovesEveryReferencingRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	jar, err := env.jars.Create(ctx, "temp", "points at @keeper and #note")
	if err != nil {
		t.Fatalf("create jar: %v", err)
	}
	// Incoming edge and association rows referencing the doomed jar.
	if _, err := env.jars.Create(ctx, "keeper", "points back at @temp"); err != nil {
		t.Fatalf("create keeper: %v", err)
	}
	if _, err := env.todos.Create(ctx, CreateTodoInput{Title: "file under @temp"}); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	if err := env.jars.Delete(ctx, jar.ID); err != nil {
		t.Fatalf("delete jar: %v", err)
	}

	countRows := func(query *gorm.DB, what string) {
		t.Helper()
		var n int64
		if err := query.Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", what, err)
		}
		if n != 0 {
			t.Fatalf("expected no %s after delete, %d remain", what, n)
		}
	}
	countRows(env.db.Model(&types.JarLink{}).Where("source_jar_id = ? OR target_jar_id = ?", jar.ID, jar.ID), "jar links")
	countRows(env.db.Model(&types.JarTagLink{}).Where("jar_id = ?", jar.ID), "jar-tag links")
	countRows(env.db.Table("todo_jar").Where("jar_id = ?", jar.ID), "todo associations")
}

func TestDeletingTagRemovesEveryReferencingRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	tag, err := env.tags.Create(ctx, "stale", "pairs with #fresh inside @pantry")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if _, err := env.todos.Create(ctx, CreateTodoInput{Title: "toss anything #stale"}); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	if err := env.tags.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}

	var tagLinks int64
	if err := env.db.Model(&types.TagLink{}).Where("source_tag_id = ? OR target_tag_id = ?", tag.ID, tag.ID).Count(&tagLinks).Error; err != nil {
		t.Fatalf("count tag links: %v", err)
	}
	var jarTagLinks int64
	if err := env.db.Model(&types.JarTagLink{}).Where("tag_id = ?", tag.ID).Count(&jarTagLinks).Error; err != nil {
		t.Fatalf("count jar-tag links: %v", err)
	}
	var joins int64
	if err := env.db.Table("todo_tag").Where("tag_id = ?", tag.ID).Count(&joins).Error; err != nil {
		t.Fatalf("count todo associations: %v", err)
	}
	if tagLinks != 0 || jarTagLinks != 0 || joins != 0 {
		t.Fatalf("expected no referencing rows after delete, got tag_link=%d jar_tag_link=%d todo_tag=%d", tagLinks, jarTagLinks, joins)
	}
}

func TestDeletingTodoClearsItsJoinRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx()

	todo, err := env.todos.Create(ctx, CreateTodoInput{Title: "sort @inbox items #quick"})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	if err := env.todos.Delete(ctx, todo.ID); err != nil {
		t.Fatalf("delete todo: %v", err)
	}

	var jarJoins, tagJoins int64
	if err := env.db.Table("todo_jar").Where("todo_id = ?", todo.ID).Count(&jarJoins).Error; err != nil {
		t.Fatalf("count todo_jar: %v", err)
	}
	if err := env.db.Table("todo_tag").Where("todo_id = ?", todo.ID).Count(&tagJoins).Error; err != nil {
		t.Fatalf("count todo_tag: %v", err)
	}
	if jarJoins != 0 || tagJoins != 0 {
		t.Fatalf("expected join rows cleared, got todo_jar=%d todo_tag=%d", jarJoins, tagJoins)
	}
}
