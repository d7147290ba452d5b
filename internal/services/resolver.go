package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/mention"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/types"
)

// ResolvedMentions is the outcome of scanning an entity's text fields:
// entity handles for every mentioned name (existing or freshly created) and
// the single resolved priority, if any token was present.
type ResolvedMentions struct {
	Jars     []*types.Jar
	Tags     []*types.Tag
	Priority *types.Priority
}

func (r *ResolvedMentions) JarIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Jars))
	for _, j := range r.Jars {
		ids = append(ids, j.ID)
	}
	return ids
}

func (r *ResolvedMentions) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

type MentionResolver interface {
	// Resolve scans the given text fields in order, unions the discovered
	// name sets, and upserts a Jar/Tag per distinct name for the user.
	// Priority comes from the first recognized token across the fields;
	// a nil Priority means the caller must reset to the default, not keep
	// the old value.
	Resolve(ctx context.Context, tx *gorm.DB, userID uuid.UUID, texts ...string) (*ResolvedMentions, error)
}

type mentionResolver struct {
	db      *gorm.DB
	log     *logger.Logger
	jarRepo repos.JarRepo
	tagRepo repos.TagRepo
}

func NewMentionResolver(db *gorm.DB, log *logger.Logger, jarRepo repos.JarRepo, tagRepo repos.TagRepo) MentionResolver {
	return &mentionResolver{
		db:      db,
		log:     log.With("service", "MentionResolver"),
		jarRepo: jarRepo,
		tagRepo: tagRepo,
	}
}

func (mr *mentionResolver) Resolve(ctx context.Context, tx *gorm.DB, userID uuid.UUID, texts ...string) (*ResolvedMentions, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required to resolve mentions")
	}

	jarNames := make(map[string]struct{})
	tagNames := make(map[string]struct{})
	var priority *types.Priority
	for _, text := range texts {
		res := mention.ScanAll(text)
		for name := range res.JarNames {
			jarNames[name] = struct{}{}
		}
		for name := range res.TagNames {
			tagNames[name] = struct{}{}
		}
		if priority == nil {
			priority = res.Priority
		}
	}

	jars, err := mr.resolveJars(ctx, tx, userID, setToSlice(jarNames))
	if err != nil {
		return nil, err
	}
	tags, err := mr.resolveTags(ctx, tx, userID, setToSlice(tagNames))
	if err != nil {
		return nil, err
	}

	return &ResolvedMentions{Jars: jars, Tags: tags, Priority: priority}, nil
}

// resolveJars upserts by (user_id, name). The unique index is the authority
// on races: the insert skips conflicting rows, and the re-fetch picks up
// whichever request won.
func (mr *mentionResolver) resolveJars(ctx context.Context, tx *gorm.DB, userID uuid.UUID, names []string) ([]*types.Jar, error) {
	if len(names) == 0 {
		return []*types.Jar{}, nil
	}

	existing, err := mr.jarRepo.GetByNames(ctx, tx, userID, names)
	if err != nil {
		return nil, fmt.Errorf("lookup mentioned jars: %w", err)
	}
	missing := missingNames(names, jarNameSet(existing))
	if len(missing) == 0 {
		return existing, nil
	}

	toCreate := make([]*types.Jar, 0, len(missing))
	for _, name := range missing {
		toCreate = append(toCreate, &types.Jar{UserID: userID, Name: name})
	}
	if err := mr.jarRepo.CreateSkipConflict(ctx, tx, toCreate); err != nil {
		return nil, fmt.Errorf("create mentioned jars: %w", err)
	}

	all, err := mr.jarRepo.GetByNames(ctx, tx, userID, names)
	if err != nil {
		return nil, fmt.Errorf("refetch mentioned jars: %w", err)
	}
	if len(all) != len(names) {
		return nil, fmt.Errorf("resolved %d of %d mentioned jars", len(all), len(names))
	}
	return all, nil
}

func (mr *mentionResolver) resolveTags(ctx context.Context, tx *gorm.DB, userID uuid.UUID, names []string) ([]*types.Tag, error) {
	if len(names) == 0 {
		return []*types.Tag{}, nil
	}

	existing, err := mr.tagRepo.GetByNames(ctx, tx, userID, names)
	if err != nil {
		return nil, fmt.Errorf("lookup mentioned tags: %w", err)
	}
	missing := missingNames(names, tagNameSet(existing))
	if len(missing) == 0 {
		return existing, nil
	}

	toCreate := make([]*types.Tag, 0, len(missing))
	for _, name := range missing {
		toCreate = append(toCreate, &types.Tag{UserID: userID, Name: name})
	}
	if err := mr.tagRepo.CreateSkipConflict(ctx, tx, toCreate); err != nil {
		return nil, fmt.Errorf("create mentioned tags: %w", err)
	}

	all, err := mr.tagRepo.GetByNames(ctx, tx, userID, names)
	if err != nil {
		return nil, fmt.Errorf("refetch mentioned tags: %w", err)
	}
	if len(all) != len(names) {
		return nil, fmt.Errorf("resolved %d of %d mentioned tags", len(all), len(names))
	}
	return all, nil
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

func missingNames(wanted []string, have map[string]struct{}) []string {
	var missing []string
	for _, name := range wanted {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func jarNameSet(jars []*types.Jar) map[string]struct{} {
	set := make(map[string]struct{}, len(jars))
	for _, j := range jars {
		set[j.Name] = struct{}{}
	}
	return set
}

func tagNameSet(tags []*types.Tag) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t.Name] = struct{}{}
	}
	return set
}
