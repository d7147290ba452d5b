package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/mention"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/requestdata"
)

// Suggestion is one autocomplete candidate for the mention the caret sits in.
type Suggestion struct {
	Kind        mention.Kind `json:"kind"`
	Value       string       `json:"value"`
	Description string       `json:"description,omitempty"`
}

// SuggestResult carries the active mention (so the client knows which text
// span to replace) together with the ranked candidates. A nil Mention means
// the caret is not inside a mention and Suggestions is empty.
type SuggestResult struct {
	Mention     *mention.Mention `json:"mention"`
	Suggestions []Suggestion     `json:"suggestions"`
}

const suggestLimit = 20

var priorityLevels = []string{"very-low", "low", "medium", "high", "very-high"}

type SuggestService interface {
	Suggest(ctx context.Context, text string, caret int) (*SuggestResult, error)
}

type suggestService struct {
	log     *logger.Logger
	jarRepo repos.JarRepo
	tagRepo repos.TagRepo
}

func NewSuggestService(log *logger.Logger, jarRepo repos.JarRepo, tagRepo repos.TagRepo) SuggestService {
	return &suggestService{
		log:     log.With("service", "SuggestService"),
		jarRepo: jarRepo,
		tagRepo: tagRepo,
	}
}

func (ss *suggestService) Suggest(ctx context.Context, text string, caret int) (*SuggestResult, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, fmt.Errorf("unauthorized")
	}

	active := mention.ScanAt(text, caret)
	if active == nil {
		return &SuggestResult{Suggestions: []Suggestion{}}, nil
	}

	result := &SuggestResult{Mention: active, Suggestions: []Suggestion{}}
	switch active.Kind {
	case mention.KindJar:
		jars, err := ss.jarRepo.SearchByPrefix(ctx, nil, userID, active.Query, suggestLimit)
		if err != nil {
			return nil, fmt.Errorf("search jars: %w", err)
		}
		for _, jar := range jars {
			result.Suggestions = append(result.Suggestions, Suggestion{
				Kind:        mention.KindJar,
				Value:       jar.Name,
				Description: jar.Description,
			})
		}
	case mention.KindTag:
		tags, err := ss.tagRepo.SearchByPrefix(ctx, nil, userID, active.Query, suggestLimit)
		if err != nil {
			return nil, fmt.Errorf("search tags: %w", err)
		}
		for _, tag := range tags {
			result.Suggestions = append(result.Suggestions, Suggestion{
				Kind:        mention.KindTag,
				Value:       tag.Name,
				Description: tag.Description,
			})
		}
	case mention.KindPriority:
		// Priority levels are a fixed vocabulary, no DB lookup.
		query := strings.ToLower(active.Query)
		for _, level := range priorityLevels {
			if strings.HasPrefix(level, query) {
				result.Suggestions = append(result.Suggestions, Suggestion{
					Kind:  mention.KindPriority,
					Value: level,
				})
			}
		}
	}
	return result, nil
}
