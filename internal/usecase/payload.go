package usecase

import (
	"context"
	"fmt"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
)

// BuildPayload starts from the merged tag set and folds in the output of every
// applicable enhancer, in order. Later enhancers win on field collisions.
func BuildPayload(ctx context.Context, article domain.Article, enhancers []enhancer.Enhancer, fetcher enhancer.Fetcher) (domain.Payload, error) {
	payload := domain.Payload{Tags: domain.MergeProcessedTag(article)}

	for _, e := range enhancers {
		if !e.Applies(article) {
			continue
		}
		enrichment, err := e.Enrich(ctx, article, fetcher)
		if err != nil {
			return domain.Payload{}, fmt.Errorf("enhancer %s: %w", e.Name(), err)
		}
		payload.Enrichment = payload.Enrichment.Merge(enrichment)
	}

	return payload, nil
}
