package classify

import (
	"context"
	"strings"

	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

// KeywordClassifier files an item under the first existing category its text
// mentions. It runs without network access and backs the LLM classifier.
type KeywordClassifier struct{}

// Classify implements svc.Classifier.
func (KeywordClassifier) Classify(_ context.Context, req *svc.ClassifyRequest) ([]svc.Classification, error) {
	results := make([]svc.Classification, len(req.Items))
	for i, item := range req.Items {
		results[i].Difficulty = tree.DifficultyMedium
		for _, category := range req.ExistingCategories {
			if category != "" && strings.Contains(item, category) {
				results[i].Mid = category
				break
			}
		}
	}
	return results, nil
}

// Fallback tries each classifier in turn and returns the first success.
type Fallback []svc.Classifier

// Classify implements svc.Classifier.
func (f Fallback) Classify(ctx context.Context, req *svc.ClassifyRequest) ([]svc.Classification, error) {
	var lastErr error
	for _, c := range f {
		results, err := c.Classify(ctx, req)
		if err == nil {
			return results, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
