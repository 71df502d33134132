package library

import (
	"context"

	"problembox/internal/tree"
)

// Classification is the classifier's verdict for one imported item.
type Classification struct {
	Summary    string          `json:"summary"`
	Mid        string          `json:"mid"`
	Small      string          `json:"small"`
	Difficulty tree.Difficulty `json:"difficulty"`
}

// ClassifyRequest is a batch of question texts within one subject.
type ClassifyRequest struct {
	Subject            string
	ExistingCategories []string
	Items              []string
	Model              string
}

// Classifier proposes a title, category folders and a difficulty per item.
// Results are positional; a shorter result leaves the tail unclassified.
type Classifier interface {
	Classify(ctx context.Context, req *ClassifyRequest) ([]Classification, error)
}
