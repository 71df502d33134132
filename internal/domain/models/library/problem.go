package library

import (
	"encoding/json"
	"time"

	"problembox/internal/tree"
)

// Problem is one row of the problems table.
type Problem struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	Title          string          `db:"title"`
	Subject        string          `db:"subject"`
	Difficulty     tree.Difficulty `db:"difficulty"`
	Description    string          `db:"description"`
	Tags           []string        `db:"tags"`
	AnalysisResult json.RawMessage `db:"analysis_result"` // cached LLM analysis, may be NULL
	CreatedAt      time.Time       `db:"created_at"`
}

// View converts the row to the client-facing problem.
func (p *Problem) View() *tree.Problem {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return &tree.Problem{
		ID:             p.ID,
		Title:          p.Title,
		Subject:        p.Subject,
		Difficulty:     p.Difficulty,
		Description:    p.Description,
		Tags:           tags,
		CreatedAt:      p.CreatedAt,
		AnalysisResult: p.AnalysisResult,
	}
}
