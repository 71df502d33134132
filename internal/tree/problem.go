package tree

import (
	"encoding/json"
	"time"
)

// Difficulty of a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of easy, medium or hard.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// NormalizeDifficulty maps anything unknown to medium.
func NormalizeDifficulty(s string) Difficulty {
	d := Difficulty(s)
	if d.Valid() {
		return d
	}
	return DifficultyMedium
}

// DifficultyFilter narrows the visible problem list. FilterAll keeps everything.
type DifficultyFilter string

const FilterAll DifficultyFilter = "all"

// Valid reports whether f is all or a valid difficulty.
func (f DifficultyFilter) Valid() bool {
	return f == FilterAll || Difficulty(f).Valid()
}

// Problem is the externally owned question a file node points at.
type Problem struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Subject        string          `json:"subject"`
	Difficulty     Difficulty      `json:"difficulty"`
	Description    string          `json:"description"`
	Tags           []string        `json:"tags"`
	CreatedAt      time.Time       `json:"createdAt"`
	AnalysisResult json.RawMessage `json:"analysisResult,omitempty"`
}

// ProblemMap indexes problems by id.
type ProblemMap map[string]*Problem

// NewProblemMap indexes a problem list.
func NewProblemMap(problems []*Problem) ProblemMap {
	m := make(ProblemMap, len(problems))
	for _, p := range problems {
		if p != nil {
			m[p.ID] = p
		}
	}
	return m
}
