package library

import "problembox/internal/tree"

// Bootstrap is the full authoritative snapshot for one user. It is served at
// session start and refetched whenever an optimistic change fails.
type Bootstrap struct {
	Profile   *Profile        `json:"profile"`
	Problems  []*tree.Problem `json:"problems"`
	Tree      tree.Forest     `json:"tree"`
	Favorites []string        `json:"favorites"`
}
