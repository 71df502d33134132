package handler

import (
	"net/http"

	"problembox/internal/middleware"
)

// Register mounts the library API on mux. Every route is instrumented under
// its pattern.
func Register(mux *http.ServeMux, tree *TreeHandler, problems *ProblemHandler) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /api/bootstrap", tree.Bootstrap},
		{"PATCH /api/profile", tree.UpdateProfile},
		{"POST /api/folders", tree.CreateFolder},
		{"DELETE /api/nodes/{id}", tree.SoftDelete},
		{"POST /api/nodes/batch-delete", tree.BatchSoftDelete},
		{"POST /api/nodes/restore", tree.Restore},
		{"POST /api/nodes/hard-delete", tree.HardDelete},
		{"POST /api/nodes/move-problem", tree.MoveProblem},
		{"POST /api/nodes/move-node", tree.MoveNode},
		{"POST /api/nodes/reorder", tree.Reorder},
		{"DELETE /api/problems/{id}", problems.DeleteProblem},
		{"POST /api/problems/batch-delete", problems.BatchDeleteProblems},
		{"POST /api/problems/import", problems.Import},
		{"PUT /api/problems/{id}/analysis", problems.SaveAnalysis},
		{"POST /api/favorites/toggle", problems.ToggleFavorite},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, middleware.Instrument(rt.pattern, rt.handler))
	}
}
