package handler

import (
	"log/slog"
	"net/http"

	svc "problembox/internal/domain/services/library"
	"problembox/internal/httputil"
)

// ProblemHandler serves problems, favorites and imports.
type ProblemHandler struct {
	problemService svc.ProblemService
	logger         *slog.Logger
}

// NewProblemHandler creates a problem handler.
func NewProblemHandler(problemService svc.ProblemService, logger *slog.Logger) *ProblemHandler {
	return &ProblemHandler{problemService: problemService, logger: logger}
}

// DeleteProblem deletes one problem.
// DELETE /api/problems/{id}
func (h *ProblemHandler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := validateID("id", id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.deleteProblems(w, r, []string{id})
}

// BatchDeleteProblems deletes several problems.
// POST /api/problems/batch-delete
func (h *ProblemHandler) BatchDeleteProblems(w http.ResponseWriter, r *http.Request) {
	var req svc.ProblemIDsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateIDs("problemIds", req.ProblemIDs); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.deleteProblems(w, r, req.ProblemIDs)
}

func (h *ProblemHandler) deleteProblems(w http.ResponseWriter, r *http.Request, ids []string) {
	if err := h.problemService.DeleteProblems(r.Context(), httputil.GetUserID(r), ids); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}

// ToggleFavorite flips a favorite and returns the full list.
// POST /api/favorites/toggle
func (h *ProblemHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req svc.ProblemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateID("problemId", req.ProblemID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	favorites, err := h.problemService.ToggleFavorite(r.Context(), httputil.GetUserID(r), req.ProblemID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.FavoritesResponse{Favorites: favorites})
}

// Import creates problems from question texts.
// POST /api/problems/import
func (h *ProblemHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req svc.ImportRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateOptionalID("parentFolderId", req.ParentFolderID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	problems, err := h.problemService.Import(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.ImportResponse{OK: true, Problems: problems})
}

// SaveAnalysis caches an analysis payload on a problem.
// PUT /api/problems/{id}/analysis
func (h *ProblemHandler) SaveAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := validateID("id", id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req svc.AnalysisRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.problemService.SaveAnalysis(r.Context(), httputil.GetUserID(r), id, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}
