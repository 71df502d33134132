package handler

import (
	"log/slog"
	"net/http"

	svc "problembox/internal/domain/services/library"
	"problembox/internal/httputil"
)

// TreeHandler serves the folder/file tree.
type TreeHandler struct {
	treeService svc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a tree handler.
func NewTreeHandler(treeService svc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{treeService: treeService, logger: logger}
}

// Bootstrap returns the caller's full snapshot.
// GET /api/bootstrap
func (h *TreeHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	snap, err := h.treeService.Bootstrap(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, snap)
}

// CreateFolder creates a folder.
// POST /api/folders
func (h *TreeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req svc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateOptionalID("parentId", req.ParentID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	node, err := h.treeService.CreateFolder(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, svc.FolderResponse{Node: node})
}

// SoftDelete moves one node to the trash.
// DELETE /api/nodes/{id}
func (h *TreeHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := validateID("id", id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.softDelete(w, r, []string{id})
}

// BatchSoftDelete moves several nodes to the trash.
// POST /api/nodes/batch-delete
func (h *TreeHandler) BatchSoftDelete(w http.ResponseWriter, r *http.Request) {
	var req svc.NodeIDsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateIDs("nodeIds", req.NodeIDs); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.softDelete(w, r, req.NodeIDs)
}

func (h *TreeHandler) softDelete(w http.ResponseWriter, r *http.Request, ids []string) {
	moved, err := h.treeService.SoftDelete(r.Context(), httputil.GetUserID(r), ids)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.OKResponse{OK: true, AffectedIDs: moved})
}

// Restore moves a node back to the root.
// POST /api/nodes/restore
func (h *TreeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req svc.NodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateID("nodeId", req.NodeID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := h.treeService.Restore(r.Context(), httputil.GetUserID(r), req.NodeID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}

// HardDelete removes a subtree and the problems it references.
// POST /api/nodes/hard-delete
func (h *TreeHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	var req svc.NodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateID("nodeId", req.NodeID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	res, err := h.treeService.HardDelete(r.Context(), httputil.GetUserID(r), req.NodeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.OKResponse{
		OK:                true,
		AffectedIDs:       res.DeletedIDs,
		DeletedProblemIDs: res.DeletedProblemIDs,
	})
}

// MoveProblem moves a problem's file node.
// POST /api/nodes/move-problem
func (h *TreeHandler) MoveProblem(w http.ResponseWriter, r *http.Request) {
	var req svc.MoveProblemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateID("problemId", req.ProblemID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := validateOptionalID("targetFolderId", req.TargetFolderID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := h.treeService.MoveProblem(r.Context(), httputil.GetUserID(r), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}

// MoveNode moves a node.
// POST /api/nodes/move-node
func (h *TreeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req svc.MoveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateID("nodeId", req.NodeID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := validateOptionalID("targetFolderId", req.TargetFolderID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := h.treeService.MoveNode(r.Context(), httputil.GetUserID(r), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}

// Reorder rewrites sibling order.
// POST /api/nodes/reorder
func (h *TreeHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req svc.ReorderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateIDs("orderedIds", req.OrderedIDs); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := h.treeService.Reorder(r.Context(), httputil.GetUserID(r), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondOK(w)
}

// UpdateProfile edits the caller's display name and avatar.
// PATCH /api/profile
func (h *TreeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req svc.UpdateProfileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.treeService.UpdateProfile(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, profile)
}
