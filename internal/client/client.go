// Package client talks to the problembox HTTP API. Client implements
// treestore.Remote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"problembox/internal/config"
	models "problembox/internal/domain/models/library"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
	"problembox/internal/treestore"
)

// APIError is a non-2xx response. Message is the server's "message" field,
// or the raw body when there is none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Permanent reports whether repeating the request cannot succeed. Client
// errors other than timeouts and rate limits are permanent.
func (e *APIError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 &&
		e.Status != http.StatusRequestTimeout &&
		e.Status != http.StatusTooManyRequests
}

// Client is an authenticated API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL that sends token as a bearer credential.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: config.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ treestore.Remote = (*Client)(nil)

// Bootstrap fetches the full library snapshot.
func (c *Client) Bootstrap(ctx context.Context) (*treestore.Snapshot, error) {
	var snap treestore.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/bootstrap", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateFolder creates a folder and returns it with its server id.
func (c *Client) CreateFolder(ctx context.Context, title string, parentID *string) (*tree.Node, error) {
	var resp svc.FolderResponse
	req := svc.CreateFolderRequest{Title: title, ParentID: parentID}
	if err := c.do(ctx, http.MethodPost, "/api/folders", req, &resp); err != nil {
		return nil, err
	}
	if resp.Node == nil {
		return nil, errors.New("create folder: response has no node")
	}
	return resp.Node, nil
}

// SoftDelete moves a node to the trash and returns the moved ids.
func (c *Client) SoftDelete(ctx context.Context, nodeID string) ([]string, error) {
	var resp svc.OKResponse
	if err := c.do(ctx, http.MethodDelete, "/api/nodes/"+url.PathEscape(nodeID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.AffectedIDs, nil
}

// SoftDeleteBatch moves several nodes to the trash.
func (c *Client) SoftDeleteBatch(ctx context.Context, nodeIDs []string) ([]string, error) {
	var resp svc.OKResponse
	if err := c.do(ctx, http.MethodPost, "/api/nodes/batch-delete", svc.NodeIDsRequest{NodeIDs: nodeIDs}, &resp); err != nil {
		return nil, err
	}
	return resp.AffectedIDs, nil
}

// Restore moves a node back to the root.
func (c *Client) Restore(ctx context.Context, nodeID string) error {
	return c.do(ctx, http.MethodPost, "/api/nodes/restore", svc.NodeRequest{NodeID: nodeID}, nil)
}

// HardDelete permanently removes a node and what it references.
func (c *Client) HardDelete(ctx context.Context, nodeID string) error {
	return c.do(ctx, http.MethodPost, "/api/nodes/hard-delete", svc.NodeRequest{NodeID: nodeID}, nil)
}

// MoveProblem moves a problem's file node. A nil target is the root.
func (c *Client) MoveProblem(ctx context.Context, problemID string, targetFolderID *string) error {
	req := svc.MoveProblemRequest{ProblemID: problemID, TargetFolderID: targetFolderID}
	return c.do(ctx, http.MethodPost, "/api/nodes/move-problem", req, nil)
}

// MoveNode moves a node. A nil target is the root.
func (c *Client) MoveNode(ctx context.Context, nodeID string, targetFolderID *string) error {
	req := svc.MoveNodeRequest{NodeID: nodeID, TargetFolderID: targetFolderID}
	return c.do(ctx, http.MethodPost, "/api/nodes/move-node", req, nil)
}

// Reorder rewrites sibling order.
func (c *Client) Reorder(ctx context.Context, orderedIDs []string) error {
	return c.do(ctx, http.MethodPost, "/api/nodes/reorder", svc.ReorderRequest{OrderedIDs: orderedIDs}, nil)
}

// DeleteProblem deletes one problem.
func (c *Client) DeleteProblem(ctx context.Context, problemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/problems/"+url.PathEscape(problemID), nil, nil)
}

// DeleteProblemsBatch deletes several problems.
func (c *Client) DeleteProblemsBatch(ctx context.Context, problemIDs []string) error {
	return c.do(ctx, http.MethodPost, "/api/problems/batch-delete", svc.ProblemIDsRequest{ProblemIDs: problemIDs}, nil)
}

// ToggleFavorite flips a favorite and returns the full list.
func (c *Client) ToggleFavorite(ctx context.Context, problemID string) ([]string, error) {
	var resp svc.FavoritesResponse
	if err := c.do(ctx, http.MethodPost, "/api/favorites/toggle", svc.ProblemRequest{ProblemID: problemID}, &resp); err != nil {
		return nil, err
	}
	return resp.Favorites, nil
}

// Import creates problems from question texts.
func (c *Client) Import(ctx context.Context, req *svc.ImportRequest) ([]*tree.Problem, error) {
	var resp svc.ImportResponse
	if err := c.do(ctx, http.MethodPost, "/api/problems/import", req, &resp); err != nil {
		return nil, err
	}
	return resp.Problems, nil
}

// UpdateProfile edits the display name and avatar. Nil fields are kept.
func (c *Client) UpdateProfile(ctx context.Context, req *svc.UpdateProfileRequest) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPatch, "/api/profile", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveAnalysis caches an analysis object on a problem; nil clears it.
func (c *Client) SaveAnalysis(ctx context.Context, problemID string, analysis json.RawMessage) error {
	if analysis == nil {
		analysis = json.RawMessage("null")
	}
	return c.do(ctx, http.MethodPut, "/api/problems/"+url.PathEscape(problemID)+"/analysis", svc.AnalysisRequest{Analysis: analysis}, nil)
}

// do sends body as JSON and decodes a 2xx response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	switch {
	case json.Unmarshal(raw, &body) == nil && body.Message != "":
		apiErr.Message = body.Message
	case body.Detail != "":
		apiErr.Message = body.Detail
	case len(bytes.TrimSpace(raw)) > 0:
		apiErr.Message = strings.TrimSpace(string(raw))
	default:
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
