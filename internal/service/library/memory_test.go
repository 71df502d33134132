package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	"problembox/internal/domain/repositories"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

// memStore is an in-memory stand-in for the postgres repositories.
type memStore struct {
	mu        sync.Mutex
	seq       int
	nodes     map[string]*models.TreeNode
	problems  map[string]*models.Problem
	favorites map[string][]string
	profiles  map[string]*models.Profile
	failNode  error // returned by node Create when set
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{
		nodes:     make(map[string]*models.TreeNode),
		problems:  make(map[string]*models.Problem),
		favorites: make(map[string][]string),
		profiles:  make(map[string]*models.Profile),
	}
}

func (m *memStore) next(prefix string) (string, time.Time) {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq), epoch.Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Nodes:     memNodes{m},
		Problems:  memProblems{m},
		Favorites: memFavorites{m},
		Profiles:  memProfiles{m},
	}
}

type memNodes struct{ m *memStore }

func (r memNodes) Create(_ context.Context, node *models.TreeNode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failNode != nil {
		return r.m.failNode
	}
	// tree_nodes.title is VARCHAR(255).
	if utf8.RuneCountInString(node.Title) > 255 {
		return fmt.Errorf("title %d characters: value too long for type character varying(255)", utf8.RuneCountInString(node.Title))
	}
	node.ID, node.CreatedAt = r.m.next("n")
	cp := *node
	r.m.nodes[node.ID] = &cp
	return nil
}

func (r memNodes) GetByID(_ context.Context, userID, id string) (*models.TreeNode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.nodes[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r memNodes) GetByProblemID(_ context.Context, userID, problemID string) (*models.TreeNode, error) {
	found := r.list(userID, func(n *models.TreeNode) bool {
		return n.ProblemID != nil && *n.ProblemID == problemID
	})
	if len(found) > 0 {
		return &found[0], nil
	}
	return nil, fmt.Errorf("node for problem %s: %w", problemID, domain.ErrNotFound)
}

func (r memNodes) ListByUser(_ context.Context, userID string) ([]models.TreeNode, error) {
	return r.list(userID, func(*models.TreeNode) bool { return true }), nil
}

func (r memNodes) ListChildren(_ context.Context, userID string, parentID *string) ([]models.TreeNode, error) {
	return r.list(userID, func(n *models.TreeNode) bool { return sameID(n.ParentID, parentID) }), nil
}

func (r memNodes) FindFolder(_ context.Context, userID string, parentID *string, title string) (*models.TreeNode, error) {
	found := r.list(userID, func(n *models.TreeNode) bool {
		return n.Type == tree.NodeTypeFolder && n.Title == title && sameID(n.ParentID, parentID)
	})
	if len(found) > 0 {
		return &found[0], nil
	}
	return nil, nil
}

func (r memNodes) CountOwned(_ context.Context, userID string, ids []string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	count := 0
	for _, id := range ids {
		if n, ok := r.m.nodes[id]; ok && n.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r memNodes) SetParent(_ context.Context, userID string, ids []string, parentID *string, sortOrder int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if node, ok := r.m.nodes[id]; ok && node.UserID == userID {
			node.ParentID = copyPtr(parentID)
			node.SortOrder = sortOrder
			n++
		}
	}
	return n, nil
}

func (r memNodes) SetSortOrders(_ context.Context, userID string, ids []string, base int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, id := range ids {
		if node, ok := r.m.nodes[id]; ok && node.UserID == userID {
			node.SortOrder = base + int64(i)
		}
	}
	return nil
}

func (r memNodes) Delete(_ context.Context, userID string, ids []string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if node, ok := r.m.nodes[id]; ok && node.UserID == userID {
			delete(r.m.nodes, id)
			n++
		}
	}
	return n, nil
}

func (r memNodes) DeleteByProblemIDs(_ context.Context, userID string, problemIDs []string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	set := toSet(problemIDs)
	for id, node := range r.m.nodes {
		if node.UserID != userID || node.ProblemID == nil {
			continue
		}
		if _, ok := set[*node.ProblemID]; ok {
			delete(r.m.nodes, id)
		}
	}
	return nil
}

func (r memNodes) list(userID string, keep func(*models.TreeNode) bool) []models.TreeNode {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.TreeNode, 0)
	for _, n := range r.m.nodes {
		if n.UserID == userID && keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type memProblems struct{ m *memStore }

func (r memProblems) Create(_ context.Context, p *models.Problem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID, p.CreatedAt = r.m.next("p")
	cp := *p
	r.m.problems[p.ID] = &cp
	return nil
}

func (r memProblems) ListByUser(_ context.Context, userID string) ([]models.Problem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Problem, 0)
	for _, p := range r.m.problems {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memProblems) ListTagsBySubject(_ context.Context, userID, subject string) ([][]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out [][]string
	for _, p := range r.m.problems {
		if p.UserID == userID && p.Subject == subject {
			out = append(out, p.Tags)
		}
	}
	return out, nil
}

func (r memProblems) DeleteByIDs(_ context.Context, userID string, ids []string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if p, ok := r.m.problems[id]; ok && p.UserID == userID {
			delete(r.m.problems, id)
			n++
		}
	}
	return n, nil
}

func (r memProblems) SetAnalysis(_ context.Context, userID, id string, analysis json.RawMessage) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.problems[id]
	if !ok || p.UserID != userID {
		return fmt.Errorf("problem %s: %w", id, domain.ErrNotFound)
	}
	p.AnalysisResult = analysis
	return nil
}

type memFavorites struct{ m *memStore }

func (r memFavorites) ListProblemIDs(_ context.Context, userID string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]string{}, r.m.favorites[userID]...), nil
}

func (r memFavorites) Exists(_ context.Context, userID, problemID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range r.m.favorites[userID] {
		if id == problemID {
			return true, nil
		}
	}
	return false, nil
}

func (r memFavorites) Add(_ context.Context, userID, problemID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.problems[problemID]; !ok {
		return fmt.Errorf("problem %s: %w", problemID, domain.ErrNotFound)
	}
	r.m.favorites[userID] = append(r.m.favorites[userID], problemID)
	return nil
}

func (r memFavorites) Remove(_ context.Context, userID, problemID string) error {
	return r.DeleteByProblemIDs(context.Background(), userID, []string{problemID})
}

func (r memFavorites) DeleteByProblemIDs(_ context.Context, userID string, problemIDs []string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	set := toSet(problemIDs)
	kept := r.m.favorites[userID][:0]
	for _, id := range r.m.favorites[userID] {
		if _, ok := set[id]; !ok {
			kept = append(kept, id)
		}
	}
	r.m.favorites[userID] = kept
	return nil
}

type memProfiles struct{ m *memStore }

func (r memProfiles) GetByID(_ context.Context, userID string) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.profiles[userID], nil
}

func (r memProfiles) Upsert(_ context.Context, profile *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := &models.Profile{ID: profile.ID, Plan: "free"}
	if cur, ok := r.m.profiles[profile.ID]; ok {
		stored.Email, stored.Plan = cur.Email, cur.Plan
	}
	stored.Name, stored.Avatar = profile.Name, profile.Avatar
	r.m.profiles[profile.ID] = stored
	*profile = *stored
	return nil
}

// inlineTx runs fn directly; the memory store has no rollback.
type inlineTx struct{}

func (inlineTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

type fakeClassifier struct {
	results []svc.Classification
	err     error
	got     *svc.ClassifyRequest
}

func (f *fakeClassifier) Classify(_ context.Context, req *svc.ClassifyRequest) ([]svc.Classification, error) {
	f.got = req
	return f.results, f.err
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func strPtr(s string) *string { return &s }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tickingClock advances one millisecond per call.
func tickingClock() Clock {
	var mu sync.Mutex
	now := epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

const user = "u1"

type fixture struct {
	store    *memStore
	tree     svc.TreeService
	problems svc.ProblemService
	classify *fakeClassifier
}

func newFixture() *fixture {
	store := newMemStore()
	clock := tickingClock()
	cls := &fakeClassifier{}
	return &fixture{
		store:    store,
		tree:     NewTreeService(store.repos(), inlineTx{}, clock, quietLogger()),
		problems: NewProblemService(store.repos(), cls, inlineTx{}, clock, quietLogger()),
		classify: cls,
	}
}

// addNode inserts a row directly, bypassing validation.
func (f *fixture) addNode(title string, typ tree.NodeType, parent *string, problemID *string) string {
	n := &models.TreeNode{UserID: user, Title: title, Type: typ, ParentID: parent, ProblemID: problemID}
	_ = memNodes{f.store}.Create(context.Background(), n)
	return n.ID
}

func (f *fixture) addProblem(title string) string {
	p := &models.Problem{UserID: user, Title: title, Subject: "数学", Difficulty: tree.DifficultyEasy}
	_ = memProblems{f.store}.Create(context.Background(), p)
	return p.ID
}

func (f *fixture) node(id string) *models.TreeNode {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	n, ok := f.store.nodes[id]
	if !ok {
		return nil
	}
	cp := *n
	return &cp
}
