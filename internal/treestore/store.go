// Package treestore keeps one user's library in memory for the length of a
// session. Mutations are applied locally first and mirrored to the server in
// the background; when the server rejects one, the whole snapshot is fetched
// again and replaces local state.
package treestore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"problembox/internal/config"
	models "problembox/internal/domain/models/library"
	"problembox/internal/tree"
)

// Snapshot is the authoritative bootstrap payload.
type Snapshot = models.Bootstrap

// Remote is the server side of the store. Every method is one request.
type Remote interface {
	Bootstrap(ctx context.Context) (*Snapshot, error)
	CreateFolder(ctx context.Context, title string, parentID *string) (*tree.Node, error)
	SoftDelete(ctx context.Context, nodeID string) ([]string, error)
	SoftDeleteBatch(ctx context.Context, nodeIDs []string) ([]string, error)
	Restore(ctx context.Context, nodeID string) error
	HardDelete(ctx context.Context, nodeID string) error
	MoveProblem(ctx context.Context, problemID string, targetFolderID *string) error
	MoveNode(ctx context.Context, nodeID string, targetFolderID *string) error
	Reorder(ctx context.Context, orderedIDs []string) error
	DeleteProblem(ctx context.Context, problemID string) error
	DeleteProblemsBatch(ctx context.Context, problemIDs []string) error
	ToggleFavorite(ctx context.Context, problemID string) ([]string, error)
}

// State is an immutable view of the library. Commands derive a new State
// instead of editing the one they are given.
type State struct {
	Profile   *models.Profile
	Tree      tree.Forest
	Problems  tree.ProblemMap
	Favorites []string
}

func emptyState() *State {
	return &State{Tree: tree.Forest{}, Problems: tree.ProblemMap{}, Favorites: []string{}}
}

func stateFromSnapshot(snap *Snapshot) *State {
	st := emptyState()
	if snap == nil {
		return st
	}
	st.Profile = snap.Profile
	st.Tree = tree.Build(tree.Flatten(snap.Tree))
	st.Problems = tree.NewProblemMap(snap.Problems)
	if snap.Favorites != nil {
		st.Favorites = slices.Clone(snap.Favorites)
	}
	return st
}

func (s *State) clone() *State {
	c := *s
	return &c
}

// IsFavorite reports whether problemID is in the favorites list.
func (s *State) IsFavorite(problemID string) bool {
	return slices.Contains(s.Favorites, problemID)
}

// Settlement describes how one executed command ended.
type Settlement struct {
	ID         string
	Command    string
	Err        error // remote failure, nil on success
	RefetchErr error // set when the follow-up refetch failed too
	Duration   time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithRefetchAttempts bounds how often a failed refetch is tried.
func WithRefetchAttempts(n uint) Option {
	return func(s *Store) { s.refetchAttempts = n }
}

// WithBackOff sets the delay policy between refetch attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *Store) { s.newBackOff = newBackOff }
}

// WithOnSettle registers a hook called once per executed command after its
// remote call, and refetch if any, finished.
func WithOnSettle(fn func(Settlement)) Option {
	return func(s *Store) { s.onSettle = fn }
}

// Store is the single writer of a session's library state.
type Store struct {
	remote          Remote
	logger          *slog.Logger
	timeout         time.Duration
	refetchAttempts uint
	newBackOff      func() backoff.BackOff
	onSettle        func(Settlement)

	mu    sync.Mutex
	state *State
	sel   Selection
	stale bool

	flight   singleflight.Group
	inflight sync.WaitGroup
}

// New creates a store for one session. Call Load before reading.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:          remote,
		logger:          slog.Default(),
		timeout:         config.DefaultCallTimeout,
		refetchAttempts: config.DefaultRefetchAttempts,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		state: emptyState(),
		sel:   newSelection(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot. Callers must not modify it.
func (s *Store) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stale reports whether the last refetch gave up, leaving state that may
// disagree with the server.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Wait blocks until every background remote call and refetch has settled.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// Load fetches the authoritative snapshot and replaces local state.
func (s *Store) Load(ctx context.Context) error {
	return s.refetch(ctx)
}

// Execute applies cmd locally, then runs its remote half in the background.
// A local rejection is returned and changes nothing. A remote failure is
// logged and answered with a refetch.
func (s *Store) Execute(cmd Command) error {
	s.mu.Lock()
	next, err := cmd.Apply(s.state)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.replaceLocked(next)
	s.mu.Unlock()

	id := uuid.NewString()
	s.logger.Debug("command applied", "exec_id", id, "command", cmd.Name())

	s.inflight.Add(1)
	go s.settle(id, cmd)
	return nil
}

func (s *Store) settle(id string, cmd Command) {
	defer s.inflight.Done()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	err := cmd.Remote(ctx, s.remote)
	cancel()

	result := Settlement{ID: id, Command: cmd.Name(), Err: err}
	if err != nil {
		s.logger.Warn("remote call failed, refetching",
			"exec_id", id,
			"command", cmd.Name(),
			"error", err,
		)
		result.RefetchErr = s.refetch(context.Background())
	}
	result.Duration = time.Since(start)

	if s.onSettle != nil {
		s.onSettle(result)
	}
}

// invalidate refetches in the background, for failures that happen outside
// Execute.
func (s *Store) invalidate() {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		_ = s.refetch(context.Background())
	}()
}

// refetch replaces local state with a fresh snapshot. Concurrent callers
// share one request. Each attempt is bounded by the call timeout; the whole
// sequence gives up after refetchAttempts and marks the store stale.
func (s *Store) refetch(ctx context.Context) error {
	_, err, _ := s.flight.Do("bootstrap", func() (any, error) {
		snap, err := backoff.Retry(ctx,
			func() (*Snapshot, error) {
				callCtx, cancel := context.WithTimeout(ctx, s.timeout)
				defer cancel()
				snap, err := s.remote.Bootstrap(callCtx)
				if isPermanent(err) {
					return nil, backoff.Permanent(err)
				}
				return snap, err
			},
			backoff.WithBackOff(s.newBackOff()),
			backoff.WithMaxTries(s.refetchAttempts),
			backoff.WithNotify(func(err error, next time.Duration) {
				s.logger.Debug("bootstrap failed, retrying", "error", err, "next", next)
			}),
		)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.stale = true
			s.logger.Error("refetch gave up, state may be stale", "error", err)
			return nil, err
		}
		s.stale = false
		s.replaceLocked(stateFromSnapshot(snap))
		return nil, nil
	})
	return err
}

// replaceLocked swaps in next and drops selection entries that no longer
// resolve. Callers hold mu.
func (s *Store) replaceLocked(next *State) {
	s.state = next
	s.sel = s.sel.reconcile(next)
}

// isPermanent reports whether err says retrying cannot help, such as a
// rejected credential.
func isPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

// ErrNoTrash means the server never produced a trash folder.
var ErrNoTrash = errors.New("trash folder missing")

// trashID resolves the trash folder, refetching once when it is not known
// locally since the server creates it lazily on bootstrap.
func (s *Store) trashID(ctx context.Context) (string, error) {
	if trash := tree.FindTrash(s.State().Tree); trash != nil {
		return trash.ID, nil
	}
	if err := s.refetch(ctx); err != nil {
		return "", err
	}
	if trash := tree.FindTrash(s.State().Tree); trash != nil {
		return trash.ID, nil
	}
	return "", ErrNoTrash
}
