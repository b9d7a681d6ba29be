package owner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/pkgtree-mcp/internal/logging"
	"github.com/dshills/pkgtree-mcp/internal/pkgtree"
	"github.com/dshills/pkgtree-mcp/internal/resolver"
	"github.com/dshills/pkgtree-mcp/internal/storage"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

var (
	// ErrProjectNotFound is returned for a root path that was never indexed
	ErrProjectNotFound = errors.New("project not found")
	// ErrSetNotFound is returned for an unknown namespace set name
	ErrSetNotFound = errors.New("namespace set not found")
	// ErrInvalidSetName is returned for an empty or blank set name
	ErrInvalidSetName = errors.New("namespace set name cannot be empty")
)

// Options configures a Service
type Options struct {
	// CacheSize bounds the resolve cache of each project tree; 0 disables it
	CacheSize int
	// Separator is used by MemoryTree when the caller gives none
	Separator string
	Logger    *log.Logger
}

// treeKey identifies a published project tree
type treeKey struct {
	projectID int64
	set       string
}

// Service builds, caches and queries namespace trees. Project trees are
// built once per stored set and replaced, never mutated, when the set is
// saved again or the project is re-indexed.
type Service struct {
	store     storage.Storage
	logger    *log.Logger
	cacheSize int
	separator string

	mu    sync.RWMutex
	trees map[treeKey]*pkgtree.Tree
	// Generations only grow. A tree built from a store read is published
	// only if neither generation of its key moved in the meantime.
	setGen     map[treeKey]uint64
	projectGen map[int64]uint64

	// beforePublish runs between building a project tree and publishing it
	beforePublish func()
}

// Match is the outcome for one identifier of a batch
type Match struct {
	Identifier string
	Handle     *types.Handle // nil when nothing matched
	Err        error
}

// Matched reports whether the identifier has an owning namespace
func (m Match) Matched() bool {
	return m.Handle != nil
}

// NewService creates a Service over store
func NewService(store storage.Storage, opts Options) *Service {
	sep := opts.Separator
	if sep == "" {
		sep = types.DefaultSeparator
	}
	return &Service{
		store:     store,
		logger:    logging.OrDiscard(opts.Logger),
		cacheSize: opts.CacheSize,
		separator: sep,
		trees:      make(map[treeKey]*pkgtree.Tree),
		setGen:     make(map[treeKey]uint64),
		projectGen: make(map[int64]uint64),
	}
}

// generation must be called with mu held
func (s *Service) generation(key treeKey) uint64 {
	return s.setGen[key] + s.projectGen[key.projectID]
}

// invalidate drops the published tree of key and fences off builds that
// started before it
func (s *Service) invalidate(key treeKey) {
	s.mu.Lock()
	s.setGen[key]++
	delete(s.trees, key)
	s.mu.Unlock()
}

// Project looks up an indexed project by root path
func (s *Service) Project(ctx context.Context, rootPath string) (*storage.Project, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	project, err := s.store.GetProject(ctx, absPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, absPath)
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// SaveSet registers namespaces (import paths) under name for the project
// at rootPath, replacing any set of the same name. The set is validated by
// building a tree from it before anything is written.
func (s *Service) SaveSet(ctx context.Context, rootPath, name string, namespaces []string) (*storage.NamespaceSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSetName
	}

	project, err := s.Project(ctx, rootPath)
	if err != nil {
		return nil, err
	}

	trimmed := make([]string, len(namespaces))
	for i, ns := range namespaces {
		trimmed[i] = strings.TrimSpace(ns)
	}

	r := resolver.NewProjectResolver(s.store, project.ID)
	tree, err := pkgtree.New(r, trimmed, pkgtree.WithSeparator(types.ImportPathSeparator))
	if err != nil {
		return nil, fmt.Errorf("invalid namespace set %q: %w", name, err)
	}

	set := &storage.NamespaceSet{
		ProjectID:  project.ID,
		Name:       name,
		Separator:  types.ImportPathSeparator,
		Namespaces: tree.Namespaces(),
	}
	if err := s.store.SaveNamespaceSet(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to save namespace set: %w", err)
	}

	s.invalidate(treeKey{projectID: project.ID, set: name})

	s.logger.Info("saved namespace set", "project", project.RootPath, "set", name, "namespaces", len(set.Namespaces))
	return set, nil
}

// ListSets returns the namespace sets of the project at rootPath
func (s *Service) ListSets(ctx context.Context, rootPath string) ([]*storage.NamespaceSet, error) {
	project, err := s.Project(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	return s.store.ListNamespaceSets(ctx, project.ID)
}

// DeleteSet removes a namespace set and its published tree
func (s *Service) DeleteSet(ctx context.Context, rootPath, name string) error {
	project, err := s.Project(ctx, rootPath)
	if err != nil {
		return err
	}

	err = s.store.DeleteNamespaceSet(ctx, project.ID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSetNotFound, name)
	}
	if err != nil {
		return err
	}

	s.invalidate(treeKey{projectID: project.ID, set: name})
	return nil
}

// ProjectTree returns the tree of a stored set, building it on first use
func (s *Service) ProjectTree(ctx context.Context, rootPath, name string) (*pkgtree.Tree, error) {
	project, err := s.Project(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	key := treeKey{projectID: project.ID, set: name}

	s.mu.RLock()
	tree, ok := s.trees[key]
	gen := s.generation(key)
	s.mu.RUnlock()
	if ok {
		return tree, nil
	}

	set, err := s.store.GetNamespaceSet(ctx, project.ID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSetNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	var r pkgtree.Resolver = resolver.NewProjectResolver(s.store, project.ID)
	if s.cacheSize > 0 {
		r = pkgtree.NewCachingResolver(r, s.cacheSize)
	}
	tree, err = pkgtree.New(r, set.Namespaces, pkgtree.WithSeparator(set.Separator))
	if err != nil {
		return nil, fmt.Errorf("stored namespace set %q: %w", name, err)
	}

	if s.beforePublish != nil {
		s.beforePublish()
	}

	s.mu.Lock()
	existing, published := s.trees[key]
	stale := s.generation(key) != gen
	switch {
	case published:
		// Another caller published first; keep theirs
		tree = existing
	case !stale:
		s.trees[key] = tree
	}
	s.mu.Unlock()

	if stale && !published {
		// The set changed while it was read. This caller still gets the
		// tree it asked for, but the next one rebuilds.
		s.logger.Debug("discarded stale project tree", "project", project.RootPath, "set", name)
		return tree, nil
	}
	s.logger.Debug("built project tree", "project", project.RootPath, "set", name, "namespaces", tree.Len())
	return tree, nil
}

// InvalidateProject drops every published tree of a project. Handles carry
// package IDs, so trees must be rebuilt after the project is re-indexed.
func (s *Service) InvalidateProject(projectID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectGen[projectID]++
	for key := range s.trees {
		if key.projectID == projectID {
			delete(s.trees, key)
		}
	}
}

// MemoryTree builds a tree over fully qualified names held in memory, for
// namespaces that are not tied to an indexed project
func (s *Service) MemoryTree(namespaces []string, sep string) (*pkgtree.Tree, error) {
	if sep == "" {
		sep = s.separator
	}
	r, err := pkgtree.NewQualifiedNameResolver(sep)
	if err != nil {
		return nil, err
	}
	return pkgtree.New(r, namespaces, pkgtree.WithSeparator(sep))
}

// MatchAll matches every identifier against tree. A failure for one
// identifier is recorded on its Match and does not stop the batch; only
// context cancellation does.
func (s *Service) MatchAll(ctx context.Context, tree *pkgtree.Tree, identifiers []string) ([]Match, error) {
	matches := make([]Match, 0, len(identifiers))
	for _, id := range identifiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := tree.Match(ctx, id)
		matches = append(matches, Match{Identifier: id, Handle: h, Err: err})
	}
	return matches, nil
}

// OwnerOf returns the registered namespace owning the package at importPath,
// joined with the tree's separator, or "" when none does
func OwnerOf(tree *pkgtree.Tree, importPath string) (string, error) {
	ns, err := types.ParseNamespace(importPath, types.ImportPathSeparator)
	if err != nil {
		return "", err
	}
	matched, err := tree.FindMatchingNamespace(ns)
	if err != nil || matched == nil {
		return "", err
	}
	return matched.Join(tree.Separator()), nil
}
