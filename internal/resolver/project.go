package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/pkgtree-mcp/internal/storage"
	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// ErrAmbiguousIdentifier is returned when a bare name is declared in more
// than one package of the project
var ErrAmbiguousIdentifier = errors.New("identifier is declared in more than one package")

// ProjectResolver resolves Go identifiers against an indexed project.
//
// Accepted identifier forms:
//
//	github.com/acme/shop/cart.Cart       package-qualified name
//	github.com/acme/shop/cart.Cart.Add   package-qualified method
//	github.com/acme/shop/cart            bare import path
//	Cart.Add                             method looked up by receiver
//	Cart                                 name looked up in the symbol table
//
// Namespaces are import paths split on "/".
type ProjectResolver struct {
	store     storage.Storage
	projectID int64
}

// NewProjectResolver creates a resolver over one project's index
func NewProjectResolver(store storage.Storage, projectID int64) *ProjectResolver {
	return &ProjectResolver{store: store, projectID: projectID}
}

// NamespaceOf returns the import path segments of the package declaring
// identifier. A bare name that matches no symbol has no namespace.
func (r *ProjectResolver) NamespaceOf(ctx context.Context, identifier string) (types.Namespace, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return types.Namespace{}, nil
	}

	if slash := strings.LastIndex(identifier, "/"); slash >= 0 {
		pkgPath, err := r.packagePath(ctx, identifier, slash)
		if err != nil {
			return nil, err
		}
		return parseImportPath(pkgPath, identifier)
	}

	if dot := strings.Index(identifier, "."); dot >= 0 {
		recv, rest := identifier[:dot], identifier[dot+1:]
		if recv == "" || rest == "" {
			return nil, fmt.Errorf("%w: %q", types.ErrMalformedNamespace, identifier)
		}
		// Recv.Method first, then pkg.Name for single-segment import paths
		if !strings.Contains(rest, ".") {
			ns, found, err := r.lookup(ctx, identifier, rest, recv)
			if err != nil || found {
				return ns, err
			}
		}
		return parseImportPath(recv, identifier)
	}

	ns, found, err := r.lookup(ctx, identifier, identifier, "")
	if err != nil || found {
		return ns, err
	}

	// A single-segment import path such as "fmt"
	if _, err := r.store.GetPackage(ctx, r.projectID, identifier); err == nil {
		return types.Namespace{identifier}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return types.Namespace{}, nil
}

// packagePath splits the import path off a slash-qualified identifier. The
// last path element may itself contain dots (gopkg.in/yaml.v3), so indexed
// packages are tried from the longest candidate down before falling back to
// a cut at the first dot.
func (r *ProjectResolver) packagePath(ctx context.Context, identifier string, slash int) (string, error) {
	last := identifier[slash+1:]
	if !strings.Contains(last, ".") {
		return identifier, nil
	}

	for end := len(identifier); end > slash+1; {
		candidate := identifier[:end]
		_, err := r.store.GetPackage(ctx, r.projectID, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("failed to look up %q: %w", identifier, err)
		}
		end = strings.LastIndex(identifier[:end], ".")
		if end <= slash {
			break
		}
	}
	return identifier[:slash+1+strings.Index(last, ".")], nil
}

// lookup finds the package declaring name (with receiver) in the symbol table
func (r *ProjectResolver) lookup(ctx context.Context, identifier, name, receiver string) (types.Namespace, bool, error) {
	matches, err := r.store.FindSymbolsByName(ctx, r.projectID, name, receiver)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up %q: %w", identifier, err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, m := range matches {
		if !seen[m.ImportPath] {
			seen[m.ImportPath] = true
			paths = append(paths, m.ImportPath)
		}
	}

	switch len(paths) {
	case 0:
		return nil, false, nil
	case 1:
		ns, err := parseImportPath(paths[0], identifier)
		return ns, true, err
	default:
		sort.Strings(paths)
		return nil, false, fmt.Errorf("%w: %q in %s", ErrAmbiguousIdentifier, identifier, strings.Join(paths, ", "))
	}
}

// Resolve returns the handle of the package whose import path is ns.
// Namespaces that are not indexed packages do not resolve.
func (r *ProjectResolver) Resolve(ctx context.Context, ns types.Namespace) (*types.Handle, error) {
	if ns.IsEmpty() {
		return nil, nil
	}

	pkg, err := r.store.GetPackage(ctx, r.projectID, ns.Join(types.ImportPathSeparator))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pkg.Handle(), nil
}

func parseImportPath(pkgPath, identifier string) (types.Namespace, error) {
	ns, err := types.ParseNamespace(pkgPath, types.ImportPathSeparator)
	if err != nil {
		return nil, fmt.Errorf("identifier %q: %w", identifier, err)
	}
	return ns, nil
}
