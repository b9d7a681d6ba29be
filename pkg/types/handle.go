package types

// Handle is the canonical form of a namespace as known to a resolver.
// The in-memory resolvers fill Name and Namespace only; the storage-backed
// resolver also records the package row it came from.
type Handle struct {
	Name      string    // Namespace joined with the resolver's separator
	Namespace Namespace // Segments of the resolved namespace

	// Storage metadata, zero when the handle is not backed by an index
	ID          int64
	PackageName string
	Dir         string // Relative to project root
}

// Clone returns a copy that shares no memory with h
func (h *Handle) Clone() *Handle {
	if h == nil {
		return nil
	}
	c := *h
	c.Namespace = h.Namespace.Clone()
	return &c
}
