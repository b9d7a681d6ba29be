// Package owner answers "which registered namespace owns this identifier"
// for indexed projects and for ad hoc in-memory sets.
//
// Registered sets of import paths are stored per project by name. The first
// query against a set builds its tree, which is then shared by later
// queries until the set is saved again or the project is re-indexed:
//
//	svc := owner.NewService(store, owner.Options{CacheSize: 4096})
//	_, err := svc.SaveSet(ctx, "/src/shop", "layers", []string{
//	    "example.com/shop",
//	    "example.com/shop/internal",
//	})
//	tree, err := svc.ProjectTree(ctx, "/src/shop", "layers")
//	matches, err := svc.MatchAll(ctx, tree, []string{"Cart.Add", "Driver"})
package owner
