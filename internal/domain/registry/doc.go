// Package registry provides resource identity and memoization for the
// catalog engine.
//
// Every family, package and variant object is constructed through one
// registry, which resolves a (kind, parameters) key to a singleton instance
// for the life of the process. That single choke point is what keeps
// parent/child lookups consistent: a package's parent family and a family's
// child package resolve to the identical object, never to a structurally
// equal copy.
//
// Memoization is pure (never time-bounded) and append-only; there is no
// eviction. The table grows with the catalog, an intentional trade for a
// process observing a bounded catalog.
//
// Example Usage:
//
//	key := registry.Key{Kind: registry.KindFamily, Location: loc, Name: "python", Index: registry.NoIndex}
//	fam := reg.Get(key, func() registry.Resource { return newFamily(...) })
package registry
