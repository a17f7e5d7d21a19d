// Package listing memoizes directory listings for the catalog engine.
//
// Each cached listing is keyed by a fingerprint of the directory's identity
// (path + inode) and modification time. Adding or removing an entry bumps
// the directory mtime and forces a re-scan on next access. Changes inside a
// child directory do not invalidate the listing; those are covered by each
// package's own state handle.
package listing
