// Package main is the entry point for the packfs catalog browser.
//
// packfs resolves a filesystem package catalog and prints what it finds,
// read-only. It is a thin shell over the repository facade, useful for
// inspecting a catalog and for sanity-checking what an outer dependency
// resolver will see.
//
// Configuration:
//   - Environment variables (12-factor): PACKFS_PATH, PACKFS_LOG_LEVEL, ...
//   - CLI flags (override env vars)
//
// Usage:
//
//	# list every family under a catalog root
//	packfs -location /packages families
//
//	# glob-filtered listing
//	packfs -location /packages families 'py*'
//
//	# packages of one family
//	packfs -location /packages packages python
//
//	# a package document as JSON
//	packfs -location /packages show python 2.7.0
//
//	# pre-warm listing caches
//	packfs -location /packages warm
package main
