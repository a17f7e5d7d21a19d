// Package repository resolves an on-disk package catalog into an object
// graph of families, packages and variants.
//
// Two storage layouts are unified behind one resolution protocol:
//
//	/LOCATION/pkgA/1.0.0/package.yaml    split: one directory per version
//	              /1.0.1/package.yaml
//	/LOCATION/pkgC.yaml                  combined: one file per family
//
// Combined files may declare a version list and per-range overrides:
//
//	name: pkgC
//	versions: ['1.0', '1.1', '1.2']
//	version_overrides:
//	    '1.0':  {requires: [python-2.5]}
//	    '1.1+': {requires: [python-2.6]}
//
// A same-named directory always takes precedence over a combined file.
//
// The Repository owns its directory listing cache and resource registry;
// two repositories over different locations share no state. All reads are
// safe for concurrent callers. Nothing here mutates the catalog.
package repository
