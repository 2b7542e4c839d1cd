// Package loader resolves executable images by name. An image couples a Go
// program (its entry point) with a segment layout that shapes the initial
// address space. Layouts can be supplied in a YAML manifest.
package loader
