// Package mm manages user virtual memory: a page table whose frames are
// allocated on first touch, a bounded physical-frame pool and the per-process
// memory set layering the image, heap, stacks and anonymous mappings on top.
package mm
