// Package model groups plain data types shared between the kernel and its
// persistence and reporting layers.
package model
