// Package task holds the process and thread control blocks. A process owns
// its threads, children, memory set and resource tables; threads and children
// refer back to their process through weak pointers.
package task
