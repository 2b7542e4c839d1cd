// Package abi defines the user/kernel boundary: syscall numbers, return
// sentinels, register conventions, the CPU a user program runs on and the
// binary layouts of structures exchanged through user memory.
package abi
