// Package synch implements the per-process synchronization primitives:
// spinning and blocking mutexes, semaphores and condition variables. Blocking
// and waking go through a Scheduler supplied by the hart; wait queues are FIFO
// and skip threads that became zombies while waiting.
package synch
