package task

// Mutex is an entry of a process mutex table.
type Mutex interface {
	// Lock acquires the mutex for t, blocking or spinning while it is held.
	Lock(t *Thread)
	// Unlock releases the mutex, handing it to the next waiter if any.
	Unlock(t *Thread)
	Locked() bool
}

// Semaphore is an entry of a process semaphore table.
type Semaphore interface {
	Up(t *Thread)
	// Down acquires one unit for t, blocking while none is available.
	Down(t *Thread)
	Count() int
}

// Condvar is an entry of a process condition variable table.
type Condvar interface {
	Signal()
	// Wait releases m and blocks t until signaled. m is not reacquired.
	Wait(t *Thread, m Mutex)
}
