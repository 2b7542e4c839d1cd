package abi

// Program is user code. It runs on cpu until it returns its exit code or
// calls exit.
type Program func(cpu CPU) int

// CPU is the view a user program has of the hart it runs on.
type CPU interface {
	// Syscall traps into the kernel and returns the value left in a0.
	Syscall(id uint64, a0, a1, a2 uint64) int64
	// Reg reads general register i.
	Reg(i int) uint64
	// SetEntry stages a program counter: fork resumes the child there and
	// thread_create starts the new thread there.
	SetEntry(p Program)
	// Load reads user memory at va with user permissions. A fault kills the
	// calling process and does not return.
	Load(va uint64, buf []byte)
	// Store writes user memory at va with user permissions. A fault kills the
	// calling process and does not return.
	Store(va uint64, data []byte)
}
