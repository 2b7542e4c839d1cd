// Package procos is the process and thread management core of a small
// teaching kernel: process lifecycle (spawn, fork, exec, exit, waitpid),
// per-process memory regions, a stride scheduler with a sleep queue, mutexes,
// semaphores and condition variables, and advisory deadlock detection.
//
// User programs are Go functions written against abi.CPU; they run one at a
// time on a single simulated hart and enter the kernel through syscalls.
// The Service façade wires a kernel to an image registry, a lifecycle event
// stream, a per-process accounting store and optional tracing:
//
//	srv, _ := procos.New(procos.WithInit("usertests"))
//	result, err := srv.Run(ctx)
//	fmt.Println(result.ExitCode, result.Progress.String())
//
// See package apps for the bundled programs and package user for the
// syscall wrappers they are written with.
package procos
