package abi

// Syscall numbers.
const (
	SysSleep                = 101
	SysExit                 = 93
	SysYield                = 124
	SysSetPriority          = 140
	SysGetTime              = 169
	SysGetPid               = 172
	SysSbrk                 = 214
	SysMunmap               = 215
	SysFork                 = 220
	SysExec                 = 221
	SysMmap                 = 222
	SysWaitPid              = 260
	SysSpawn                = 400
	SysTaskInfo             = 410
	SysEnableDeadlockDetect = 469
	SysThreadCreate         = 1000
	SysGetTid               = 1001
	SysWaitTid              = 1002
	SysMutexCreate          = 1010
	SysMutexLock            = 1011
	SysMutexUnlock          = 1012
	SysSemaphoreCreate      = 1020
	SysSemaphoreUp          = 1021
	SysSemaphoreDown        = 1022
	SysCondvarCreate        = 1030
	SysCondvarSignal        = 1031
	SysCondvarWait          = 1032
)

// MaxSyscallNum bounds the syscall ids reported by task_info.
const MaxSyscallNum = 500

// Return sentinels.
const (
	// RetError signals an argument error or a missing child.
	RetError int64 = -1
	// RetStillRunning signals that a matching child or thread has not exited yet.
	RetStillRunning int64 = -2
	// RetDeadlock signals a deadlock-avoidance refusal.
	RetDeadlock int64 = -0xdead
)

// Exit codes assigned by the kernel.
const (
	// ExitFault is the exit code of a process killed by a memory fault.
	ExitFault = -2
	// ExitOutOfMemory is the exit code of a process killed by frame exhaustion.
	ExitOutOfMemory = -3
)

// Register indices following the RISC-V calling convention.
const (
	RegSP = 2
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
)

// Memory permission bits accepted by mmap.
const (
	PermR = 1 << 0
	PermW = 1 << 1
	PermX = 1 << 2
)

var names = map[uint64]string{
	SysSleep:                "sleep",
	SysExit:                 "exit",
	SysYield:                "yield",
	SysSetPriority:          "set_priority",
	SysGetTime:              "get_time",
	SysGetPid:               "getpid",
	SysSbrk:                 "sbrk",
	SysMunmap:               "munmap",
	SysFork:                 "fork",
	SysExec:                 "exec",
	SysMmap:                 "mmap",
	SysWaitPid:              "waitpid",
	SysSpawn:                "spawn",
	SysTaskInfo:             "task_info",
	SysEnableDeadlockDetect: "enable_deadlock_detect",
	SysThreadCreate:         "thread_create",
	SysGetTid:               "gettid",
	SysWaitTid:              "waittid",
	SysMutexCreate:          "mutex_create",
	SysMutexLock:            "mutex_lock",
	SysMutexUnlock:          "mutex_unlock",
	SysSemaphoreCreate:      "semaphore_create",
	SysSemaphoreUp:          "semaphore_up",
	SysSemaphoreDown:        "semaphore_down",
	SysCondvarCreate:        "condvar_create",
	SysCondvarSignal:        "condvar_signal",
	SysCondvarWait:          "condvar_wait",
}

// SyscallName returns the name of syscall id, or "unknown".
func SyscallName(id uint64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "unknown"
}
