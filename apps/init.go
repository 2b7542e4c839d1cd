package apps

import (
	"log"

	"github.com/viant/procos/abi"
	"github.com/viant/procos/user"
)

// InitProc forks a child that execs usertests, then reaps every child,
// orphans included, and exits with the usertests exit code.
func InitProc(cpu abi.CPU) int {
	env := user.New(cpu)
	pid := env.Fork(func(cpu abi.CPU) int {
		user.New(cpu).Exec("usertests")
		return abi.ExitFault
	})
	if pid < 0 {
		return 1
	}
	ret := 0
	for {
		code := 0
		reaped := env.Wait(&code)
		if reaped < 0 {
			return ret
		}
		if reaped == pid {
			ret = code
		}
	}
}

// UserTests spawns each test program in turn and counts unexpected exit codes.
func UserTests(cpu abi.CPU) int {
	env := user.New(cpu)
	expected := Expected()
	failed := 0
	for _, name := range Tests() {
		pid := env.Spawn(name)
		if pid < 0 {
			log.Printf("usertests: spawn %v failed", name)
			failed++
			continue
		}
		code := 0
		if env.WaitPid(int(pid), &code) != pid || code != expected[name] {
			log.Printf("usertests: %v exited with %d, expected %d", name, code, expected[name])
			failed++
		}
	}
	return failed
}
