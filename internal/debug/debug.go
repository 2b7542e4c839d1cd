// Package debug provides selector-based kernel tracing on top of the standard
// logger. The PROCOSDEBUG environment variable holds a list of enabled
// selectors separated by ';', for example "SCHED;SYSCALL".
package debug

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Selector labels a class of debug output.
type Selector string

const (
	ALWAYS   Selector = "ALWAYS"
	SCHED    Selector = "SCHED"
	SYSCALL  Selector = "SYSCALL"
	PROC     Selector = "PROC"
	MM       Selector = "MM"
	SYNC     Selector = "SYNC"
	DEADLOCK Selector = "DEADLOCK"
	LOADER   Selector = "LOADER"
	EVENT    Selector = "EVENT"
)

// EnvVar names the environment variable listing enabled selectors.
const EnvVar = "PROCOSDEBUG"

var (
	mu      sync.RWMutex
	enabled map[Selector]bool
)

func init() {
	Reload()
}

// Reload re-reads the enabled selectors from the environment.
func Reload() {
	labels := make(map[Selector]bool)
	if s := os.Getenv(EnvVar); s != "" {
		for _, l := range strings.Split(s, ";") {
			if l = strings.TrimSpace(l); l != "" {
				labels[Selector(l)] = true
			}
		}
	}
	mu.Lock()
	enabled = labels
	mu.Unlock()
}

// Enable turns on the given selectors in addition to the ones already set.
func Enable(selectors ...Selector) {
	mu.Lock()
	for _, s := range selectors {
		enabled[s] = true
	}
	mu.Unlock()
}

// IsEnabled reports whether output for s is printed.
func IsEnabled(s Selector) bool {
	if s == ALWAYS {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	return enabled[s]
}

// DPrintf logs a formatted message when sel is enabled.
func DPrintf(sel Selector, format string, v ...interface{}) {
	if !IsEnabled(sel) {
		return
	}
	log.Printf("%v %v", sel, fmt.Sprintf(format, v...))
}
