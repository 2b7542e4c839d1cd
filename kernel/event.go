package kernel

import (
	"context"

	"github.com/viant/procos/internal/debug"
	"github.com/viant/procos/service/event"
	"github.com/viant/procos/task"
)

// EventType names a lifecycle transition.
type EventType string

const (
	EventSpawn      EventType = "spawn"
	EventFork       EventType = "fork"
	EventExec       EventType = "exec"
	EventExit       EventType = "exit"
	EventThreadExit EventType = "thread_exit"
	EventReap       EventType = "reap"
	EventDeadlock   EventType = "deadlock"
)

// Lifecycle is the payload of kernel events.
type Lifecycle struct {
	Type      EventType `json:"type" yaml:"type"`
	PID       int       `json:"pid" yaml:"pid"`
	TID       int       `json:"tid" yaml:"tid"`
	ParentPID int       `json:"parentPid" yaml:"parentPid"`
	Image     string    `json:"image,omitempty" yaml:"image,omitempty"`
	Code      int       `json:"code" yaml:"code"`
	Resource  int       `json:"resource,omitempty" yaml:"resource,omitempty"`
}

func parentPID(p *task.Process) int {
	if parent := p.Parent(); parent != nil {
		return parent.PID
	}
	return -1
}

// publish emits l without blocking the hart; failures are only logged.
func (k *Kernel) publish(l Lifecycle) {
	if k.publisher == nil {
		return
	}
	ctx := &event.Context{Source: k.bootID, PID: l.PID, TID: l.TID, EventType: string(l.Type)}
	if err := k.publisher.Publish(context.Background(), event.NewEvent(ctx, l)); err != nil {
		debug.DPrintf(debug.EVENT, "dropped %v event of %d: %v", l.Type, l.PID, err)
	}
}
