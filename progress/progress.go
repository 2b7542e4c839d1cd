package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/viant/procos/internal/clock"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Spawned  int
	Exited   int
	Reaped   int
	Switches int
	Syscalls int
	Refusals int
}

// Progress keeps aggregated counters of one kernel boot. It is safe for
// concurrent use.
type Progress struct {
	BootID    string
	Init      string
	StartedAt time.Time

	Spawned  int
	Exited   int
	Reaped   int
	Switches int
	Syscalls int
	Refusals int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker for a boot.
func New(bootID, init string, onChange func(Progress)) *Progress {
	return &Progress{BootID: bootID, Init: init, StartedAt: clock.Now(), onChange: onChange}
}

// Update applies d. A registered callback receives a copy of the updated
// tracker outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Spawned += d.Spawned
	p.Exited += d.Exited
	p.Reaped += d.Reaped
	p.Switches += d.Switches
	p.Syscalls += d.Syscalls
	p.Refusals += d.Refusals
	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) copy() Progress {
	return Progress{
		BootID:    p.BootID,
		Init:      p.Init,
		StartedAt: p.StartedAt,
		Spawned:   p.Spawned,
		Exited:    p.Exited,
		Reaped:    p.Reaped,
		Switches:  p.Switches,
		Syscalls:  p.Syscalls,
		Refusals:  p.Refusals,
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

// Live returns processes spawned but not yet exited.
func (p *Progress) Live() int {
	s := p.Snapshot()
	return s.Spawned - s.Exited
}

// String renders the counters for humans.
func (p *Progress) String() string {
	s := p.Snapshot()
	return fmt.Sprintf("spawned=%v exited=%v reaped=%v switches=%v syscalls=%v refusals=%v uptime=%v",
		humanize.Comma(int64(s.Spawned)), humanize.Comma(int64(s.Exited)), humanize.Comma(int64(s.Reaped)),
		humanize.Comma(int64(s.Switches)), humanize.Comma(int64(s.Syscalls)), humanize.Comma(int64(s.Refusals)),
		clock.Now().Sub(s.StartedAt).Round(time.Millisecond))
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, bootID, init string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := New(bootID, init, onChange)
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
