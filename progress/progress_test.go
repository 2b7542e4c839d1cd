package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var seen []Progress
	ctx, tr := WithNewTracker(context.Background(), "boot", "initproc", func(p Progress) { seen = append(seen, p) })
	UpdateCtx(ctx, Delta{Spawned: 2})
	UpdateCtx(ctx, Delta{Exited: 1, Reaped: 1, Switches: 5})
	tr.Update(Delta{Refusals: 1, Syscalls: 3})

	snapshot, ok := GetSnapshot(ctx)
	assert.True(t, ok)
	assert.Equal(t, 2, snapshot.Spawned)
	assert.Equal(t, 1, snapshot.Exited)
	assert.Equal(t, 5, snapshot.Switches)
	assert.Equal(t, 1, tr.Live())
	assert.Len(t, seen, 3)
	assert.Equal(t, 2, seen[0].Spawned)
	assert.Equal(t, 0, seen[0].Exited)
	assert.Contains(t, tr.String(), "switches=5")
}

func TestProgress_NilSafe(t *testing.T) {
	var tr *Progress
	tr.Update(Delta{Spawned: 1})
	tr.OnChange(nil)
	assert.Equal(t, Progress{}.Spawned, tr.Snapshot().Spawned)
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestProgress_Concurrent(t *testing.T) {
	tr := New("boot", "initproc", nil)
	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(Delta{Syscalls: 1})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1600, tr.Snapshot().Syscalls)
}
