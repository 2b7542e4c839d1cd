package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/deadlock"
	"github.com/viant/procos/dispatch"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/loader"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/tracing"
	"github.com/viant/procos/user"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestErrno(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expect      int64
	}{
		{description: "still running", err: kernel.ErrStillRunning, expect: abi.RetStillRunning},
		{description: "wrapped still running", err: fmt.Errorf("wait 3: %w", kernel.ErrStillRunning), expect: abi.RetStillRunning},
		{description: "deadlock", err: deadlock.ErrDeadlock, expect: abi.RetDeadlock},
		{description: "invalid argument", err: kernel.ErrInvalidArgument, expect: abi.RetError},
		{description: "no child", err: kernel.ErrNoChild, expect: abi.RetError},
		{description: "unsupported", err: kernel.ErrUnsupported, expect: abi.RetError},
		{description: "other", err: errors.New("boom"), expect: abi.RetError},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, dispatch.Errno(testCase.err), testCase.description)
	}
}

func run(t *testing.T, init abi.Program, options ...dispatch.Option) (*kernel.Kernel, *progress.Progress) {
	registry := loader.New()
	registry.Register("init", init)
	tracker := progress.New("dispatch", "init", nil)
	k, err := kernel.New(kernel.WithLoader(registry), kernel.WithProgress(tracker))
	require.NoError(t, err)
	dispatch.New(k, options...)
	_, err = k.Boot("init")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, k.Run(ctx))
	return k, tracker
}

func TestDispatcher_Handle(t *testing.T) {
	var rets []int64
	var info *abi.TaskInfo
	_, tracker := run(t, func(cpu abi.CPU) int {
		env := user.New(cpu)
		rets = append(rets,
			cpu.Syscall(9999, 0, 0, 0),
			cpu.Syscall(abi.SysEnableDeadlockDetect, 2, 0, 0),
			env.EnableDeadlockDetect(true),
			env.GetPid(),
			env.GetPid(),
			env.SetPriority(1),
			env.TryWaitTid(0),
			env.Exec("missing"),
		)
		info, _ = env.TaskInfo()
		return 0
	})
	assert.Equal(t, []int64{-1, -1, 0, 0, 0, -1, -1, -1}, rets)
	require.NotNil(t, info)
	assert.EqualValues(t, 2, info.SyscallTimes[abi.SysGetPid])
	assert.EqualValues(t, 1, info.SyscallTimes[abi.SysTaskInfo])
	assert.EqualValues(t, 2, info.SyscallTimes[abi.SysEnableDeadlockDetect])
	// every trap is counted, the final implicit exit excluded
	assert.Equal(t, 9, tracker.Snapshot().Syscalls)
}

func TestDispatcher_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, tracing.InitWithExporter("procos", "test", exporter))
	ctx, root := tracing.StartSpan(context.Background(), "boot", "")
	run(t, func(cpu abi.CPU) int {
		env := user.New(cpu)
		env.GetPid()
		env.SemaphoreDown(3)
		return 0
	}, dispatch.WithTracing(true), dispatch.WithContext(ctx))
	tracing.EndSpan(root, nil)

	spans := exporter.GetSpans()
	var names []string
	for _, span := range spans {
		names = append(names, span.Name)
	}
	require.Equal(t, []string{"syscall.getpid", "syscall.semaphore_down", "boot"}, names)
	bootID := spans[2].SpanContext.SpanID()
	assert.Equal(t, bootID, spans[0].Parent.SpanID())
	assert.Equal(t, bootID, spans[1].Parent.SpanID())
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Contains(t, spans[1].Attributes, attribute.Int64("ret", abi.RetError))
}
