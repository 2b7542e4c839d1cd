package procos_test

import (
	"context"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procos"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/progress"
	"github.com/viant/procos/service/dao"
	"github.com/viant/procos/service/event"
	"github.com/viant/procos/service/messaging"
	"github.com/viant/procos/user"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var programs = map[string]abi.Program{
	"init": func(cpu abi.CPU) int {
		env := user.New(cpu)
		pid := env.Spawn("child")
		code := 0
		if env.WaitPid(int(pid), &code) != pid {
			return -1
		}
		return code + 1
	},
	"child": func(cpu abi.CPU) int { return 3 },
}

type collector struct {
	mu     sync.Mutex
	events []kernel.Lifecycle
}

func (c *collector) handle(e *event.Event[kernel.Lifecycle]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e.Data)
}

func (c *collector) wait(t *testing.T, expect int) []kernel.Lifecycle {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.events) >= expect {
			ret := append([]kernel.Lifecycle(nil), c.events...)
			c.mu.Unlock()
			return ret
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d events", expect)
	return nil
}

func types(events []kernel.Lifecycle) []kernel.EventType {
	var ret []kernel.EventType
	for _, e := range events {
		ret = append(ret, e.Type)
	}
	return ret
}

func TestService_Run(t *testing.T) {
	testCases := []struct {
		description string
		init        string
		expectCode  int
		expectSpawn int
	}{
		{description: "exit", init: "exit", expectCode: 7, expectSpawn: 1},
		{description: "fault", init: "fault", expectCode: abi.ExitFault, expectSpawn: 1},
		{description: "custom init", init: "init", expectCode: 4, expectSpawn: 2},
		{description: "bundled init", init: "initproc", expectCode: 0, expectSpawn: 0},
	}
	for _, testCase := range testCases {
		srv, err := procos.New(procos.WithInit(testCase.init), procos.WithPrograms(programs))
		require.NoError(t, err, testCase.description)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		result, err := srv.Run(ctx)
		cancel()
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expectCode, result.ExitCode, testCase.description)
		assert.Equal(t, testCase.init, result.Init, testCase.description)
		if testCase.expectSpawn > 0 {
			assert.Equal(t, testCase.expectSpawn, result.Progress.Spawned, testCase.description)
		}
		assert.Equal(t, result.Progress.Spawned, result.Progress.Exited, testCase.description)
		assert.NoError(t, srv.Close(context.Background()))
	}
}

func TestService_RunTwice(t *testing.T) {
	var mu sync.Mutex
	var changes int
	srv, err := procos.New(
		procos.WithInit("init"),
		procos.WithPrograms(programs),
		procos.WithProgressListener(func(progress.Progress) {
			mu.Lock()
			changes++
			mu.Unlock()
		}),
	)
	require.NoError(t, err)
	first, err := srv.Run(context.Background())
	require.NoError(t, err)
	second, err := srv.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.BootID, second.BootID)
	assert.Equal(t, first.ExitCode, second.ExitCode)

	records, err := srv.Accounting().List(context.Background(), dao.NewParameter("Image", "child"))
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	mu.Lock()
	assert.Greater(t, changes, 0)
	mu.Unlock()
}

func TestService_Stores(t *testing.T) {
	testCases := []struct {
		description string
		vendor      messaging.Vendor
	}{
		{description: "memory events", vendor: messaging.VendorMemory},
		{description: "fs events", vendor: messaging.VendorFS},
	}
	for _, testCase := range testCases {
		dir := t.TempDir()
		config := procos.DefaultConfig()
		config.Init = "init"
		config.Events.Vendor = testCase.vendor
		config.Events.BasePath = path.Join(dir, "events")
		config.Accounting.BasePath = path.Join(dir, "acct")
		events := &collector{}
		srv, err := procos.New(procos.WithConfig(config), procos.WithPrograms(programs), procos.WithEventListener(events.handle))
		require.NoError(t, err, testCase.description)

		result, err := srv.Run(context.Background())
		require.NoError(t, err, testCase.description)
		assert.Equal(t, 4, result.ExitCode, testCase.description)

		got := events.wait(t, 5)
		assert.ElementsMatch(t, []kernel.EventType{kernel.EventSpawn, kernel.EventSpawn, kernel.EventExit, kernel.EventReap, kernel.EventExit}, types(got), testCase.description)
		assert.NoError(t, srv.Close(context.Background()))

		records, err := srv.Accounting().List(context.Background())
		require.NoError(t, err, testCase.description)
		if assert.Len(t, records, 1, testCase.description) {
			assert.Equal(t, "child", records[0].Image)
			assert.Equal(t, 3, records[0].ExitCode)
		}
		files, err := os.ReadDir(config.Accounting.BasePath)
		assert.NoError(t, err)
		assert.Len(t, files, 1, testCase.description)
	}
}

func TestService_Manifest(t *testing.T) {
	dir := t.TempDir()
	manifest := path.Join(dir, "images.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`images:
  - name: child
    segments:
      - pages: 2
        perm: rx
        data: child
      - pages: 4
        perm: rw
`), 0o644))
	config := procos.DefaultConfig()
	config.Init = "init"
	config.Loader.ManifestURL = manifest
	srv, err := procos.New(procos.WithConfig(config), procos.WithPrograms(programs))
	require.NoError(t, err)
	result, err := srv.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.ExitCode)
	image, err := srv.Registry().Resolve("child")
	require.NoError(t, err)
	assert.Len(t, image.Segments, 2)

	config.Loader.ManifestURL = path.Join(dir, "missing.yaml")
	_, err = srv.Run(context.Background())
	assert.Error(t, err)
}

func TestService_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	srv, err := procos.New(procos.WithInit("init"), procos.WithPrograms(programs), procos.WithTracingExporter(exporter))
	require.NoError(t, err)
	_, err = srv.Run(context.Background())
	require.NoError(t, err)
	spans := exporter.GetSpans()
	require.NoError(t, srv.Close(context.Background()))
	require.NotEmpty(t, spans)
	run := spans[len(spans)-1]
	assert.Equal(t, "procos.run", run.Name)
	var syscalls []string
	for _, span := range spans[:len(spans)-1] {
		assert.Equal(t, run.SpanContext.SpanID(), span.Parent.SpanID(), span.Name)
		syscalls = append(syscalls, span.Name)
	}
	assert.Contains(t, syscalls, "syscall.spawn")
	assert.Contains(t, syscalls, "syscall.waitpid")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := procos.New(procos.WithInit(""))
	assert.Error(t, err)
	config := procos.DefaultConfig()
	config.Events.Vendor = messaging.VendorFS
	_, err = procos.New(procos.WithConfig(config))
	assert.Error(t, err)
}
