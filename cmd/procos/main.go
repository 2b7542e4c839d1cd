// Command procos boots the kernel on an init image, prints the accounting of
// every reaped process and exits with the init exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/viant/procos"
	"github.com/viant/procos/kernel"
	"github.com/viant/procos/mm"
	"github.com/viant/procos/service/event"
)

var (
	configURL = flag.String("config", "", "load configuration from `url`")
	initImage = flag.String("init", "", "boot image `name` (default initproc)")
	frames    = flag.Int("frames", -1, "cap physical frames, 0 for unlimited")
	acctDir   = flag.String("acct", "", "store accounting records under `dir`")
	trace     = flag.Bool("trace", false, "trace every syscall")
	traceOut  = flag.String("traceout", "", "write traces to `file` instead of stdout")
	timeout   = flag.Duration("timeout", time.Minute, "abort the run after `duration`")
	list      = flag.Bool("list", false, "list registered images and exit")
	verbose   = flag.Bool("v", false, "print lifecycle events")
)

func main() {
	log.SetPrefix("procos: ")
	log.SetFlags(0)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	config := procos.DefaultConfig()
	if *configURL != "" {
		var err error
		if config, err = procos.LoadConfig(ctx, nil, *configURL); err != nil {
			log.Fatal(err)
		}
	}
	if *initImage != "" {
		config.Init = *initImage
	}
	if *frames >= 0 {
		config.Memory.Frames = *frames
	}
	if *acctDir != "" {
		config.Accounting.BasePath = *acctDir
	}
	if *trace {
		config.Tracing.Enabled = true
		config.Tracing.Output = *traceOut
	}

	options := []procos.Option{procos.WithConfig(config)}
	if *verbose {
		options = append(options, procos.WithEventListener(func(e *event.Event[kernel.Lifecycle]) {
			l := e.Data
			log.Printf("%v pid=%d tid=%d parent=%d image=%q code=%d", l.Type, l.PID, l.TID, l.ParentPID, l.Image, l.Code)
		}))
	}
	srv, err := procos.New(options...)
	if err != nil {
		log.Fatal(err)
	}
	if *list {
		fmt.Println(strings.Join(srv.Registry().Names(), "\n"))
		return
	}

	if config.Memory.Frames > 0 {
		log.Printf("memory budget %v", humanize.IBytes(uint64(config.Memory.Frames)*mm.PageSize))
	}
	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	result, err := srv.Run(runCtx)
	cancel()
	if closeErr := srv.Close(context.Background()); closeErr != nil {
		log.Printf("close: %v", closeErr)
	}
	if result == nil {
		log.Fatal(err)
	}
	if err != nil {
		log.Print(err)
	}

	records, listErr := srv.Accounting().List(context.Background())
	if listErr != nil {
		log.Printf("accounting: %v", listErr)
	}
	for _, record := range records {
		fmt.Printf("%4d %-12s parent=%-3d code=%-6d ran=%-8v syscalls=%v [%v]\n",
			record.PID, record.Image, record.ParentPID, record.ExitCode,
			time.Duration(record.RunningMs)*time.Millisecond, humanize.Comma(int64(record.TotalSyscalls())),
			strings.Join(record.Summary(), " "))
	}
	fmt.Printf("boot %v init=%v exit=%d %v\n", result.BootID, result.Init, result.ExitCode, &result.Progress)
	if err != nil && result.ExitCode == 0 {
		os.Exit(1)
	}
	os.Exit(result.ExitCode)
}
