// SPDX-License-Identifier: Apache-2.0

// Command rtcorectl is a small operational wrapper around the rtcore
// library: global flags, a cobra command tree, and a shared helper that
// builds the runtime handle the subcommands use. rtcore has no daemon of
// its own, so the subcommands stand up a small in-process demo runtime to
// exercise and report on.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtcore-project/rtcore"
	"github.com/rtcore-project/rtcore/internal/diag"
	"github.com/rtcore-project/rtcore/pkg/logging"
	"github.com/rtcore-project/rtcore/pkg/rtconfig"
)

var (
	// Version is set at build time.
	Version = "dev"

	addr         string
	demoTasks    int
	demoPeriod   time.Duration
	outputFormat string
	simulator    bool

	rootCmd = &cobra.Command{
		Use:     "rtcorectl",
		Short:   "Operate and inspect an rtcore realtime task runtime",
		Version: Version,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&simulator, "simulator", false, "force the non-privileged simulator flavor (env: RTCORE_SIMULATOR)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json")

	serveCmd.Flags().StringVar(&addr, "addr", ":8088", "diagnostics HTTP listen address")
	serveCmd.Flags().IntVar(&demoTasks, "tasks", 2, "number of demo periodic tasks to run")
	serveCmd.Flags().DurationVar(&demoPeriod, "period", 20*time.Millisecond, "demo task period")

	snapshotCmd.Flags().IntVar(&demoTasks, "tasks", 2, "number of demo periodic tasks to run")
	snapshotCmd.Flags().DurationVar(&demoPeriod, "period", 20*time.Millisecond, "demo task period")

	rootCmd.AddCommand(serveCmd, snapshotCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rtcorectl version %s\n", Version)
	},
}

// serveCmd stands up a demo runtime and serves its diagnostics surface
// until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run demo tasks and serve the diagnostics HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		rt, observer, cleanup, err := buildDemoRuntime()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		server := diag.NewServer(observer, logging.DefaultLogger)
		fmt.Printf("rtcore diagnostics listening on %s (modules=%d tasks=%d)\n",
			addr, len(rt.Modules()), len(rt.Tasks()))
		fmt.Println("  GET /v1/modules")
		fmt.Println("  GET /v1/tasks")
		fmt.Println("  GET /v1/tasks/{id}/stats")
		fmt.Println("  GET /v1/tasks/{id}/watch")

		log.Fatal(http.ListenAndServe(addr, server.Router()))
	},
}

// snapshotCmd runs the demo runtime briefly and prints a single
// point-in-time report, useful for smoke-testing a build without
// standing up a server.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run demo tasks briefly and print a snapshot report",
	Run: func(cmd *cobra.Command, args []string) {
		_, observer, cleanup, err := buildDemoRuntime()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		time.Sleep(3 * demoPeriod)

		report := observer.Snapshot(requestID())
		if outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				log.Fatal(err)
			}
			return
		}
		fmt.Print(diag.RenderReport(report))
	},
}

// buildDemoRuntime creates a Runtime, registers one module, and starts
// demoTasks periodic tasks under it, each calling Wait once per cycle.
func buildDemoRuntime() (*rtcore.Runtime, *diag.Observer, func(), error) {
	cfg := rtconfig.NewDefault()
	cfg.Load()
	if simulator {
		cfg.Simulator = true
	}

	rt, err := rtcore.New(cfg, rtcore.WithLogger(logging.DefaultLogger))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create runtime: %w", err)
	}

	if _, err := rt.ClockSetPeriod(time.Millisecond); err != nil {
		return nil, nil, nil, fmt.Errorf("set clock period: %w", err)
	}

	owner, err := rt.Init("rtcorectl-demo")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init module: %w", err)
	}

	taskIDs := make([]int, 0, demoTasks)
	for i := 0; i < demoTasks; i++ {
		id, err := rt.NewTask(demoEntry, nil, rt.PrioLowest(), owner, 0, false,
			fmt.Sprintf("demo-%d", i), -1)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create task %d: %w", i, err)
		}
		if err := rt.StartTask(id, demoPeriod); err != nil {
			return nil, nil, nil, fmt.Errorf("start task %d: %w", i, err)
		}
		taskIDs = append(taskIDs, id)
	}

	observer := diag.NewObserver(rt, logging.DefaultLogger)

	cleanup := func() {
		for _, id := range taskIDs {
			_ = rt.StopTask(id)
		}
		for _, id := range taskIDs {
			_ = rt.DeleteTask(id)
		}
		_ = rt.Exit(owner)
		rt.Close()
	}

	return rt, observer, cleanup, nil
}

// demoEntry is a minimal task body: it does no real work and simply
// waits out its period each cycle.
func demoEntry(arg any) {
	for {
		rtcore.Wait()
	}
}

func requestID() string {
	return fmt.Sprintf("rtcorectl-%d", time.Now().UnixNano())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
