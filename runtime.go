// SPDX-License-Identifier: Apache-2.0

// Package rtcore implements the task lifecycle and periodic-wait subsystem
// of a realtime task runtime: fixed-capacity module and task slot tables,
// admission of periodic tasks onto dedicated OS threads, CPU-affinity and
// scheduling-policy negotiation, and absolute-time periodic waits with
// deadline-miss and page-fault accounting.
//
// Two delivery flavors are selected by GOOS and by Config.Simulator: the
// realtime flavor (Linux, privileged) negotiates SCHED_DEADLINE with
// fallback to SCHED_FIFO and dispatches exceptions on deadline miss; the
// simulator flavor runs anywhere, elevates no priority, and never invokes
// the exception handler.
package rtcore

import (
	"sync"
	"time"

	"github.com/rtcore-project/rtcore/pkg/logging"
	"github.com/rtcore-project/rtcore/pkg/rtconfig"
	"github.com/rtcore-project/rtcore/pkg/rtmetrics"
	"github.com/rtcore-project/rtcore/pkg/severity"
	"github.com/rtcore-project/rtcore/pkg/stackpool"
)

// ExceptionKind names the kind of exception delivered to an ExceptionHandler.
type ExceptionKind int

const (
	// ExceptionDeadlineMissed is delivered when a task's wait observes that
	// the current time has already passed the scheduled wake time.
	ExceptionDeadlineMissed ExceptionKind = iota
)

func (k ExceptionKind) String() string {
	switch k {
	case ExceptionDeadlineMissed:
		return "deadline missed"
	default:
		return "unknown"
	}
}

// ExceptionDetail carries the context passed to an ExceptionHandler.
type ExceptionDetail struct {
	TaskID int
	Stats  TaskStats
}

// ExceptionHandler is the collaborator the core invokes on deadline miss
// (realtime flavor only). It must not block; the worker goroutine that
// calls it is on the task's own critical path.
type ExceptionHandler func(kind ExceptionKind, detail ExceptionDetail)

// Runtime owns the module and task slot tables and the clock period they
// share. It is the sole entry point for every operation in this package;
// all methods are safe for concurrent use.
type Runtime struct {
	config *rtconfig.Config
	logger logging.Logger

	modules *slotTable[moduleRecord]
	tasks   *slotTable[taskRecord]

	clockMu     sync.Mutex
	clockSet    bool
	clockPeriod time.Duration

	metrics          rtmetrics.Collector
	severity         severity.Stepper
	exceptionHandler ExceptionHandler

	pool      *stackpool.BufferPool
	janitor   *stackpool.Janitor
	noJanitor bool
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithLogger installs a custom Logger. The default is logging.NoOpLogger.
func WithLogger(logger logging.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// WithMetrics installs a metrics collector. The default discards metrics.
func WithMetrics(collector rtmetrics.Collector) Option {
	return func(rt *Runtime) { rt.metrics = collector }
}

// WithExceptionHandler installs the handler invoked on deadline miss
// (realtime flavor only).
func WithExceptionHandler(handler ExceptionHandler) Option {
	return func(rt *Runtime) { rt.exceptionHandler = handler }
}

// WithSeverityStepper overrides the default miss-count-to-severity policy.
func WithSeverityStepper(stepper severity.Stepper) Option {
	return func(rt *Runtime) { rt.severity = stepper }
}

// WithoutStackJanitor disables the background idle-stack-buffer reaper
// New starts by default. Tests that want a deterministic goroutine count
// use this.
func WithoutStackJanitor() Option {
	return func(rt *Runtime) { rt.noJanitor = true }
}

// New creates a Runtime with the given configuration. cfg is validated; a
// nil cfg uses rtconfig.NewDefault().
func New(cfg *rtconfig.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = rtconfig.NewDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{
		config:   cfg,
		logger:   logging.NoOpLogger{},
		modules:  newSlotTable[moduleRecord](cfg.MaxModules),
		tasks:    newSlotTable[taskRecord](cfg.MaxTasks),
		metrics:  rtmetrics.GetDefaultCollector(),
		severity: severity.NewCountStepper(),
	}

	for _, opt := range opts {
		opt(rt)
	}

	rt.pool = stackpool.NewBufferPool(nil, rt.logger)
	if !rt.noJanitor {
		rt.janitor = stackpool.NewJanitor(rt.pool, rt.logger)
		rt.janitor.Start()
	}

	return rt, nil
}

// Config returns the runtime's configuration.
func (rt *Runtime) Config() *rtconfig.Config {
	return rt.config
}

// Close stops the runtime's background stack-buffer janitor. It does not
// tear down any running task; callers stop and delete tasks first.
func (rt *Runtime) Close() {
	if rt.janitor != nil {
		rt.janitor.Stop()
	}
}
