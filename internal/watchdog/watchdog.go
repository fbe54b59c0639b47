// Package watchdog implements the health-monitoring and auto-recovery loop
// for a long-running gateway process. A Spec describes what to watch and
// how; Start arms the polling loop and returns a Watchdog handle that owns
// the timer until Terminate is called.
package watchdog

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Spec is the template for a runtime watchdog. Build one with NewSpec and
// run it with Start; a single Spec can be started many times, each Start
// producing an independent Watchdog with its own state.
type Spec struct {
	target   string
	enabled  bool
	interval time.Duration
	policy   Policy

	prober    Prober
	alerts    AlertSink
	recoverer Recoverer

	log  *logrus.Entry
	opts []MachineOpt
}

// NewSpec describes a watchdog for one target. The interval is the polling
// period; the policy carries the failure threshold and recovery gates.
// Options (WithNotifier among them) are applied to the machine of every
// Watchdog started from this Spec.
func NewSpec(
	log *logrus.Entry,
	target string,
	enabled bool,
	interval time.Duration,
	policy Policy,
	prober Prober,
	alerts AlertSink,
	recoverer Recoverer,
	opts ...MachineOpt,
) Spec {
	return Spec{
		target:    target,
		enabled:   enabled,
		interval:  interval,
		policy:    policy,
		prober:    prober,
		alerts:    alerts,
		recoverer: recoverer,
		log:       log,
		opts:      opts,
	}
}

// Watchdog is the owned resource returned by Start: the one repeating timer
// plus its cancellation handle. Terminate releases it.
type Watchdog struct {
	cancel  context.CancelFunc
	done    chan struct{}
	machine *Machine
}

// Start arms the watchdog. When the spec is disabled no timer is armed and
// the returned handle is inert. Otherwise one check runs immediately and a
// repeating timer drives subsequent checks at the spec interval.
func (spec Spec) Start(ctx context.Context) *Watchdog {
	if !spec.enabled {
		spec.log.WithField("target", spec.target).
			Info("watchdog disabled, not arming timer")
		done := make(chan struct{})
		close(done)
		return &Watchdog{cancel: func() {}, done: done}
	}

	machine := NewMachine(
		spec.log,
		spec.target,
		spec.policy,
		spec.prober,
		spec.alerts,
		spec.recoverer,
		spec.opts...,
	)

	spec.log.WithFields(logrus.Fields{
		"target":            spec.target,
		"interval":          spec.interval.String(),
		"failure_threshold": spec.policy.FailureThreshold,
		"cooldown":          spec.policy.Cooldown.String(),
		"recover_enabled":   spec.policy.RecoverEnabled,
	}).Info("watchdog started")

	loopCtx, cancel := context.WithCancel(ctx)
	w := &Watchdog{
		cancel:  cancel,
		done:    make(chan struct{}),
		machine: machine,
	}

	machine.notifier.watchdogStarted(spec.target)

	go func() {
		defer close(w.done)
		defer machine.notifier.watchdogStopped(spec.target)

		ticker := time.NewTicker(spec.interval)
		defer ticker.Stop()

		// first check runs right away; external calls carry their own
		// timeouts so a tick can never hang the loop indefinitely
		machine.Tick(context.Background())

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				machine.Tick(context.Background())
			}
		}
	}()

	return w
}

// State returns the per-target state snapshot, or the zero snapshot for a
// disabled watchdog.
func (w *Watchdog) State() StateSnapshot {
	if w.machine == nil {
		return StateSnapshot{}
	}
	return w.machine.State()
}

// Terminate cancels the timer and waits for the polling goroutine to
// finish. An in-flight tick is never forcibly aborted; termination only
// prevents scheduling of further ticks. Safe to call more than once.
func (w *Watchdog) Terminate() {
	w.cancel()
	<-w.done
}
