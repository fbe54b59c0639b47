// Package recovery invokes named recovery actions against the monitored
// gateway. This version knows exactly one action: restarting the gateway
// through its own control binary.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gatehoundlib/go-gatehound/internal/proc"
)

// ActionGatewayRestart restarts the gateway process.
const ActionGatewayRestart = "gateway-restart"

// DefaultTimeout bounds one restart invocation.
const DefaultTimeout = 60 * time.Second

// RecoveryError is returned when a recovery action failed or was not
// recognized. It never crashes the watchdog; the state machine folds it into
// a follow-up alert.
type RecoveryError struct {
	action string
	reason error
}

// Error returns an error message
func (err *RecoveryError) Error() string {
	return fmt.Sprintf("recover action %s failed: %s", err.action, err.reason)
}

// Unwrap returns the underlying failure
func (err *RecoveryError) Unwrap() error {
	return err.reason
}

// KVs returns a metadata map for structured logging
func (err *RecoveryError) KVs() map[string]interface{} {
	return map[string]interface{}{
		"recover.action": err.action,
		"recover.error":  err.reason.Error(),
	}
}

// Executor runs recovery actions.
type Executor struct {
	restartArgv []string
	runner      proc.Runner
	timeout     time.Duration
	log         *logrus.Entry
}

// Opt allows tweaking an Executor at construction time.
type Opt func(*Executor)

// WithTimeout overrides the restart invocation timeout.
func WithTimeout(d time.Duration) Opt {
	return func(e *Executor) { e.timeout = d }
}

// WithRunner overrides the command runner (used in tests).
func WithRunner(r proc.Runner) Opt {
	return func(e *Executor) { e.runner = r }
}

// New creates an Executor for a gateway managed by the given control binary.
func New(log *logrus.Entry, bin string, opts ...Opt) *Executor {
	e := &Executor{
		restartArgv: []string{bin, "restart"},
		runner:      proc.OSRunner{},
		timeout:     DefaultTimeout,
		log:         log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the named action. Unknown action identifiers fail without
// spawning anything; a failed or timed-out restart is reported as a
// *RecoveryError.
func (e *Executor) Execute(ctx context.Context, action string) error {
	if action != ActionGatewayRestart {
		return &RecoveryError{
			action: action,
			reason: fmt.Errorf("unknown recover action"),
		}
	}

	e.log.WithField("action", action).Info("restarting gateway")
	out, runErr := e.runner.Run(ctx, e.timeout, e.restartArgv...)
	if runErr != nil {
		return &RecoveryError{action: action, reason: runErr}
	}

	e.log.WithFields(logrus.Fields{
		"action":      action,
		"duration_ms": out.Duration.Milliseconds(),
	}).Info("gateway restart finished")
	return nil
}
