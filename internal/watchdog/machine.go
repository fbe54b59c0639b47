package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gatehoundlib/go-gatehound/internal/probe"
)

// Prober executes one health probe against the monitored target.
type Prober interface {
	Probe(ctx context.Context) (probe.Result, error)
}

// AlertSink delivers a human-readable status line to operators.
type AlertSink interface {
	Send(ctx context.Context, text string) error
}

// Recoverer invokes a named recovery action against the target.
type Recoverer interface {
	Execute(ctx context.Context, action string) error
}

// Policy holds the failure-handling settings of a monitored target. It is
// immutable once the machine is built.
type Policy struct {
	// FailureThreshold is the number of consecutive failed probes required
	// to escalate and trigger recovery. Must be at least 1.
	FailureThreshold uint32
	// Cooldown is the minimum spacing between two recovery attempts. Zero
	// means recovery may run on every escalated tick.
	Cooldown time.Duration
	// RecoverEnabled gates recovery entirely.
	RecoverEnabled bool
	// RecoverAction is the action identifier handed to the Recoverer.
	RecoverAction string
}

// healthState is the last known health of a target. A target starts in
// healthUnknown until the first probe lands; the state only ever transitions
// as a direct result of a probe outcome.
type healthState uint32

const (
	healthUnknown healthState = iota
	healthOK
	healthBroken
)

func (hs healthState) String() string {
	switch hs {
	case healthUnknown:
		return "unknown"
	case healthOK:
		return "healthy"
	case healthBroken:
		return "unhealthy"
	default:
		return "<Unknown healthState>"
	}
}

// targetState is the mutable per-target bookkeeping. It is owned exclusively
// by the Machine and guarded by the machine mutex so that overlapping ticks
// can never update it concurrently.
type targetState struct {
	consecutiveFailures uint32
	lastRecoveryAt      time.Time
	lastKnown           healthState
}

// StateSnapshot is a read-only copy of the per-target state, used for
// diagnostics endpoints and tests.
type StateSnapshot struct {
	ConsecutiveFailures uint32
	LastRecoveryAt      time.Time
	Healthy             bool
	Known               bool
}

// Machine holds the per-target watchdog state and runs the
// check→alert→recovery decision sequence on every tick.
type Machine struct {
	target    string
	policy    Policy
	prober    Prober
	alerts    AlertSink
	recoverer Recoverer

	mux   sync.Mutex
	state targetState

	log      *logrus.Entry
	notifier EventNotifier
	nowFn    func() time.Time
}

// MachineOpt allows tweaking a Machine at construction time.
type MachineOpt func(*Machine)

// WithNotifier sets the event notifier that receives watchdog events.
func WithNotifier(en EventNotifier) MachineOpt {
	return func(m *Machine) { m.notifier = en }
}

// withNowFn overrides the clock; tests use it to exercise cooldown windows
// deterministically.
func withNowFn(nowFn func() time.Time) MachineOpt {
	return func(m *Machine) { m.nowFn = nowFn }
}

// NewMachine creates the watchdog state machine for one target. Every target
// gets its own independent Machine; there is no cross-target state.
func NewMachine(
	log *logrus.Entry,
	target string,
	policy Policy,
	prober Prober,
	alerts AlertSink,
	recoverer Recoverer,
	opts ...MachineOpt,
) *Machine {
	m := &Machine{
		target:    target,
		policy:    policy,
		prober:    prober,
		alerts:    alerts,
		recoverer: recoverer,
		log:       log.WithField("target", target),
		notifier:  emptyEventNotifier,
		nowFn:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the per-target state.
func (m *Machine) State() StateSnapshot {
	m.mux.Lock()
	defer m.mux.Unlock()
	return StateSnapshot{
		ConsecutiveFailures: m.state.consecutiveFailures,
		LastRecoveryAt:      m.state.lastRecoveryAt,
		Healthy:             m.state.lastKnown == healthOK,
		Known:               m.state.lastKnown != healthUnknown,
	}
}

// Tick runs one full check→alert→recovery sequence. Ticks for a target are
// serialized by the machine mutex; no error from any collaborator escapes,
// so one tick's failure never prevents the next scheduled tick.
func (m *Machine) Tick(ctx context.Context) {
	m.mux.Lock()
	defer m.mux.Unlock()

	res, probeErr := m.prober.Probe(ctx)
	if probeErr != nil {
		// no backend produced a usable result; treated as an unhealthy
		// outcome with the error folded into the diagnostic detail
		m.handleUnhealthy(ctx, probeErr.Error(), probeErr, res.Duration)
		return
	}
	if !res.Healthy {
		m.handleUnhealthy(ctx, res.Detail, nil, res.Duration)
		return
	}
	m.handleHealthy(ctx, res)
}

// handleHealthy resets the failure count and, when the target was previously
// known unhealthy, confirms the recovery to operators.
func (m *Machine) handleHealthy(ctx context.Context, res probe.Result) {
	wasBroken := m.state.lastKnown == healthBroken
	m.state.consecutiveFailures = 0
	m.state.lastKnown = healthOK

	m.notifier.probeSucceeded(m.target, res.Detail, res.Duration)

	if wasBroken {
		m.sendAlert(ctx, fmt.Sprintf(
			"✅ %s is healthy again (%s)", m.target, res.Detail,
		))
	}
}

// handleUnhealthy increments the failure count, alerts on the first failure
// and on the threshold crossing, and triggers recovery once the threshold is
// reached and the cooldown has elapsed. Intermediate failure counts are
// logged but never alerted.
func (m *Machine) handleUnhealthy(
	ctx context.Context,
	detail string,
	probeErr error,
	dur time.Duration,
) {
	m.state.consecutiveFailures++
	m.state.lastKnown = healthBroken
	failures := m.state.consecutiveFailures

	m.notifier.probeFailed(m.target, detail, failures, probeErr, dur)

	if failures == 1 || failures == m.policy.FailureThreshold {
		m.sendAlert(ctx, fmt.Sprintf(
			"🚨 %s health check failed (failures=%d/%d): %s",
			m.target, failures, m.policy.FailureThreshold, detail,
		))
	}

	if m.shouldRecover(failures) {
		m.runRecovery(ctx, failures)
	}
}

// shouldRecover applies the recovery gate: recovery must be enabled, the
// consecutive failure count must have reached the threshold, and the
// cooldown window since the previous attempt must have elapsed.
func (m *Machine) shouldRecover(failures uint32) bool {
	if !m.policy.RecoverEnabled || failures < m.policy.FailureThreshold {
		return false
	}
	if m.state.lastRecoveryAt.IsZero() {
		return true
	}
	return m.nowFn().Sub(m.state.lastRecoveryAt) >= m.policy.Cooldown
}

// runRecovery triggers the recovery action. The attempt timestamp is
// recorded before the executor is invoked so a slow or hanging recovery
// cannot cause a second concurrent attempt to be scheduled. Executor failure
// produces a follow-up alert and nothing else: failure bookkeeping is driven
// purely by probe outcomes on subsequent ticks.
func (m *Machine) runRecovery(ctx context.Context, failures uint32) {
	action := m.policy.RecoverAction
	m.state.lastRecoveryAt = m.nowFn()

	m.notifier.recoveryAttempted(m.target, action, failures)
	m.sendAlert(ctx, fmt.Sprintf(
		"🔄 %s unhealthy after %d checks, attempting %s",
		m.target, failures, action,
	))

	if recoverErr := m.recoverer.Execute(ctx, action); recoverErr != nil {
		m.log.Warnf("recovery failed: %s", recoverErr)
		m.notifier.recoveryFailed(m.target, action, failures, recoverErr)
		m.sendAlert(ctx, fmt.Sprintf(
			"❌ %s for %s failed: %s", action, m.target, recoverErr,
		))
	}
}

// sendAlert hands text to the alert sink. Delivery failures are logged and
// swallowed so the polling loop survives a broken notification channel.
func (m *Machine) sendAlert(ctx context.Context, text string) {
	if sendErr := m.alerts.Send(ctx, text); sendErr != nil {
		m.log.Warnf("alert delivery failed: %s", sendErr)
		m.notifier.alertFailed(m.target, text, sendErr)
		return
	}
	m.notifier.alertDelivered(m.target, text)
}
