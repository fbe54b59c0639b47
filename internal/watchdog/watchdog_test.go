package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehoundlib/go-gatehound/internal/probe"
)

// countingProber counts probe invocations in a goroutine-safe way
type countingProber struct {
	mux   sync.Mutex
	calls int
}

func (p *countingProber) Probe(_ context.Context) (probe.Result, error) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.calls++
	return probe.Result{Healthy: true, Detail: "counting"}, nil
}

func (p *countingProber) count() int {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.calls
}

func newTestSpec(enabled bool, interval time.Duration, prober Prober) Spec {
	return NewSpec(
		discardLogger(),
		"gatewayctl",
		enabled,
		interval,
		Policy{FailureThreshold: 3},
		prober,
		&recordingSink{},
		&recordingRecoverer{},
	)
}

func TestStartRunsOneCheckImmediately(t *testing.T) {
	prober := &countingProber{}
	wd := newTestSpec(true, time.Hour, prober).Start(context.Background())
	defer wd.Terminate()

	// the interval is an hour, so any probe happened on the startup tick
	require.Eventually(
		t,
		func() bool { return prober.count() == 1 },
		time.Second,
		5*time.Millisecond,
	)
}

func TestTimerDrivesSubsequentTicks(t *testing.T) {
	prober := &countingProber{}
	wd := newTestSpec(true, 20*time.Millisecond, prober).Start(context.Background())
	defer wd.Terminate()

	require.Eventually(
		t,
		func() bool { return prober.count() >= 3 },
		time.Second,
		5*time.Millisecond,
	)
}

func TestTerminatePreventsFurtherTicks(t *testing.T) {
	prober := &countingProber{}
	wd := newTestSpec(true, 20*time.Millisecond, prober).Start(context.Background())

	require.Eventually(
		t,
		func() bool { return prober.count() >= 1 },
		time.Second,
		5*time.Millisecond,
	)
	wd.Terminate()

	countAtStop := prober.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, countAtStop, prober.count())
}

func TestTerminateIsIdempotent(t *testing.T) {
	prober := &countingProber{}
	wd := newTestSpec(true, time.Hour, prober).Start(context.Background())

	wd.Terminate()
	wd.Terminate()
}

func TestDisabledWatchdogArmsNothing(t *testing.T) {
	prober := &countingProber{}
	wd := newTestSpec(false, 10*time.Millisecond, prober).Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, prober.count())

	// the inert handle still terminates cleanly
	wd.Terminate()
	assert.False(t, wd.State().Known)
}

func TestIndependentWatchdogsKeepIndependentState(t *testing.T) {
	proberA := &countingProber{}
	proberB := &scriptedProber{outcomes: []probeOutcome{failedProbe}}

	wdA := newTestSpec(true, time.Hour, proberA).Start(context.Background())
	defer wdA.Terminate()
	wdB := newTestSpec(true, time.Hour, proberB).Start(context.Background())
	defer wdB.Terminate()

	require.Eventually(
		t,
		func() bool { return wdA.State().Known && wdB.State().Known },
		time.Second,
		5*time.Millisecond,
	)

	assert.True(t, wdA.State().Healthy)
	assert.False(t, wdB.State().Healthy)
	assert.Equal(t, uint32(0), wdA.State().ConsecutiveFailures)
	assert.Equal(t, uint32(1), wdB.State().ConsecutiveFailures)
}
