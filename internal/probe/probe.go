// Package probe determines the health of the monitored gateway process by
// running its own health-check CLI. Several equivalent CLI backends are
// tried in a fixed priority order; the first one that yields a parseable
// result wins.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gatehoundlib/go-gatehound/internal/proc"
)

// DefaultTimeout bounds a single backend attempt.
const DefaultTimeout = 10 * time.Second

// Backend is one concrete mechanism for obtaining a health result. Backends
// are value records on purpose; the fallback list is a fixed sequence of
// named strategies, not dynamic dispatch.
type Backend struct {
	// Name identifies this backend in diagnostics and alerts.
	Name string
	// Argv is the full command. It must request machine-readable output.
	Argv []string
}

// GatewayBackends returns the standard backend list for a gateway managed by
// the given control binary. An optional legacy binary is consulted only when
// the primary backend fails to produce a result.
func GatewayBackends(bin, legacyBin string) []Backend {
	backends := []Backend{
		{Name: bin, Argv: []string{bin, "health", "--json"}},
	}
	if legacyBin != "" {
		backends = append(backends, Backend{
			Name: legacyBin,
			Argv: []string{legacyBin, "health", "--json"},
		})
	}
	return backends
}

// Result is the outcome of a successful probe.
type Result struct {
	// Healthy reports what the gateway said about itself.
	Healthy bool
	// Detail is a short human string naming the backend and, when the
	// backend reported one, the probe duration.
	Detail string
	// Duration is how long the winning backend attempt took.
	Duration time.Duration
}

// ProbeError is returned when no backend produced a usable result. The state
// machine treats it as an unhealthy outcome, never as a fault.
type ProbeError struct {
	lastBackend string
	lastErr     error
}

// Error returns an error message
func (err *ProbeError) Error() string {
	return fmt.Sprintf(
		"all health backends failed, last (%s): %s",
		err.lastBackend, err.lastErr,
	)
}

// Unwrap returns the last backend's error
func (err *ProbeError) Unwrap() error {
	return err.lastErr
}

// KVs returns a metadata map for structured logging
func (err *ProbeError) KVs() map[string]interface{} {
	return map[string]interface{}{
		"probe.backend": err.lastBackend,
		"probe.error":   err.lastErr.Error(),
	}
}

// healthPayload is the structured output every backend is expected to emit.
// Ok is a pointer so that an object without the field is rejected as
// unparseable rather than read as "unhealthy".
type healthPayload struct {
	Ok         *bool    `json:"ok"`
	DurationMs *float64 `json:"durationMs"`
}

// Prober executes health probes against the monitored gateway.
type Prober struct {
	backends []Backend
	runner   proc.Runner
	timeout  time.Duration
	log      *logrus.Entry
}

// Opt allows tweaking a Prober at construction time.
type Opt func(*Prober)

// WithTimeout overrides the per-backend attempt timeout.
func WithTimeout(d time.Duration) Opt {
	return func(p *Prober) { p.timeout = d }
}

// WithRunner overrides the command runner (used in tests).
func WithRunner(r proc.Runner) Opt {
	return func(p *Prober) { p.runner = r }
}

// New creates a Prober that tries the given backends in order.
func New(log *logrus.Entry, backends []Backend, opts ...Opt) *Prober {
	p := &Prober{
		backends: backends,
		runner:   proc.OSRunner{},
		timeout:  DefaultTimeout,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs one health probe. A backend attempt fails on timeout, non-zero
// exit or unparseable output; the next backend is then consulted. When every
// backend fails the returned error is a *ProbeError carrying the last
// backend's failure.
func (p *Prober) Probe(ctx context.Context) (Result, error) {
	var lastBackend string
	lastErr := fmt.Errorf("no health backends configured")

	for _, backend := range p.backends {
		lastBackend = backend.Name

		out, runErr := p.runner.Run(ctx, p.timeout, backend.Argv...)
		if runErr != nil {
			p.log.WithField("backend", backend.Name).
				Warnf("health backend failed: %s", runErr)
			lastErr = runErr
			continue
		}

		raw, extractErr := ExtractJSONObject(out.Combined())
		if extractErr != nil {
			p.log.WithField("backend", backend.Name).
				Warnf("health backend output not parseable: %s", extractErr)
			lastErr = extractErr
			continue
		}

		var payload healthPayload
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr != nil || payload.Ok == nil {
			lastErr = fmt.Errorf("health output has no usable ok field")
			continue
		}

		return Result{
			Healthy:  *payload.Ok,
			Detail:   describeAttempt(backend, payload),
			Duration: out.Duration,
		}, nil
	}

	return Result{}, &ProbeError{lastBackend: lastBackend, lastErr: lastErr}
}

// describeAttempt builds the human summary for a winning backend attempt.
func describeAttempt(backend Backend, payload healthPayload) string {
	if payload.DurationMs != nil {
		return fmt.Sprintf("%s (%.0fms)", backend.Name, *payload.DurationMs)
	}
	return backend.Name
}
