package watchdog

import (
	"sync"
	"time"
)

// HealthReport contains a report for the HealthMonitor
type HealthReport struct {
	failedTargets  []string
	stalledTargets []string
}

// GetFailedTargets returns the targets whose last probe was unhealthy
func (hr HealthReport) GetFailedTargets() []string {
	return hr.failedTargets
}

// GetStalledTargets returns the targets that have been unhealthy for longer
// than the allowed outage duration
func (hr HealthReport) GetStalledTargets() []string {
	return hr.stalledTargets
}

// IsHealthyReport returns true when no target is failing
func (hr HealthReport) IsHealthyReport() bool {
	return len(hr.failedTargets) == 0 && len(hr.stalledTargets) == 0
}

// HealthMonitor listens to the events of one or more watchdogs and assesses
// whether the monitored targets are healthy. Wire its HandleEvent method as
// (part of) the EventNotifier of a watchdog Spec.
type HealthMonitor struct {
	maxAllowedOutage time.Duration

	mux       sync.Mutex
	failedEvs map[string]Event
}

// NewHealthMonitor offers a way to monitor target health from events
// emitted by watchdogs. The given duration is the amount of time after
// which an ongoing outage is reported as stalled.
func NewHealthMonitor(maxAllowedOutage time.Duration) *HealthMonitor {
	return &HealthMonitor{
		maxAllowedOutage: maxAllowedOutage,
		failedEvs:        make(map[string]Event),
	}
}

// HandleEvent is a function that receives watchdog events and tracks which
// targets are currently failing
func (h *HealthMonitor) HandleEvent(ev Event) {
	h.mux.Lock()
	defer h.mux.Unlock()

	switch ev.GetTag() {
	case ProbeFailed:
		// keep the first failure of the current outage so stall detection
		// measures the whole outage, not the latest tick
		if _, ok := h.failedEvs[ev.GetTarget()]; !ok {
			h.failedEvs[ev.GetTarget()] = ev
		}
	case ProbeSucceeded, WatchdogStopped:
		delete(h.failedEvs, ev.GetTarget())
	}
}

// GetHealthReport returns which targets are failing and which of those have
// been failing for too long. Returns an empty report if everything is ok.
func (h *HealthMonitor) GetHealthReport() HealthReport {
	h.mux.Lock()
	defer h.mux.Unlock()

	if len(h.failedEvs) == 0 {
		return HealthReport{}
	}

	hr := HealthReport{
		failedTargets:  make([]string, 0, len(h.failedEvs)),
		stalledTargets: make([]string, 0, len(h.failedEvs)),
	}

	currentTime := time.Now()
	for target, ev := range h.failedEvs {
		hr.failedTargets = append(hr.failedTargets, target)

		if currentTime.Sub(ev.GetCreated()) <= h.maxAllowedOutage {
			continue
		}
		hr.stalledTargets = append(hr.stalledTargets, target)
	}
	return hr
}

// IsHealthy returns true when no monitored target is failing at the moment
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetHealthReport().IsHealthyReport()
}
