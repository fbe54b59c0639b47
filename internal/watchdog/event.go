package watchdog

import (
	"fmt"
	"strings"
	"time"
)

// EventTag specifies the type of Event that gets notified from the watchdog
type EventTag uint32

const (
	// ignore zero value of iota
	_ EventTag = iota
	// WatchdogStarted is an Event that indicates the polling loop was armed
	WatchdogStarted
	// WatchdogStopped is an Event that indicates the polling loop shut down
	WatchdogStopped
	// ProbeSucceeded is an Event that indicates a probe found the target healthy
	ProbeSucceeded
	// ProbeFailed is an Event that indicates a probe found the target
	// unhealthy, or that no probe backend produced a usable result
	ProbeFailed
	// AlertDelivered is an Event that indicates an alert reached its sink
	AlertDelivered
	// AlertFailed is an Event that indicates alert delivery failed and the
	// failure was swallowed
	AlertFailed
	// RecoveryAttempted is an Event that indicates a recovery action was
	// triggered for the target
	RecoveryAttempted
	// RecoveryFailed is an Event that indicates a recovery action reported
	// an error
	RecoveryFailed
)

// String returns a string representation of the current EventTag
func (tag EventTag) String() string {
	switch tag {
	case WatchdogStarted:
		return "WatchdogStarted"
	case WatchdogStopped:
		return "WatchdogStopped"
	case ProbeSucceeded:
		return "ProbeSucceeded"
	case ProbeFailed:
		return "ProbeFailed"
	case AlertDelivered:
		return "AlertDelivered"
	case AlertFailed:
		return "AlertFailed"
	case RecoveryAttempted:
		return "RecoveryAttempted"
	case RecoveryFailed:
		return "RecoveryFailed"
	default:
		return "<Unknown>"
	}
}

// Event is a record emitted by the watchdog on every state change of
// interest. Events feed the health monitor, metrics, and structured logging.
type Event struct {
	tag      EventTag
	target   string
	detail   string
	failures uint32
	err      error
	created  time.Time
	duration time.Duration
}

// GetTag returns the EventTag from an Event
func (e Event) GetTag() EventTag {
	return e.tag
}

// GetTarget returns the name of the monitored target that emitted this event
func (e Event) GetTarget() string {
	return e.target
}

// GetDetail returns the human summary attached to this event
func (e Event) GetDetail() string {
	return e.detail
}

// GetFailures returns the consecutive failure count at the time of the event
func (e Event) GetFailures() uint32 {
	return e.failures
}

// Err returns an error carried by this event, if any
func (e Event) Err() error {
	return e.err
}

// GetCreated returns a timestamp of the creation of the event
func (e Event) GetCreated() time.Time {
	return e.created
}

// GetDuration returns the duration of the operation behind this event, when
// the operation had one (probe executions)
func (e Event) GetDuration() time.Duration {
	return e.duration
}

// String returns a string representation for the Event
func (e Event) String() string {
	var buffer strings.Builder
	buffer.WriteString("Event{")
	buffer.WriteString(fmt.Sprintf("tag: %s", e.tag))
	buffer.WriteString(fmt.Sprintf(", target: %s", e.target))
	buffer.WriteString(fmt.Sprintf(", failures: %d", e.failures))
	if e.detail != "" {
		buffer.WriteString(fmt.Sprintf(", detail: %s", e.detail))
	}
	if e.err != nil {
		buffer.WriteString(fmt.Sprintf(", err: %+v", e.err))
	}
	buffer.WriteString("}")
	return buffer.String()
}

// EventNotifier is a function used for reporting events from the watchdog.
type EventNotifier func(Event)

// emptyEventNotifier is an utility function that works as a default value
// whenever an EventNotifier is not specified on the watchdog Spec
func emptyEventNotifier(_ Event) {}

func (en EventNotifier) probeSucceeded(target, detail string, dur time.Duration) {
	en(Event{
		tag:      ProbeSucceeded,
		target:   target,
		detail:   detail,
		created:  time.Now(),
		duration: dur,
	})
}

func (en EventNotifier) probeFailed(
	target, detail string,
	failures uint32,
	err error,
	dur time.Duration,
) {
	en(Event{
		tag:      ProbeFailed,
		target:   target,
		detail:   detail,
		failures: failures,
		err:      err,
		created:  time.Now(),
		duration: dur,
	})
}

func (en EventNotifier) alertDelivered(target, detail string) {
	en(Event{
		tag:     AlertDelivered,
		target:  target,
		detail:  detail,
		created: time.Now(),
	})
}

func (en EventNotifier) alertFailed(target, detail string, err error) {
	en(Event{
		tag:     AlertFailed,
		target:  target,
		detail:  detail,
		err:     err,
		created: time.Now(),
	})
}

func (en EventNotifier) recoveryAttempted(target, action string, failures uint32) {
	en(Event{
		tag:      RecoveryAttempted,
		target:   target,
		detail:   action,
		failures: failures,
		created:  time.Now(),
	})
}

func (en EventNotifier) recoveryFailed(target, action string, failures uint32, err error) {
	en(Event{
		tag:      RecoveryFailed,
		target:   target,
		detail:   action,
		failures: failures,
		err:      err,
		created:  time.Now(),
	})
}

func (en EventNotifier) watchdogStarted(target string) {
	en(Event{tag: WatchdogStarted, target: target, created: time.Now()})
}

func (en EventNotifier) watchdogStopped(target string) {
	en(Event{tag: WatchdogStopped, target: target, created: time.Now()})
}
