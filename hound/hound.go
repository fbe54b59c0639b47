package hound

import (
	"github.com/sirupsen/logrus"

	"github.com/gatehoundlib/go-gatehound/internal/config"
	"github.com/gatehoundlib/go-gatehound/internal/notify"
	"github.com/gatehoundlib/go-gatehound/internal/probe"
	"github.com/gatehoundlib/go-gatehound/internal/recovery"
	"github.com/gatehoundlib/go-gatehound/internal/watchdog"
)

// Event is a record emitted by the watchdog on every state change of
// interest
type Event = watchdog.Event

// EventTag specifies the type of Event that gets notified from the watchdog
type EventTag = watchdog.EventTag

// WatchdogStarted is an Event that indicates the polling loop was armed
var WatchdogStarted = watchdog.WatchdogStarted

// WatchdogStopped is an Event that indicates the polling loop shut down
var WatchdogStopped = watchdog.WatchdogStopped

// ProbeSucceeded is an Event that indicates a probe found the target healthy
var ProbeSucceeded = watchdog.ProbeSucceeded

// ProbeFailed is an Event that indicates a probe found the target unhealthy
var ProbeFailed = watchdog.ProbeFailed

// AlertDelivered is an Event that indicates an alert reached its sink
var AlertDelivered = watchdog.AlertDelivered

// AlertFailed is an Event that indicates alert delivery failed
var AlertFailed = watchdog.AlertFailed

// RecoveryAttempted is an Event that indicates a recovery action was
// triggered
var RecoveryAttempted = watchdog.RecoveryAttempted

// RecoveryFailed is an Event that indicates a recovery action reported an
// error
var RecoveryFailed = watchdog.RecoveryFailed

// EventNotifier is a function used for reporting events from the watchdog
type EventNotifier = watchdog.EventNotifier

// Policy holds the failure-handling settings of a monitored target
type Policy = watchdog.Policy

// Spec is the template for a runtime watchdog
type Spec = watchdog.Spec

// Watchdog is the owned timer resource returned by Spec.Start
type Watchdog = watchdog.Watchdog

// StateSnapshot is a read-only copy of the per-target watchdog state
type StateSnapshot = watchdog.StateSnapshot

// MachineOpt allows tweaking the watchdog state machine at construction
// time
type MachineOpt = watchdog.MachineOpt

// WithNotifier sets the event notifier that receives watchdog events
var WithNotifier = watchdog.WithNotifier

// NewSpec describes a watchdog for one target; see the watchdog package for
// details
var NewSpec = watchdog.NewSpec

// HealthMonitor assesses target health from watchdog events
type HealthMonitor = watchdog.HealthMonitor

// NewHealthMonitor offers a way to monitor target health from events
// emitted by watchdogs
var NewHealthMonitor = watchdog.NewHealthMonitor

// HealthReport contains a report for the HealthMonitor
type HealthReport = watchdog.HealthReport

// Config is the root of the gatehound configuration file
type Config = config.Config

// LoadConfig reads and validates the configuration file at the given path
var LoadConfig = config.Load

// ParseConfig decodes raw YAML on top of the defaults and validates the
// result
var ParseConfig = config.Parse

// DefaultConfig returns the configuration defaults
var DefaultConfig = config.Default

// New assembles a watchdog Spec from a validated Config: a prober over the
// gateway's health backends, a Rocket.Chat alert sink (degrading to
// log-only when no destination or account is configured), and the
// gateway-restart executor.
func New(log *logrus.Entry, cfg Config, opts ...MachineOpt) Spec {
	prober := probe.New(
		log,
		probe.GatewayBackends(cfg.Gateway.Bin, cfg.Gateway.LegacyBin),
	)

	var account *notify.Account
	if acct, ok := cfg.RocketChatAccount(); ok {
		account = &acct
	}
	alerts := notify.NewNotifier(
		log,
		cfg.Watchdog.Alert.Channel,
		cfg.Watchdog.Alert.To,
		account,
	)

	recoverer := recovery.New(log, cfg.Gateway.Bin)

	return NewSpec(
		log,
		cfg.Gateway.Bin,
		cfg.Watchdog.Enabled,
		cfg.Watchdog.Interval(),
		Policy{
			FailureThreshold: uint32(cfg.Watchdog.FailureThreshold),
			Cooldown:         cfg.Watchdog.Cooldown(),
			RecoverEnabled:   cfg.Watchdog.Recover.Enabled,
			RecoverAction:    cfg.Watchdog.Recover.Action,
		},
		prober,
		alerts,
		recoverer,
		opts...,
	)
}
