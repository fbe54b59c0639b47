// Package config loads and validates the gatehound configuration file. The
// core packages receive already-validated values; every shape check and
// default lives here, at the boundary.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gatehoundlib/go-gatehound/internal/notify"
	"github.com/gatehoundlib/go-gatehound/internal/recovery"
)

// AlertConfig names the destination of watchdog alerts. An empty To means
// alerts only reach the local log.
type AlertConfig struct {
	Channel string `yaml:"channel"`
	To      string `yaml:"to"`
}

// RecoverConfig gates the recovery action.
type RecoverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Action  string `yaml:"action"`
}

// WatchdogConfig is the failure-handling policy of the watchdog.
type WatchdogConfig struct {
	Enabled          bool          `yaml:"enabled"`
	IntervalSec      int           `yaml:"interval_sec"`
	FailureThreshold int           `yaml:"failure_threshold"`
	CooldownSec      int           `yaml:"cooldown_sec"`
	Alert            AlertConfig   `yaml:"alert"`
	Recover          RecoverConfig `yaml:"recover"`
}

// Interval returns the polling period.
func (wc WatchdogConfig) Interval() time.Duration {
	return time.Duration(wc.IntervalSec) * time.Second
}

// Cooldown returns the minimum spacing between recovery attempts.
func (wc WatchdogConfig) Cooldown() time.Duration {
	return time.Duration(wc.CooldownSec) * time.Second
}

// GatewayConfig identifies the monitored gateway process.
type GatewayConfig struct {
	// Bin is the gateway control binary used for health checks and restart.
	Bin string `yaml:"bin"`
	// LegacyBin, when set, is consulted as a fallback health backend.
	LegacyBin string `yaml:"legacy_bin"`
}

// RocketChatConfig carries the channel credentials in either of the two
// supported shapes: a flat account record, or named accounts with a
// "default" entry. The flat record wins when both are present and valid.
type RocketChatConfig struct {
	notify.Account `yaml:",inline"`
	Accounts       map[string]notify.Account `yaml:"accounts"`
}

// ChannelsConfig groups channel credentials by channel name.
type ChannelsConfig struct {
	RocketChat RocketChatConfig `yaml:"rocketchat"`
}

// Config is the root of the gatehound configuration file.
type Config struct {
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Channels ChannelsConfig `yaml:"channels"`
}

// RocketChatAccount resolves the account used for alert delivery. The
// second return value is false when no valid account is configured, in
// which case alerts degrade to local logging.
func (cfg *Config) RocketChatAccount() (notify.Account, bool) {
	return notify.ResolveAccount(
		cfg.Channels.RocketChat.Account,
		cfg.Channels.RocketChat.Accounts,
	)
}

// Default returns the configuration used when a field is absent from the
// file. The watchdog and recovery are opt-in.
func Default() Config {
	return Config{
		Watchdog: WatchdogConfig{
			Enabled:          false,
			IntervalSec:      60,
			FailureThreshold: 3,
			CooldownSec:      600,
			Alert: AlertConfig{
				Channel: notify.ChannelRocketChat,
			},
			Recover: RecoverConfig{
				Enabled: false,
				Action:  recovery.ActionGatewayRestart,
			},
		},
		Gateway: GatewayConfig{
			Bin: "gatewayctl",
		},
	}
}

// Parse decodes raw YAML on top of the defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(raw, &cfg); unmarshalErr != nil {
		return Config{}, fmt.Errorf("could not parse config: %w", unmarshalErr)
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return Config{}, validateErr
	}
	return cfg, nil
}

// Load reads and parses the configuration file at the given path.
func Load(path string) (Config, error) {
	raw, readErr := ioutil.ReadFile(path)
	if readErr != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", readErr)
	}
	return Parse(raw)
}

// Validate enforces the documented bounds on the watchdog policy. Channel
// names are deliberately not validated: an unsupported channel degrades to
// log-only alerting at runtime instead of failing the whole process.
func (cfg *Config) Validate() error {
	wc := cfg.Watchdog
	if wc.IntervalSec < 10 {
		return fmt.Errorf(
			"watchdog.interval_sec must be at least 10, got %d", wc.IntervalSec,
		)
	}
	if wc.FailureThreshold < 1 {
		return fmt.Errorf(
			"watchdog.failure_threshold must be at least 1, got %d",
			wc.FailureThreshold,
		)
	}
	if wc.CooldownSec < 0 {
		return fmt.Errorf(
			"watchdog.cooldown_sec must not be negative, got %d", wc.CooldownSec,
		)
	}
	if wc.Recover.Action != recovery.ActionGatewayRestart {
		return fmt.Errorf(
			"watchdog.recover.action %q is not supported", wc.Recover.Action,
		)
	}
	if cfg.Gateway.Bin == "" {
		return fmt.Errorf("gateway.bin must not be empty")
	}
	return nil
}
