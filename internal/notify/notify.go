// Package notify delivers watchdog status lines to operators. Delivery is
// best-effort on purpose: a notifier must never be the reason the polling
// loop stops, so every unsupported or missing destination degrades to local
// logging and every transport failure is reported as a value the caller can
// swallow.
package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ChannelRocketChat is the only external channel supported by this version.
const ChannelRocketChat = "rocketchat"

// AlertError is returned when delivery over the external channel failed.
type AlertError struct {
	channel string
	reason  error
}

// Error returns an error message
func (err *AlertError) Error() string {
	return fmt.Sprintf("alert delivery over %s failed: %s", err.channel, err.reason)
}

// Unwrap returns the underlying delivery failure
func (err *AlertError) Unwrap() error {
	return err.reason
}

// KVs returns a metadata map for structured logging
func (err *AlertError) KVs() map[string]interface{} {
	return map[string]interface{}{
		"alert.channel": err.channel,
		"alert.error":   err.reason.Error(),
	}
}

// Sink sends a human-readable status line to wherever the operator
// configured alerts to go.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Notifier routes alert text to the configured destination. With an empty
// destination, an unsupported channel, or missing account credentials it
// logs locally and reports success.
type Notifier struct {
	channel string
	to      string
	poster  *RocketChatClient
	log     *logrus.Entry
}

// NewNotifier builds a Notifier for the given destination. The account may
// be nil, in which case external delivery is disabled and alerts only reach
// the log.
func NewNotifier(
	log *logrus.Entry,
	channel, to string,
	account *Account,
) *Notifier {
	n := &Notifier{channel: channel, to: to, log: log}
	if account != nil {
		n.poster = NewRocketChatClient(*account)
	}
	return n
}

// Send delivers the given text. Every alert is logged regardless of the
// delivery outcome, so operators without a channel still see the full
// history.
func (n *Notifier) Send(ctx context.Context, text string) error {
	n.log.WithField("to", n.to).Info(text)

	if n.to == "" {
		return nil
	}

	if n.channel != ChannelRocketChat {
		n.log.Warnf("alert channel %q is not supported, logging only", n.channel)
		return nil
	}

	if n.poster == nil {
		n.log.Warn("rocketchat account is not configured, logging only")
		return nil
	}

	if postErr := n.poster.PostMessage(ctx, n.to, text); postErr != nil {
		return &AlertError{channel: n.channel, reason: postErr}
	}
	return nil
}
